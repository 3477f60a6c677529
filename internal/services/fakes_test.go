package services

import (
	"context"
	"math/big"
	"sync"
	"time"

	"did-backend/internal/models"
	"did-backend/internal/repository"

	"gorm.io/gorm"
)

// In-memory repository fakes. WithTx returns the fake itself: tests run
// the controller's txRunner as a pass-through, so there is no transaction
// to rebind onto.

type fakeRegistryRepo struct {
	mu       sync.Mutex
	owners   map[string]string
	creators map[string]string
}

func newFakeRegistryRepo() *fakeRegistryRepo {
	return &fakeRegistryRepo{owners: map[string]string{}, creators: map[string]string{}}
}

func (f *fakeRegistryRepo) WithTx(tx *gorm.DB) repository.RegistryRepository { return f }

func (f *fakeRegistryRepo) GetEntry(ctx context.Context, tokenID string) (*models.RegistryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owner, ok := f.owners[tokenID]
	if !ok {
		return nil, nil
	}
	return &models.RegistryEntry{TokenID: tokenID, Owner: owner}, nil
}

func (f *fakeRegistryRepo) UpsertOwner(ctx context.Context, tokenID, owner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owners[tokenID] = owner
	return nil
}

func (f *fakeRegistryRepo) GetSubRootCreator(ctx context.Context, rootName string) (*models.SubRootCreator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	creator, ok := f.creators[rootName]
	if !ok {
		return nil, nil
	}
	return &models.SubRootCreator{RootName: rootName, CreatorID: creator}, nil
}

func (f *fakeRegistryRepo) SetSubRootCreator(ctx context.Context, rootName, creatorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creators[rootName] = creatorID
	return nil
}

type roleKey struct {
	address string
	role    models.ControllerRole
}

type fakeControllerRepo struct {
	mu    sync.Mutex
	roles map[roleKey]bool
}

func newFakeControllerRepo() *fakeControllerRepo {
	return &fakeControllerRepo{roles: map[roleKey]bool{}}
}

func (f *fakeControllerRepo) WithTx(tx *gorm.DB) repository.ControllerRepository { return f }

func (f *fakeControllerRepo) HasRole(ctx context.Context, address string, role models.ControllerRole) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.roles[roleKey{address, role}], nil
}

func (f *fakeControllerRepo) Grant(ctx context.Context, address string, role models.ControllerRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[roleKey{address, role}] = true
	return nil
}

func (f *fakeControllerRepo) Revoke(ctx context.Context, address string, role models.ControllerRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles, roleKey{address, role})
	return nil
}

func (f *fakeControllerRepo) ListByRole(ctx context.Context, role models.ControllerRole) ([]*models.Controller, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Controller
	for key := range f.roles {
		if key.role == role {
			out = append(out, &models.Controller{Address: key.address, Role: key.role})
		}
	}
	return out, nil
}

type fakeNameRepo struct {
	mu        sync.Mutex
	records   map[string]*models.NameRecord
	protected map[string]bool
}

func newFakeNameRepo() *fakeNameRepo {
	return &fakeNameRepo{records: map[string]*models.NameRecord{}, protected: map[string]bool{}}
}

func (f *fakeNameRepo) WithTx(tx *gorm.DB) repository.NameRepository { return f }

func (f *fakeNameRepo) GetByTokenID(ctx context.Context, tokenID string) (*models.NameRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[tokenID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeNameRepo) Upsert(ctx context.Context, record *models.NameRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[record.TokenID] = &copied
	return nil
}

func (f *fakeNameRepo) SetExpiry(ctx context.Context, tokenID string, expiresAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if record, ok := f.records[tokenID]; ok {
		record.ExpiresAt = expiresAt
	}
	return nil
}

func (f *fakeNameRepo) IsProtected(ctx context.Context, rootName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.protected[rootName], nil
}

func (f *fakeNameRepo) SetProtected(ctx context.Context, rootName string, protected bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.protected[rootName] = protected
	return nil
}

type fakeCommitmentRepo struct {
	mu          sync.Mutex
	commitments map[string]*models.Commitment
}

func newFakeCommitmentRepo() *fakeCommitmentRepo {
	return &fakeCommitmentRepo{commitments: map[string]*models.Commitment{}}
}

func (f *fakeCommitmentRepo) WithTx(tx *gorm.DB) repository.CommitmentRepository { return f }

func (f *fakeCommitmentRepo) GetByHash(ctx context.Context, hash string) (*models.Commitment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	commitment, ok := f.commitments[hash]
	if !ok {
		return nil, nil
	}
	copied := *commitment
	return &copied, nil
}

func (f *fakeCommitmentRepo) Record(ctx context.Context, hash string, submittedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commitments[hash] = &models.Commitment{
		Hash:        hash,
		SubmittedAt: submittedAt,
		Status:      models.CommitmentStatusPending,
	}
	return nil
}

func (f *fakeCommitmentRepo) Consume(ctx context.Context, hash string, consumedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if commitment, ok := f.commitments[hash]; ok {
		commitment.Status = models.CommitmentStatusConsumed
		commitment.ConsumedAt = &consumedAt
	}
	return nil
}

type fakeReferralRepo struct {
	mu       sync.Mutex
	records  map[string]*models.ReferralRecord
	balances map[string]*models.ReferralBalance
}

func newFakeReferralRepo() *fakeReferralRepo {
	return &fakeReferralRepo{
		records:  map[string]*models.ReferralRecord{},
		balances: map[string]*models.ReferralBalance{},
	}
}

func (f *fakeReferralRepo) WithTx(tx *gorm.DB) repository.ReferralRepository { return f }

func (f *fakeReferralRepo) GetRecord(ctx context.Context, tokenID string) (*models.ReferralRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[tokenID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeReferralRepo) SaveRecord(ctx context.Context, record *models.ReferralRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	if copied.ID == "" {
		copied.ID = copied.TokenID
	}
	f.records[record.TokenID] = &copied
	return nil
}

func (f *fakeReferralRepo) GetBalance(ctx context.Context, address string) (*models.ReferralBalance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	balance, ok := f.balances[address]
	if !ok {
		return nil, nil
	}
	copied := *balance
	return &copied, nil
}

func (f *fakeReferralRepo) SaveBalance(ctx context.Context, balance *models.ReferralBalance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *balance
	if copied.ID == "" {
		copied.ID = copied.Address
	}
	f.balances[balance.Address] = &copied
	return nil
}

type fakeNonceRepo struct {
	mu     sync.Mutex
	nonces map[string]bool
}

func newFakeNonceRepo() *fakeNonceRepo {
	return &fakeNonceRepo{nonces: map[string]bool{}}
}

func (f *fakeNonceRepo) WithTx(tx *gorm.DB) repository.NonceRepository { return f }

func (f *fakeNonceRepo) IsUsed(ctx context.Context, nonce string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonces[nonce], nil
}

func (f *fakeNonceRepo) MarkUsed(ctx context.Context, nonce, userAddress string, usedAt int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nonces[nonce] {
		return repository.ErrNonceExists
	}
	f.nonces[nonce] = true
	return nil
}

type fakeResolverRepo struct {
	mu      sync.Mutex
	records map[string]*models.ResolverRecord
}

func newFakeResolverRepo() *fakeResolverRepo {
	return &fakeResolverRepo{records: map[string]*models.ResolverRecord{}}
}

func (f *fakeResolverRepo) WithTx(tx *gorm.DB) repository.ResolverRepository { return f }

func (f *fakeResolverRepo) Get(ctx context.Context, tokenID string) (*models.ResolverRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record, ok := f.records[tokenID]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeResolverRepo) Save(ctx context.Context, record *models.ResolverRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	if copied.ID == "" {
		copied.ID = copied.TokenID
	}
	f.records[record.TokenID] = &copied
	return nil
}

type fakeSettingsRepo struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{values: map[string]string{}}
}

func (f *fakeSettingsRepo) WithTx(tx *gorm.DB) repository.SettingsRepository { return f }

func (f *fakeSettingsRepo) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeSettingsRepo) Set(ctx context.Context, key, value, updatedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

// fixedRateFeed pins the oracle conversion rate for tests.
type fixedRateFeed struct {
	rate *big.Int
	err  error
}

func (f *fixedRateFeed) LatestRate(ctx context.Context) (*big.Int, time.Time, error) {
	if f.err != nil {
		return nil, time.Time{}, f.err
	}
	return new(big.Int).Set(f.rate), time.Now(), nil
}
