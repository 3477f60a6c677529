package services

import (
	"context"
	"io"
	"math/big"
	"testing"
	"time"

	"did-backend/internal/config"
	"did-backend/internal/events"
	"did-backend/internal/models"
	"did-backend/internal/utils"

	"github.com/sirupsen/logrus"
)

const (
	testControllerAddr = "0x00000000000000000000000000000000000000c1"
	testOwnerAddr      = "0x00000000000000000000000000000000000000aa"
	testOtherAddr      = "0x00000000000000000000000000000000000000bb"
	testSecret         = "0x0000000000000000000000000000000000000000000000000000000000001234"

	testEpoch       = int64(1_700_000_000)
	testGraceSecs   = int64(90 * 86400)
	testMinAge      = int64(60)
	testMaxAge      = int64(86400)
	testDecayWindow = int64(28 * 86400)
	testChainID     = int64(31337)
)

// testEnv wires the full service graph over in-memory fakes with a frozen
// clock and a pinned 1.0 USD/native exchange rate, so attoUSD quotes equal
// wei amounts one for one.
type testEnv struct {
	registryRepo   *fakeRegistryRepo
	controllerRepo *fakeControllerRepo
	nameRepo       *fakeNameRepo
	commitmentRepo *fakeCommitmentRepo
	referralRepo   *fakeReferralRepo
	nonceRepo      *fakeNonceRepo
	resolverRepo   *fakeResolverRepo
	settingsRepo   *fakeSettingsRepo
	feed           *fixedRateFeed

	registry   *RegistryService
	registrar  *RegistrarService
	oracle     *PriceOracleService
	referral   *ReferralService
	resolver   *ResolverService
	controller *RegisterControllerService

	now time.Time
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testRateFeedConfig() config.RateFeedConfig {
	return config.RateFeedConfig{StalenessSeconds: 300}
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		Tier1:               "1000",
		Tier2:               "800",
		Tier3:               "600",
		Tier4:               "400",
		Tier5:               "200",
		PremiumStart:        "100000000000000000000", // $100
		PremiumDecaySeconds: testDecayWindow,
		PremiumCurve:        "linear",
		LaunchTimestamp:     testEpoch,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := quietLogger()
	publisher := events.NewPublisher(nil, "did.registry", log)

	env := &testEnv{
		registryRepo:   newFakeRegistryRepo(),
		controllerRepo: newFakeControllerRepo(),
		nameRepo:       newFakeNameRepo(),
		commitmentRepo: newFakeCommitmentRepo(),
		referralRepo:   newFakeReferralRepo(),
		nonceRepo:      newFakeNonceRepo(),
		resolverRepo:   newFakeResolverRepo(),
		settingsRepo:   newFakeSettingsRepo(),
		feed:           &fixedRateFeed{rate: big.NewInt(100_000_000)}, // 1.0 USD per native
		now:            time.Unix(testEpoch, 0),
	}

	env.registry = NewRegistryService(env.registryRepo, env.controllerRepo, env.settingsRepo, publisher, log)
	env.registrar = NewRegistrarService(env.nameRepo, env.controllerRepo, env.registry, publisher, testGraceSecs, log)

	oracle, err := NewPriceOracleService(testPricingConfig(), testRateFeedConfig(), env.feed, log)
	if err != nil {
		t.Fatalf("NewPriceOracleService: %v", err)
	}
	env.oracle = oracle

	env.referral = NewReferralService(env.referralRepo, env.controllerRepo, publisher, 500, 5000, log)
	env.resolver = NewResolverService(env.resolverRepo, env.controllerRepo, env.registry, log)

	verifier, err := NewVoucherVerifier(testChainID, testControllerAddr)
	if err != nil {
		t.Fatalf("NewVoucherVerifier: %v", err)
	}

	env.controller = NewRegisterControllerService(
		nil,
		env.commitmentRepo, env.nonceRepo, env.settingsRepo,
		env.registrar, env.oracle, env.referral, env.resolver,
		verifier, publisher,
		testControllerAddr, testMinAge, testMaxAge,
		log,
	)

	clock := func() time.Time { return env.now }
	env.registrar.now = clock
	env.oracle.now = clock
	env.controller.now = clock

	// The controller identity holds every operational role, mirroring the
	// grants seeded at migration.
	ctx := context.Background()
	for _, role := range []models.ControllerRole{
		models.RoleOwnerController,
		models.RoleCreatorController,
		models.RoleRegistrarController,
		models.RoleReferralController,
	} {
		if err := env.controllerRepo.Grant(ctx, testControllerAddr, role); err != nil {
			t.Fatalf("grant %s: %v", role, err)
		}
	}

	// Establish the default namespace the way the migration seed does.
	if err := env.registryRepo.SetSubRootCreator(ctx, "did", utils.RootLabelHash("did").Hex()); err != nil {
		t.Fatalf("seed root: %v", err)
	}

	return env
}

// advance moves the frozen clock forward.
func (env *testEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
}
