package models

import (
	"time"
)

// Commitment lifecycle status for the commit-reveal protocol
type CommitmentStatus string

const (
	CommitmentStatusPending  CommitmentStatus = "pending"  // submitted, waiting for reveal
	CommitmentStatusConsumed CommitmentStatus = "consumed" // reveal succeeded, hash can never be replayed
)

// Controller roles. One ACL table, one row per (address, role) grant.
type ControllerRole string

const (
	// may overwrite owners in the ownership registry
	RoleOwnerController ControllerRole = "owner_controller"
	// may record sub-root domain creators in the registry
	RoleCreatorController ControllerRole = "creator_controller"
	// may mint and renew names through the registrar
	RoleRegistrarController ControllerRole = "registrar_controller"
	// may credit commissions in the referral hub
	RoleReferralController ControllerRole = "referral_controller"
)

// RegistryEntry is the authoritative token id -> owner mapping of the
// ownership registry. Owner is overwritten, never deleted.
type RegistryEntry struct {
	ID        string    `json:"id" gorm:"primaryKey"` // UUID
	TokenID   string    `json:"token_id" gorm:"size:66;uniqueIndex;not null"`
	Owner     string    `json:"owner" gorm:"size:42;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NameRecord is the registrar's lifecycle record for a registered name.
// Expiry is logical: rows persist after expiresAt and are overwritten on
// re-registration.
type NameRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"` // UUID
	TokenID       string    `json:"token_id" gorm:"size:66;uniqueIndex;not null"`
	RootName      string    `json:"root_name" gorm:"size:255;not null;index:idx_name_pair"`
	SecondaryName string    `json:"secondary_name" gorm:"size:255;not null;index:idx_name_pair"`
	ExpiresAt     int64     `json:"expires_at" gorm:"not null;index"` // unix seconds
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Commitment is a pending or consumed commit-reveal entry.
type Commitment struct {
	ID          string           `json:"id" gorm:"primaryKey"` // UUID
	Hash        string           `json:"hash" gorm:"size:66;uniqueIndex;not null"`
	SubmittedAt int64            `json:"submitted_at" gorm:"not null"` // unix seconds
	Status      CommitmentStatus `json:"status" gorm:"size:16;not null;default:'pending'"`
	ConsumedAt  *int64           `json:"consumed_at"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Controller is one role grant in the access-control list.
type Controller struct {
	ID        string         `json:"id" gorm:"primaryKey"` // UUID
	Address   string         `json:"address" gorm:"size:42;not null;uniqueIndex:idx_addr_role"`
	Role      ControllerRole `json:"role" gorm:"size:32;not null;uniqueIndex:idx_addr_role"`
	CreatedAt time.Time      `json:"created_at"`
}

// ProtectedDomain marks a root label as closed to public registration.
type ProtectedDomain struct {
	ID        string    `json:"id" gorm:"primaryKey"` // UUID
	RootName  string    `json:"root_name" gorm:"size:255;uniqueIndex;not null"`
	Protected bool      `json:"protected" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubRootCreator records which identifier may create names under a root.
// A root with no row (or a zero creator) is still unclaimed.
type SubRootCreator struct {
	ID        string    `json:"id" gorm:"primaryKey"` // UUID
	RootName  string    `json:"root_name" gorm:"size:255;uniqueIndex;not null"`
	CreatorID string    `json:"creator_id" gorm:"size:66;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReferralRecord is the per-name side of the commission ledger.
type ReferralRecord struct {
	ID            string    `json:"id" gorm:"primaryKey"` // UUID
	TokenID       string    `json:"token_id" gorm:"size:66;uniqueIndex;not null"`
	ReferralCount int64     `json:"referral_count" gorm:"not null;default:0"`
	HasOverride   bool      `json:"has_override" gorm:"not null;default:false"`
	OverrideBps   int64     `json:"override_bps" gorm:"not null;default:0"` // valid only when HasOverride
	OverrideTier  int64     `json:"override_tier" gorm:"not null;default:0"`
	OverrideFlag  int64     `json:"override_flag" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ReferralBalance is the per-referrer accrued, unclaimed payout in wei.
// Stored as a decimal string; wei amounts overflow int64.
type ReferralBalance struct {
	ID        string    `json:"id" gorm:"primaryKey"` // UUID
	Address   string    `json:"address" gorm:"size:42;uniqueIndex;not null"`
	Balance   string    `json:"balance" gorm:"size:80;not null;default:'0'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WhitelistNonce is a consumed voucher nonce. A row existing means the
// nonce can never be used again.
type WhitelistNonce struct {
	ID          string    `json:"id" gorm:"primaryKey"` // UUID
	Nonce       string    `json:"nonce" gorm:"size:66;uniqueIndex;not null"`
	UserAddress string    `json:"user_address" gorm:"size:42;not null"`
	UsedAt      int64     `json:"used_at" gorm:"not null"` // unix seconds
	CreatedAt   time.Time `json:"created_at"`
}

// ResolverRecord is the public resolver's stored state for a name.
type ResolverRecord struct {
	ID                      string    `json:"id" gorm:"primaryKey"` // UUID
	TokenID                 string    `json:"token_id" gorm:"size:66;uniqueIndex;not null"`
	Addr                    string    `json:"addr" gorm:"size:42"`
	CommissionAcceptAddress string    `json:"commission_accept_address" gorm:"size:42"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

// GlobalConfig holds runtime-mutable settings (sign checker address,
// default resolver address) keyed by name.
type GlobalConfig struct {
	ConfigKey   string    `json:"config_key" gorm:"primaryKey;size:64"`
	ConfigValue string    `json:"config_value" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	UpdatedBy   string    `json:"updated_by" gorm:"size:64"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GlobalConfig keys
const (
	ConfigKeySignChecker     = "sign_checker"
	ConfigKeyDefaultResolver = "default_resolver"
)
