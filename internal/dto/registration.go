package dto

// Request and response shapes for the registration API. Amounts travel as
// decimal strings; wei values overflow JSON numbers.

// CommitRequest submits a pre-computed commitment hash.
type CommitRequest struct {
	Commitment string `json:"commitment" binding:"required"`
}

// MakeCommitmentRequest asks the server to compute a commitment hash. The
// secret never leaves the client in production flows; this endpoint exists
// for integration tooling.
type MakeCommitmentRequest struct {
	RootName       string `json:"root_name" binding:"required"`
	SecondaryName  string `json:"secondary_name" binding:"required"`
	Owner          string `json:"owner" binding:"required"`
	Secret         string `json:"secret" binding:"required"`
	ResolverTarget string `json:"resolver_target"`
}

// RegisterRequest is the reveal-phase registration call.
type RegisterRequest struct {
	RootName        string `json:"root_name" binding:"required"`
	SecondaryName   string `json:"secondary_name" binding:"required"`
	Owner           string `json:"owner" binding:"required"`
	Secret          string `json:"secret" binding:"required"`
	Duration        int64  `json:"duration" binding:"required"`
	Payment         string `json:"payment" binding:"required"` // wei, decimal string
	ReferralTokenID string `json:"referral_token_id"`
	ResolverTarget  string `json:"resolver_target"` // register-with-config only
}

// RenewRequest extends an existing registration.
type RenewRequest struct {
	RootName      string `json:"root_name" binding:"required"`
	SecondaryName string `json:"secondary_name" binding:"required"`
	Duration      int64  `json:"duration" binding:"required"`
	Payment       string `json:"payment" binding:"required"` // wei, decimal string
}

// VoucherPayload mirrors services.WhitelistVoucher on the wire.
type VoucherPayload struct {
	UserAddress         string `json:"user_address" binding:"required"`
	RootName            string `json:"root_name" binding:"required"`
	SecondaryNameLength int64  `json:"secondary_name_length" binding:"required"`
	Nonce               string `json:"nonce" binding:"required"`
	Duration            int64  `json:"duration" binding:"required"`
	Signature           string `json:"signature" binding:"required"`
}

// WhitelistRegisterRequest registers a name for free against a voucher.
type WhitelistRegisterRequest struct {
	Voucher         VoucherPayload `json:"voucher" binding:"required"`
	SecondaryName   string         `json:"secondary_name" binding:"required"`
	ReferralTokenID string         `json:"referral_token_id"`
}

// RegistrationResponse reports a completed registration.
type RegistrationResponse struct {
	TokenID     string `json:"token_id"`
	Expires     int64  `json:"expires"`
	Base        string `json:"base"`
	Premium     string `json:"premium"`
	ReferralFee string `json:"referral_fee"`
	Refund      string `json:"refund"`
}

// RenewalResponse reports a completed renewal.
type RenewalResponse struct {
	TokenID string `json:"token_id"`
	Expires int64  `json:"expires"`
	Cost    string `json:"cost"`
	Refund  string `json:"refund"`
}

// PriceResponse is a live rent quote.
type PriceResponse struct {
	Base    string `json:"base"`
	Premium string `json:"premium"`
	Total   string `json:"total"`
}

// NameResponse is the public view of one name.
type NameResponse struct {
	TokenID       string `json:"token_id"`
	RootName      string `json:"root_name"`
	SecondaryName string `json:"secondary_name"`
	Owner         string `json:"owner,omitempty"`
	Expires       int64  `json:"expires,omitempty"`
	Available     bool   `json:"available"`
	Expired       bool   `json:"expired,omitempty"`
}

// SetResolverAddrRequest points a name at an address.
type SetResolverAddrRequest struct {
	Caller  string `json:"caller" binding:"required"`
	TokenID string `json:"token_id" binding:"required"`
	Addr    string `json:"addr" binding:"required"`
}

// SetCommissionAcceptRequest redirects a name's referral payouts.
type SetCommissionAcceptRequest struct {
	Caller  string `json:"caller" binding:"required"`
	TokenID string `json:"token_id" binding:"required"`
	Addr    string `json:"addr" binding:"required"`
}
