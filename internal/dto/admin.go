package dto

// ControllerRequest grants or revokes a controller role.
type ControllerRequest struct {
	Address string `json:"address" binding:"required"`
	Role    string `json:"role" binding:"required"` // owner_controller, creator_controller, registrar_controller, referral_controller
}

// ProtectedDomainRequest closes or reopens a root label.
type ProtectedDomainRequest struct {
	RootName  string `json:"root_name" binding:"required"`
	Protected *bool  `json:"protected" binding:"required"`
}

// SubRootCreatorRequest delegates a root namespace.
type SubRootCreatorRequest struct {
	RootName  string `json:"root_name" binding:"required"`
	CreatorID string `json:"creator_id" binding:"required"`
}

// AddressRequest carries a single address (sign checker, default resolver).
type AddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// PartnerCommissionRequest installs a per-name commission override.
type PartnerCommissionRequest struct {
	TokenID string `json:"token_id" binding:"required"`
	Tier    int64  `json:"tier"`
	RateBps int64  `json:"rate_bps"`
	Flag    int64  `json:"flag"`
}
