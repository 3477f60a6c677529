package events

// Registry event payloads, published for indexers and pushed to websocket
// subscribers. Field names are part of the public surface; off-chain
// tooling keys on them.

// Event is implemented by every registry event payload.
type Event interface {
	EventType() string
}

// NameRegistered is emitted once per successful registration.
type NameRegistered struct {
	RootName      string `json:"root_name"`
	SecondaryName string `json:"secondary_name"`
	Owner         string `json:"owner"`
	Expires       int64  `json:"expires"`
	TokenID       string `json:"token_id"`
}

func (NameRegistered) EventType() string { return "name_registered" }

// NameRenewed is emitted once per successful renewal.
type NameRenewed struct {
	TokenID string `json:"token_id"`
	Expires int64  `json:"expires"`
}

func (NameRenewed) EventType() string { return "name_renewed" }

// Transfer is emitted whenever the ownership registry overwrites an owner.
type Transfer struct {
	TokenID string `json:"token_id"`
	Owner   string `json:"owner"`
}

func (Transfer) EventType() string { return "transfer" }

// ControllerAdded is emitted on every role grant, including re-grants of a
// role the address already holds.
type ControllerAdded struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}

func (ControllerAdded) EventType() string { return "controller_added" }

// ControllerRemoved is emitted on role revocation.
type ControllerRemoved struct {
	Address string `json:"address"`
	Role    string `json:"role"`
}

func (ControllerRemoved) EventType() string { return "controller_removed" }

// CommitmentRecorded is emitted when a commitment hash is accepted.
type CommitmentRecorded struct {
	Hash string `json:"hash"`
}

func (CommitmentRecorded) EventType() string { return "commitment_recorded" }

// ReferralAccrued is emitted when a commission is credited.
type ReferralAccrued struct {
	TokenID string `json:"token_id"`
	Payee   string `json:"payee"`
	Amount  string `json:"amount"` // wei, decimal string
}

func (ReferralAccrued) EventType() string { return "referral_accrued" }

// NewSubRootDomainCreator is emitted when a root namespace is delegated.
type NewSubRootDomainCreator struct {
	RootName  string `json:"root_name"`
	CreatorID string `json:"creator_id"`
}

func (NewSubRootDomainCreator) EventType() string { return "new_sub_root_domain_creator" }
