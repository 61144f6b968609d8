package request

// AddPoolAccountRequest is the body for POST /api/pool/accounts.
// InvestorPassword is the investor-only (read-only) MT5 credential; the full
// trading credential is never accepted.
type AddPoolAccountRequest struct {
	AccountNumber    int64  `json:"accountNumber"`
	Broker           string `json:"broker"`
	AccountType      string `json:"accountType"`
	InvestorPassword string `json:"investorPassword"`
	Server           string `json:"server"`
	Notes            string `json:"notes"`
}

// AllocateAccountRequest is the body for POST /api/pool/accounts/{number}/allocate.
type AllocateAccountRequest struct {
	ClientID     string  `json:"clientId"`
	InvestmentID string  `json:"investmentId"`
	Amount       float64 `json:"amount"`
	Notes        string  `json:"notes"`
}

// ValidateAvailabilityRequest is the body for POST /api/pool/validate-account-availability.
type ValidateAvailabilityRequest struct {
	AccountNumbers []int64 `json:"accountNumbers"`
}

// RequestDeallocationRequest is the body for POST /api/pool/accounts/{number}/request-deallocation.
type RequestDeallocationRequest struct {
	Reason string `json:"reason"`
}

// ResolveDeallocationRequest is the body for approving or rejecting a
// deallocation request.
type ResolveDeallocationRequest struct {
	Notes string `json:"notes"`
}

// ValidateMappingsRequest is the body for POST /api/pool/validate-mappings.
type ValidateMappingsRequest struct {
	InvestmentID string  `json:"investmentId"`
	TotalAmount  float64 `json:"totalAmount"`
}

// InvestmentAccount is one candidate MT5 account carrying principal.
type InvestmentAccount struct {
	AccountNumber    int64   `json:"accountNumber"`
	Amount           float64 `json:"amount"`
	Broker           string  `json:"broker"`
	Server           string  `json:"server"`
	InvestorPassword string  `json:"investorPassword"`
	Notes            string  `json:"notes"`
}

// SeparationAccount is an optional interest- or gains-separation account.
// It tracks flows, not principal, so it carries no amount.
type SeparationAccount struct {
	AccountNumber    int64  `json:"accountNumber"`
	Broker           string `json:"broker"`
	Server           string `json:"server"`
	InvestorPassword string `json:"investorPassword"`
	Notes            string `json:"notes"`
}

// CreateInvestmentRequest is the body for POST /api/pool/create-investment-with-mt5.
type CreateInvestmentRequest struct {
	ClientID                  string              `json:"clientId"`
	FundCode                  string              `json:"fundCode"`
	PrincipalAmount           float64             `json:"principalAmount"`
	Accounts                  []InvestmentAccount `json:"accounts"`
	InterestSeparationAccount *SeparationAccount  `json:"interestSeparationAccount,omitempty"`
	GainsSeparationAccount    *SeparationAccount  `json:"gainsSeparationAccount,omitempty"`
}
