package request

// AssignManagerRequest is the body for POST /api/roster/assign-to-manager.
type AssignManagerRequest struct {
	AccountNumber int64  `json:"accountNumber"`
	Manager       string `json:"manager"`
}

// AssignFundRequest is the body for POST /api/roster/assign-to-fund.
type AssignFundRequest struct {
	AccountNumber int64  `json:"accountNumber"`
	FundType      string `json:"fundType"`
}

// AssignBrokerRequest is the body for POST /api/roster/assign-to-broker.
type AssignBrokerRequest struct {
	AccountNumber int64  `json:"accountNumber"`
	Broker        string `json:"broker"`
}

// AssignPlatformRequest is the body for POST /api/roster/assign-to-platform.
type AssignPlatformRequest struct {
	AccountNumber int64  `json:"accountNumber"`
	Platform      string `json:"platform"`
}

// RemoveAssignmentRequest is the body for POST /api/roster/remove-assignment.
type RemoveAssignmentRequest struct {
	AccountNumber  int64  `json:"accountNumber"`
	AssignmentType string `json:"assignmentType"`
}
