package validation

import (
	"fmt"
	"strings"

	"github.com/fidus/MT5-Allocation-Backend/internal/api/request"
)

// ValidBrokers contains the supported broker codes.
var ValidBrokers = map[string]bool{
	"multibank": true, "dootechnology": true,
}

// ValidAccountTypes contains the allowed pool account types.
var ValidAccountTypes = map[string]bool{
	"investment": true, "interest_separation": true, "gains_separation": true,
}

// ValidFundCodes contains the fund buckets an investment can belong to.
var ValidFundCodes = map[string]bool{
	"CORE": true, "BALANCE": true, "DYNAMIC": true, "UNLIMITED": true,
}

// ValidateAddPoolAccount validates a request to add an account to the pool.
//
// Required fields:
//   - accountNumber: positive MT5 login
//   - broker: one of the supported broker codes
//   - accountType: investment, interest_separation or gains_separation
func ValidateAddPoolAccount(req request.AddPoolAccountRequest) error {
	errors := make(map[string]string)

	if req.AccountNumber <= 0 {
		errors["accountNumber"] = "accountNumber must be a positive integer"
	}

	if strings.TrimSpace(req.Broker) == "" {
		errors["broker"] = "broker is required"
	} else if !ValidBrokers[req.Broker] {
		errors["broker"] = fmt.Sprintf("invalid broker: %s", req.Broker)
	}

	if strings.TrimSpace(req.AccountType) == "" {
		errors["accountType"] = "accountType is required"
	} else if !ValidAccountTypes[req.AccountType] {
		errors["accountType"] = fmt.Sprintf("invalid accountType: %s", req.AccountType)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateAllocateAccount validates an allocation request.
// The notes minimum length mirrors the deallocation reason guard.
func ValidateAllocateAccount(req request.AllocateAccountRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.ClientID); err != nil {
		errors["clientId"] = err.Error()
	}
	if err := ValidateUUID(req.InvestmentID); err != nil {
		errors["investmentId"] = err.Error()
	}
	if req.Amount < 0 {
		errors["amount"] = "amount cannot be negative"
	}
	if err := ValidateNotes(req.Notes); err != nil {
		errors["notes"] = err.Error()
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateAvailabilityRequest validates the batch availability check body.
func ValidateAvailabilityRequest(req request.ValidateAvailabilityRequest) error {
	if len(req.AccountNumbers) == 0 {
		return &Error{Fields: map[string]string{
			"accountNumbers": "accountNumbers is required",
		}}
	}
	for _, number := range req.AccountNumbers {
		if number <= 0 {
			return &Error{Fields: map[string]string{
				"accountNumbers": fmt.Sprintf("invalid account number: %d", number),
			}}
		}
	}
	return nil
}

// ValidateRequestDeallocation validates a deallocation request body.
func ValidateRequestDeallocation(req request.RequestDeallocationRequest) error {
	if err := ValidateNotes(req.Reason); err != nil {
		return &Error{Fields: map[string]string{"reason": err.Error()}}
	}
	return nil
}

// ValidateValidateMappings validates the mapping sum-check body.
func ValidateValidateMappings(req request.ValidateMappingsRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.InvestmentID); err != nil {
		errors["investmentId"] = err.Error()
	}
	if req.TotalAmount < 0 {
		errors["totalAmount"] = "totalAmount cannot be negative"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateCreateInvestment validates a just-in-time investment creation request.
// Conflicting allocations are checked later by the orchestrator; this only
// covers shape, enums and account-number sanity.
func ValidateCreateInvestment(req request.CreateInvestmentRequest) error {
	errors := make(map[string]string)

	if err := ValidateUUID(req.ClientID); err != nil {
		errors["clientId"] = err.Error()
	}

	if strings.TrimSpace(req.FundCode) == "" {
		errors["fundCode"] = "fundCode is required"
	} else if !ValidFundCodes[req.FundCode] {
		errors["fundCode"] = fmt.Sprintf("invalid fundCode: %s", req.FundCode)
	}

	if req.PrincipalAmount <= 0 {
		errors["principalAmount"] = "principalAmount must be positive"
	}

	if len(req.Accounts) == 0 {
		errors["accounts"] = "at least one investment account is required"
	}
	for i, acct := range req.Accounts {
		if acct.AccountNumber <= 0 {
			errors[fmt.Sprintf("accounts[%d].accountNumber", i)] = "accountNumber must be a positive integer"
		}
		if acct.Amount < 0 {
			errors[fmt.Sprintf("accounts[%d].amount", i)] = "amount cannot be negative"
		}
		if acct.Broker != "" && !ValidBrokers[acct.Broker] {
			errors[fmt.Sprintf("accounts[%d].broker", i)] = fmt.Sprintf("invalid broker: %s", acct.Broker)
		}
	}

	for name, sep := range map[string]*request.SeparationAccount{
		"interestSeparationAccount": req.InterestSeparationAccount,
		"gainsSeparationAccount":    req.GainsSeparationAccount,
	} {
		if sep == nil {
			continue
		}
		if sep.AccountNumber <= 0 {
			errors[name+".accountNumber"] = "accountNumber must be a positive integer"
		}
		if sep.Broker != "" && !ValidBrokers[sep.Broker] {
			errors[name+".broker"] = fmt.Sprintf("invalid broker: %s", sep.Broker)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
