package validation

import (
	"fmt"
	"strings"
)

// ValidManagers contains the named strategy managers a roster account can be
// assigned to.
var ValidManagers = map[string]bool{
	"CP Strategy": true, "TradingHub Gold": true, "GoldenTrade": true, "UNO14": true,
}

// ValidFundTypes contains the fund buckets used for roster classification.
var ValidFundTypes = map[string]bool{
	"CORE": true, "BALANCE": true, "DYNAMIC": true, "UNLIMITED": true,
}

// ValidPlatforms contains the supported trading platforms.
var ValidPlatforms = map[string]bool{
	"mt4": true, "mt5": true,
}

// ValidAssignmentTypes contains the four assignment dimensions.
var ValidAssignmentTypes = map[string]bool{
	"manager": true, "fund": true, "broker": true, "platform": true,
}

/// ValidateAssignment validates one setter call: the account number must be
// sane and the value a member of the dimension's fixed enumerated set.
func ValidateAssignment(accountNumber int64, assignmentType, value string) error {
	errors := make(map[string]string)

	if accountNumber <= 0 {
		errors["accountNumber"] = "accountNumber must be a positive integer"
	}

	if strings.TrimSpace(value) == "" {
		errors[assignmentType] = assignmentType + " is required"
	} else {
		var valid bool
		switch assignmentType {
		case "manager":
			valid = ValidManagers[value]
		case "fund":
			valid = ValidFundTypes[value]
		case "broker":
			valid = ValidBrokers[value]
		case "platform":
			valid = ValidPlatforms[value]
		}
		if !valid {
			errors[assignmentType] = fmt.Sprintf("invalid %s: %s", assignmentType, value)
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}

// ValidateRemoveAssignment validates a remove-assignment call.
func ValidateRemoveAssignment(accountNumber int64, assignmentType string) error {
	errors := make(map[string]string)

	if accountNumber <= 0 {
		errors["accountNumber"] = "accountNumber must be a positive integer"
	}

	if !ValidAssignmentTypes[assignmentType] {
		errors["assignmentType"] = fmt.Sprintf("invalid assignmentType: %s", assignmentType)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}

	return nil
}
