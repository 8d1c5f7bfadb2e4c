package entities

import "github.com/shopspring/decimal"

// DepositStatus is the outcome of the deposit-threshold gate
type DepositStatus string

const (
	DepositSuccess DepositStatus = "success"
	DepositFail    DepositStatus = "fail"
	DepositPending DepositStatus = "pending"
)

// DepositCheck describes a gate decision for one trader id
type DepositCheck struct {
	Status     DepositStatus   `json:"status"`
	TraderID   string          `json:"trader_id"`
	Amount     decimal.Decimal `json:"amount"`
	MinDeposit decimal.Decimal `json:"min_deposit"`
}

// Passed reports whether the gate let the trader through.
func (c DepositCheck) Passed() bool {
	return c.Status == DepositSuccess
}

// ClassifyDeposit applies the gate to a user. A nil user is pending.
func ClassifyDeposit(traderID string, user *User, minDeposit decimal.Decimal) DepositCheck {
	check := DepositCheck{
		Status:     DepositPending,
		TraderID:   traderID,
		Amount:     decimal.Zero,
		MinDeposit: minDeposit,
	}
	if traderID == "" || user == nil {
		return check
	}
	if user.FirstDeposit.Valid && user.FirstDeposit.Decimal.GreaterThanOrEqual(minDeposit) {
		check.Amount = user.FirstDeposit.Decimal
	} else {
		check.Amount = user.TotalDeposit
	}
	if user.PassesDepositGate(minDeposit) {
		check.Status = DepositSuccess
	} else {
		check.Status = DepositFail
	}
	return check
}

// ClaimStatus is the outcome of a trader-id claim
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimMismatch ClaimStatus = "mismatch"
	ClaimMatched  ClaimStatus = "matched"
)

// ClaimResult describes a trader-id claim check
type ClaimResult struct {
	Status   ClaimStatus `json:"result"`
	TraderID string      `json:"trader_id"`
}
