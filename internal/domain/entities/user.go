package entities

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// User represents a registered visitor and the broker-side facts folded into it
type User struct {
	ID              int64               `json:"id"`
	Login           string              `json:"login"`
	Email           string              `json:"email"`
	PasswordHash    string              `json:"-"`
	ClickID         string              `json:"clickId"`
	TraderID        null.String         `json:"traderId"`
	FirstDeposit    decimal.NullDecimal `json:"firstDeposit"`
	TotalDeposit    decimal.Decimal     `json:"totalDeposit"`
	DepositVerified bool                `json:"depositVerified"`
	ResetToken      null.String         `json:"-"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// HasTraderID reports whether the broker has reported a trader id for the user.
func (u *User) HasTraderID() bool {
	return u.TraderID.Valid && u.TraderID.String != ""
}

// IsIdentifiable reports whether postbacks can be matched to the user.
func (u *User) IsIdentifiable() bool {
	return u.ClickID != "" || u.HasTraderID()
}

// CanClaimTraderID reports whether candidate may be written into an empty trader_id slot.
// Ownership by another user is checked by the caller against the store.
func (u *User) CanClaimTraderID(candidate string) bool {
	return !u.HasTraderID() && IsNumericTraderID(candidate)
}

// ClaimTraderID fills trader_id when it is empty and the candidate is numeric.
func (u *User) ClaimTraderID(candidate string) bool {
	if !u.CanClaimTraderID(candidate) {
		return false
	}
	u.TraderID = null.StringFrom(candidate)
	return true
}

// ApplyDeposit accumulates a positive deposit amount. first_deposit is only set once.
func (u *User) ApplyDeposit(amount, minDeposit decimal.Decimal) bool {
	if !amount.IsPositive() {
		return false
	}
	if !u.FirstDeposit.Valid {
		u.FirstDeposit = decimal.NewNullDecimal(amount)
	}
	u.TotalDeposit = u.TotalDeposit.Add(amount)
	if u.PassesDepositGate(minDeposit) {
		u.DepositVerified = true
	}
	return true
}

// PassesDepositGate reports whether either deposit figure reaches the threshold.
func (u *User) PassesDepositGate(minDeposit decimal.Decimal) bool {
	if u.FirstDeposit.Valid && u.FirstDeposit.Decimal.GreaterThanOrEqual(minDeposit) {
		return true
	}
	return u.TotalDeposit.GreaterThanOrEqual(minDeposit)
}

// Touch stamps the mutation time.
func (u *User) Touch(now time.Time) {
	u.UpdatedAt = now
}

// AuthAction is the form action on the combined login/registration page
type AuthAction string

const (
	AuthActionRegister AuthAction = "register"
	AuthActionLogin    AuthAction = "login"
)

// AuthInput represents the combined login/registration form
type AuthInput struct {
	Login    string     `form:"login" json:"login"`
	Email    string     `form:"email" json:"email"`
	Password string     `form:"password" json:"password"`
	Action   AuthAction `form:"action" json:"action"`
	Remember string     `form:"remember" json:"remember"`
	ClickID  string     `form:"-" json:"-"`
}

// Normalize trims user-supplied fields.
func (in *AuthInput) Normalize() {
	in.Login = strings.TrimSpace(in.Login)
	in.Email = strings.TrimSpace(in.Email)
	in.Action = AuthAction(strings.ToLower(strings.TrimSpace(string(in.Action))))
}

// RememberMe reports whether a long-lived session was requested.
func (in *AuthInput) RememberMe() bool {
	return strings.EqualFold(strings.TrimSpace(in.Remember), "true")
}

// AuthResult is returned by a successful login or registration
type AuthResult struct {
	User       *User `json:"-"`
	Reconciled int   `json:"-"`
}

// UpdateUserInput represents the admin-editable user fields
type UpdateUserInput struct {
	Login           *string          `json:"login"`
	Email           *string          `json:"email"`
	ClickID         *string          `json:"clickId"`
	TraderID        *string          `json:"traderId"`
	FirstDeposit    *decimal.Decimal `json:"firstDeposit"`
	TotalDeposit    *decimal.Decimal `json:"totalDeposit"`
	DepositVerified *bool            `json:"depositVerified"`
}

// UserListFilter selects and orders users for the admin listing
type UserListFilter struct {
	Search string
	Sort   string
}
