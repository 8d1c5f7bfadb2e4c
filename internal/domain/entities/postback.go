package entities

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

// Normalized postback events
const (
	EventRegistration = "registration"
	EventDeposit      = "deposit"
)

var eventSynonyms = map[string]string{
	"registration":              EventRegistration,
	"register":                  EventRegistration,
	"signup":                    EventRegistration,
	"trader_has_registered":     EventRegistration,
	"deposit":                   EventDeposit,
	"ftd":                       EventDeposit,
	"first_deposit":             EventDeposit,
	"payment":                   EventDeposit,
	"trader_has_made_a_deposit": EventDeposit,
}

// NormalizeEvent folds broker event names onto the known events.
// Unknown names pass through lower-cased and trimmed.
func NormalizeEvent(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if ev, ok := eventSynonyms[v]; ok {
		return ev
	}
	return v
}

// AmountScale is the number of decimal places amounts are stored with.
const AmountScale = 2

// amountPattern admits plain decimals that fit numeric(20,2). Exponents and
// signs are rejected.
var amountPattern = regexp.MustCompile(`^\d{1,18}(?:[.,]\d{1,18})?$`)

// ParseAmount parses a broker amount accepting "." or "," as decimal separator
// and rounds it to AmountScale. Anything unparseable is zero.
func ParseAmount(raw string) decimal.Decimal {
	v := strings.TrimSpace(raw)
	if !amountPattern.MatchString(v) {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.Replace(v, ",", ".", 1))
	if err != nil {
		return decimal.Zero
	}
	return d.Round(AmountScale)
}

// IsNumericTraderID reports whether s is a non-empty run of ASCII digits.
func IsNumericTraderID(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// PostbackParams is the normalized view of one webhook call
type PostbackParams struct {
	Token    string
	Event    string
	ClickID  string
	TraderID string
	Amount   decimal.Decimal
	Currency string
	Raw      map[string]string
}

// NewPostbackParams normalizes the merged query/body parameters.
func NewPostbackParams(raw map[string]string) PostbackParams {
	if raw == nil {
		raw = map[string]string{}
	}
	return PostbackParams{
		Token:    raw["token"],
		Event:    NormalizeEvent(raw["event"]),
		ClickID:  strings.TrimSpace(raw["click_id"]),
		TraderID: strings.TrimSpace(raw["trader_id"]),
		Amount:   ParseAmount(raw["amount"]),
		Currency: strings.ToUpper(strings.TrimSpace(raw["currency"])),
		Raw:      raw,
	}
}

// IsDeposit reports whether the params describe a foldable deposit.
func (p PostbackParams) IsDeposit() bool {
	return p.Event == EventDeposit && p.Amount.IsPositive()
}

// PostbackLog is the append-only record of one webhook call
type PostbackLog struct {
	ID          int64           `json:"id"`
	Event       string          `json:"event"`
	ClickID     string          `json:"clickId"`
	TraderID    string          `json:"traderId"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Raw         string          `json:"raw"`
	Processed   bool            `json:"processed"`
	UserID      null.Int64      `json:"userId"`
	CreatedAt   time.Time       `json:"createdAt"`
	ProcessedAt null.Time       `json:"processedAt"`
}

// NewPostbackLog builds an unprocessed log row from normalized params.
// The token is never persisted.
func NewPostbackLog(p PostbackParams, now time.Time) *PostbackLog {
	return &PostbackLog{
		Event:     p.Event,
		ClickID:   p.ClickID,
		TraderID:  p.TraderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Raw:       encodeRaw(p.Raw),
		CreatedAt: now,
	}
}

func encodeRaw(raw map[string]string) string {
	clean := make(map[string]string, len(raw))
	for k, v := range raw {
		if k == "token" {
			continue
		}
		clean[k] = v
	}
	b, err := json.Marshal(clean)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// IsDeposit reports whether the log carries a foldable deposit.
func (l *PostbackLog) IsDeposit() bool {
	return l.Event == EventDeposit && l.Amount.IsPositive()
}

// MarkProcessed links the log to the user it was folded into.
func (l *PostbackLog) MarkProcessed(userID int64, now time.Time) {
	l.Processed = true
	l.UserID = null.Int64From(userID)
	l.ProcessedAt = null.TimeFrom(now)
}

// SortPostbackLogs orders logs by arrival: created_at, then id.
func SortPostbackLogs(logs []*PostbackLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].CreatedAt.Before(logs[j].CreatedAt)
		}
		return logs[i].ID < logs[j].ID
	})
}

// PostbackStatus is the webhook reply status
type PostbackStatus string

const (
	PostbackStatusOK        PostbackStatus = "ok"
	PostbackStatusNoUserYet PostbackStatus = "no_user_yet"
)

// PostbackResult is the outcome of one webhook call
type PostbackResult struct {
	Status  PostbackStatus `json:"status"`
	ClickID string         `json:"click_id,omitempty"`
	LogID   int64          `json:"-"`
	UserID  int64          `json:"-"`
}

// PostbackListFilter selects logs for the admin listing
type PostbackListFilter struct {
	Search    string
	Processed *bool
}
