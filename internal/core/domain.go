package core

import (
	"errors"
	"strings"
	"time"
)

// Reserved category identifiers.
const (
	CategoryOther            = "other"
	CategoryInternalTransfer = "internal-transfer"
)

const (
	KindExpense TransactionKind = "expense"
	KindIncome  TransactionKind = "income"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 200
)

type (
	TransactionKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Account struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		Balance         Money  `json:"balance"`
		IncludeInBudget bool   `json:"includeInBudget"`
	}

	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	}

	// Transaction is a ledger entry. A positive amount is money leaving the
	// account, a negative amount is money entering it.
	Transaction struct {
		ID             string    `json:"id"`
		Description    string    `json:"description"`
		Amount         Money     `json:"amount"`
		AccountID      string    `json:"accountId"`
		CategoryID     string    `json:"categoryId"`
		Date           time.Time `json:"date"`
		LinkedBudgetID string    `json:"linkedBudgetId,omitempty"`
	}

	// Budget is a savings goal. SavedAmount is earmarked money that still
	// sits in whichever account funded it.
	Budget struct {
		ID           string `json:"id"`
		Name         string `json:"name"`
		TargetAmount Money  `json:"targetAmount"`
		SavedAmount  Money  `json:"savedAmount"`
		ImageURL     string `json:"imageUrl,omitempty"`
		TargetDate   *Date  `json:"targetDate,omitempty"`
	}
)

func (k TransactionKind) IsValid() bool {
	return k == KindExpense || k == KindIncome
}

// SignedAmount applies the ledger sign convention to a positive amount.
func (k TransactionKind) SignedAmount(amount Money) Money {
	if k == KindIncome {
		return amount.Neg()
	}
	return amount
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	// Check basic ranges
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	return d.Format(time.DateOnly)
}

// Noon returns midday UTC of the date. Transactions are stamped at noon so
// that the calendar day survives any display timezone.
func (d Date) Noon() time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 12, 0, 0, 0, time.UTC)
}

// StartOfDay returns 00:00:00 UTC of the date.
func (d Date) StartOfDay() time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59 UTC of the date.
func (d Date) EndOfDay() time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, 23, 59, 59, 0, time.UTC)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		*d = NewDate(t.Year(), int(t.Month()), t.Day())
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (a Account) Validate() error {
	return validateName(a.Name)
}

func (c Category) Validate() error {
	return validateName(c.Name)
}

func (t Transaction) Validate() error {
	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(desc) > maxDescriptionLength {
		return Invalid("description", errors.New("description too long (max 200 characters)"))
	}
	if t.Amount.IsZero() {
		return Invalid("amount", ErrInvalidAmount)
	}
	if strings.TrimSpace(t.AccountID) == "" {
		return Invalid("accountId", ErrMissingReference)
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return Invalid("categoryId", ErrMissingReference)
	}
	if t.Date.IsZero() {
		return Invalid("date", ErrInvalidDate)
	}
	return nil
}

// IsTransfer reports whether the transaction moves money between an account
// and a savings goal.
func (t Transaction) IsTransfer() bool {
	return t.CategoryID == CategoryInternalTransfer
}

// BalanceDelta is the change this transaction applies to its account.
func (t Transaction) BalanceDelta() Money {
	return t.Amount.Neg()
}

func (b Budget) Validate() error {
	if err := validateName(b.Name); err != nil {
		return err
	}
	if err := b.TargetAmount.Validate(); err != nil {
		return Invalid("targetAmount", err)
	}
	if b.SavedAmount.IsNegative() {
		return Invalid("savedAmount", ErrInvalidAmount)
	}
	if b.TargetDate != nil && !b.TargetDate.IsZero() {
		if err := b.TargetDate.Validate(); err != nil {
			return Invalid("targetDate", err)
		}
	}
	return nil
}

// Progress returns the saved share of the target in the range [0, 1].
func (b Budget) Progress() float64 {
	if b.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(b.SavedAmount.Cents) / float64(b.TargetAmount.Cents)
	if p > 1 {
		return 1
	}
	if p < 0 {
		return 0
	}
	return p
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Invalid("name", ErrEmptyName)
	}
	if len(name) > maxNameLength {
		return Invalid("name", errors.New("name too long (max 100 characters)"))
	}
	return nil
}
