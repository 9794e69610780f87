package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	GoalSavings    GoalKind = "savings"
	GoalDebt       GoalKind = "debt"
	GoalInvestment GoalKind = "investment"
)

const (
	DebtPrincipalInterest DebtComponent = "principal_interest"
	DebtPrincipalOnly     DebtComponent = "principal_only"
)

// DateLayout is the wire format for all dates handled by the engine.
const DateLayout = "2006-01-02"

type (
	GoalKind string

	DebtComponent string

	Date struct {
		time.Time
	}

	// Transaction is a single categorized ledger entry. Income carries a
	// negative amount, every other category a positive one.
	Transaction struct {
		ID       string          `json:"id"`
		Date     Date            `json:"date"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
	}

	// Goal is a savings, debt or investment target with an optional
	// starting balance already set aside. MonthlyAmount is the base
	// contribution fixed when the initial schedule is generated.
	Goal struct {
		ID              string          `json:"id"`
		Name            string          `json:"name"`
		Kind            GoalKind        `json:"type"`
		Amount          decimal.Decimal `json:"amount"`
		TargetDate      Date            `json:"targetDate"`
		StartingBalance decimal.Decimal `json:"startingBalance"`
		MonthlyAmount   decimal.Decimal `json:"monthlyAmount"`
		DebtComponent   DebtComponent   `json:"debtComponent,omitempty"`
	}

	// MonthlyAllocation is one month's planned contribution toward a goal,
	// dated on the first of its month.
	MonthlyAllocation struct {
		Date       Date            `json:"date"`
		Planned    decimal.Decimal `json:"plannedAmount"`
		Actual     decimal.Decimal `json:"actualAmount"`
		ActualDate *Date           `json:"actualDate,omitempty"`
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidGoalKind = errors.New("invalid goal kind")
)

func (k GoalKind) Valid() bool {
	switch k {
	case GoalSavings, GoalDebt, GoalInvestment:
		return true
	default:
		return false
	}
}

func (c DebtComponent) Valid() bool {
	switch c {
	case "", DebtPrincipalInterest, DebtPrincipalOnly:
		return true
	default:
		return false
	}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty returns true if the date is zero (optional dates)
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return ErrInvalidDate
	}
	d.Time = t
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// FirstOfMonth truncates t to the first day of its month.
func FirstOfMonth(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), 1)
}

// AddMonths returns the date shifted by n whole months.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.Time.AddDate(0, n, 0)}
}

// MonthsBetween returns the month-granularity difference between two
// dates: December to February is 2 regardless of the days involved.
func MonthsBetween(from, to Date) int {
	return (to.Year()-from.Year())*12 + (to.Month() - from.Month())
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Category) > 100 {
		return errors.New("category too long (max 100 characters)")
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if !g.Kind.Valid() {
		return ErrInvalidGoalKind
	}
	if !g.DebtComponent.Valid() {
		return errors.New("invalid debt payment component")
	}
	if g.DebtComponent != "" && g.Kind != GoalDebt {
		return errors.New("debt payment component on non-debt goal")
	}
	if g.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if g.StartingBalance.IsNegative() {
		return errors.New("negative starting balance")
	}
	if err := g.TargetDate.Validate(); err != nil {
		return err
	}
	return nil
}

// Remaining is the amount still to be funded: target minus what was
// already set aside when the goal was created.
func (g Goal) Remaining() decimal.Decimal {
	return Round2(g.Amount.Sub(g.StartingBalance))
}
