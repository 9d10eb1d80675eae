package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

const (
	// CodeStrict accepts circuit codes of exactly 5 or exactly 7 digits.
	CodeStrict CodePolicy = "strict"
	// CodeRelaxed accepts circuit codes of 3 to 7 digits.
	CodeRelaxed CodePolicy = "relaxed"
)

type (
	// CodePolicy selects which circuit-code format a deployment accepts.
	// Exactly one policy is active at a time; they are never merged.
	CodePolicy string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Installation is a billable connection event on a given day.
	// Unit price and day total are derived at aggregation time and
	// never stored on the record.
	Installation struct {
		ID         string
		Code       string
		ClientName string
		Date       Date
	}

	FuelExpense struct {
		ID     string
		Date   Date
		Amount Money
		Note   string
	}

	// Technician is an identity, not a rich entity: a stable generated
	// identifier plus an optional display name for report headers.
	Technician struct {
		ID   string
		Name string
	}
)

var (
	ErrInvalidCode       = errors.New("invalid installation code")
	ErrInvalidDate       = errors.New("invalid date")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrMissingClientName = errors.New("missing client name")
	ErrInvalidRange      = errors.New("invalid date range")
)

var (
	codeStrictRe  = regexp.MustCompile(`^(\d{5}|\d{7})$`)
	codeRelaxedRe = regexp.MustCompile(`^\d{3,7}$`)
)

// IsValid reports whether the policy is a known one.
func (p CodePolicy) IsValid() bool {
	return p == CodeStrict || p == CodeRelaxed
}

// Allows reports whether the given circuit code matches the policy.
func (p CodePolicy) Allows(code string) bool {
	switch p {
	case CodeRelaxed:
		return codeRelaxedRe.MatchString(code)
	default:
		return codeStrictRe.MatchString(code)
	}
}

// ParseDate parses an ISO YYYY-MM-DD calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// ISO returns the YYYY-MM-DD form used as the grouping key.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Period returns the YYYY-MM month scope the date belongs to.
func (d Date) Period() string {
	return d.Format("2006-01")
}

// Before reports whether d falls on an earlier calendar day than other.
// ISO strings compare lexicographically in date order, which keeps the
// comparison aligned with the stored grouping keys.
func (d Date) Before(other Date) bool {
	return d.ISO() < other.ISO()
}

// Day returns the record's billing day. Both record kinds expose it so
// period filters can treat them uniformly.
func (i Installation) Day() Date { return i.Date }

func (f FuelExpense) Day() Date { return f.Date }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks an installation candidate against the active code policy.
// requireClient makes the client name mandatory for deployments that track it.
func (i Installation) Validate(policy CodePolicy, requireClient bool) error {
	if !policy.Allows(i.Code) {
		return ErrInvalidCode
	}
	if err := i.Date.Validate(); err != nil {
		return err
	}
	if requireClient && strings.TrimSpace(i.ClientName) == "" {
		return ErrMissingClientName
	}
	return nil
}

func (f FuelExpense) Validate() error {
	if err := f.Date.Validate(); err != nil {
		return err
	}
	if err := f.Amount.Validate(); err != nil {
		return err
	}
	return nil
}
