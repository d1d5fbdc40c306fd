package core

import (
	"errors"
	"time"
)

// Categories is the fixed set offered by the presentation layer. The store
// accepts any non-empty category on purpose: free text typed elsewhere is
// kept as-is rather than rejected.
var Categories = []string{"Snapp", "Food", "Miscellaneous"}

const dayLayout = "2006-01-02"

var (
	ErrInvalidDate    = errors.New("invalid date, expected YYYY-MM-DD")
	ErrEmptyCategory  = errors.New("category is required")
	ErrInvalidAmount  = errors.New("amount must be a number")
	ErrNegativeAmount = errors.New("amount cannot be negative")

	ErrNotFound  = errors.New("expense not found")
	ErrNoData    = errors.New("no expenses for mission")
	ErrAssetRead = errors.New("receipt asset unreadable")
)

type (
	// Day is a calendar date with no time component. The zero value is not
	// a valid Day.
	Day struct {
		time.Time
	}

	// Expense is the persisted record. ID is assigned by the store and
	// immutable afterwards; every other field is replaceable via update.
	Expense struct {
		ID          int64
		Date        Day
		Category    string
		Amount      float64
		Description string
		Mission     string
		ImagePath   string
	}

	// Filter narrows a listing. Nil fields are omitted predicates; the
	// supplied ones combine with AND. Mission matches as a case-sensitive
	// substring.
	Filter struct {
		From    *Day
		To      *Day
		Mission string
	}
)

// NewDay builds a Day from calendar components.
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDay parses the canonical YYYY-MM-DD form.
func ParseDay(s string) (Day, error) {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		return Day{}, ErrInvalidDate
	}
	return Day{Time: t}, nil
}

// Today returns the current calendar date.
func Today() Day {
	now := time.Now()
	return NewDay(now.Year(), now.Month(), now.Day())
}

func (d Day) String() string {
	return d.Format(dayLayout)
}

func (d Day) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the write invariants: a parseable date, a non-empty
// category and a non-negative amount. Description, mission and image path
// are free.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.Category == "" {
		return ErrEmptyCategory
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}
