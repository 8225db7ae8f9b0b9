package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidStartDate = errors.New("start date must be YYYY-MM or YYYY-MM-DD")
	ErrStartInPast      = errors.New("start month cannot be in the past")
	ErrInvalidDuration  = fmt.Errorf("duration must be between %d and %d months", MinDurationMonths, MaxDurationMonths)
)

// DepositPolicy describes the refundable security deposit collected at booking.
// Type months: Value months of rent. Type fixed: Value is an amount in paise.
type DepositPolicy struct {
	Type  string
	Value int64
}

// Quote is the amount breakdown of a booking, in paise.
type Quote struct {
	MonthlyRent    int64   `json:"monthly_rent"`
	DurationMonths int     `json:"duration_months"`
	RentTotal      int64   `json:"rent_total"`
	Deposit        int64   `json:"security_deposit"`
	GSTPercent     float64 `json:"gst_percent"`
	GST            int64   `json:"gst_amount"`
	Total          int64   `json:"total_amount"`
}

// DepositFor returns the deposit owed under the policy for a monthly rent.
func (p DepositPolicy) DepositFor(monthlyRent int64) int64 {
	if p.Value <= 0 {
		return 0
	}
	switch strings.ToLower(p.Type) {
	case DepositTypeFixed:
		return p.Value
	default:
		return monthlyRent * p.Value
	}
}

// CalculateQuote computes rent x months + deposit, with GST applied to the deposit only.
// GST is rounded half up to the nearest paisa.
func CalculateQuote(monthlyRent int64, months int, policy DepositPolicy, gstPercent float64) Quote {
	q := Quote{
		MonthlyRent:    monthlyRent,
		DurationMonths: months,
		RentTotal:      monthlyRent * int64(months),
		Deposit:        policy.DepositFor(monthlyRent),
		GSTPercent:     gstPercent,
	}
	if gstPercent > 0 {
		q.GST = int64(float64(q.Deposit)*gstPercent/100 + 0.5)
	}
	q.Total = q.RentTotal + q.Deposit + q.GST
	return q
}

// ValidateDuration enforces 1..12 months.
func ValidateDuration(months int) error {
	if months < MinDurationMonths || months > MaxDurationMonths {
		return ErrInvalidDuration
	}
	return nil
}

// NormalizeStartMonth returns the first day of t's month at midnight UTC.
func NormalizeStartMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseStartDate accepts YYYY-MM or YYYY-MM-DD, normalizes to the first of the month
// and rejects months before now's month.
func ParseStartDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	var t time.Time
	var err error
	switch len(s) {
	case len("2006-01"):
		t, err = time.Parse("2006-01", s)
	case len("2006-01-02"):
		t, err = time.Parse("2006-01-02", s)
	default:
		return time.Time{}, ErrInvalidStartDate
	}
	if err != nil {
		return time.Time{}, ErrInvalidStartDate
	}
	start := NormalizeStartMonth(t)
	if start.Before(NormalizeStartMonth(now)) {
		return time.Time{}, ErrStartInPast
	}
	return start, nil
}

// EndDate is the exclusive end of a stay of months starting at start.
func EndDate(start time.Time, months int) time.Time {
	return start.AddDate(0, months, 0)
}
