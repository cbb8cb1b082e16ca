// internal/data/renewal.go
package data

import "time"

// Renewal bounds, in days from today.
const (
	MaxRenewalDays      = 28
	ProposedRenewalDays = 21
)

// Messages reported by ValidateRenewalDate.
const (
	MsgRenewalInPast  = "Invalid date - renewal in past"
	MsgRenewalTooLate = "Invalid date - renewal more than 4 weeks ahead"
)

// InvalidDateError is returned when a proposed due date is out of bounds.
type InvalidDateError struct {
	Date   time.Time
	Reason string
}

func (e *InvalidDateError) Error() string { return e.Reason }

// ValidateRenewalDate checks that date lies between today and four weeks from
// today, inclusive, and returns it unchanged. Only calendar dates are compared.
func ValidateRenewalDate(date, today time.Time) (time.Time, error) {
	d, t := DateOf(date), DateOf(today)

	if d.Before(t) {
		return date, &InvalidDateError{Date: date, Reason: MsgRenewalInPast}
	}
	if d.After(t.AddDate(0, 0, MaxRenewalDays)) {
		return date, &InvalidDateError{Date: date, Reason: MsgRenewalTooLate}
	}
	return date, nil
}

// ProposedRenewalDate is the due date offered by default, three weeks out.
func ProposedRenewalDate(today time.Time) time.Time {
	return DateOf(today).AddDate(0, 0, ProposedRenewalDays)
}
