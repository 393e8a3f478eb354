package users

import (
	"strings"
	"time"

	pkgerrors "github.com/yourwae/fastget-backend/pkg/errors"
)

// DateLayout is the wire form of a date of birth.
const DateLayout = "2006-01-02"

const (
	invalidPhoneMessage = "Please enter a valid 10-digit phone number"
	invalidDOBMessage   = "Please enter a valid date of birth"
	implausibleDOB      = "Please double-check your date of birth"
	maxAge              = 120
)

// NormalizePhone strips everything but digits and requires exactly ten.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	return digits, len(digits) == 10
}

// ValidPhone returns the stored form of raw or a validation error.
func ValidPhone(raw string) (string, error) {
	phone, ok := NormalizePhone(raw)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeValidation, invalidPhoneMessage)
	}
	return phone, nil
}

// AgeOn is the number of whole years between dob and now. The year does not
// count until the birthday has been reached.
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// ParseDateOfBirth reads a YYYY-MM-DD date and rejects anyone younger than
// zero or older than 120 on now.
func ParseDateOfBirth(raw string, now time.Time) (time.Time, error) {
	dob, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, invalidDOBMessage)
	}
	if age := AgeOn(dob, now); age < 0 || age > maxAge {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, implausibleDOB)
	}
	return dob, nil
}
