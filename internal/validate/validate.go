// Package validate holds the pure input validators for conversation steps.
// Every validator returns a normalized value or a *Error tagged with the
// specific format violation so callers can retry the step unchanged.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which format rule was violated.
type Kind string

const (
	KindBadVehicleFormat  Kind = "BAD_VEHICLE_FORMAT"
	KindBadEngineFormat   Kind = "BAD_ENGINE_FORMAT"
	KindBadMobileFormat   Kind = "BAD_MOBILE_FORMAT"
	KindBadOTPFormat      Kind = "BAD_OTP_FORMAT"
	KindBadDateFormat     Kind = "BAD_DATE_FORMAT"
	KindBadIDNumberFormat Kind = "BAD_ID_NUMBER_FORMAT"
	KindBadSerialFormat   Kind = "BAD_SERIAL_FORMAT"
	KindBadName           Kind = "BAD_NAME"
	KindBadChoice         Kind = "BAD_CHOICE"
	KindBadDocument       Kind = "BAD_DOCUMENT"
)

// Error is a user-correctable validation failure.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	vehiclePattern  = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z]{1,2}[0-9]{4}$`)
	digitsOnly      = regexp.MustCompile(`^[0-9]+$`)
	panPattern      = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	passportPattern = regexp.MustCompile(`^[A-Z][0-9]{7}$`)
	alnumPattern    = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// VehicleNumber normalizes a national registration number (e.g. MH12AB1234).
func VehicleNumber(raw string) (string, error) {
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if !vehiclePattern.MatchString(v) {
		return "", newError(KindBadVehicleFormat, "invalid vehicle number, expected format like MH12AB1234")
	}
	return v, nil
}

// EngineNumber accepts the last 5 digits of the engine number.
func EngineNumber(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if len(v) != 5 || !digitsOnly.MatchString(v) {
		return "", newError(KindBadEngineFormat, "engine number must be the last 5 digits")
	}
	return v, nil
}

// MobileNumber accepts a 10-digit Indian mobile number starting with 6-9.
func MobileNumber(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if len(v) != 10 || !digitsOnly.MatchString(v) || v[0] < '6' || v[0] > '9' {
		return "", newError(KindBadMobileFormat, "mobile number must be 10 digits starting with 6, 7, 8 or 9")
	}
	return v, nil
}

// OTP accepts a numeric one-time password of the given length. Agent OTPs
// are 4 digits, user OTPs 6.
func OTP(raw string, length int) (string, error) {
	v := strings.TrimSpace(raw)
	if len(v) != length || !digitsOnly.MatchString(v) {
		return "", newError(KindBadOTPFormat, "OTP must be exactly "+strconv.Itoa(length)+" digits")
	}
	return v, nil
}

// DOB accepts DD-MM-YYYY, calendar valid, age at least 18 and year >= 1900.
func DOB(raw string, now time.Time) (string, error) {
	v := strings.TrimSpace(raw)
	d, err := time.Parse("02-01-2006", v)
	if err != nil {
		return "", newError(KindBadDateFormat, "date of birth must be DD-MM-YYYY")
	}
	if d.Year() < 1900 || d.After(now) {
		return "", newError(KindBadDateFormat, "date of birth is out of range")
	}
	if d.AddDate(18, 0, 0).After(now) {
		return "", newError(KindBadDateFormat, "owner must be at least 18 years old")
	}
	return d.Format("02-01-2006"), nil
}

// IDNumber validates an identity document number for the given proof type.
// PAN and Passport have fixed patterns; the rest are checked for shape only,
// the provider's validation is authoritative.
func IDNumber(idType, raw string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(raw))
	switch idType {
	case "PAN":
		if !panPattern.MatchString(v) {
			return "", newError(KindBadIDNumberFormat, "PAN must be 5 letters, 4 digits and a letter")
		}
	case "PASSPORT":
		if !passportPattern.MatchString(v) {
			return "", newError(KindBadIDNumberFormat, "passport number must be a letter followed by 7 digits")
		}
	default:
		if v == "" || !alnumPattern.MatchString(v) {
			return "", newError(KindBadIDNumberFormat, "ID number must be alphanumeric")
		}
	}
	return v, nil
}

// SerialSuffix accepts the last 4 digits of a tag serial number.
func SerialSuffix(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if len(v) != 4 || !digitsOnly.MatchString(v) {
		return "", newError(KindBadSerialFormat, "serial number must be the last 4 digits")
	}
	return v, nil
}

// Name accepts a trimmed non-empty name of at most 50 characters.
func Name(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" || len(v) > 50 {
		return "", newError(KindBadName, "name must be between 1 and 50 characters")
	}
	return v, nil
}
