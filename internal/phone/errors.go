package phone

import "errors"

var (
	// ErrNoDigits is returned when the input contains no digits at all.
	ErrNoDigits = errors.New("number contains no digits")

	// ErrTooShort is returned when the number has fewer than 12 digits
	// after country-code prefixing.
	ErrTooShort = errors.New("number too short: need at least 10 digits after the country code")

	// ErrTooLong is returned when the number has more than 13 digits
	// after country-code prefixing.
	ErrTooLong = errors.New("number too long: at most 11 digits after the country code")
)
