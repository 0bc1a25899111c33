// Package phone normalizes the Indian mobile numbers that identify customers and
// commission agents.
package phone

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"github.com/ttacon/libphonenumber"
)

// DefaultRegion is used to read numbers written with a trunk or country prefix.
const DefaultRegion = "IN"

// ErrInvalid is returned for input that does not reduce to 10 national digits.
var ErrInvalid = errors.New("mobile number must have exactly 10 digits")

// Normalize reduces a mobile number to its 10 national digits. Separators are
// stripped; "+91" and leading-zero forms are read as Indian numbers.
func Normalize(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, raw)
	if len(digits) == 10 {
		return digits, nil
	}

	if len(digits) > 10 {
		if num, err := libphonenumber.Parse(raw, DefaultRegion); err == nil {
			national := strconv.FormatUint(num.GetNationalNumber(), 10)
			if len(national) == 10 {
				return national, nil
			}
		}
	}
	return "", ErrInvalid
}
