package commission

import (
	"batteryshop/internal/core/apperror"
	"batteryshop/internal/core/phone"
)

// NormalizeMobile reduces an agent mobile number to its 10 national digits.
func NormalizeMobile(raw string) (string, error) {
	mobile, err := phone.Normalize(raw)
	if err != nil {
		return "", apperror.NewValidation("agent mobile must have exactly 10 digits").
			WithDetail("field", "agentMobile").
			WithDetail("value", raw)
	}
	return mobile, nil
}
