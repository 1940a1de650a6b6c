// Package validation holds the field rules shared by profile, publication,
// review, and badge inputs.
package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"

	dErrors "paperledger/pkg/domain-errors"
)

const (
	MaxNameLength  = 64
	MaxTitleLength = 32
	MaxURLLength   = 200
)

// Text trims value and checks it is non-empty, at most max characters, and
// free of emoji. It returns the trimmed value.
func Text(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", dErrors.New(dErrors.CodeValidation, field+" is required")
	}
	if utf8.RuneCountInString(value) > max {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	if ContainsEmoji(value) {
		return "", dErrors.New(dErrors.CodeValidation, field+" must not contain emoji")
	}
	return value, nil
}

// URL checks an absolute http(s)-style locator such as a metadata document.
func URL(field, value string) (string, error) {
	value, err := Text(field, value, MaxURLLength)
	if err != nil {
		return "", err
	}
	if !govalidator.IsRequestURL(value) || !govalidator.IsURL(value) {
		return "", dErrors.New(dErrors.CodeValidation, field+" must be an absolute URL")
	}
	return value, nil
}

// URI checks a content locator. Any scheme is allowed (ipfs://, ar://) as
// long as the value parses as an absolute URI.
func URI(field, value string) (string, error) {
	value, err := Text(field, value, MaxURLLength)
	if err != nil {
		return "", err
	}
	if !govalidator.IsRequestURI(value) || !strings.Contains(value, ":") {
		return "", dErrors.New(dErrors.CodeValidation, field+" must be a valid URI")
	}
	return value, nil
}

// ContainsEmoji reports whether s holds a code point from the common emoji
// blocks.
func ContainsEmoji(s string) bool {
	for _, r := range s {
		if isEmoji(r) {
			return true
		}
	}
	return false
}

func isEmoji(r rune) bool {
	switch {
	case r >= 0x1f300 && r <= 0x1faff:
		return true
	case r >= 0x2600 && r <= 0x27bf:
		return true
	case r >= 0x2300 && r <= 0x23ff:
		return true
	case r >= 0x1f170 && r <= 0x1f251:
		return true
	case r == 0x2b50, r == 0x3030, r == 0x2b06, r == 0x2194, r == 0x24c2, r == 0x1f004, r == 0x1f0cf:
		return true
	}
	return false
}
