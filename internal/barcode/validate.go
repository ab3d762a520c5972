// Package barcode cleans scanned product codes and classifies them.
package barcode

import (
	"strings"

	"github.com/pantrylens/backend/internal/domain"
)

const (
	minDigits      = 6
	maxDigits      = 14
	upcADigits     = 12
	minRepeatedRun = 8
)

// Validate strips everything but digits from raw and enforces the length and
// pattern rules. Codes of 6 to 11 digits are left-padded with zeros to the
// 12-digit UPC-A form, since scanners and manual entry often drop them.
func Validate(raw string) (domain.CleanCode, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.CleanCode{}, &domain.ValidationError{Code: domain.ValidationEmpty, Input: raw}
	}

	digits := digitsOnly(raw)

	switch {
	case len(digits) < minDigits:
		return domain.CleanCode{}, &domain.ValidationError{Code: domain.ValidationTooShort, Input: raw}
	case len(digits) > maxDigits:
		return domain.CleanCode{}, &domain.ValidationError{Code: domain.ValidationTooLong, Input: raw}
	}

	if isPatternArtifact(digits) {
		return domain.CleanCode{}, &domain.ValidationError{Code: domain.ValidationInvalidPattern, Input: raw}
	}

	value := digits
	if len(digits) < upcADigits {
		value = strings.Repeat("0", upcADigits-len(digits)) + digits
	}

	return domain.CleanCode{Value: value, Original: digits}, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isPatternArtifact catches scanner misreads: all zeros at any length, or a
// single digit repeated across a full-size code.
func isPatternArtifact(digits string) bool {
	if strings.Trim(digits, "0") == "" {
		return true
	}
	if len(digits) < minRepeatedRun {
		return false
	}
	return strings.Count(digits, digits[:1]) == len(digits)
}
