package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation utilities shared by the HTTP layer

var companyIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateCompanyID validates company ID format
func ValidateCompanyID(company string) error {
	if company == "" {
		return fmt.Errorf("company ID cannot be empty")
	}
	if !companyIDPattern.MatchString(company) {
		return fmt.Errorf("invalid company ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// SanitizeString removes null bytes and control characters
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit clamps the pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ValidateDays clamps the summary window
func ValidateDays(days int) int {
	if days <= 0 {
		return 7
	}
	if days > 365 {
		return 365
	}
	return days
}
