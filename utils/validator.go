// utils/validator.go - Input validation
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxRemarkLength caps reviewer remarks, in characters.
const MaxRemarkLength = 2000

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks if email is valid
func ValidateEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// SanitizeInput trims the input and drops control characters other than
// newlines and tabs.
func SanitizeInput(input string) string {
	input = strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, input)
}

// ValidateRemark sanitizes a reviewer remark and enforces its length limit.
func ValidateRemark(remark string) (string, error) {
	remark = SanitizeInput(remark)
	if n := utf8.RuneCountInString(remark); n > MaxRemarkLength {
		return "", fmt.Errorf("remark is %d characters; the limit is %d", n, MaxRemarkLength)
	}
	return remark, nil
}

// ParsePositiveID parses a path id; zero, negative and non-numeric values
// are rejected.
func ParsePositiveID(raw string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParsePaging reads limit/offset query values, defaulting to 20/0 and
// capping the limit at 100.
func ParsePaging(limitRaw, offsetRaw string) (limit, offset int) {
	limit = 20
	if v, err := strconv.Atoi(strings.TrimSpace(limitRaw)); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(offsetRaw)); err == nil && v >= 0 {
		offset = v
	}
	return limit, offset
}

// ParseBool accepts the flag spellings clients send in query strings.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
