package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Required fails on empty or whitespace-only strings.
func Required(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return strings.TrimSpace(value) != ""
		},
		Error: ValidationError{Field: field, Message: "field is required"},
	}
}

// MinLen counts runes, not bytes.
func MinLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) >= n
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at least %d characters long", n)},
	}
}

func MaxLen(field, value string, n int) Rule {
	return Rule{
		Check: func() bool {
			return utf8.RuneCountInString(value) <= n
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d characters long", n)},
	}
}

// MaxBytes limits the encoded size of value, for consumers such as bcrypt
// that cap input by bytes rather than characters.
func MaxBytes(field, value string, n int) Rule {
	return Rule{
		Check: func() bool {
			return len(value) <= n
		},
		Error: ValidationError{Field: field, Message: fmt.Sprintf("must be at most %d bytes long", n)},
	}
}

// ValidEmail accepts a bare addr-spec with a dotted domain. Display names
// ("Ann <a@x.com>") are rejected.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			return isEmail(value)
		},
		Error: ValidationError{Field: field, Message: "must be a valid email address"},
	}
}

func isEmail(value string) bool {
	if strings.TrimSpace(value) != value || value == "" {
		return false
	}

	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}

	local, domain, ok := strings.Cut(value, "@")
	if !ok || local == "" {
		return false
	}

	if !strings.Contains(domain, ".") {
		return false
	}
	for part := range strings.SplitSeq(domain, ".") {
		if part == "" {
			return false
		}
	}

	return true
}
