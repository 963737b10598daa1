package validate

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	reQ        = regexp.MustCompile(`^[\p{L}\p{N} _'.,%&-]{1,50}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9._@-]{3,50}$`)

	v = newValidator()
)

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// report errors under the form field name
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return val
}

// Violation is one failed rule: Tag is the validator tag (required, max, ...).
type Violation struct {
	Field string
	Tag   string
	Param string
}

// Struct runs the `validate` tags of s. A nil result means s is valid.
func Struct(s any) []Violation {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Violation{{Field: "", Tag: "invalid"}}
	}
	out := make([]Violation, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Violation{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// ID parses a positive database id.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// OptionalID returns nil for an empty value.
func OptionalID(s string) (*int64, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, true
	}
	n, ok := ID(s)
	if !ok {
		return nil, false
	}
	return &n, true
}

// IDs parses a multi-value field, skipping blanks and rejecting garbage.
func IDs(ss []string) ([]int64, bool) {
	out := make([]int64, 0, len(ss))
	seen := map[int64]bool{}
	for _, s := range ss {
		if strings.TrimSpace(s) == "" {
			continue
		}
		n, ok := ID(s)
		if !ok {
			return nil, false
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, true
}

// Decimal accepts "1.5" and "1,5".
func Decimal(s string) (decimal.Decimal, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Price is a non-negative decimal with at most two fractional digits kept.
func Price(s string) (decimal.Decimal, bool) {
	d, ok := Decimal(s)
	if !ok || d.IsNegative() {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

var hundred = decimal.NewFromInt(100)

// Discount is a percentage in [0, 100]; empty means zero.
func Discount(s string) (decimal.Decimal, bool) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, true
	}
	d, ok := Decimal(s)
	if !ok || d.IsNegative() || d.GreaterThan(hundred) {
		return decimal.Zero, false
	}
	return d, true
}

var dateLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// DateTimeLocal parses the value of an <input type="datetime-local"> in local time.
func DateTimeLocal(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

// Username validates an account name for the CLI and the admin screens.
func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Password enforces length and character-class rules for new accounts.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
