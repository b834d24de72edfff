package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/krew-solutions/ascetic-query-go/asceticquery/schema"
)

var dateLayouts = []string{
	"2006",
	"2006-01",
	"2006-01-02",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate accepts a year, a year-month, a date or a timestamp. Values without a zone are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return cast.ToTimeE(s)
}

var decimalPattern = regexp.MustCompile(`^([+-]?)0*([0-9]+)$`)

// decimal normalizes a base 10 integer literal. Leading zeros do not switch to octal and
// prefixes such as 0x are rejected.
func decimal(raw string) (string, error) {
	m := decimalPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("expected decimal digits")
	}
	return m[1] + m[2], nil
}

func decimalInt(raw string) (int, error) {
	digits, err := decimal(raw)
	if err != nil {
		return 0, err
	}
	return cast.ToIntE(digits)
}

// coerce converts a literal to the Go type that represents the property's declared type.
// Collections are compared by size, so their literals are integers.
func coerce(p schema.Property, raw string) (any, error) {
	if p.IsCollection() {
		return decimalInt(raw)
	}
	switch p.Type {
	case schema.TypeInteger:
		digits, err := decimal(raw)
		if err != nil {
			return nil, err
		}
		return cast.ToInt64E(digits)
	case schema.TypeNumber:
		return cast.ToFloat64E(strings.TrimSpace(raw))
	case schema.TypeBoolean:
		return cast.ToBoolE(strings.TrimSpace(raw))
	case schema.TypeDate:
		return ParseDate(raw)
	case schema.TypeEnum:
		if len(p.EnumValues) > 0 && !p.AcceptsEnum(raw) {
			return nil, fmt.Errorf("expected one of %s", strings.Join(p.EnumValues, ", "))
		}
		return raw, nil
	case schema.TypeString, schema.TypeText:
		return raw, nil
	}
	return nil, fmt.Errorf("%s properties cannot be compared with a literal", p.Type)
}

// splitList reads an in-list, with or without the surrounding brackets.
func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		raw = raw[1 : len(raw)-1]
	}
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
