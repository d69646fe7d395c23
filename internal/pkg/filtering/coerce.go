package filtering

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Coercion normalizes one supplied value into the canonical form(s) the
// record fields use. A value may expand to several keys (a name shared by
// several devices) or to none (a well-formed name nobody carries).
type Coercion func(raw string, res Resolver) ([]string, error)

var errNoResolver = errors.New("reference lookup unavailable")

// Text keeps the value verbatim.
func Text(raw string, _ Resolver) ([]string, error) {
	return []string{raw}, nil
}

// Integer parses a decimal integer.
func Integer(raw string, _ Resolver) ([]string, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("not an integer")
	}
	return []string{strconv.FormatInt(n, 10)}, nil
}

// Boolean accepts true/false, 1/0, yes/no and on/off.
func Boolean(raw string, _ Resolver) ([]string, error) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return []string{"true"}, nil
	case "false", "0", "no", "off":
		return []string{"false"}, nil
	default:
		return nil, fmt.Errorf("not a boolean")
	}
}

// Address parses an IPv4 or IPv6 address.
func Address(raw string, _ Resolver) ([]string, error) {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return nil, fmt.Errorf("not an IP address")
	}
	return []string{addr.String()}, nil
}

// Prefix parses CIDR notation and masks host bits.
func Prefix(raw string, _ Resolver) ([]string, error) {
	prefix, err := netip.ParsePrefix(raw)
	if err != nil {
		return nil, fmt.Errorf("not an IP prefix")
	}
	return []string{prefix.Masked().String()}, nil
}

// DottedQuad accepts a 32-bit identifier either as dotted quad ("0.0.0.1")
// or as an unsigned integer ("1").
func DottedQuad(raw string, _ Resolver) ([]string, error) {
	normalized, err := NormalizeDottedQuad(raw)
	if err != nil {
		return nil, err
	}
	return []string{normalized}, nil
}

// NormalizeDottedQuad returns the dotted-quad form of a 32-bit identifier
// given as dotted quad or unsigned integer.
func NormalizeDottedQuad(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty identifier")
	}

	if isDigits(raw) {
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return "", fmt.Errorf("identifier out of range (0-4294967295)")
		}
		return netip.AddrFrom4([4]byte{
			byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n),
		}).String(), nil
	}

	addr, err := netip.ParseAddr(raw)
	if err != nil || !addr.Is4() {
		return "", fmt.Errorf("not a dotted-quad identifier")
	}
	return addr.String(), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Identifier parses a record UUID.
func Identifier(raw string, _ Resolver) ([]string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("not a UUID")
	}
	return []string{id.String()}, nil
}

// Choice accepts one of a fixed set of values, case-insensitively.
func Choice(choices ...string) Coercion {
	return func(raw string, _ Resolver) ([]string, error) {
		for _, c := range choices {
			if strings.EqualFold(raw, c) {
				return []string{c}, nil
			}
		}
		return nil, fmt.Errorf("must be one of %s", strings.Join(choices, ", "))
	}
}

// ByName resolves a display name to the keys of all records of kind
// carrying that name.
func ByName(kind string) Coercion {
	return func(raw string, res Resolver) ([]string, error) {
		if res == nil {
			return nil, errNoResolver
		}
		records := res.LookupByName(kind, raw)
		keys := make([]string, 0, len(records))
		for _, r := range records {
			keys = append(keys, r.Key())
		}
		return keys, nil
	}
}

// ByIdentifier parses a UUID and keeps it only if a record of kind exists
// under it.
func ByIdentifier(kind string) Coercion {
	return func(raw string, res Resolver) ([]string, error) {
		keys, err := Identifier(raw, res)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, errNoResolver
		}
		if _, ok := res.Lookup(kind, keys[0]); !ok {
			return nil, nil
		}
		return keys, nil
	}
}
