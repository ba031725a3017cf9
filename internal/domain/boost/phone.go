package boost

import (
	"strings"

	"github.com/kasoamart/boostpay/internal/domain/errors"
)

// networkPrefixes maps each carrier to the leading digits of its
// allocated number ranges (local 0XXXXXXXXX form).
var networkPrefixes = map[Network][]string{
	NetworkMTN:        {"024", "025", "053", "054", "055", "059"},
	NetworkVodafone:   {"020", "050"},
	NetworkAirtelTigo: {"026", "027", "056", "057"},
}

// NormalizePhone converts an input number to local 0XXXXXXXXX form.
// Accepted inputs: 0XXXXXXXXX, 233XXXXXXXXX, +233XXXXXXXXX, with
// optional spaces or dashes.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			// dropped, country code handled below
		case r == ' ' || r == '-':
			// separators are tolerated
		default:
			return "", errors.ErrInvalidPhoneNumber
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "233"):
		digits = "0" + digits[3:]
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		// already local form
	default:
		return "", errors.ErrInvalidPhoneNumber
	}
	return digits, nil
}

// ValidatePhone normalizes the number and checks it against the
// carrier's prefix table. Returns the normalized local form.
func ValidatePhone(network Network, raw string) (string, error) {
	prefixes, ok := networkPrefixes[network]
	if !ok {
		return "", errors.ErrUnknownNetwork
	}

	normalized, err := NormalizePhone(raw)
	if err != nil {
		return "", err
	}

	for _, p := range prefixes {
		if strings.HasPrefix(normalized, p) {
			return normalized, nil
		}
	}
	return "", errors.ErrInvalidPhoneNumber
}

// ValidNetwork reports whether n is a known carrier.
func ValidNetwork(n Network) bool {
	_, ok := networkPrefixes[n]
	return ok
}
