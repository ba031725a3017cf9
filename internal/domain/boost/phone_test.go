package boost

import (
	"testing"

	domainErrors "github.com/kasoamart/boostpay/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePhone_AcceptedFormats(t *testing.T) {
	tests := []struct {
		name    string
		network Network
		input   string
		want    string
	}{
		{"local mtn", NetworkMTN, "0541234567", "0541234567"},
		{"international mtn", NetworkMTN, "233541234567", "0541234567"},
		{"plus international mtn", NetworkMTN, "+233541234567", "0541234567"},
		{"spaced", NetworkMTN, "054 123 4567", "0541234567"},
		{"dashed", NetworkVodafone, "020-123-4567", "0201234567"},
		{"vodafone 050", NetworkVodafone, "0501234567", "0501234567"},
		{"airteltigo 027", NetworkAirtelTigo, "0271234567", "0271234567"},
		{"airteltigo 057", NetworkAirtelTigo, "0571234567", "0571234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePhone(tt.network, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePhone_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		network Network
		input   string
		wantErr error
	}{
		{"wrong carrier", NetworkVodafone, "0541234567", domainErrors.ErrInvalidPhoneNumber},
		{"too short", NetworkMTN, "054123", domainErrors.ErrInvalidPhoneNumber},
		{"too long", NetworkMTN, "05412345678", domainErrors.ErrInvalidPhoneNumber},
		{"letters", NetworkMTN, "054abc4567", domainErrors.ErrInvalidPhoneNumber},
		{"plus not leading", NetworkMTN, "054+1234567", domainErrors.ErrInvalidPhoneNumber},
		{"missing leading zero", NetworkMTN, "5412345678", domainErrors.ErrInvalidPhoneNumber},
		{"unknown network", Network("orange"), "0541234567", domainErrors.ErrUnknownNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePhone(tt.network, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidNetwork(t *testing.T) {
	assert.True(t, ValidNetwork(NetworkMTN))
	assert.True(t, ValidNetwork(NetworkVodafone))
	assert.True(t, ValidNetwork(NetworkAirtelTigo))
	assert.False(t, ValidNetwork(Network("orange")))
}
