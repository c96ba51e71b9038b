package validate

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var verr *Error
	require.True(t, errors.As(err, &verr))
	return verr.Kind
}

func TestVehicleNumber(t *testing.T) {
	v, err := VehicleNumber(" mh12ab1234 ")
	require.NoError(t, err)
	assert.Equal(t, "MH12AB1234", v)

	v, err = VehicleNumber("KA05 M 7777")
	require.NoError(t, err)
	assert.Equal(t, "KA05M7777", v)

	for _, bad := range []string{"", "MH12341234", "M12AB1234", "MH12AB123"} {
		_, err := VehicleNumber(bad)
		require.Error(t, err, bad)
		assert.Equal(t, KindBadVehicleFormat, kindOf(t, err))
	}
}

func TestEngineNumber(t *testing.T) {
	v, err := EngineNumber(" 12345 ")
	require.NoError(t, err)
	assert.Equal(t, "12345", v)

	for _, bad := range []string{"", "1234", "123456", "12a45"} {
		_, err := EngineNumber(bad)
		require.Error(t, err, bad)
	}
}

func TestMobileNumber(t *testing.T) {
	v, err := MobileNumber("9876543210")
	require.NoError(t, err)
	assert.Equal(t, "9876543210", v)

	for _, bad := range []string{"987654321", "98765432100", "5876543210", "98765abc10"} {
		_, err := MobileNumber(bad)
		require.Error(t, err, bad)
		assert.Equal(t, KindBadMobileFormat, kindOf(t, err))
	}
}

func TestOTP(t *testing.T) {
	v, err := OTP("1234", 4)
	require.NoError(t, err)
	assert.Equal(t, "1234", v)

	_, err = OTP("1234", 6)
	require.Error(t, err)
	assert.Equal(t, KindBadOTPFormat, kindOf(t, err))

	_, err = OTP("12a456", 6)
	require.Error(t, err)
}

func TestDOB(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	v, err := DOB("15-08-1990", now)
	require.NoError(t, err)
	assert.Equal(t, "15-08-1990", v)

	// calendar-invalid
	_, err = DOB("31-02-1990", now)
	require.Error(t, err)

	// wrong layout
	_, err = DOB("1990-08-15", now)
	require.Error(t, err)

	// under 18
	_, err = DOB("15-08-2010", now)
	require.Error(t, err)

	// future
	_, err = DOB("15-08-2030", now)
	require.Error(t, err)

	// too old
	_, err = DOB("15-08-1890", now)
	require.Error(t, err)
}

func TestIDNumber(t *testing.T) {
	v, err := IDNumber("PAN", "abcde1234f")
	require.NoError(t, err)
	assert.Equal(t, "ABCDE1234F", v)

	_, err = IDNumber("PAN", "ABC1234567")
	require.Error(t, err)
	assert.Equal(t, KindBadIDNumberFormat, kindOf(t, err))

	v, err = IDNumber("PASSPORT", "a1234567")
	require.NoError(t, err)
	assert.Equal(t, "A1234567", v)

	_, err = IDNumber("PASSPORT", "12345678")
	require.Error(t, err)

	// DL and Voter ID are shape-checked only
	v, err = IDNumber("DRIVING_LICENSE", "mh0220110012345")
	require.NoError(t, err)
	assert.Equal(t, "MH0220110012345", v)

	_, err = IDNumber("VOTER_ID", "")
	require.Error(t, err)
}

func TestSerialSuffix(t *testing.T) {
	v, err := SerialSuffix("0042")
	require.NoError(t, err)
	assert.Equal(t, "0042", v)

	for _, bad := range []string{"42", "00042", "ab42"} {
		_, err := SerialSuffix(bad)
		require.Error(t, err, bad)
	}
}

func TestName(t *testing.T) {
	v, err := Name("  Asha ")
	require.NoError(t, err)
	assert.Equal(t, "Asha", v)

	_, err = Name("   ")
	require.Error(t, err)
}
