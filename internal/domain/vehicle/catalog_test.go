package vehicle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidMaker(t *testing.T) {
	m, ok := ValidMaker(" toyota ")
	require.True(t, ok)
	assert.Equal(t, "TOYOTA", m)

	_, ok = ValidMaker("TESLA")
	assert.False(t, ok)
}

func TestValidModel(t *testing.T) {
	m, ok := ValidModel("TOYOTA", "innova")
	require.True(t, ok)
	assert.Equal(t, "INNOVA", m)

	_, ok = ValidModel("TOYOTA", "SWIFT")
	assert.False(t, ok)

	// makers without a curated list accept anything non-empty
	m, ok = ValidModel("HONDA", "City")
	require.True(t, ok)
	assert.Equal(t, "CITY", m)

	_, ok = ValidModel("HONDA", "  ")
	assert.False(t, ok)
}

func TestValidDescriptor(t *testing.T) {
	d, ok := ValidDescriptor("petrol")
	require.True(t, ok)
	assert.Equal(t, "Petrol", d)

	_, ok = ValidDescriptor("Steam")
	assert.False(t, ok)
}

func TestMakersSorted(t *testing.T) {
	makers := Makers()
	require.NotEmpty(t, makers)
	for i := 1; i < len(makers); i++ {
		assert.LessOrEqual(t, makers[i-1], makers[i])
	}
}
