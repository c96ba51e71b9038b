package plan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogAvailability(t *testing.T) {
	c := DefaultCatalog()

	saturday := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	weekend := c.Available(saturday)
	require.Len(t, weekend, 2)

	weekday := c.Available(monday)
	require.Len(t, weekday, 1)
	assert.Equal(t, "400", weekday[0].ID)
}

func TestGet(t *testing.T) {
	c := DefaultCatalog()

	p, err := c.Get("500")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), p.AmountPaise)

	_, err = c.Get("750")
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestGetAcceptsDisplayedOption(t *testing.T) {
	c := DefaultCatalog()

	// Every option shown in a prompt resolves back to its plan.
	for _, name := range c.Options(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		p, err := c.Get(name)
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
	}

	p, err := c.Get("  400 plan ")
	require.NoError(t, err)
	assert.Equal(t, "400", p.ID)
}

func TestAvailableAtExpressionErrors(t *testing.T) {
	p := Plan{ID: "x", Availability: "weekday +"}
	_, err := p.AvailableAt(time.Now())
	assert.Error(t, err)

	p = Plan{ID: "y", Availability: "weekday + 1"}
	_, err = p.AvailableAt(time.Now())
	assert.Error(t, err)
}
