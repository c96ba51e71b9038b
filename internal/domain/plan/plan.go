package plan

import (
	"errors"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
)

var ErrUnknownPlan = errors.New("unknown plan")

// Plan is a FASTag subscription offer. Availability is an optional
// expression over {weekday, hour} (weekday 0 = Sunday); empty means always
// available.
type Plan struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AmountPaise  int64  `json:"amountPaise"`
	Availability string `json:"availability,omitempty"`
}

// AvailableAt evaluates the availability window at the given time.
func (p Plan) AvailableAt(now time.Time) (bool, error) {
	cond := strings.TrimSpace(p.Availability)
	if cond == "" {
		return true, nil
	}
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return false, err
	}
	result, err := expr.Evaluate(map[string]interface{}{
		"weekday": int(now.Weekday()),
		"hour":    now.Hour(),
	})
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, errors.New("availability did not evaluate to boolean")
	}
	return b, nil
}

// Catalog holds the orderable plans.
type Catalog struct {
	plans []Plan
}

func NewCatalog(plans []Plan) *Catalog {
	return &Catalog{plans: plans}
}

// DefaultCatalog mirrors the production offers: the 400 plan is always on,
// the 500 plan is a weekend-only offer.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Plan{
		{ID: "400", Name: "400 Plan", AmountPaise: 40000},
		{ID: "500", Name: "500 Plan", AmountPaise: 50000, Availability: "weekday == 0 || weekday == 6"},
	})
}

// Get looks a plan up by id or by the display name shown in prompts, so
// the offered options are themselves valid choices.
func (c *Catalog) Get(choice string) (Plan, error) {
	v := strings.TrimSpace(choice)
	for _, p := range c.plans {
		if p.ID == v || strings.EqualFold(p.Name, v) {
			return p, nil
		}
	}
	return Plan{}, ErrUnknownPlan
}

// Available lists plans orderable at the given time.
func (c *Catalog) Available(now time.Time) []Plan {
	out := make([]Plan, 0, len(c.plans))
	for _, p := range c.plans {
		ok, err := p.AvailableAt(now)
		if err != nil || !ok {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Options renders the selectable plan names for a prompt.
func (c *Catalog) Options(now time.Time) []string {
	plans := c.Available(now)
	out := make([]string, 0, len(plans))
	for _, p := range plans {
		out = append(out, p.Name)
	}
	return out
}
