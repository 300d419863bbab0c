// Package coupon implements the coupon types a stored coupon can select.
package coupon

import (
	"fmt"
	"sort"

	"github.com/soyeahso/backoffice/internal/domain"
)

// Type is a coupon bound to its discount rule.
type Type interface {
	ServiceID() string
	Code() string
	Title() string
	ShortDescription() string
	Description() string
	IsCumulative() bool
	IsRemovingPostage() bool
	// Effect is the signed value the coupon applies; discounts are negative.
	Effect() float64
}

// Base holds the fields shared by every coupon type.
type Base struct {
	code             string
	title            string
	shortDescription string
	description      string
	amount           float64
	cumulative       bool
	removingPostage  bool
}

func (b *Base) Code() string             { return b.code }
func (b *Base) Title() string            { return b.title }
func (b *Base) ShortDescription() string { return b.shortDescription }
func (b *Base) Description() string      { return b.description }
func (b *Base) IsCumulative() bool       { return b.cumulative }
func (b *Base) IsRemovingPostage() bool  { return b.removingPostage }

// Service ids.
const (
	RemoveXAmountID  = "remove_x_amount"
	RemoveXPercentID = "remove_x_percent"
)

// Labels holds the untranslated display name of each built-in type.
var Labels = map[string]string{
	RemoveXAmountID:  "Remove X amount to total cart",
	RemoveXPercentID: "Remove X percent to total cart",
}

// RemoveXAmount removes a fixed amount from the cart total.
type RemoveXAmount struct {
	Base
}

// NewRemoveXAmount creates a fixed-amount coupon.
func NewRemoveXAmount(code, title, shortDescription, description string, amount float64, cumulative, removingPostage bool) *RemoveXAmount {
	return &RemoveXAmount{Base{
		code:             code,
		title:            title,
		shortDescription: shortDescription,
		description:      description,
		amount:           amount,
		cumulative:       cumulative,
		removingPostage:  removingPostage,
	}}
}

func (c *RemoveXAmount) ServiceID() string { return RemoveXAmountID }

// Effect returns the negated amount.
func (c *RemoveXAmount) Effect() float64 { return -c.amount }

// RemoveXPercent removes a percentage of the cart total.
type RemoveXPercent struct {
	Base
}

// NewRemoveXPercent creates a percentage coupon. percent must be in (0, 100].
func NewRemoveXPercent(code, title, shortDescription, description string, percent float64, cumulative, removingPostage bool) (*RemoveXPercent, error) {
	if percent <= 0 || percent > 100 {
		return nil, domain.NewError(domain.CodeInvalidArgument, fmt.Sprintf("percent must be in (0, 100], got %v", percent))
	}
	return &RemoveXPercent{Base{
		code:             code,
		title:            title,
		shortDescription: shortDescription,
		description:      description,
		amount:           percent,
		cumulative:       cumulative,
		removingPostage:  removingPostage,
	}}, nil
}

func (c *RemoveXPercent) ServiceID() string { return RemoveXPercentID }

// Effect returns the negated percentage.
func (c *RemoveXPercent) Effect() float64 { return -c.amount }

// EffectOn returns the discount for a cart total, never more than the total.
func (c *RemoveXPercent) EffectOn(total float64) float64 {
	if total <= 0 {
		return 0
	}
	return -total * c.amount / 100
}

// Builder creates a coupon type from its stored form.
type Builder func(c domain.Coupon) (Type, error)

// Factory maps service ids to builders.
type Factory struct {
	builders map[string]Builder
}

// NewFactory returns a factory that knows the built-in coupon types.
func NewFactory() *Factory {
	f := &Factory{builders: make(map[string]Builder)}
	f.Register(RemoveXAmountID, func(c domain.Coupon) (Type, error) {
		if c.Amount <= 0 {
			return nil, domain.NewError(domain.CodeInvalidArgument, fmt.Sprintf("amount must be positive, got %v", c.Amount))
		}
		return NewRemoveXAmount(c.Code, c.Title, c.ShortDescription, c.Description, c.Amount, c.Cumulative, c.RemovingPostage), nil
	})
	f.Register(RemoveXPercentID, func(c domain.Coupon) (Type, error) {
		return NewRemoveXPercent(c.Code, c.Title, c.ShortDescription, c.Description, c.Amount, c.Cumulative, c.RemovingPostage)
	})
	return f
}

// Register adds or replaces the builder of a service id.
func (f *Factory) Register(serviceID string, b Builder) {
	f.builders[serviceID] = b
}

// Build creates the coupon type selected by c.ServiceID.
func (f *Factory) Build(c domain.Coupon) (Type, error) {
	b, ok := f.builders[c.ServiceID]
	if !ok {
		return nil, domain.NewError(domain.CodeUnknownCouponType, fmt.Sprintf("unknown coupon type %q", c.ServiceID))
	}
	return b(c)
}

// ServiceIDs returns the registered service ids, sorted.
func (f *Factory) ServiceIDs() []string {
	ids := make([]string, 0, len(f.builders))
	for id := range f.builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
