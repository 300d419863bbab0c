package domain

import "time"

// Coupon is the stored form of a coupon. ServiceID selects the coupon type
// that interprets Amount.
type Coupon struct {
	Code             string     `json:"code"`
	ServiceID        string     `json:"serviceId"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"shortDescription,omitempty"`
	Description      string     `json:"description,omitempty"`
	Amount           float64    `json:"amount"`
	Cumulative       bool       `json:"cumulative"`
	RemovingPostage  bool       `json:"removingPostage"`
	Enabled          bool       `json:"enabled"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}
