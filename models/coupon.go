package models

import "time"

// Coupon — купон на оплату взноса за участие в конкурсе.
// CompetitionID == nil означает купон, действительный для любого конкурса.
type Coupon struct {
	ID            int       `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"`
	CompetitionID *int      `json:"competition_id,omitempty" db:"competition_id"`
	MaxUses       int       `json:"max_uses" db:"max_uses"`
	UsedCount     int       `json:"used_count" db:"used_count"`
	ExpiresAt     time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Usable reports whether the coupon can still be redeemed at the given time.
func (c Coupon) Usable(now time.Time) bool {
	return now.Before(c.ExpiresAt) && c.UsedCount < c.MaxUses
}
