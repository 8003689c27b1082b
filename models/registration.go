package models

import "time"

// RegistrationStatus соответствует ENUM registration_status в БД.
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusCanceled  RegistrationStatus = "canceled"
)

// Registration — запись об участии пользователя/команды в конкурсе.
type Registration struct {
	ID            int                `json:"id" db:"id"`
	CompetitionID int                `json:"competition_id" db:"competition_id"`
	UserID        int                `json:"user_id" db:"user_id"`
	TeamID        *int               `json:"team_id,omitempty" db:"team_id"`
	CouponID      *int               `json:"coupon_id,omitempty" db:"coupon_id"`
	Status        RegistrationStatus `json:"status" db:"status"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`

	User        *User        `json:"user,omitempty" db:"-"`
	Team        *Team        `json:"team,omitempty" db:"-"`
	Competition *Competition `json:"-" db:"-"`
}
