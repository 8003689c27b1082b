package models

import "time"

// UserRole соответствует ENUM user_role в БД.
type UserRole string

const (
	RoleStudent   UserRole = "student"
	RoleJudge     UserRole = "judge"
	RoleOrganizer UserRole = "organizer"
	RoleAdmin     UserRole = "admin"
	RoleHiring    UserRole = "hiring"
	RoleInvestor  UserRole = "investor"
)

type User struct {
	ID           int      `json:"id" db:"id"`
	FirstName    string   `json:"first_name" db:"first_name"`
	LastName     string   `json:"last_name" db:"last_name"`
	Email        string   `json:"email" db:"email"`
	PasswordHash string   `json:"-" db:"password_hash"`
	Role         UserRole `json:"role" db:"role"`
	TeamID       *int     `json:"team_id,omitempty" db:"team_id"`
	Bio          *string  `json:"bio,omitempty" db:"bio"`

	EmailConfirmed         bool       `json:"email_confirmed" db:"email_confirmed"`
	EmailConfirmationToken *string    `json:"-" db:"email_confirmation_token"`
	PasswordResetToken     *string    `json:"-" db:"password_reset_token"`
	PasswordResetExpiresAt *time.Time `json:"-" db:"password_reset_expires_at"`

	AvatarKey *string `json:"-" db:"avatar_key"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
