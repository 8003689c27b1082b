package models

import "time"

// ContactRequestStatus соответствует ENUM contact_request_status в БД.
type ContactRequestStatus string

const (
	ContactRequestStatusPending  ContactRequestStatus = "pending"
	ContactRequestStatusAccepted ContactRequestStatus = "accepted"
	ContactRequestStatusDeclined ContactRequestStatus = "declined"
)

// ContactRequest — запрос контакта от работодателя/инвестора к автору заявки.
type ContactRequest struct {
	ID           int                  `json:"id" db:"id"`
	RequesterID  int                  `json:"requester_id" db:"requester_id"`
	SubmissionID int                  `json:"submission_id" db:"submission_id"`
	Message      string               `json:"message" db:"message"`
	Status       ContactRequestStatus `json:"status" db:"status"`
	CreatedAt    time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at" db:"updated_at"`

	Requester  *User       `json:"requester,omitempty" db:"-"`
	Submission *Submission `json:"submission,omitempty" db:"-"`
}
