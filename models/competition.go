package models

import "time"

// CompetitionStatus представляет статусы конкурса, соответствующие ENUM в БД.
type CompetitionStatus string

const (
	CompetitionStatusDraft        CompetitionStatus = "draft"
	CompetitionStatusRegistration CompetitionStatus = "registration"
	CompetitionStatusJudging      CompetitionStatus = "judging"
	CompetitionStatusCompleted    CompetitionStatus = "completed"
	CompetitionStatusCanceled     CompetitionStatus = "canceled"
)

// Competition представляет студенческий конкурс.
type Competition struct {
	ID          int               `json:"id" db:"id"`
	Title       string            `json:"title" db:"title"`
	Description *string           `json:"description,omitempty" db:"description"`
	OrganizerID int               `json:"organizer_id" db:"organizer_id"`
	RegEndDate  time.Time         `json:"reg_end_date" db:"reg_end_date"`
	StartDate   time.Time         `json:"start_date" db:"start_date"`
	EndDate     time.Time         `json:"end_date" db:"end_date"`
	Status      CompetitionStatus `json:"status" db:"status"`
	MaxEntries  int               `json:"max_entries" db:"max_entries"`
	EntryFee    int               `json:"entry_fee" db:"entry_fee"` // в центах, 0 = бесплатно
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	LogoKey     *string           `json:"-" db:"logo_key"`
	LogoURL     *string           `json:"logo_url,omitempty" db:"-"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Organizer   *User              `json:"organizer,omitempty" db:"-"`
	Criteria    []JudgingCriterion `json:"criteria,omitempty" db:"-"`
	Submissions []Submission       `json:"submissions,omitempty" db:"-"`
}
