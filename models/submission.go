package models

import "time"

// SubmissionStatus соответствует ENUM submission_status в БД.
type SubmissionStatus string

const (
	SubmissionStatusSubmitted    SubmissionStatus = "submitted"
	SubmissionStatusUnderReview  SubmissionStatus = "under_review"
	SubmissionStatusShortlisted  SubmissionStatus = "shortlisted"
	SubmissionStatusWinner       SubmissionStatus = "winner"
	SubmissionStatusNotWinner    SubmissionStatus = "not_winner"
	SubmissionStatusDisqualified SubmissionStatus = "disqualified"
	SubmissionStatusPublished    SubmissionStatus = "published"
)

// Valid reports whether s is one of the known submission statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusSubmitted, SubmissionStatusUnderReview,
		SubmissionStatusShortlisted, SubmissionStatusWinner,
		SubmissionStatusNotWinner, SubmissionStatusDisqualified,
		SubmissionStatusPublished:
		return true
	}
	return false
}

// Attachment описывает один прикреплённый файл проекта.
type Attachment struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// Submission представляет проект, поданный на конкурс.
type Submission struct {
	ID            int     `json:"id" db:"id"`
	CompetitionID int     `json:"competition_id" db:"competition_id"`
	OwnerID       int     `json:"owner_id" db:"owner_id"`
	TeamName      *string `json:"team_name,omitempty" db:"team_name"`
	Title         string  `json:"title" db:"title"`
	Summary       *string `json:"summary,omitempty" db:"summary"`

	RepoURL    *string      `json:"repo_url,omitempty" db:"repo_url"`
	StorageURL *string      `json:"storage_url,omitempty" db:"storage_url"`
	VideoURL   *string      `json:"video_url,omitempty" db:"video_url"`
	ArchiveURL *string      `json:"archive_url,omitempty" db:"archive_url"`
	Attachments []Attachment `json:"attachments" db:"-"` // хранится как JSONB колонка attachments

	Status SubmissionStatus `json:"status" db:"status"`
	// FinalScore — денормализованный кеш; всегда пересчитывается из таблицы scores.
	FinalScore *float64 `json:"final_score,omitempty" db:"final_score"`
	Feedback   *string  `json:"feedback,omitempty" db:"feedback"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Опциональные связанные сущности
	Owner       *User        `json:"owner,omitempty" db:"-"`
	Competition *Competition `json:"-" db:"-"`
	Scores      []Score      `json:"scores,omitempty" db:"-"`
}

// LeaderboardEntry — строка публичного рейтинга конкурса.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	SubmissionID int     `json:"submission_id"`
	Title        string  `json:"title"`
	TeamName     *string `json:"team_name,omitempty"`
	FinalScore   float64 `json:"final_score"`
}
