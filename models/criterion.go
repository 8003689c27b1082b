package models

import "time"

// JudgingCriterion — взвешенный критерий оценки внутри одного конкурса.
type JudgingCriterion struct {
	ID            int     `json:"id" db:"id"`
	CompetitionID int     `json:"competition_id" db:"competition_id"`
	Name          string  `json:"name" db:"name"`
	// Weight > 0; NULL в БД означает вес по умолчанию (1).
	Weight    *float64  `json:"weight,omitempty" db:"weight"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

