package models

import "time"

// Score — оценка одного судьи по одному критерию для одной заявки.
// Уникальность по (submission_id, judge_id, criterion_id).
type Score struct {
	ID           int       `json:"id" db:"id"`
	SubmissionID int       `json:"submission_id" db:"submission_id"`
	JudgeID      int       `json:"judge_id" db:"judge_id"`
	CriterionID  int       `json:"criterion_id" db:"criterion_id"`
	Value        float64   `json:"score" db:"score"`
	Comment      *string   `json:"comment,omitempty" db:"comment"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	Judge     *User             `json:"judge,omitempty" db:"-"`
	Criterion *JudgingCriterion `json:"criterion,omitempty" db:"-"`
}

// CriterionScore — строка выборки "оценка + вес критерия" для агрегации.
type CriterionScore struct {
	CriterionID int      `json:"criterion_id" db:"criterion_id"`
	Value       float64  `json:"score" db:"score"`
	Weight      *float64 `json:"weight,omitempty" db:"weight"`
}

// EffectiveWeight возвращает вес с приведением: отсутствующий
// или неположительный вес считается равным 1.
func (cs CriterionScore) EffectiveWeight() float64 {
	if cs.Weight == nil || *cs.Weight <= 0 {
		return 1
	}
	return *cs.Weight
}
