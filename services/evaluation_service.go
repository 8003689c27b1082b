package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Sarsenovv/competition-platform/metrics"
	"github.com/Sarsenovv/competition-platform/models"
	"github.com/Sarsenovv/competition-platform/repositories"
	"golang.org/x/sync/errgroup"
)

const (
	minScoreValue = 0
	maxScoreValue = 100

	defaultLeaderboardLimit = 50

	// Сколько писем о публикации результатов отправляем параллельно.
	publishMailConcurrency = 4
)

// ResultsBroadcaster рассылает события оценивания подписчикам комнаты конкурса.
// Реализуется пакетом live; в тестах подменяется заглушкой.
type ResultsBroadcaster interface {
	BroadcastScoreRecorded(competitionID, submissionID int, finalScore *float64)
	BroadcastResultsPublished(competitionID int, published int64)
}

type RecordScoreInput struct {
	SubmissionID int     `json:"submission_id"`
	JudgeID      int     `json:"-"`
	CriterionID  int     `json:"criterion_id"`
	Value        float64 `json:"score"`
	Comment      *string `json:"comment,omitempty"`
}

type EvaluationService interface {
	// RecordScore создаёт или перезаписывает оценку судьи по критерию и
	// пересчитывает итоговый балл заявки внутри одной транзакции.
	RecordScore(ctx context.Context, input RecordScoreInput) (*models.Score, error)
	ListScores(ctx context.Context, submissionID int) ([]*models.Score, error)
	// PublishResults переводит все оценённые заявки конкурса в status=published.
	PublishResults(ctx context.Context, competitionID int) (int64, error)
	GetLeaderboard(ctx context.Context, competitionID, limit int) ([]models.LeaderboardEntry, error)
}

type evaluationService struct {
	transactor      repositories.Transactor
	submissionRepo  repositories.SubmissionRepository
	scoreRepo       repositories.ScoreRepository
	criterionRepo   repositories.CriterionRepository
	competitionRepo repositories.CompetitionRepository
	userRepo        repositories.UserRepository
	mailer          Mailer
	broadcaster     ResultsBroadcaster
	logger          *slog.Logger
	maxLeaderboard  int
}

func NewEvaluationService(
	transactor repositories.Transactor,
	submissionRepo repositories.SubmissionRepository,
	scoreRepo repositories.ScoreRepository,
	criterionRepo repositories.CriterionRepository,
	competitionRepo repositories.CompetitionRepository,
	userRepo repositories.UserRepository,
	mailer Mailer,
	broadcaster ResultsBroadcaster,
	logger *slog.Logger,
	maxLeaderboard int,
) EvaluationService {
	if maxLeaderboard <= 0 {
		maxLeaderboard = defaultLeaderboardLimit
	}
	return &evaluationService{
		transactor:      transactor,
		submissionRepo:  submissionRepo,
		scoreRepo:       scoreRepo,
		criterionRepo:   criterionRepo,
		competitionRepo: competitionRepo,
		userRepo:        userRepo,
		mailer:          mailer,
		broadcaster:     broadcaster,
		logger:          logger,
		maxLeaderboard:  maxLeaderboard,
	}
}

func (s *evaluationService) RecordScore(ctx context.Context, input RecordScoreInput) (*models.Score, error) {
	if input.Value < minScoreValue || input.Value > maxScoreValue {
		return nil, ErrScoreOutOfRange
	}

	score := &models.Score{
		SubmissionID: input.SubmissionID,
		JudgeID:      input.JudgeID,
		CriterionID:  input.CriterionID,
		Value:        input.Value,
		Comment:      input.Comment,
	}

	var competitionID int
	var finalScore *float64

	err := s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		submission, err := s.submissionRepo.GetByID(ctx, exec, input.SubmissionID)
		if err != nil {
			if errors.Is(err, repositories.ErrSubmissionNotFound) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to get submission %d: %w", input.SubmissionID, err)
		}
		competitionID = submission.CompetitionID

		criterion, err := s.criterionRepo.GetByID(ctx, exec, input.CriterionID)
		if err != nil {
			if errors.Is(err, repositories.ErrCriterionNotFound) {
				return ErrCriterionNotFound
			}
			return fmt.Errorf("failed to get criterion %d: %w", input.CriterionID, err)
		}
		if criterion.CompetitionID != submission.CompetitionID {
			return ErrCriterionCompetitionMismatch
		}

		if err := s.scoreRepo.Upsert(ctx, exec, score); err != nil {
			switch {
			case errors.Is(err, repositories.ErrScoreSubmissionInvalid):
				return ErrSubmissionNotFound
			case errors.Is(err, repositories.ErrScoreCriterionInvalid):
				return ErrCriterionNotFound
			case errors.Is(err, repositories.ErrScoreJudgeInvalid):
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to upsert score: %w", err)
		}

		// Итоговый балл всегда пересчитывается по всем строкам журнала оценок,
		// а не инкрементально: submissions.final_score — только кеш.
		ledger, err := s.scoreRepo.ListWithWeights(ctx, exec, input.SubmissionID)
		if err != nil {
			return fmt.Errorf("failed to list scores for submission %d: %w", input.SubmissionID, err)
		}

		finalScore = ComputeFinalScore(ledger)
		if finalScore == nil {
			return nil
		}

		nextStatus := statusAfterScoring(submission.Status)
		if err := s.submissionRepo.UpdateEvaluation(ctx, exec, submission.ID, finalScore, nextStatus); err != nil {
			if errors.Is(err, repositories.ErrSubmissionNotFound) {
				return ErrSubmissionNotFound
			}
			return fmt.Errorf("failed to persist evaluation for submission %d: %w", submission.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ScoresRecorded.Inc()
	if s.broadcaster != nil {
		s.broadcaster.BroadcastScoreRecorded(competitionID, input.SubmissionID, finalScore)
	}

	return score, nil
}

func (s *evaluationService) ListScores(ctx context.Context, submissionID int) ([]*models.Score, error) {
	if _, err := s.submissionRepo.GetByID(ctx, nil, submissionID); err != nil {
		if errors.Is(err, repositories.ErrSubmissionNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to get submission %d: %w", submissionID, err)
	}

	scores, err := s.scoreRepo.ListBySubmission(ctx, nil, submissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores for submission %d: %w", submissionID, err)
	}
	return scores, nil
}

func (s *evaluationService) PublishResults(ctx context.Context, competitionID int) (int64, error) {
	competition, err := s.competitionRepo.GetByID(ctx, competitionID)
	if err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return 0, ErrCompetitionNotFound
		}
		return 0, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	var publishedSubmissions []*models.Submission

	err = s.transactor.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		publishedSubmissions, err = s.submissionRepo.PublishByCompetition(ctx, exec, competitionID, PublishableStatuses())
		if err != nil {
			return fmt.Errorf("failed to publish results for competition %d: %w", competitionID, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	published := int64(len(publishedSubmissions))

	metrics.ResultsPublished.Inc()
	if s.broadcaster != nil {
		s.broadcaster.BroadcastResultsPublished(competitionID, published)
	}

	// Уведомляются только владельцы заявок, опубликованных этим вызовом:
	// повторная публикация не рассылает письма заново.
	if published > 0 {
		go s.notifyPublished(competition, publishedSubmissions)
	}

	return published, nil
}

func (s *evaluationService) GetLeaderboard(ctx context.Context, competitionID, limit int) ([]models.LeaderboardEntry, error) {
	started := time.Now()

	if _, err := s.competitionRepo.GetByID(ctx, competitionID); err != nil {
		if errors.Is(err, repositories.ErrCompetitionNotFound) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition %d: %w", competitionID, err)
	}

	if limit <= 0 || limit > s.maxLeaderboard {
		limit = s.maxLeaderboard
	}

	status := models.SubmissionStatusPublished
	submissions, err := s.submissionRepo.ListByCompetition(ctx, nil, competitionID, &status)
	if err != nil {
		return nil, fmt.Errorf("failed to list published submissions for competition %d: %w", competitionID, err)
	}

	entries := BuildLeaderboard(submissions, limit)
	metrics.LeaderboardDuration.Observe(time.Since(started).Seconds())
	return entries, nil
}

func (s *evaluationService) notifyPublished(competition *models.Competition, submissions []*models.Submission) {
	if s.mailer == nil || len(submissions) == 0 {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(publishMailConcurrency)

	for _, submission := range submissions {
		submission := submission
		g.Go(func() error {
			owner, err := s.userRepo.GetByID(context.Background(), submission.OwnerID)
			if err != nil {
				s.logger.Error("publish notification: failed to load owner",
					slog.Int("submission_id", submission.ID),
					slog.Any("error", err))
				metrics.EmailsFailed.Inc()
				return nil
			}
			if err := s.mailer.SendResultsPublishedEmail(owner.Email, owner.FirstName, competition.Title, submission.Title, submission.FinalScore); err != nil {
				s.logger.Error("publish notification: failed to send email",
					slog.Int("submission_id", submission.ID),
					slog.Any("error", err))
				metrics.EmailsFailed.Inc()
			}
			return nil
		})
	}
	_ = g.Wait()
}

// ComputeFinalScore возвращает средневзвешенный балл журнала оценок
// или nil, если оценок нет. Вес NULL/<=0 приводится к 1.
func ComputeFinalScore(ledger []models.CriterionScore) *float64 {
	if len(ledger) == 0 {
		return nil
	}

	var weightedSum, weightSum float64
	for _, entry := range ledger {
		weight := entry.EffectiveWeight()
		weightedSum += entry.Value * weight
		weightSum += weight
	}

	final := weightedSum / weightSum
	return &final
}

// statusAfterScoring продвигает статус только из submitted в under_review.
// Заявка, уже продвинутая админом (shortlisted/winner/...), не откатывается.
func statusAfterScoring(current models.SubmissionStatus) models.SubmissionStatus {
	if current == models.SubmissionStatusSubmitted {
		return models.SubmissionStatusUnderReview
	}
	return current
}

// PublishableStatuses — статусы, из которых публикация переводит заявку
// в published. submitted и disqualified никогда не публикуются.
func PublishableStatuses() []models.SubmissionStatus {
	return []models.SubmissionStatus{
		models.SubmissionStatusUnderReview,
		models.SubmissionStatusShortlisted,
		models.SubmissionStatusWinner,
		models.SubmissionStatusNotWinner,
	}
}

// BuildLeaderboard строит рейтинг по опубликованным заявкам:
// final_score DESC, при равенстве — created_at ASC (ранняя заявка выше),
// затем id ASC для стабильности. Заявки без балла исключаются.
func BuildLeaderboard(submissions []*models.Submission, limit int) []models.LeaderboardEntry {
	ranked := make([]*models.Submission, 0, len(submissions))
	for _, submission := range submissions {
		if submission.Status != models.SubmissionStatusPublished || submission.FinalScore == nil {
			continue
		}
		ranked = append(ranked, submission)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if *ranked[i].FinalScore != *ranked[j].FinalScore {
			return *ranked[i].FinalScore > *ranked[j].FinalScore
		}
		if !ranked[i].CreatedAt.Equal(ranked[j].CreatedAt) {
			return ranked[i].CreatedAt.Before(ranked[j].CreatedAt)
		}
		return ranked[i].ID < ranked[j].ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	entries := make([]models.LeaderboardEntry, 0, len(ranked))
	for i, submission := range ranked {
		entries = append(entries, models.LeaderboardEntry{
			Rank:         i + 1,
			SubmissionID: submission.ID,
			Title:        submission.Title,
			TeamName:     submission.TeamName,
			FinalScore:   *submission.FinalScore,
		})
	}
	return entries
}
