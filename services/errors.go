package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrUserAlreadyInTeam      = errors.New("user is already in a team")
	ErrCannotRemoveCaptain    = errors.New("cannot remove the team captain")
	ErrInviteExpired          = errors.New("invite has expired")
	ErrResetTokenExpired      = errors.New("password reset token has expired")
	ErrRegistrationClosed     = errors.New("competition registration is closed")
	ErrCompetitionFull        = errors.New("competition registration is full")
	ErrCouponExpired          = errors.New("coupon has expired or has no remaining uses")
	ErrCouponWrongCompetition = errors.New("coupon is not valid for this competition")
	ErrEntryFeeRequired       = errors.New("competition entry fee requires a valid coupon")

	// Ошибки ядра оценивания
	ErrScoreOutOfRange                = errors.New("score must be between 0 and 100")
	ErrCriterionCompetitionMismatch   = errors.New("criterion does not belong to the submission's competition")
	ErrCriterionWeightInvalid         = errors.New("criterion weight must be positive")
	ErrSubmissionInvalidStatus        = errors.New("invalid submission status provided")
	ErrSubmissionInvalidTransition    = errors.New("invalid submission status transition")
	ErrSubmissionNotEditable          = errors.New("submission can no longer be edited")
	ErrSubmissionRegistrationRequired = errors.New("submitter is not registered for this competition")

	// Ошибки конфликтов
	ErrUserEmailConflict        = errors.New("email address is already in use")
	ErrTeamNameConflict         = errors.New("team name is already in use")
	ErrRegistrationConflict     = errors.New("user or team is already registered for this competition")
	ErrCompetitionTitleConflict = errors.New("competition title already exists")
	ErrSubmissionConflict       = errors.New("a submission for this competition already exists")
	ErrContactRequestConflict   = errors.New("contact request already sent for this submission")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound           = errors.New("user not found")
	ErrTeamNotFound           = errors.New("team not found")
	ErrCompetitionNotFound    = errors.New("competition not found")
	ErrCriterionNotFound      = errors.New("judging criterion not found")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrRegistrationNotFound   = errors.New("registration not found")
	ErrInviteNotFound         = errors.New("invite not found")
	ErrCouponNotFound         = errors.New("coupon not found")
	ErrContactRequestNotFound = errors.New("contact request not found")

	// Ошибки конкурсов
	ErrCompetitionInvalidDateRange = errors.New("competition end date must be after start date")
	ErrCompetitionInvalidRegDate   = errors.New("competition registration deadline must precede the start date")
	ErrCompetitionInvalidCapacity  = errors.New("competition max entries must be positive")
	ErrCompetitionInvalidStatus    = errors.New("invalid competition status provided")
)
