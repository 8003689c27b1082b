package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Sarsenovv/competition-platform/handlers"
	"github.com/Sarsenovv/competition-platform/metrics"
	"github.com/Sarsenovv/competition-platform/middleware"
	"github.com/Sarsenovv/competition-platform/models"
)

// SetupRoutes монтирует все HTTP-маршруты платформы.
func SetupRoutes(
	router *chi.Mux,
	jwtManager *middleware.JWTManager,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	inviteHandler *handlers.InviteHandler,
	competitionHandler *handlers.CompetitionHandler,
	criterionHandler *handlers.CriterionHandler,
	registrationHandler *handlers.RegistrationHandler,
	couponHandler *handlers.CouponHandler,
	submissionHandler *handlers.SubmissionHandler,
	evaluationHandler *handlers.EvaluationHandler,
	contactHandler *handlers.ContactHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.Handler())
	router.Handle("/metrics", metrics.Handler())

	// Аутентификация
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/confirm", authHandler.ConfirmEmail)
		r.Post("/forgot-password", authHandler.ForgotPassword)
		r.Post("/reset-password", authHandler.ResetPassword)
	})

	// Пользователи
	router.Route("/users", func(r chi.Router) {
		r.Get("/{userID}", userHandler.GetUserByID)

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Get("/me", userHandler.GetCurrentUser)
			r.Put("/me", userHandler.UpdateProfile)
			r.Post("/me/avatar", userHandler.UploadAvatar)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Put("/{userID}/role", userHandler.SetUserRole)
		})
	})

	// Команды и приглашения
	router.Route("/teams", func(r chi.Router) {
		r.Get("/{teamID}", teamHandler.GetTeamByID)

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Post("/", teamHandler.CreateTeam)
			r.Put("/{teamID}", teamHandler.RenameTeam)
			r.Delete("/{teamID}", teamHandler.DeleteTeam)
			r.Delete("/{teamID}/members/{memberID}", teamHandler.RemoveMember)
			r.Post("/{teamID}/invites", inviteHandler.CreateInvite)
			r.Get("/{teamID}/invites", inviteHandler.ListTeamInvites)
		})
	})

	router.Route("/invites", func(r chi.Router) {
		r.Get("/{token}", inviteHandler.GetInviteByToken)

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Post("/{token}/accept", inviteHandler.AcceptInvite)
		})
	})

	// Конкурсы
	router.Route("/competitions", func(r chi.Router) {
		r.Get("/", competitionHandler.ListCompetitions)
		r.Get("/{competitionID}", competitionHandler.GetCompetitionByID)
		r.Get("/{competitionID}/criteria", criterionHandler.ListCriteria)
		r.Get("/{competitionID}/leaderboard", evaluationHandler.GetLeaderboard)
		r.Get("/{competitionID}/live", webSocketHandler.ServeCompetitionFeed)

		// Управление конкурсом: организаторы и админы
		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Use(middleware.Authorize(models.RoleOrganizer, models.RoleAdmin))

			r.Post("/", competitionHandler.CreateCompetition)
			r.Put("/{competitionID}", competitionHandler.UpdateCompetition)
			r.Patch("/{competitionID}/status", competitionHandler.SetCompetitionStatus)
			r.Delete("/{competitionID}", competitionHandler.DeleteCompetition)
			r.Post("/{competitionID}/logo", competitionHandler.UploadLogo)

			r.Post("/{competitionID}/criteria", criterionHandler.CreateCriterion)

			r.Get("/{competitionID}/registrations", registrationHandler.ListRegistrations)
			r.Get("/{competitionID}/coupons", couponHandler.ListCoupons)

			r.Post("/{competitionID}/publish", evaluationHandler.PublishResults)
		})

		// Участие: любой аутентифицированный пользователь
		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Post("/{competitionID}/registrations", registrationHandler.Register)
			r.Post("/{competitionID}/submissions", submissionHandler.CreateSubmission)
			r.Get("/{competitionID}/submissions", submissionHandler.ListSubmissions)
		})
	})

	router.Route("/criteria", func(r chi.Router) {
		r.Use(jwtManager.Authenticate)
		r.Use(middleware.Authorize(models.RoleOrganizer, models.RoleAdmin))
		r.Put("/{criterionID}", criterionHandler.UpdateCriterion)
		r.Delete("/{criterionID}", criterionHandler.DeleteCriterion)
	})

	router.Route("/registrations", func(r chi.Router) {
		r.Use(jwtManager.Authenticate)
		r.Delete("/{registrationID}", registrationHandler.CancelRegistration)
	})

	router.Route("/coupons", func(r chi.Router) {
		r.Use(jwtManager.Authenticate)
		r.Use(middleware.Authorize(models.RoleOrganizer, models.RoleAdmin))
		r.Post("/", couponHandler.CreateCoupon)
		r.Delete("/{couponID}", couponHandler.DeleteCoupon)
	})

	// Заявки и оценивание
	router.Route("/submissions", func(r chi.Router) {
		r.Get("/{submissionID}", submissionHandler.GetSubmissionByID)

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Put("/{submissionID}", submissionHandler.UpdateSubmission)
			r.Post("/{submissionID}/attachments", submissionHandler.UploadAttachment)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Use(middleware.Authorize(models.RoleJudge, models.RoleAdmin))
			r.Post("/{submissionID}/scores", evaluationHandler.RecordScore)
			r.Get("/{submissionID}/scores", evaluationHandler.ListScores)
		})

		r.Group(func(r chi.Router) {
			r.Use(jwtManager.Authenticate)
			r.Use(middleware.Authorize(models.RoleOrganizer, models.RoleAdmin))
			r.Patch("/{submissionID}/status", submissionHandler.SetSubmissionStatus)
		})
	})

	// Контакты работодателей и инвесторов
	router.Route("/contact-requests", func(r chi.Router) {
		r.Use(jwtManager.Authenticate)
		r.Post("/", contactHandler.CreateContactRequest)
		r.Get("/sent", contactHandler.ListSentContactRequests)
		r.Get("/received", contactHandler.ListReceivedContactRequests)
		r.Patch("/{requestID}", contactHandler.RespondToContactRequest)
	})
}
