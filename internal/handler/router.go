package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/metrics"
	"github.com/hitoshi/gymdesk/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Authenticator     middleware.Authenticator
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRF              middleware.CSRFConfig

	// ロール検証とページキャッシュ
	Guard AccessGuard
	Cache PageCache

	// 認証
	AccountService AccountServiceInterface
	Cookie         identity.CookieConfig

	// ジム管理
	MemberService   MemberServiceInterface
	PlanService     PlanServiceInterface
	ProgressService ProgressServiceInterface
	BillingService  BillingServiceInterface
	OverviewService OverviewServiceInterface
	Assistant       ChatAssistantInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Dispatcher → RateLimit(General) → CSRF
//
// /metricsとヘルスチェックはレート制限とCSRFの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewDispatcherMiddleware(deps.Authenticator, deps.Metrics))

	authHandler := NewAuthHandler(deps.AccountService, deps.Cookie)
	dashboardHandler := NewDashboardHandler(deps.Guard)
	adminHandler := NewAdminHandler(deps.Guard, deps.Cache, deps.MemberService, deps.BillingService, deps.OverviewService)
	trainerHandler := NewTrainerHandler(deps.Guard, deps.Cache, deps.MemberService, deps.PlanService, deps.OverviewService)
	clientHandler := NewClientHandler(deps.Guard, deps.Cache, deps.PlanService, deps.ProgressService, deps.OverviewService)
	apiHandler := NewAPIHandler(deps.Guard, deps.BillingService, deps.PlanService, deps.Assistant)

	// --- レート制限の外 ---
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	r.Get("/api/health", apiHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Get("/login", authHandler.LoginPage)
			r.Post("/login", authHandler.Login)
			r.Get("/signup", authHandler.SignupPage)
			r.Post("/signup", authHandler.Signup)
		})
		r.Post("/signout", authHandler.Signout)

		// ダッシュボード
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/", dashboardHandler.Root)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/", adminHandler.Overview)
				r.Get("/members", adminHandler.Members)
				r.Post("/members/{id}/trainer", adminHandler.AssignTrainer)
				r.Delete("/members/{id}", adminHandler.DeleteMember)
				r.Get("/trainers", adminHandler.Trainers)
				r.Delete("/trainers/{id}", adminHandler.DeleteTrainer)
				r.Get("/payments", adminHandler.Payments)
			})

			r.Route("/trainer", func(r chi.Router) {
				r.Get("/", trainerHandler.Overview)
				r.Get("/clients", trainerHandler.Clients)

				r.Get("/workout-plans", trainerHandler.WorkoutPlans)
				r.Post("/workout-plans", trainerHandler.CreateWorkoutPlan)
				r.Put("/workout-plans/{id}", trainerHandler.UpdateWorkoutPlan)
				r.Delete("/workout-plans/{id}", trainerHandler.DeleteWorkoutPlan)

				r.Get("/diet-plans", trainerHandler.DietPlans)
				r.Post("/diet-plans", trainerHandler.CreateDietPlan)
				r.Put("/diet-plans/{id}", trainerHandler.UpdateDietPlan)
				r.Delete("/diet-plans/{id}", trainerHandler.DeleteDietPlan)
			})

			r.Route("/client", func(r chi.Router) {
				r.Get("/", clientHandler.Overview)
				r.Get("/progress", clientHandler.Progress)
				r.Post("/progress", clientHandler.RecordProgress)
				r.Get("/workout-plans", clientHandler.WorkoutPlans)
				r.Get("/diet-plans", clientHandler.DietPlans)
				r.Get("/chatbot", clientHandler.Chatbot)
			})
		})

		// JSON API
		r.Route("/api", func(r chi.Router) {
			r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))
			r.With(deps.RateLimiter.ChatMiddleware()).Post("/chatbot", apiHandler.Chatbot)

			r.Post("/payments", apiHandler.CreatePayment)
			r.Get("/payments", apiHandler.ListPayments)
			r.Post("/salary", apiHandler.CreateSalary)
			r.Get("/salary", apiHandler.ListSalaries)
			r.Post("/workout-exercises", apiHandler.CreateExercise)
			r.Get("/workout-exercises", apiHandler.ListExercises)
			r.Post("/diet-meals", apiHandler.CreateMeal)
			r.Get("/diet-meals", apiHandler.ListMeals)
		})
	})

	return r
}
