package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/gymdesk/internal/access"
	"github.com/hitoshi/gymdesk/internal/billing"
	"github.com/hitoshi/gymdesk/internal/dashboard"
	"github.com/hitoshi/gymdesk/internal/member"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/plan"
	"github.com/hitoshi/gymdesk/internal/progress"
)

// MemberServiceInterface は会員・トレーナー管理のサービスインターフェース。
type MemberServiceInterface interface {
	AssignTrainer(ctx context.Context, clientID, trainerID string) error
	DeleteMember(ctx context.Context, clientID string) error
	DeleteTrainer(ctx context.Context, trainerID string) error
	ListMembers(ctx context.Context) (*member.MembersView, error)
	ListTrainers(ctx context.Context) ([]model.TrainerProfile, error)
	ListAssignedClients(ctx context.Context, trainerID string) ([]model.ClientProfile, error)
}

// PlanServiceInterface はプラン管理のサービスインターフェース。
type PlanServiceInterface interface {
	CreateWorkoutPlan(ctx context.Context, trainerID string, in model.WorkoutPlanInput) (*model.WorkoutPlan, error)
	UpdateWorkoutPlan(ctx context.Context, trainerID, planID string, in model.WorkoutPlanInput) error
	DeleteWorkoutPlan(ctx context.Context, trainerID, planID string) error
	AddExercise(ctx context.Context, trainerID string, ex *model.WorkoutExercise) error
	ListExercises(ctx context.Context, planID string) ([]model.WorkoutExercise, error)
	TrainerWorkoutPlans(ctx context.Context, trainerID string) (*plan.TrainerPlans[model.WorkoutPlan], error)
	ClientWorkoutPlans(ctx context.Context, clientID string) ([]model.WorkoutPlan, error)

	CreateDietPlan(ctx context.Context, trainerID string, in model.DietPlanInput) (*model.DietPlan, error)
	UpdateDietPlan(ctx context.Context, trainerID, planID string, in model.DietPlanInput) error
	DeleteDietPlan(ctx context.Context, trainerID, planID string) error
	AddMeal(ctx context.Context, trainerID string, meal *model.DietMeal) error
	ListMeals(ctx context.Context, planID string) ([]model.DietMeal, error)
	TrainerDietPlans(ctx context.Context, trainerID string) (*plan.TrainerPlans[model.DietPlan], error)
	ClientDietPlans(ctx context.Context, clientID string) ([]model.DietPlan, error)
}

// ProgressServiceInterface は進捗記録のサービスインターフェース。
type ProgressServiceInterface interface {
	Record(ctx context.Context, clientID string, in model.ProgressInput) error
	History(ctx context.Context, clientID string) (*progress.History, error)
}

// BillingServiceInterface は支払い・給与のサービスインターフェース。
type BillingServiceInterface interface {
	RecordPayment(ctx context.Context, in model.PaymentInput) error
	ListPayments(ctx context.Context, clientID string) ([]model.Payment, error)
	PaymentsPage(ctx context.Context) (*billing.PaymentsView, error)
	RecordSalary(ctx context.Context, in model.SalaryInput) error
	ListSalaries(ctx context.Context, trainerID string) ([]model.SalaryRecord, error)
}

// OverviewServiceInterface はロール別トップページの集計インターフェース。
type OverviewServiceInterface interface {
	Admin(ctx context.Context) (*dashboard.AdminOverview, error)
	Trainer(ctx context.Context, scope *access.TrainerScope) (*dashboard.TrainerOverview, error)
	Client(ctx context.Context, scope *access.ClientScope) (*dashboard.ClientOverview, error)
}

// DashboardHandler は/dashboardのロール振り分けを行う。
type DashboardHandler struct {
	guard AccessGuard
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(guard AccessGuard) *DashboardHandler {
	return &DashboardHandler{guard: guard}
}

// Root はロールに応じたダッシュボードへリダイレクトする。ロールがない場合はログインページへ。
// GET /dashboard
func (h *DashboardHandler) Root(w http.ResponseWriter, r *http.Request) {
	profile, err := h.guard.RequireAny(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, profile.Role.DashboardPath(), http.StatusTemporaryRedirect)
}

// --- 管理者 ---

// AdminHandler は管理者ダッシュボードのHTTPハンドラー。
type AdminHandler struct {
	pages    *pages
	members  MemberServiceInterface
	billing  BillingServiceInterface
	overview OverviewServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(guard AccessGuard, cache PageCache, members MemberServiceInterface, billing BillingServiceInterface, overview OverviewServiceInterface) *AdminHandler {
	return &AdminHandler{
		pages:    &pages{guard: guard, cache: cache},
		members:  members,
		billing:  billing,
		overview: overview,
	}
}

// Overview は管理者トップを返す。
// GET /dashboard/admin
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	profile, err := h.pages.guard.RequireAdmin(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "admin", profile, func() (any, error) {
		return h.overview.Admin(r.Context())
	})
}

// Members は会員一覧を返す。
// GET /dashboard/admin/members
func (h *AdminHandler) Members(w http.ResponseWriter, r *http.Request) {
	profile, err := h.pages.guard.RequireAdmin(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "admin/members", profile, func() (any, error) {
		return h.members.ListMembers(r.Context())
	})
}

// AssignTrainer は会員の担当トレーナーを設定する。
// POST /dashboard/admin/members/{id}/trainer
func (h *AdminHandler) AssignTrainer(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pages.guard.RequireAdmin(r); err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.members.AssignTrainer(r.Context(), chi.URLParam(r, "id"), r.FormValue("trainer_id")); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, member.MembersPath, http.StatusSeeOther)
}

// DeleteMember は会員を削除する。
// DELETE /dashboard/admin/members/{id}
func (h *AdminHandler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pages.guard.RequireAdmin(r); err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.members.DeleteMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, member.MembersPath, http.StatusSeeOther)
}

// Trainers はトレーナー一覧を返す。
// GET /dashboard/admin/trainers
func (h *AdminHandler) Trainers(w http.ResponseWriter, r *http.Request) {
	profile, err := h.pages.guard.RequireAdmin(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "admin/trainers", profile, func() (any, error) {
		trainers, err := h.members.ListTrainers(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{"trainers": trainers}, nil
	})
}

// DeleteTrainer はトレーナーを削除する。
// DELETE /dashboard/admin/trainers/{id}
func (h *AdminHandler) DeleteTrainer(w http.ResponseWriter, r *http.Request) {
	if _, err := h.pages.guard.RequireAdmin(r); err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.members.DeleteTrainer(r.Context(), chi.URLParam(r, "id")); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, member.TrainersPath, http.StatusSeeOther)
}

// Payments は支払い一覧と取得分の合計を返す。
// GET /dashboard/admin/payments
func (h *AdminHandler) Payments(w http.ResponseWriter, r *http.Request) {
	profile, err := h.pages.guard.RequireAdmin(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "admin/payments", profile, func() (any, error) {
		return h.billing.PaymentsPage(r.Context())
	})
}

// --- トレーナー ---

// TrainerHandler はトレーナーダッシュボードのHTTPハンドラー。
// 更新系は全て呼び出し元のトレーナーIDを所有者条件としてサービスに渡す。
type TrainerHandler struct {
	pages    *pages
	members  MemberServiceInterface
	plans    PlanServiceInterface
	overview OverviewServiceInterface
}

// NewTrainerHandler はTrainerHandlerを生成する。
func NewTrainerHandler(guard AccessGuard, cache PageCache, members MemberServiceInterface, plans PlanServiceInterface, overview OverviewServiceInterface) *TrainerHandler {
	return &TrainerHandler{
		pages:    &pages{guard: guard, cache: cache},
		members:  members,
		plans:    plans,
		overview: overview,
	}
}

// Overview はトレーナートップを返す。
// GET /dashboard/trainer
func (h *TrainerHandler) Overview(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "trainer", scope.Profile, func() (any, error) {
		return h.overview.Trainer(r.Context(), scope)
	})
}

// Clients は担当会員一覧を返す。
// GET /dashboard/trainer/clients
func (h *TrainerHandler) Clients(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "trainer/clients", scope.Profile, func() (any, error) {
		clients, err := h.members.ListAssignedClients(r.Context(), scope.TrainerID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"clients": clients}, nil
	})
}

// WorkoutPlans はトレーナーのワークアウトプラン一覧を返す。
// GET /dashboard/trainer/workout-plans
func (h *TrainerHandler) WorkoutPlans(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "trainer/workout-plans", scope.Profile, func() (any, error) {
		return h.plans.TrainerWorkoutPlans(r.Context(), scope.TrainerID)
	})
}

func workoutPlanInput(r *http.Request) model.WorkoutPlanInput {
	return model.WorkoutPlanInput{
		ClientID:        r.FormValue("client_id"),
		PlanName:        r.FormValue("plan_name"),
		Description:     r.FormValue("description"),
		DurationWeeks:   formInt(r, "duration_weeks"),
		DifficultyLevel: r.FormValue("difficulty_level"),
	}
}

// CreateWorkoutPlan はワークアウトプランを作成する。
// POST /dashboard/trainer/workout-plans
func (h *TrainerHandler) CreateWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	if _, err := h.plans.CreateWorkoutPlan(r.Context(), scope.TrainerID, workoutPlanInput(r)); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, plan.WorkoutPlansPath, http.StatusSeeOther)
}

// UpdateWorkoutPlan はワークアウトプランを更新する。
// PUT /dashboard/trainer/workout-plans/{id}
func (h *TrainerHandler) UpdateWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.plans.UpdateWorkoutPlan(r.Context(), scope.TrainerID, chi.URLParam(r, "id"), workoutPlanInput(r)); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, plan.WorkoutPlansPath, http.StatusSeeOther)
}

// DeleteWorkoutPlan はワークアウトプランを削除する。
// DELETE /dashboard/trainer/workout-plans/{id}
func (h *TrainerHandler) DeleteWorkoutPlan(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.plans.DeleteWorkoutPlan(r.Context(), scope.TrainerID, chi.URLParam(r, "id")); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, plan.WorkoutPlansPath, http.StatusSeeOther)
}

// DietPlans はトレーナーの食事プラン一覧を返す。
// GET /dashboard/trainer/diet-plans
func (h *TrainerHandler) DietPlans(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "trainer/diet-plans", scope.Profile, func() (any, error) {
		return h.plans.TrainerDietPlans(r.Context(), scope.TrainerID)
	})
}

func dietPlanInput(r *http.Request) model.DietPlanInput {
	return model.DietPlanInput{
		ClientID:         r.FormValue("client_id"),
		MembershipPlanID: formOptionalString(r, "membership_plan_id"),
		PlanName:         r.FormValue("plan_name"),
		Description:      r.FormValue("description"),
		DailyCalories:    formInt(r, "daily_calories"),
		ProteinGrams:     formFloat(r, "protein_grams"),
		CarbsGrams:       formFloat(r, "carbs_grams"),
		FatGrams:         formFloat(r, "fat_grams"),
	}
}

// CreateDietPlan は食事プランを作成する。
// POST /dashboard/trainer/diet-plans
func (h *TrainerHandler) CreateDietPlan(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	if _, err := h.plans.CreateDietPlan(r.Context(), scope.TrainerID, dietPlanInput(r)); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, plan.DietPlansPath, http.StatusSeeOther)
}

// UpdateDietPlan は食事プランを更新する。
// PUT /dashboard/trainer/diet-plans/{id}
func (h *TrainerHandler) UpdateDietPlan(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.plans.UpdateDietPlan(r.Context(), scope.TrainerID, chi.URLParam(r, "id"), dietPlanInput(r)); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, plan.DietPlansPath, http.StatusSeeOther)
}

// DeleteDietPlan は食事プランを削除する。
// DELETE /dashboard/trainer/diet-plans/{id}
func (h *TrainerHandler) DeleteDietPlan(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireTrainer(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	if err := h.plans.DeleteDietPlan(r.Context(), scope.TrainerID, chi.URLParam(r, "id")); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, plan.DietPlansPath, http.StatusSeeOther)
}

// --- 会員 ---

// ClientHandler は会員ダッシュボードのHTTPハンドラー。
type ClientHandler struct {
	pages    *pages
	plans    PlanServiceInterface
	progress ProgressServiceInterface
	overview OverviewServiceInterface
}

// NewClientHandler はClientHandlerを生成する。
func NewClientHandler(guard AccessGuard, cache PageCache, plans PlanServiceInterface, progress ProgressServiceInterface, overview OverviewServiceInterface) *ClientHandler {
	return &ClientHandler{
		pages:    &pages{guard: guard, cache: cache},
		plans:    plans,
		progress: progress,
		overview: overview,
	}
}

// Overview は会員トップを返す。
// GET /dashboard/client
func (h *ClientHandler) Overview(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireClient(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "client", scope.Profile, func() (any, error) {
		return h.overview.Client(r.Context(), scope)
	})
}

// Progress は進捗記録とグラフ系列を返す。
// GET /dashboard/client/progress
func (h *ClientHandler) Progress(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireClient(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "client/progress", scope.Profile, func() (any, error) {
		return h.progress.History(r.Context(), scope.ClientID)
	})
}

// RecordProgress は呼び出し元会員の進捗を記録する。client_idはフォームから受け取らない。
// POST /dashboard/client/progress
func (h *ClientHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireClient(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	in := model.ProgressInput{
		Weight:            formFloat(r, "weight"),
		BodyFatPercentage: formFloat(r, "body_fat_percentage"),
		MeasurementsChest: formFloat(r, "measurements_chest"),
		MeasurementsWaist: formFloat(r, "measurements_waist"),
		MeasurementsHips:  formFloat(r, "measurements_hips"),
		Notes:             r.FormValue("notes"),
	}
	if err := h.progress.Record(r.Context(), scope.ClientID, in); err != nil {
		handlePageError(w, r, err)
		return
	}
	http.Redirect(w, r, progress.ProgressPath, http.StatusSeeOther)
}

// WorkoutPlans は会員のワークアウトプランを種目付きで返す。
// GET /dashboard/client/workout-plans
func (h *ClientHandler) WorkoutPlans(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireClient(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "client/workout-plans", scope.Profile, func() (any, error) {
		plans, err := h.plans.ClientWorkoutPlans(r.Context(), scope.ClientID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"plans": plans}, nil
	})
}

// DietPlans は会員の食事プランを食事付きで返す。
// GET /dashboard/client/diet-plans
func (h *ClientHandler) DietPlans(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireClient(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	h.pages.render(w, r, "client/diet-plans", scope.Profile, func() (any, error) {
		plans, err := h.plans.ClientDietPlans(r.Context(), scope.ClientID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"plans": plans}, nil
	})
}

// Chatbot はチャットボットページを返す。
// GET /dashboard/client/chatbot
func (h *ClientHandler) Chatbot(w http.ResponseWriter, r *http.Request) {
	scope, err := h.pages.guard.RequireClient(r)
	if err != nil {
		handlePageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageDocument{Page: "client/chatbot", User: scope.Profile})
}
