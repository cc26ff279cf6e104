package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/gymdesk/internal/access"
	"github.com/hitoshi/gymdesk/internal/account"
	"github.com/hitoshi/gymdesk/internal/billing"
	"github.com/hitoshi/gymdesk/internal/chat"
	"github.com/hitoshi/gymdesk/internal/dashboard"
	"github.com/hitoshi/gymdesk/internal/identity"
	"github.com/hitoshi/gymdesk/internal/member"
	"github.com/hitoshi/gymdesk/internal/model"
	"github.com/hitoshi/gymdesk/internal/plan"
	"github.com/hitoshi/gymdesk/internal/progress"
)

// --- 呼び出し元のフィクスチャ ---

const (
	adminToken         = "admin-token"
	trainerToken       = "trainer-token"
	otherTrainerToken  = "other-trainer-token"
	clientToken        = "client-token"
	noProfileToken     = "no-profile-token"
	trainerNoRowsToken = "trainer-no-rows-token"
)

type stubResolver struct {
	profiles map[string]*model.UserProfile
	err      error
}

func (s *stubResolver) Resolve(_ context.Context, token string) (*model.UserProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profiles[token], nil
}

type stubTrainerFinder map[string]*model.TrainerProfile

func (s stubTrainerFinder) FindByUserID(_ context.Context, userID string) (*model.TrainerProfile, error) {
	return s[userID], nil
}

type stubClientFinder map[string]*model.ClientProfile

func (s stubClientFinder) FindByUserID(_ context.Context, userID string) (*model.ClientProfile, error) {
	return s[userID], nil
}

// newTestGuard は各ロールの呼び出し元を解決できるaccess.Guardを生成する。
// トークンがない、または未知のトークンは未認証として扱われる。
func newTestGuard() *access.Guard {
	assigned := "t-1"
	resolver := &stubResolver{profiles: map[string]*model.UserProfile{
		adminToken:         {ID: "u-admin", Email: "admin@example.com", Role: model.RoleAdmin},
		trainerToken:       {ID: "u-trainer", Email: "trainer@example.com", Role: model.RoleTrainer},
		otherTrainerToken:  {ID: "u-trainer-2", Email: "trainer2@example.com", Role: model.RoleTrainer},
		clientToken:        {ID: "u-client", Email: "client@example.com", Role: model.RoleClient},
		noProfileToken:     {ID: "u-none", Role: model.RoleNone},
		trainerNoRowsToken: {ID: "u-trainer-orphan", Role: model.RoleTrainer},
	}}
	trainers := stubTrainerFinder{
		"u-trainer":   {ID: "t-1", UserID: "u-trainer"},
		"u-trainer-2": {ID: "t-2", UserID: "u-trainer-2"},
	}
	clients := stubClientFinder{
		"u-client": {ID: "c-1", UserID: "u-client", AssignedTrainerID: &assigned},
	}
	return access.NewGuard(resolver, trainers, clients)
}

// asUser はアクセストークンCookieを付与する。
func asUser(r *http.Request, token string) *http.Request {
	r.AddCookie(&http.Cookie{Name: identity.CookieName, Value: token})
	return r
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return result
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	if w.Code != status {
		t.Errorf("status = %d, want %d", w.Code, status)
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Location = %q, want %q", got, location)
	}
}

// --- ページキャッシュ ---

type memoryPageCache struct {
	entries map[string][]byte
	gets    int
	gen     uint64
}

func newMemoryPageCache() *memoryPageCache {
	return &memoryPageCache{entries: make(map[string][]byte)}
}

func (c *memoryPageCache) Get(userID, path string) ([]byte, bool) {
	c.gets++
	b, ok := c.entries[userID+" "+path]
	return b, ok
}

func (c *memoryPageCache) Set(userID, path string, body []byte) {
	c.entries[userID+" "+path] = body
}

func (c *memoryPageCache) Generation() uint64 { return c.gen }

func (c *memoryPageCache) SetIfCurrent(userID, path string, body []byte, gen uint64) bool {
	if gen != c.gen {
		return false
	}
	c.Set(userID, path, body)
	return true
}

// Invalidate は世代を進めて全エントリを捨てる。
func (c *memoryPageCache) Invalidate(prefixes ...string) {
	c.gen++
	c.entries = make(map[string][]byte)
}

// --- サービスのモック ---

type mockAccountService struct {
	signUpFn  func(ctx context.Context, in account.SignUpInput) (*model.UserProfile, error)
	signInFn  func(ctx context.Context, email, password string) (*account.SignInResult, error)
	signOutFn func(ctx context.Context, token string)
}

func (m *mockAccountService) SignUp(ctx context.Context, in account.SignUpInput) (*model.UserProfile, error) {
	if m.signUpFn != nil {
		return m.signUpFn(ctx, in)
	}
	return &model.UserProfile{}, nil
}

func (m *mockAccountService) SignIn(ctx context.Context, email, password string) (*account.SignInResult, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAccountService) SignOut(ctx context.Context, token string) {
	if m.signOutFn != nil {
		m.signOutFn(ctx, token)
	}
}

type mockMemberService struct {
	assignTrainerFn       func(ctx context.Context, clientID, trainerID string) error
	deleteMemberFn        func(ctx context.Context, clientID string) error
	deleteTrainerFn       func(ctx context.Context, trainerID string) error
	listMembersFn         func(ctx context.Context) (*member.MembersView, error)
	listTrainersFn        func(ctx context.Context) ([]model.TrainerProfile, error)
	listAssignedClientsFn func(ctx context.Context, trainerID string) ([]model.ClientProfile, error)
}

func (m *mockMemberService) AssignTrainer(ctx context.Context, clientID, trainerID string) error {
	if m.assignTrainerFn != nil {
		return m.assignTrainerFn(ctx, clientID, trainerID)
	}
	return nil
}

func (m *mockMemberService) DeleteMember(ctx context.Context, clientID string) error {
	if m.deleteMemberFn != nil {
		return m.deleteMemberFn(ctx, clientID)
	}
	return nil
}

func (m *mockMemberService) DeleteTrainer(ctx context.Context, trainerID string) error {
	if m.deleteTrainerFn != nil {
		return m.deleteTrainerFn(ctx, trainerID)
	}
	return nil
}

func (m *mockMemberService) ListMembers(ctx context.Context) (*member.MembersView, error) {
	if m.listMembersFn != nil {
		return m.listMembersFn(ctx)
	}
	return &member.MembersView{}, nil
}

func (m *mockMemberService) ListTrainers(ctx context.Context) ([]model.TrainerProfile, error) {
	if m.listTrainersFn != nil {
		return m.listTrainersFn(ctx)
	}
	return nil, nil
}

func (m *mockMemberService) ListAssignedClients(ctx context.Context, trainerID string) ([]model.ClientProfile, error) {
	if m.listAssignedClientsFn != nil {
		return m.listAssignedClientsFn(ctx, trainerID)
	}
	return nil, nil
}

type mockPlanService struct {
	createWorkoutPlanFn   func(ctx context.Context, trainerID string, in model.WorkoutPlanInput) (*model.WorkoutPlan, error)
	updateWorkoutPlanFn   func(ctx context.Context, trainerID, planID string, in model.WorkoutPlanInput) error
	deleteWorkoutPlanFn   func(ctx context.Context, trainerID, planID string) error
	addExerciseFn         func(ctx context.Context, trainerID string, ex *model.WorkoutExercise) error
	listExercisesFn       func(ctx context.Context, planID string) ([]model.WorkoutExercise, error)
	trainerWorkoutPlansFn func(ctx context.Context, trainerID string) (*plan.TrainerPlans[model.WorkoutPlan], error)
	clientWorkoutPlansFn  func(ctx context.Context, clientID string) ([]model.WorkoutPlan, error)

	createDietPlanFn   func(ctx context.Context, trainerID string, in model.DietPlanInput) (*model.DietPlan, error)
	updateDietPlanFn   func(ctx context.Context, trainerID, planID string, in model.DietPlanInput) error
	deleteDietPlanFn   func(ctx context.Context, trainerID, planID string) error
	addMealFn          func(ctx context.Context, trainerID string, meal *model.DietMeal) error
	listMealsFn        func(ctx context.Context, planID string) ([]model.DietMeal, error)
	trainerDietPlansFn func(ctx context.Context, trainerID string) (*plan.TrainerPlans[model.DietPlan], error)
	clientDietPlansFn  func(ctx context.Context, clientID string) ([]model.DietPlan, error)
}

func (m *mockPlanService) CreateWorkoutPlan(ctx context.Context, trainerID string, in model.WorkoutPlanInput) (*model.WorkoutPlan, error) {
	if m.createWorkoutPlanFn != nil {
		return m.createWorkoutPlanFn(ctx, trainerID, in)
	}
	return &model.WorkoutPlan{}, nil
}

func (m *mockPlanService) UpdateWorkoutPlan(ctx context.Context, trainerID, planID string, in model.WorkoutPlanInput) error {
	if m.updateWorkoutPlanFn != nil {
		return m.updateWorkoutPlanFn(ctx, trainerID, planID, in)
	}
	return nil
}

func (m *mockPlanService) DeleteWorkoutPlan(ctx context.Context, trainerID, planID string) error {
	if m.deleteWorkoutPlanFn != nil {
		return m.deleteWorkoutPlanFn(ctx, trainerID, planID)
	}
	return nil
}

func (m *mockPlanService) AddExercise(ctx context.Context, trainerID string, ex *model.WorkoutExercise) error {
	if m.addExerciseFn != nil {
		return m.addExerciseFn(ctx, trainerID, ex)
	}
	return nil
}

func (m *mockPlanService) ListExercises(ctx context.Context, planID string) ([]model.WorkoutExercise, error) {
	if m.listExercisesFn != nil {
		return m.listExercisesFn(ctx, planID)
	}
	return []model.WorkoutExercise{}, nil
}

func (m *mockPlanService) TrainerWorkoutPlans(ctx context.Context, trainerID string) (*plan.TrainerPlans[model.WorkoutPlan], error) {
	if m.trainerWorkoutPlansFn != nil {
		return m.trainerWorkoutPlansFn(ctx, trainerID)
	}
	return &plan.TrainerPlans[model.WorkoutPlan]{}, nil
}

func (m *mockPlanService) ClientWorkoutPlans(ctx context.Context, clientID string) ([]model.WorkoutPlan, error) {
	if m.clientWorkoutPlansFn != nil {
		return m.clientWorkoutPlansFn(ctx, clientID)
	}
	return nil, nil
}

func (m *mockPlanService) CreateDietPlan(ctx context.Context, trainerID string, in model.DietPlanInput) (*model.DietPlan, error) {
	if m.createDietPlanFn != nil {
		return m.createDietPlanFn(ctx, trainerID, in)
	}
	return &model.DietPlan{}, nil
}

func (m *mockPlanService) UpdateDietPlan(ctx context.Context, trainerID, planID string, in model.DietPlanInput) error {
	if m.updateDietPlanFn != nil {
		return m.updateDietPlanFn(ctx, trainerID, planID, in)
	}
	return nil
}

func (m *mockPlanService) DeleteDietPlan(ctx context.Context, trainerID, planID string) error {
	if m.deleteDietPlanFn != nil {
		return m.deleteDietPlanFn(ctx, trainerID, planID)
	}
	return nil
}

func (m *mockPlanService) AddMeal(ctx context.Context, trainerID string, meal *model.DietMeal) error {
	if m.addMealFn != nil {
		return m.addMealFn(ctx, trainerID, meal)
	}
	return nil
}

func (m *mockPlanService) ListMeals(ctx context.Context, planID string) ([]model.DietMeal, error) {
	if m.listMealsFn != nil {
		return m.listMealsFn(ctx, planID)
	}
	return []model.DietMeal{}, nil
}

func (m *mockPlanService) TrainerDietPlans(ctx context.Context, trainerID string) (*plan.TrainerPlans[model.DietPlan], error) {
	if m.trainerDietPlansFn != nil {
		return m.trainerDietPlansFn(ctx, trainerID)
	}
	return &plan.TrainerPlans[model.DietPlan]{}, nil
}

func (m *mockPlanService) ClientDietPlans(ctx context.Context, clientID string) ([]model.DietPlan, error) {
	if m.clientDietPlansFn != nil {
		return m.clientDietPlansFn(ctx, clientID)
	}
	return nil, nil
}

type mockProgressService struct {
	recordFn  func(ctx context.Context, clientID string, in model.ProgressInput) error
	historyFn func(ctx context.Context, clientID string) (*progress.History, error)
}

func (m *mockProgressService) Record(ctx context.Context, clientID string, in model.ProgressInput) error {
	if m.recordFn != nil {
		return m.recordFn(ctx, clientID, in)
	}
	return nil
}

func (m *mockProgressService) History(ctx context.Context, clientID string) (*progress.History, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, clientID)
	}
	return &progress.History{}, nil
}

type mockBillingService struct {
	recordPaymentFn func(ctx context.Context, in model.PaymentInput) error
	listPaymentsFn  func(ctx context.Context, clientID string) ([]model.Payment, error)
	paymentsPageFn  func(ctx context.Context) (*billing.PaymentsView, error)
	recordSalaryFn  func(ctx context.Context, in model.SalaryInput) error
	listSalariesFn  func(ctx context.Context, trainerID string) ([]model.SalaryRecord, error)
}

func (m *mockBillingService) RecordPayment(ctx context.Context, in model.PaymentInput) error {
	if m.recordPaymentFn != nil {
		return m.recordPaymentFn(ctx, in)
	}
	return nil
}

func (m *mockBillingService) ListPayments(ctx context.Context, clientID string) ([]model.Payment, error) {
	if m.listPaymentsFn != nil {
		return m.listPaymentsFn(ctx, clientID)
	}
	return []model.Payment{}, nil
}

func (m *mockBillingService) PaymentsPage(ctx context.Context) (*billing.PaymentsView, error) {
	if m.paymentsPageFn != nil {
		return m.paymentsPageFn(ctx)
	}
	return &billing.PaymentsView{}, nil
}

func (m *mockBillingService) RecordSalary(ctx context.Context, in model.SalaryInput) error {
	if m.recordSalaryFn != nil {
		return m.recordSalaryFn(ctx, in)
	}
	return nil
}

func (m *mockBillingService) ListSalaries(ctx context.Context, trainerID string) ([]model.SalaryRecord, error) {
	if m.listSalariesFn != nil {
		return m.listSalariesFn(ctx, trainerID)
	}
	return []model.SalaryRecord{}, nil
}

type mockOverviewService struct {
	adminFn   func(ctx context.Context) (*dashboard.AdminOverview, error)
	trainerFn func(ctx context.Context, scope *access.TrainerScope) (*dashboard.TrainerOverview, error)
	clientFn  func(ctx context.Context, scope *access.ClientScope) (*dashboard.ClientOverview, error)
}

func (m *mockOverviewService) Admin(ctx context.Context) (*dashboard.AdminOverview, error) {
	if m.adminFn != nil {
		return m.adminFn(ctx)
	}
	return &dashboard.AdminOverview{}, nil
}

func (m *mockOverviewService) Trainer(ctx context.Context, scope *access.TrainerScope) (*dashboard.TrainerOverview, error) {
	if m.trainerFn != nil {
		return m.trainerFn(ctx, scope)
	}
	return &dashboard.TrainerOverview{}, nil
}

func (m *mockOverviewService) Client(ctx context.Context, scope *access.ClientScope) (*dashboard.ClientOverview, error) {
	if m.clientFn != nil {
		return m.clientFn(ctx, scope)
	}
	return &dashboard.ClientOverview{}, nil
}

type mockAssistant struct {
	configured bool
	askFn      func(ctx context.Context, message string) (*chat.Reply, error)
}

func (m *mockAssistant) Configured() bool { return m.configured }

func (m *mockAssistant) Ask(ctx context.Context, message string) (*chat.Reply, error) {
	if m.askFn != nil {
		return m.askFn(ctx, message)
	}
	return &chat.Reply{}, nil
}
