package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/gymdesk/internal/chat"
	"github.com/hitoshi/gymdesk/internal/middleware"
	"github.com/hitoshi/gymdesk/internal/model"
)

// ChatAssistantInterface はチャットボットAPIが必要とするインターフェース。
type ChatAssistantInterface interface {
	Configured() bool
	Ask(ctx context.Context, message string) (*chat.Reply, error)
}

// APIHandler は/api配下のJSON APIのHTTPハンドラー。
// 認可はページと同じガードで行い、失敗は401 {"error":"Unauthorized"}で返す。
type APIHandler struct {
	guard     AccessGuard
	billing   BillingServiceInterface
	plans     PlanServiceInterface
	assistant ChatAssistantInterface
	now       func() time.Time
}

// NewAPIHandler はAPIHandlerを生成する。
func NewAPIHandler(guard AccessGuard, billing BillingServiceInterface, plans PlanServiceInterface, assistant ChatAssistantInterface) *APIHandler {
	return &APIHandler{
		guard:     guard,
		billing:   billing,
		plans:     plans,
		assistant: assistant,
		now:       time.Now,
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

// decodeBody はJSONボディをフィールド名と値のマップとして読み取る。
// 値の型変換はハンドラーごとに行い、変換できない数値はNULLとする。
func decodeBody(r *http.Request) map[string]any {
	body := map[string]any{}
	if r.Body == nil {
		return body
	}
	json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body)
	return body
}

// Health は死活監視用のレスポンスを返す。
// GET /api/health
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"message":   "Gym Management System API is running",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Chatbot はフィットネスアシスタントの回答を返す。
// POST /api/chatbot
func (h *APIHandler) Chatbot(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.RequireAny(r); err != nil {
		handleAPIError(w, r, err)
		return
	}

	message := strings.TrimSpace(jsonString(decodeBody(r)["message"]))
	if message == "" {
		handleAPIError(w, r, model.NewMessageRequiredError())
		return
	}
	if !h.assistant.Configured() {
		handleAPIError(w, r, model.NewChatNotConfiguredError())
		return
	}

	reply, err := h.assistant.Ask(r.Context(), message)
	if err != nil {
		slog.Error("chatbot error",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		middleware.WriteJSONError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"response": reply.Text,
		"html":     reply.HTML,
	})
}

// CreatePayment は支払いを記録する。
// POST /api/payments
func (h *APIHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.RequireAdmin(r); err != nil {
		handleAPIError(w, r, err)
		return
	}

	body := decodeBody(r)
	in := model.PaymentInput{
		ClientID:      jsonString(body["client_id"]),
		Amount:        jsonFloat(body["amount"]),
		PaymentType:   jsonString(body["payment_type"]),
		PaymentMethod: jsonString(body["payment_method"]),
		Description:   jsonString(body["description"]),
	}
	if err := h.billing.RecordPayment(r.Context(), in); err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListPayments は支払い一覧を返す。
// 管理者は全件またはclient_idで絞り込み、会員は自分の支払いのみ取得できる。
// GET /api/payments
func (h *APIHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	profile, err := h.guard.RequireAny(r)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	var clientID string
	switch profile.Role {
	case model.RoleAdmin:
		clientID = r.URL.Query().Get("client_id")
	case model.RoleClient:
		scope, err := h.guard.RequireClient(r)
		if err != nil {
			handleAPIError(w, r, err)
			return
		}
		clientID = scope.ClientID
	case model.RoleTrainer, model.RoleNone:
		middleware.WriteJSONError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	payments, err := h.billing.ListPayments(r.Context(), clientID)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// CreateSalary はトレーナーの給与記録を登録する。
// POST /api/salary
func (h *APIHandler) CreateSalary(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.RequireAdmin(r); err != nil {
		handleAPIError(w, r, err)
		return
	}

	body := decodeBody(r)
	in := model.SalaryInput{
		TrainerID:          jsonString(body["trainer_id"]),
		Amount:             jsonFloat(body["amount"]),
		PaymentPeriodStart: jsonOptionalString(body["payment_period_start"]),
		PaymentPeriodEnd:   jsonOptionalString(body["payment_period_end"]),
	}
	if err := h.billing.RecordSalary(r.Context(), in); err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListSalaries は給与記録を返す。
// GET /api/salary
func (h *APIHandler) ListSalaries(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.RequireAdmin(r); err != nil {
		handleAPIError(w, r, err)
		return
	}

	records, err := h.billing.ListSalaries(r.Context(), r.URL.Query().Get("trainer_id"))
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// CreateExercise は呼び出し元トレーナーのプランに種目を追加する。
// POST /api/workout-exercises
func (h *APIHandler) CreateExercise(w http.ResponseWriter, r *http.Request) {
	scope, err := h.guard.RequireTrainer(r)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	body := decodeBody(r)
	ex := &model.WorkoutExercise{
		WorkoutPlanID:   jsonString(body["workout_plan_id"]),
		ExerciseName:    jsonString(body["exercise_name"]),
		Sets:            jsonInt(body["sets"]),
		Reps:            jsonInt(body["reps"]),
		Weight:          jsonFloat(body["weight"]),
		DurationMinutes: jsonInt(body["duration_minutes"]),
		RestSeconds:     jsonInt(body["rest_seconds"]),
		Notes:           jsonString(body["notes"]),
		DayOfWeek:       jsonString(body["day_of_week"]),
	}
	if err := h.plans.AddExercise(r.Context(), scope.TrainerID, ex); err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListExercises はプランの種目を返す。
// GET /api/workout-exercises
func (h *APIHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.RequireAny(r); err != nil {
		handleAPIError(w, r, err)
		return
	}

	exercises, err := h.plans.ListExercises(r.Context(), r.URL.Query().Get("workout_plan_id"))
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, exercises)
}

// CreateMeal は呼び出し元トレーナーの食事プランに食事を追加する。
// POST /api/diet-meals
func (h *APIHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	scope, err := h.guard.RequireTrainer(r)
	if err != nil {
		handleAPIError(w, r, err)
		return
	}

	body := decodeBody(r)
	meal := &model.DietMeal{
		DietPlanID:  jsonString(body["diet_plan_id"]),
		MealType:    jsonString(body["meal_type"]),
		MealName:    jsonString(body["meal_name"]),
		Calories:    jsonInt(body["calories"]),
		Protein:     jsonFloat(body["protein"]),
		Carbs:       jsonFloat(body["carbs"]),
		Fat:         jsonFloat(body["fat"]),
		Ingredients: jsonString(body["ingredients"]),
	}
	if err := h.plans.AddMeal(r.Context(), scope.TrainerID, meal); err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ListMeals は食事プランの食事を返す。
// GET /api/diet-meals
func (h *APIHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	if _, err := h.guard.RequireAny(r); err != nil {
		handleAPIError(w, r, err)
		return
	}

	meals, err := h.plans.ListMeals(r.Context(), r.URL.Query().Get("diet_plan_id"))
	if err != nil {
		handleAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meals)
}
