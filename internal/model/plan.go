package model

import "time"

// WorkoutPlan はトレーナーが会員向けに作成するワークアウトプランを表す。
// trainer_idが所有者であり、更新・削除は所有者のトレーナーに限定される。
type WorkoutPlan struct {
	ID              string            `json:"id"`
	TrainerID       string            `json:"trainer_id"`
	ClientID        string            `json:"client_id"`
	ClientName      string            `json:"client_name,omitempty"`
	PlanName        string            `json:"plan_name"`
	Description     string            `json:"description"`
	DurationWeeks   *int              `json:"duration_weeks"`
	DifficultyLevel string            `json:"difficulty_level"`
	CreatedAt       time.Time         `json:"created_at"`
	Exercises       []WorkoutExercise `json:"workout_exercises,omitempty"`
}

// WorkoutPlanInput はワークアウトプランの作成・更新入力。
// 数値項目はフォーム値の型変換に失敗した場合nilとなり、そのままNULLで保存される。
type WorkoutPlanInput struct {
	ClientID        string
	PlanName        string
	Description     string
	DurationWeeks   *int
	DifficultyLevel string
}

// WorkoutExercise はワークアウトプランに含まれる種目を表す。
type WorkoutExercise struct {
	ID              string   `json:"id"`
	WorkoutPlanID   string   `json:"workout_plan_id"`
	ExerciseName    string   `json:"exercise_name"`
	Sets            *int     `json:"sets"`
	Reps            *int     `json:"reps"`
	Weight          *float64 `json:"weight"`
	DurationMinutes *int     `json:"duration_minutes"`
	RestSeconds     *int     `json:"rest_seconds"`
	Notes           string   `json:"notes"`
	DayOfWeek       string   `json:"day_of_week"`
}

// DietPlan はトレーナーが会員向けに作成する食事プランを表す。
type DietPlan struct {
	ID               string     `json:"id"`
	TrainerID        string     `json:"trainer_id"`
	ClientID         string     `json:"client_id"`
	ClientName       string     `json:"client_name,omitempty"`
	MembershipPlanID *string    `json:"membership_plan_id"`
	PlanName         string     `json:"plan_name"`
	Description      string     `json:"description"`
	DailyCalories    *int       `json:"daily_calories"`
	ProteinGrams     *float64   `json:"protein_grams"`
	CarbsGrams       *float64   `json:"carbs_grams"`
	FatGrams         *float64   `json:"fat_grams"`
	CreatedAt        time.Time  `json:"created_at"`
	Meals            []DietMeal `json:"diet_meals,omitempty"`
}

// DietPlanInput は食事プランの作成・更新入力。
type DietPlanInput struct {
	ClientID         string
	MembershipPlanID *string
	PlanName         string
	Description      string
	DailyCalories    *int
	ProteinGrams     *float64
	CarbsGrams       *float64
	FatGrams         *float64
}

// DietMeal は食事プランに含まれる1食分を表す。
type DietMeal struct {
	ID          string   `json:"id"`
	DietPlanID  string   `json:"diet_plan_id"`
	MealType    string   `json:"meal_type"`
	MealName    string   `json:"meal_name"`
	Calories    *int     `json:"calories"`
	Protein     *float64 `json:"protein"`
	Carbs       *float64 `json:"carbs"`
	Fat         *float64 `json:"fat"`
	Ingredients string   `json:"ingredients"`
}

// MembershipPlan は会員プラン。食事プランを特定の会員プランに紐付ける際に参照する。
type MembershipPlan struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Price          *float64 `json:"price"`
	DurationMonths *int     `json:"duration_months"`
}
