package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/gymdesk/internal/model"
)

// PostgresDietPlanRepo はPostgreSQLを使用した食事プランリポジトリ。
type PostgresDietPlanRepo struct {
	db *sql.DB
}

// NewPostgresDietPlanRepo はPostgresDietPlanRepoを生成する。
func NewPostgresDietPlanRepo(db *sql.DB) *PostgresDietPlanRepo {
	return &PostgresDietPlanRepo{db: db}
}

const dietPlanColumns = `p.id, p.trainer_id, p.client_id, COALESCE(u.full_name, ''), p.membership_plan_id,
	p.plan_name, p.description, p.daily_calories, p.protein_grams, p.carbs_grams, p.fat_grams, p.created_at`

const dietPlanFrom = `FROM diet_plans p
	LEFT JOIN clients c ON c.id = p.client_id
	LEFT JOIN users u ON u.id = c.user_id`

func (r *PostgresDietPlanRepo) queryPlans(ctx context.Context, query string, args ...any) ([]model.DietPlan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list diet plans: %w", err)
	}
	defer rows.Close()

	plans := []model.DietPlan{}
	for rows.Next() {
		var p model.DietPlan
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.TrainerID, &p.ClientID, &p.ClientName, &p.MembershipPlanID,
			&p.PlanName, &description, &p.DailyCalories, &p.ProteinGrams, &p.CarbsGrams, &p.FatGrams, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan diet plan: %w", err)
		}
		p.Description = description.String
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diet plans: %w", err)
	}
	return plans, nil
}

// ListByTrainer はトレーナーが作成したプランを会員名付きで作成日時降順に返す。
func (r *PostgresDietPlanRepo) ListByTrainer(ctx context.Context, trainerID string) ([]model.DietPlan, error) {
	return r.queryPlans(ctx,
		`SELECT `+dietPlanColumns+` `+dietPlanFrom+`
		 WHERE p.trainer_id = $1
		 ORDER BY p.created_at DESC`,
		trainerID,
	)
}

// ListByClient は会員のプランを食事付きで作成日時降順に返す。
func (r *PostgresDietPlanRepo) ListByClient(ctx context.Context, clientID string) ([]model.DietPlan, error) {
	plans, err := r.queryPlans(ctx,
		`SELECT `+dietPlanColumns+` `+dietPlanFrom+`
		 WHERE p.client_id = $1
		 ORDER BY p.created_at DESC`,
		clientID,
	)
	if err != nil || len(plans) == 0 {
		return plans, err
	}

	ids := make([]string, len(plans))
	index := make(map[string]int, len(plans))
	for i, p := range plans {
		ids[i] = p.ID
		index[p.ID] = i
	}

	meals, err := r.queryMeals(ctx,
		`SELECT `+mealColumns+`
		 FROM diet_meals
		 WHERE diet_plan_id = ANY($1)
		 ORDER BY meal_type ASC, created_at ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	for _, m := range meals {
		i := index[m.DietPlanID]
		plans[i].Meals = append(plans[i].Meals, m)
	}
	return plans, nil
}

// CountByTrainer はトレーナーのプラン数を返す。
func (r *PostgresDietPlanRepo) CountByTrainer(ctx context.Context, trainerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM diet_plans WHERE trainer_id = $1`, trainerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count diet plans: %w", err)
	}
	return n, nil
}

// CountByClient は会員のプラン数を返す。
func (r *PostgresDietPlanRepo) CountByClient(ctx context.Context, clientID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM diet_plans WHERE client_id = $1`, clientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count diet plans: %w", err)
	}
	return n, nil
}

// Create はtrainerIDを所有者としてプランを作成する。
func (r *PostgresDietPlanRepo) Create(ctx context.Context, trainerID string, in model.DietPlanInput) (*model.DietPlan, error) {
	plan := &model.DietPlan{
		ID:               uuid.New().String(),
		TrainerID:        trainerID,
		ClientID:         in.ClientID,
		MembershipPlanID: in.MembershipPlanID,
		PlanName:         in.PlanName,
		Description:      in.Description,
		DailyCalories:    in.DailyCalories,
		ProteinGrams:     in.ProteinGrams,
		CarbsGrams:       in.CarbsGrams,
		FatGrams:         in.FatGrams,
		CreatedAt:        time.Now(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO diet_plans (id, trainer_id, client_id, membership_plan_id, plan_name, description,
		     daily_calories, protein_grams, carbs_grams, fat_grams, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		plan.ID, plan.TrainerID, plan.ClientID, plan.MembershipPlanID, plan.PlanName, plan.Description,
		plan.DailyCalories, plan.ProteinGrams, plan.CarbsGrams, plan.FatGrams, plan.CreatedAt,
	)
	if err != nil {
		return nil, wrapDBError("failed to create diet plan", err)
	}
	return plan, nil
}

// Update はid一致かつtrainer_id一致の行のみ更新する。会員と会員プランの付け替えも行う。
func (r *PostgresDietPlanRepo) Update(ctx context.Context, trainerID, planID string, in model.DietPlanInput) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE diet_plans
		 SET plan_name = $3, description = $4, daily_calories = $5, protein_grams = $6,
		     carbs_grams = $7, fat_grams = $8, client_id = $9, membership_plan_id = $10, updated_at = now()
		 WHERE id = $1 AND trainer_id = $2`,
		planID, trainerID, in.PlanName, in.Description, in.DailyCalories, in.ProteinGrams,
		in.CarbsGrams, in.FatGrams, in.ClientID, in.MembershipPlanID,
	)
	if err != nil {
		return false, wrapDBError("failed to update diet plan", err)
	}
	return rowsAffected("failed to update diet plan", result)
}

// Delete はid一致かつtrainer_id一致の行のみ削除する。食事はCASCADE削除される。
func (r *PostgresDietPlanRepo) Delete(ctx context.Context, trainerID, planID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM diet_plans WHERE id = $1 AND trainer_id = $2`,
		planID, trainerID,
	)
	if err != nil {
		return false, wrapDBError("failed to delete diet plan", err)
	}
	return rowsAffected("failed to delete diet plan", result)
}

const mealColumns = `id, diet_plan_id, meal_type, meal_name, calories, protein, carbs, fat, ingredients`

// AddMeal はプランがtrainerIDの所有である場合のみ食事を追加する。
func (r *PostgresDietPlanRepo) AddMeal(ctx context.Context, trainerID string, meal *model.DietMeal) (bool, error) {
	if meal.ID == "" {
		meal.ID = uuid.New().String()
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO diet_meals (id, diet_plan_id, meal_type, meal_name, calories, protein, carbs, fat, ingredients)
		 SELECT $1, p.id, $3, $4, $5, $6, $7, $8, $9
		 FROM diet_plans p
		 WHERE p.id = $2 AND p.trainer_id = $10`,
		meal.ID, meal.DietPlanID, meal.MealType, meal.MealName, meal.Calories,
		meal.Protein, meal.Carbs, meal.Fat, meal.Ingredients, trainerID,
	)
	if err != nil {
		return false, wrapDBError("failed to add diet meal", err)
	}
	return rowsAffected("failed to add diet meal", result)
}

// ListMeals はプランの食事を食事区分順に返す。planIDが空の場合は全食事を返す。
func (r *PostgresDietPlanRepo) ListMeals(ctx context.Context, planID string) ([]model.DietMeal, error) {
	if planID == "" {
		return r.queryMeals(ctx,
			`SELECT `+mealColumns+` FROM diet_meals ORDER BY meal_type ASC`,
		)
	}
	return r.queryMeals(ctx,
		`SELECT `+mealColumns+`
		 FROM diet_meals
		 WHERE diet_plan_id = $1
		 ORDER BY meal_type ASC`,
		planID,
	)
}

func (r *PostgresDietPlanRepo) queryMeals(ctx context.Context, query string, args ...any) ([]model.DietMeal, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("failed to list diet meals", err)
	}
	defer rows.Close()

	meals := []model.DietMeal{}
	for rows.Next() {
		var m model.DietMeal
		var ingredients sql.NullString
		if err := rows.Scan(&m.ID, &m.DietPlanID, &m.MealType, &m.MealName, &m.Calories,
			&m.Protein, &m.Carbs, &m.Fat, &ingredients); err != nil {
			return nil, fmt.Errorf("failed to scan diet meal: %w", err)
		}
		m.Ingredients = ingredients.String
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate diet meals: %w", err)
	}
	return meals, nil
}

// ListMembershipPlans は食事プランに紐付け可能な会員プランを名前順に返す。
func (r *PostgresDietPlanRepo) ListMembershipPlans(ctx context.Context) ([]model.MembershipPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price, duration_months FROM membership_plans ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list membership plans: %w", err)
	}
	defer rows.Close()

	plans := []model.MembershipPlan{}
	for rows.Next() {
		var p model.MembershipPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.DurationMonths); err != nil {
			return nil, fmt.Errorf("failed to scan membership plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate membership plans: %w", err)
	}
	return plans, nil
}

// compile-time interface check
var _ DietPlanRepository = (*PostgresDietPlanRepo)(nil)
