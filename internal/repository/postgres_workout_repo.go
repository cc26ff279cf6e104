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

// PostgresWorkoutPlanRepo はPostgreSQLを使用したワークアウトプランリポジトリ。
type PostgresWorkoutPlanRepo struct {
	db *sql.DB
}

// NewPostgresWorkoutPlanRepo はPostgresWorkoutPlanRepoを生成する。
func NewPostgresWorkoutPlanRepo(db *sql.DB) *PostgresWorkoutPlanRepo {
	return &PostgresWorkoutPlanRepo{db: db}
}

const workoutPlanColumns = `p.id, p.trainer_id, p.client_id, COALESCE(u.full_name, ''), p.plan_name,
	p.description, p.duration_weeks, p.difficulty_level, p.created_at`

func (r *PostgresWorkoutPlanRepo) queryPlans(ctx context.Context, query string, args ...any) ([]model.WorkoutPlan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout plans: %w", err)
	}
	defer rows.Close()

	plans := []model.WorkoutPlan{}
	for rows.Next() {
		var p model.WorkoutPlan
		var description, difficulty sql.NullString
		if err := rows.Scan(&p.ID, &p.TrainerID, &p.ClientID, &p.ClientName, &p.PlanName,
			&description, &p.DurationWeeks, &difficulty, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan workout plan: %w", err)
		}
		p.Description = description.String
		p.DifficultyLevel = difficulty.String
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout plans: %w", err)
	}
	return plans, nil
}

// ListByTrainer はトレーナーが作成したプランを会員名付きで作成日時降順に返す。
func (r *PostgresWorkoutPlanRepo) ListByTrainer(ctx context.Context, trainerID string) ([]model.WorkoutPlan, error) {
	return r.queryPlans(ctx,
		`SELECT `+workoutPlanColumns+`
		 FROM workout_plans p
		 LEFT JOIN clients c ON c.id = p.client_id
		 LEFT JOIN users u ON u.id = c.user_id
		 WHERE p.trainer_id = $1
		 ORDER BY p.created_at DESC`,
		trainerID,
	)
}

// ListByClient は会員のプランを種目付きで作成日時降順に返す。
func (r *PostgresWorkoutPlanRepo) ListByClient(ctx context.Context, clientID string) ([]model.WorkoutPlan, error) {
	plans, err := r.queryPlans(ctx,
		`SELECT `+workoutPlanColumns+`
		 FROM workout_plans p
		 LEFT JOIN clients c ON c.id = p.client_id
		 LEFT JOIN users u ON u.id = c.user_id
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

	exercises, err := r.queryExercises(ctx,
		`SELECT `+exerciseColumns+`
		 FROM workout_exercises
		 WHERE workout_plan_id = ANY($1)
		 ORDER BY day_of_week ASC, created_at ASC`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, err
	}
	for _, ex := range exercises {
		i := index[ex.WorkoutPlanID]
		plans[i].Exercises = append(plans[i].Exercises, ex)
	}
	return plans, nil
}

// CountByTrainer はトレーナーのプラン数を返す。
func (r *PostgresWorkoutPlanRepo) CountByTrainer(ctx context.Context, trainerID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM workout_plans WHERE trainer_id = $1`, trainerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count workout plans: %w", err)
	}
	return n, nil
}

// CountByClient は会員のプラン数を返す。
func (r *PostgresWorkoutPlanRepo) CountByClient(ctx context.Context, clientID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM workout_plans WHERE client_id = $1`, clientID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count workout plans: %w", err)
	}
	return n, nil
}

// Create はtrainerIDを所有者としてプランを作成する。
func (r *PostgresWorkoutPlanRepo) Create(ctx context.Context, trainerID string, in model.WorkoutPlanInput) (*model.WorkoutPlan, error) {
	plan := &model.WorkoutPlan{
		ID:              uuid.New().String(),
		TrainerID:       trainerID,
		ClientID:        in.ClientID,
		PlanName:        in.PlanName,
		Description:     in.Description,
		DurationWeeks:   in.DurationWeeks,
		DifficultyLevel: in.DifficultyLevel,
		CreatedAt:       time.Now(),
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workout_plans (id, trainer_id, client_id, plan_name, description, duration_weeks, difficulty_level, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		plan.ID, plan.TrainerID, plan.ClientID, plan.PlanName, plan.Description,
		plan.DurationWeeks, plan.DifficultyLevel, plan.CreatedAt,
	)
	if err != nil {
		return nil, wrapDBError("failed to create workout plan", err)
	}
	return plan, nil
}

// Update はid一致かつtrainer_id一致の行のみ更新する。会員の付け替えは行わない。
func (r *PostgresWorkoutPlanRepo) Update(ctx context.Context, trainerID, planID string, in model.WorkoutPlanInput) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workout_plans
		 SET plan_name = $3, description = $4, duration_weeks = $5, difficulty_level = $6, updated_at = now()
		 WHERE id = $1 AND trainer_id = $2`,
		planID, trainerID, in.PlanName, in.Description, in.DurationWeeks, in.DifficultyLevel,
	)
	if err != nil {
		return false, wrapDBError("failed to update workout plan", err)
	}
	return rowsAffected("failed to update workout plan", result)
}

// Delete はid一致かつtrainer_id一致の行のみ削除する。種目はCASCADE削除される。
func (r *PostgresWorkoutPlanRepo) Delete(ctx context.Context, trainerID, planID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workout_plans WHERE id = $1 AND trainer_id = $2`,
		planID, trainerID,
	)
	if err != nil {
		return false, wrapDBError("failed to delete workout plan", err)
	}
	return rowsAffected("failed to delete workout plan", result)
}

const exerciseColumns = `id, workout_plan_id, exercise_name, sets, reps, weight,
	duration_minutes, rest_seconds, notes, day_of_week`

// AddExercise はプランがtrainerIDの所有である場合のみ種目を追加する。
// 所有確認と挿入を1文で行うため、確認後に所有者が変わる競合は起きない。
func (r *PostgresWorkoutPlanRepo) AddExercise(ctx context.Context, trainerID string, ex *model.WorkoutExercise) (bool, error) {
	if ex.ID == "" {
		ex.ID = uuid.New().String()
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO workout_exercises (id, workout_plan_id, exercise_name, sets, reps, weight, duration_minutes, rest_seconds, notes, day_of_week)
		 SELECT $1, p.id, $3, $4, $5, $6, $7, $8, $9, $10
		 FROM workout_plans p
		 WHERE p.id = $2 AND p.trainer_id = $11`,
		ex.ID, ex.WorkoutPlanID, ex.ExerciseName, ex.Sets, ex.Reps, ex.Weight,
		ex.DurationMinutes, ex.RestSeconds, ex.Notes, ex.DayOfWeek, trainerID,
	)
	if err != nil {
		return false, wrapDBError("failed to add workout exercise", err)
	}
	return rowsAffected("failed to add workout exercise", result)
}

// ListExercises はプランの種目を曜日順に返す。planIDが空の場合は全種目を返す。
func (r *PostgresWorkoutPlanRepo) ListExercises(ctx context.Context, planID string) ([]model.WorkoutExercise, error) {
	if planID == "" {
		return r.queryExercises(ctx,
			`SELECT `+exerciseColumns+` FROM workout_exercises ORDER BY day_of_week ASC`,
		)
	}
	return r.queryExercises(ctx,
		`SELECT `+exerciseColumns+`
		 FROM workout_exercises
		 WHERE workout_plan_id = $1
		 ORDER BY day_of_week ASC`,
		planID,
	)
}

func (r *PostgresWorkoutPlanRepo) queryExercises(ctx context.Context, query string, args ...any) ([]model.WorkoutExercise, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError("failed to list workout exercises", err)
	}
	defer rows.Close()

	exercises := []model.WorkoutExercise{}
	for rows.Next() {
		var ex model.WorkoutExercise
		var notes, day sql.NullString
		if err := rows.Scan(&ex.ID, &ex.WorkoutPlanID, &ex.ExerciseName, &ex.Sets, &ex.Reps, &ex.Weight,
			&ex.DurationMinutes, &ex.RestSeconds, &notes, &day); err != nil {
			return nil, fmt.Errorf("failed to scan workout exercise: %w", err)
		}
		ex.Notes = notes.String
		ex.DayOfWeek = day.String
		exercises = append(exercises, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout exercises: %w", err)
	}
	return exercises, nil
}

// compile-time interface check
var _ WorkoutPlanRepository = (*PostgresWorkoutPlanRepo)(nil)
