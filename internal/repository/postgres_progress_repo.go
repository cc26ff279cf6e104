package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/gymdesk/internal/model"
)

// PostgresProgressRepo はPostgreSQLを使用した進捗記録リポジトリ。
type PostgresProgressRepo struct {
	db *sql.DB
}

// NewPostgresProgressRepo はPostgresProgressRepoを生成する。
func NewPostgresProgressRepo(db *sql.DB) *PostgresProgressRepo {
	return &PostgresProgressRepo{db: db}
}

const progressColumns = `id, client_id, weight, body_fat_percentage, measurements_chest,
	measurements_waist, measurements_hips, notes, recorded_at`

func scanProgress(s rowScanner) (*model.ProgressRecord, error) {
	p := &model.ProgressRecord{}
	var notes sql.NullString
	if err := s.Scan(&p.ID, &p.ClientID, &p.Weight, &p.BodyFatPercentage, &p.MeasurementsChest,
		&p.MeasurementsWaist, &p.MeasurementsHips, &notes, &p.RecordedAt); err != nil {
		return nil, err
	}
	p.Notes = notes.String
	return p, nil
}

// Create はclientIDの進捗記録を登録する。
func (r *PostgresProgressRepo) Create(ctx context.Context, clientID string, in model.ProgressInput) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO progress_tracking (id, client_id, weight, body_fat_percentage, measurements_chest,
		     measurements_waist, measurements_hips, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New().String(), clientID, in.Weight, in.BodyFatPercentage, in.MeasurementsChest,
		in.MeasurementsWaist, in.MeasurementsHips, in.Notes,
	)
	if err != nil {
		return wrapDBError("failed to record progress", err)
	}
	return nil
}

// ListByClient は記録日時降順で返す。
func (r *PostgresProgressRepo) ListByClient(ctx context.Context, clientID string) ([]model.ProgressRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+progressColumns+`
		 FROM progress_tracking
		 WHERE client_id = $1
		 ORDER BY recorded_at DESC`,
		clientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress records: %w", err)
	}
	defer rows.Close()

	records := []model.ProgressRecord{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress record: %w", err)
		}
		records = append(records, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate progress records: %w", err)
	}
	return records, nil
}

// Latest は最新の記録を返す。記録がない場合はnilを返す。
func (r *PostgresProgressRepo) Latest(ctx context.Context, clientID string) (*model.ProgressRecord, error) {
	p, err := scanProgress(r.db.QueryRowContext(ctx,
		`SELECT `+progressColumns+`
		 FROM progress_tracking
		 WHERE client_id = $1
		 ORDER BY recorded_at DESC
		 LIMIT 1`,
		clientID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find latest progress record: %w", err)
	}
	return p, nil
}

// compile-time interface check
var _ ProgressRepository = (*PostgresProgressRepo)(nil)
