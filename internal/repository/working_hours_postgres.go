package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const workingHoursColumns = `id, clinic_id, day_of_week, open_time, close_time, slot_duration_minutes, break_start_time, break_end_time, created_at, updated_at`

type WorkingHoursRepo struct {
	db *pgxpool.Pool
}

func NewWorkingHoursRepository(db *pgxpool.Pool) *WorkingHoursRepo {
	return &WorkingHoursRepo{
		db: db,
	}
}

func scanWorkingHours(row rowScanner, w *domain.WorkingHours) error {
	return row.Scan(
		&w.ID,
		&w.ClinicID,
		&w.DayOfWeek,
		&w.OpenTime,
		&w.CloseTime,
		&w.SlotDurationMinutes,
		&w.BreakStartTime,
		&w.BreakEndTime,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
}

func (r *WorkingHoursRepo) GetByClinic(ctx context.Context, clinicID int64) ([]domain.WorkingHours, error) {
	query := `
		SELECT ` + workingHoursColumns + `
		FROM working_hours
		WHERE clinic_id = $1
		ORDER BY array_position(ARRAY['MONDAY','TUESDAY','WEDNESDAY','THURSDAY','FRIDAY','SATURDAY','SUNDAY']::varchar[], day_of_week)
	`

	rows, err := r.db.Query(ctx, query, clinicID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рабочего времени: %w", err)
	}
	defer rows.Close()

	days := make([]domain.WorkingHours, 0, 7)
	for rows.Next() {
		var w domain.WorkingHours
		if err := scanWorkingHours(rows, &w); err != nil {
			return nil, fmt.Errorf("ошибка чтения рабочего времени: %w", err)
		}
		days = append(days, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return days, nil
}

func (r *WorkingHoursRepo) GetForDay(ctx context.Context, clinicID int64, day domain.Weekday) (*domain.WorkingHours, error) {
	query := `SELECT ` + workingHoursColumns + ` FROM working_hours WHERE clinic_id = $1 AND day_of_week = $2`

	var w domain.WorkingHours
	if err := scanWorkingHours(r.db.QueryRow(ctx, query, clinicID, day), &w); err != nil {
		if nf := notFound(err, domain.ErrNotFound); nf != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка получения рабочего времени: %w", err)
	}

	return &w, nil
}

func (r *WorkingHoursRepo) Replace(ctx context.Context, clinicID int64, days []domain.WorkingHours) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM working_hours WHERE clinic_id = $1`, clinicID); err != nil {
		return fmt.Errorf("ошибка удаления рабочего времени: %w", err)
	}

	query := `
		INSERT INTO working_hours (clinic_id, day_of_week, open_time, close_time, slot_duration_minutes, break_start_time, break_end_time, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	now := time.Now()
	for _, day := range days {
		_, err := tx.Exec(ctx, query,
			clinicID,
			day.DayOfWeek,
			day.OpenTime,
			day.CloseTime,
			day.SlotDurationMinutes,
			day.BreakStartTime,
			day.BreakEndTime,
			now,
		)
		if err != nil {
			if isPgError(err, pgUniqueViolation) {
				return domain.ErrDuplicateWeekday
			}
			if isPgError(err, pgCheckViolation) {
				return domain.ErrInvalidWorkingHours
			}
			return fmt.Errorf("ошибка сохранения рабочего времени: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка коммита транзакции: %w", err)
	}

	return nil
}
