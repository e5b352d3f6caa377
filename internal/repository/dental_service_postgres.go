package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const dentalServiceColumns = `id, clinic_id, name, description, price, duration_minutes, is_active, created_at, updated_at`

type DentalServiceRepo struct {
	db *pgxpool.Pool
}

func NewDentalServiceRepository(db *pgxpool.Pool) *DentalServiceRepo {
	return &DentalServiceRepo{
		db: db,
	}
}

func scanDentalService(row rowScanner, s *domain.DentalService) error {
	return row.Scan(
		&s.ID,
		&s.ClinicID,
		&s.Name,
		&s.Description,
		&s.Price,
		&s.DurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
}

func (r *DentalServiceRepo) Create(ctx context.Context, clinicID int64, dto domain.CreateDentalServiceDTO) (int64, error) {
	query := `
		INSERT INTO services (clinic_id, name, description, price, duration_minutes, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		clinicID,
		dto.Name,
		dto.Description,
		dto.Price,
		dto.DurationMinutes,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания услуги: %w", err)
	}

	return id, nil
}

func (r *DentalServiceRepo) GetByID(ctx context.Context, id int64) (*domain.DentalService, error) {
	var s domain.DentalService
	err := scanDentalService(r.db.QueryRow(ctx, `SELECT `+dentalServiceColumns+` FROM services WHERE id = $1`, id), &s)
	if err != nil {
		if nf := notFound(err, domain.ErrServiceNotFound); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения услуги: %w", err)
	}
	return &s, nil
}

func (r *DentalServiceRepo) Update(ctx context.Context, id int64, dto domain.UpdateDentalServiceDTO) error {
	var b setBuilder
	if dto.Name != nil {
		b.add("name", *dto.Name)
	}
	if dto.Description != nil {
		b.add("description", *dto.Description)
	}
	if dto.Price != nil {
		b.add("price", *dto.Price)
	}
	if dto.DurationMinutes != nil {
		b.add("duration_minutes", *dto.DurationMinutes)
	}
	if dto.IsActive != nil {
		b.add("is_active", *dto.IsActive)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("services", id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления услуги: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}

	return nil
}

func (r *DentalServiceRepo) ListByClinic(ctx context.Context, clinicID int64, activeOnly bool) ([]domain.DentalService, error) {
	w := &whereBuilder{}
	w.add("clinic_id = ?", clinicID)
	if activeOnly {
		w.add("is_active = ?", true)
	}

	rows, err := r.db.Query(ctx, `SELECT `+dentalServiceColumns+` FROM services`+w.sql()+` ORDER BY name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка услуг: %w", err)
	}
	defer rows.Close()

	services := make([]domain.DentalService, 0)
	for rows.Next() {
		var s domain.DentalService
		if err := scanDentalService(rows, &s); err != nil {
			return nil, fmt.Errorf("ошибка чтения данных услуги: %w", err)
		}
		services = append(services, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return services, nil
}
