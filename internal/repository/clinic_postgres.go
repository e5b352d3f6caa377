package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const clinicColumns = `id, owner_id, name, description, address, city, phone, email, timezone, logo_url, status, rejection_reason, created_at, updated_at`

type ClinicRepo struct {
	db *pgxpool.Pool
}

func NewClinicRepository(db *pgxpool.Pool) *ClinicRepo {
	return &ClinicRepo{
		db: db,
	}
}

func scanClinic(row rowScanner, c *domain.Clinic) error {
	return row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.Description,
		&c.Address,
		&c.City,
		&c.Phone,
		&c.Email,
		&c.Timezone,
		&c.LogoURL,
		&c.Status,
		&c.RejectionReason,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func (r *ClinicRepo) CreateForOwner(ctx context.Context, ownerID int64, dto domain.CreateClinicDTO) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	if err := promoteUnassigned(ctx, tx, ownerID, domain.UserRoleClinicOwner, now); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO clinics (owner_id, name, description, address, city, phone, email, timezone, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		ownerID,
		dto.Name,
		dto.Description,
		dto.Address,
		dto.City,
		dto.Phone,
		dto.Email,
		dto.Timezone,
		domain.ClinicStatusPending,
		now,
	).Scan(&id)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return 0, domain.ErrClinicExists
		}
		return 0, fmt.Errorf("ошибка создания клиники: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита транзакции: %w", err)
	}

	return id, nil
}

func (r *ClinicRepo) getOne(ctx context.Context, where string, arg any) (*domain.Clinic, error) {
	var c domain.Clinic
	if err := scanClinic(r.db.QueryRow(ctx, `SELECT `+clinicColumns+` FROM clinics WHERE `+where, arg), &c); err != nil {
		if nf := notFound(err, domain.ErrClinicNotFound); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения клиники: %w", err)
	}
	return &c, nil
}

func (r *ClinicRepo) GetByID(ctx context.Context, id int64) (*domain.Clinic, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *ClinicRepo) GetByOwnerID(ctx context.Context, ownerID int64) (*domain.Clinic, error) {
	return r.getOne(ctx, "owner_id = $1", ownerID)
}

func (r *ClinicRepo) Update(ctx context.Context, id int64, dto domain.UpdateClinicDTO) error {
	var b setBuilder
	if dto.Name != nil {
		b.add("name", *dto.Name)
	}
	if dto.Description != nil {
		b.add("description", *dto.Description)
	}
	if dto.Address != nil {
		b.add("address", *dto.Address)
	}
	if dto.City != nil {
		b.add("city", *dto.City)
	}
	if dto.Phone != nil {
		b.add("phone", *dto.Phone)
	}
	if dto.Email != nil {
		b.add("email", *dto.Email)
	}
	if dto.Timezone != nil {
		b.add("timezone", *dto.Timezone)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("clinics", id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления клиники: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClinicNotFound
	}

	return nil
}

func (r *ClinicRepo) UpdateLogo(ctx context.Context, id int64, logoURL *string) error {
	tag, err := r.db.Exec(ctx, `UPDATE clinics SET logo_url = $1, updated_at = $2 WHERE id = $3`, logoURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления логотипа клиники: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrClinicNotFound
	}
	return nil
}

func (r *ClinicRepo) UpdateStatus(ctx context.Context, id int64, from []domain.ClinicStatus, status domain.ClinicStatus, reason *string) error {
	query := `
		UPDATE clinics
		SET status = $1, rejection_reason = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)
	`

	tag, err := r.db.Exec(ctx, query, status, reason, time.Now(), id, statusStrings(from))
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса клиники: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrInvalidClinicMove
	}

	return nil
}

func clinicWhere(filter domain.ClinicFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != nil {
		w.add("status = ?", *filter.Status)
	}
	if filter.City != nil && *filter.City != "" {
		w.add("lower(city) = lower(?)", *filter.City)
	}
	if filter.Query != nil && *filter.Query != "" {
		w.add("(name ILIKE ? OR description ILIKE ?)", "%"+*filter.Query+"%", "%"+*filter.Query+"%")
	}
	return w
}

func (r *ClinicRepo) List(ctx context.Context, filter domain.ClinicFilter) ([]domain.Clinic, error) {
	w := clinicWhere(filter)
	query := `SELECT ` + clinicColumns + ` FROM clinics` + w.sql() + ` ORDER BY name, id` + w.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка клиник: %w", err)
	}
	defer rows.Close()

	clinics := make([]domain.Clinic, 0)
	for rows.Next() {
		var c domain.Clinic
		if err := scanClinic(rows, &c); err != nil {
			return nil, fmt.Errorf("ошибка чтения данных клиники: %w", err)
		}
		clinics = append(clinics, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return clinics, nil
}

func (r *ClinicRepo) Count(ctx context.Context, filter domain.ClinicFilter) (int, error) {
	w := clinicWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM clinics`+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета клиник: %w", err)
	}
	return count, nil
}

func (r *ClinicRepo) CountByStatus(ctx context.Context) (map[domain.ClinicStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM clinics GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета клиник по статусам: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ClinicStatus]int)
	for rows.Next() {
		var status domain.ClinicStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("ошибка чтения статистики клиник: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}
