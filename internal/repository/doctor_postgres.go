package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const doctorColumns = `id, clinic_id, first_name, last_name, specialization, email, phone, is_active, created_at, updated_at`

type DoctorRepo struct {
	db *pgxpool.Pool
}

func NewDoctorRepository(db *pgxpool.Pool) *DoctorRepo {
	return &DoctorRepo{
		db: db,
	}
}

func scanDoctor(row rowScanner, d *domain.Doctor) error {
	return row.Scan(
		&d.ID,
		&d.ClinicID,
		&d.FirstName,
		&d.LastName,
		&d.Specialization,
		&d.Email,
		&d.Phone,
		&d.IsActive,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
}

func (r *DoctorRepo) Create(ctx context.Context, clinicID int64, dto domain.CreateDoctorDTO) (int64, error) {
	query := `
		INSERT INTO doctors (clinic_id, first_name, last_name, specialization, email, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $7)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query,
		clinicID,
		dto.FirstName,
		dto.LastName,
		dto.Specialization,
		dto.Email,
		dto.Phone,
		time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания врача: %w", err)
	}

	return id, nil
}

func (r *DoctorRepo) GetByID(ctx context.Context, id int64) (*domain.Doctor, error) {
	var d domain.Doctor
	if err := scanDoctor(r.db.QueryRow(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id), &d); err != nil {
		if nf := notFound(err, domain.ErrDoctorNotFound); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения врача: %w", err)
	}
	return &d, nil
}

func (r *DoctorRepo) Update(ctx context.Context, id int64, dto domain.UpdateDoctorDTO) error {
	var b setBuilder
	if dto.FirstName != nil {
		b.add("first_name", *dto.FirstName)
	}
	if dto.LastName != nil {
		b.add("last_name", *dto.LastName)
	}
	if dto.Specialization != nil {
		b.add("specialization", *dto.Specialization)
	}
	if dto.Email != nil {
		b.add("email", *dto.Email)
	}
	if dto.Phone != nil {
		b.add("phone", *dto.Phone)
	}
	if dto.IsActive != nil {
		b.add("is_active", *dto.IsActive)
	}
	if b.empty() {
		return nil
	}

	query, args := b.build("doctors", id)
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления врача: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDoctorNotFound
	}

	return nil
}

func (r *DoctorRepo) ListByClinic(ctx context.Context, clinicID int64, activeOnly bool) ([]domain.Doctor, error) {
	w := &whereBuilder{}
	w.add("clinic_id = ?", clinicID)
	if activeOnly {
		w.add("is_active = ?", true)
	}

	rows, err := r.db.Query(ctx, `SELECT `+doctorColumns+` FROM doctors`+w.sql()+` ORDER BY last_name, first_name, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка врачей: %w", err)
	}
	defer rows.Close()

	doctors := make([]domain.Doctor, 0)
	for rows.Next() {
		var d domain.Doctor
		if err := scanDoctor(rows, &d); err != nil {
			return nil, fmt.Errorf("ошибка чтения данных врача: %w", err)
		}
		doctors = append(doctors, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return doctors, nil
}
