package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

type PatientRepo struct {
	db *pgxpool.Pool
}

func NewPatientRepository(db *pgxpool.Pool) *PatientRepo {
	return &PatientRepo{
		db: db,
	}
}

const patientSelect = `
	SELECT p.id, p.user_id, p.date_of_birth, p.gender, p.address, p.allergies, p.is_active, p.created_at, p.updated_at,
	       u.first_name, u.last_name, u.email, u.phone
	FROM patients p
	JOIN users u ON u.id = p.user_id
`

func scanPatient(row rowScanner, p *domain.Patient) error {
	return row.Scan(
		&p.ID,
		&p.UserID,
		&p.DateOfBirth,
		&p.Gender,
		&p.Address,
		&p.Allergies,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Phone,
	)
}

func (r *PatientRepo) CreateForUser(ctx context.Context, userID int64, patient domain.Patient) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	if err := promoteUnassigned(ctx, tx, userID, domain.UserRolePatient, now); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO patients (user_id, date_of_birth, gender, address, allergies, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		userID,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.Allergies,
		now,
	).Scan(&id)
	if err != nil {
		if isPgError(err, pgUniqueViolation) {
			return 0, domain.ErrAlreadyOnboarded
		}
		return 0, fmt.Errorf("ошибка создания профиля пациента: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита транзакции: %w", err)
	}

	return id, nil
}

// promoteUnassigned assigns role to a user that has not been onboarded yet.
func promoteUnassigned(ctx context.Context, q querier, userID int64, role domain.UserRole, now time.Time) error {
	tag, err := q.Exec(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3 AND role = $4`,
		role, now, userID, domain.UserRoleUnassigned,
	)
	if err != nil {
		return fmt.Errorf("ошибка назначения роли пользователю: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyOnboarded
	}
	return nil
}

func (r *PatientRepo) GetByID(ctx context.Context, id int64) (*domain.Patient, error) {
	var p domain.Patient
	if err := scanPatient(r.db.QueryRow(ctx, patientSelect+` WHERE p.id = $1`, id), &p); err != nil {
		if nf := notFound(err, domain.ErrPatientProfileRequired); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения пациента: %w", err)
	}
	return &p, nil
}

func (r *PatientRepo) GetByUserID(ctx context.Context, userID int64) (*domain.Patient, error) {
	var p domain.Patient
	if err := scanPatient(r.db.QueryRow(ctx, patientSelect+` WHERE p.user_id = $1`, userID), &p); err != nil {
		if nf := notFound(err, domain.ErrPatientProfileRequired); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения пациента: %w", err)
	}
	return &p, nil
}

func (r *PatientRepo) Update(ctx context.Context, patient domain.Patient) error {
	query := `
		UPDATE patients
		SET date_of_birth = $1, gender = $2, address = $3, allergies = $4, updated_at = $5
		WHERE id = $6
	`

	tag, err := r.db.Exec(ctx, query,
		patient.DateOfBirth,
		patient.Gender,
		patient.Address,
		patient.Allergies,
		time.Now(),
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления пациента: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPatientProfileRequired
	}

	return nil
}
