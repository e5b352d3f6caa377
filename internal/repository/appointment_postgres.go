package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

const appointmentSelect = `
	SELECT a.id, a.clinic_id, a.patient_id, a.service_id, a.doctor_id, a.start_time, a.end_time,
	       a.status, a.payment_status, a.price, a.description, a.notes, a.cancellation_reason,
	       a.created_at, a.updated_at,
	       p.user_id, c.owner_id, c.name, s.name,
	       u.first_name || ' ' || u.last_name,
	       COALESCE(d.first_name || ' ' || d.last_name, '')
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN users u ON u.id = p.user_id
	JOIN clinics c ON c.id = a.clinic_id
	JOIN services s ON s.id = a.service_id
	LEFT JOIN doctors d ON d.id = a.doctor_id
`

type AppointmentRepo struct {
	db *pgxpool.Pool
}

func NewAppointmentRepository(db *pgxpool.Pool) *AppointmentRepo {
	return &AppointmentRepo{
		db: db,
	}
}

func scanAppointment(row rowScanner, a *domain.Appointment) error {
	return row.Scan(
		&a.ID,
		&a.ClinicID,
		&a.PatientID,
		&a.ServiceID,
		&a.DoctorID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.PaymentStatus,
		&a.Price,
		&a.Description,
		&a.Notes,
		&a.CancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.PatientUserID,
		&a.ClinicOwnerID,
		&a.ClinicName,
		&a.ServiceName,
		&a.PatientName,
		&a.DoctorName,
	)
}

func collectAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	defer rows.Close()

	appointments := make([]domain.Appointment, 0)
	for rows.Next() {
		var a domain.Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, fmt.Errorf("ошибка чтения записи на прием: %w", err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка обработки результатов: %w", err)
	}

	return appointments, nil
}

func (r *AppointmentRepo) CreateChecked(ctx context.Context, appt domain.Appointment, notification *domain.Notification, check domain.BookingCheck) (int64, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// clinic first, then patient: every booking takes the locks in the same order
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('clinic:' || $1::text, 0))`, appt.ClinicID); err != nil {
		return 0, fmt.Errorf("ошибка блокировки расписания клиники: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('patient:' || $1::text, 0))`, appt.PatientID); err != nil {
		return 0, fmt.Errorf("ошибка блокировки расписания пациента: %w", err)
	}

	clinicBusy, err := occupyingOverlap(ctx, tx, "a.clinic_id", appt.ClinicID, appt.StartTime, appt.EndTime)
	if err != nil {
		return 0, err
	}
	patientBusy, err := occupyingOverlap(ctx, tx, "a.patient_id", appt.PatientID, appt.StartTime, appt.EndTime)
	if err != nil {
		return 0, err
	}

	if err := check(clinicBusy, patientBusy); err != nil {
		return 0, err
	}

	query := `
		INSERT INTO appointments (clinic_id, patient_id, service_id, doctor_id, start_time, end_time, status, payment_status, price, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id
	`

	var id int64
	err = tx.QueryRow(ctx, query,
		appt.ClinicID,
		appt.PatientID,
		appt.ServiceID,
		appt.DoctorID,
		appt.StartTime,
		appt.EndTime,
		appt.Status,
		appt.PaymentStatus,
		appt.Price,
		appt.Description,
		time.Now(),
	).Scan(&id)
	if err != nil {
		if isPgError(err, pgExclusionViolation) {
			return 0, domain.ErrSlotUnavailable
		}
		return 0, fmt.Errorf("ошибка создания записи на прием: %w", err)
	}

	notification.AppointmentID = &id
	notificationID, err := insertNotification(ctx, tx, *notification)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		if isPgError(err, pgExclusionViolation) {
			return 0, domain.ErrSlotUnavailable
		}
		return 0, fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}
	notification.ID = notificationID

	return id, nil
}

func occupyingOverlap(ctx context.Context, q querier, column string, id int64, from, to time.Time) ([]domain.Appointment, error) {
	query := appointmentSelect + `
		WHERE ` + column + ` = $1 AND a.start_time < $3 AND a.end_time > $2 AND a.status = ANY($4)
		ORDER BY a.start_time
	`

	rows, err := q.Query(ctx, query, id, from, to, statusStrings(domain.OccupyingStatuses))
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки занятости: %w", err)
	}

	return collectAppointments(rows)
}

func (r *AppointmentRepo) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	var a domain.Appointment
	if err := scanAppointment(r.db.QueryRow(ctx, appointmentSelect+` WHERE a.id = $1`, id), &a); err != nil {
		if nf := notFound(err, domain.ErrAppointmentNotFound); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("ошибка получения записи на прием: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepo) ListOccupying(ctx context.Context, clinicID int64, from, to time.Time) ([]domain.Appointment, error) {
	return occupyingOverlap(ctx, r.db, "a.clinic_id", clinicID, from, to)
}

func (r *AppointmentRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.AppointmentStatus, reason *string, notification *domain.Notification) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE appointments
		SET status = $1, cancellation_reason = COALESCE($2, cancellation_reason), updated_at = $3
		WHERE id = $4 AND status = $5
	`

	tag, err := tx.Exec(ctx, query, to, reason, time.Now(), id, from)
	if err != nil {
		if isPgError(err, pgExclusionViolation) {
			return domain.ErrSlotUnavailable
		}
		return fmt.Errorf("ошибка обновления статуса записи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// status changed concurrently
		return domain.ErrInvalidTransition
	}

	var notificationID int64
	if notification != nil {
		if notificationID, err = insertNotification(ctx, tx, *notification); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при коммите транзакции: %w", err)
	}
	if notification != nil {
		notification.ID = notificationID
	}

	return nil
}

func (r *AppointmentRepo) UpdateNotes(ctx context.Context, id int64, notes string) error {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET notes = $1, updated_at = $2 WHERE id = $3`, notes, time.Now(), id)
	if err != nil {
		return fmt.Errorf("ошибка обновления заметок: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppointmentNotFound
	}
	return nil
}

func appointmentWhere(filter domain.AppointmentFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.ClinicID != nil {
		w.add("a.clinic_id = ?", *filter.ClinicID)
	}
	if filter.PatientID != nil {
		w.add("a.patient_id = ?", *filter.PatientID)
	}
	if filter.Status != nil {
		w.add("a.status = ?", *filter.Status)
	}
	if filter.StartDate != nil {
		w.add("a.start_time >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		w.add("a.start_time < ?", *filter.EndDate)
	}
	return w
}

func (r *AppointmentRepo) List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	w := appointmentWhere(filter)
	query := appointmentSelect + w.sql() + ` ORDER BY a.start_time DESC, a.id DESC` + w.page(filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса списка записей: %w", err)
	}

	return collectAppointments(rows)
}

func (r *AppointmentRepo) Count(ctx context.Context, filter domain.AppointmentFilter) (int, error) {
	w := appointmentWhere(filter)

	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments a`+w.sql(), w.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета записей: %w", err)
	}
	return count, nil
}

func (r *AppointmentRepo) CountByStatus(ctx context.Context, clinicID *int64) (map[domain.AppointmentStatus]int, error) {
	w := &whereBuilder{}
	if clinicID != nil {
		w.add("clinic_id = ?", *clinicID)
	}

	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM appointments`+w.sql()+` GROUP BY status`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчета записей по статусам: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.AppointmentStatus]int)
	for rows.Next() {
		var status domain.AppointmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("ошибка чтения статистики записей: %w", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

func (r *AppointmentRepo) CountUpcoming(ctx context.Context, clinicID int64, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM appointments WHERE clinic_id = $1 AND start_time > $2 AND status = ANY($3)`

	var count int
	if err := r.db.QueryRow(ctx, query, clinicID, now, statusStrings(domain.OccupyingStatuses)).Scan(&count); err != nil {
		return 0, fmt.Errorf("ошибка подсчета предстоящих записей: %w", err)
	}
	return count, nil
}

func (r *AppointmentRepo) CompletedRevenue(ctx context.Context, clinicID *int64) (float64, error) {
	w := &whereBuilder{}
	w.add("status = ?", domain.AppointmentStatusCompleted)
	if clinicID != nil {
		w.add("clinic_id = ?", *clinicID)
	}

	var revenue float64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(price), 0)::float8 FROM appointments`+w.sql(), w.args...).Scan(&revenue); err != nil {
		return 0, fmt.Errorf("ошибка подсчета выручки: %w", err)
	}
	return revenue, nil
}

func (r *AppointmentRepo) BookingsPerDay(ctx context.Context, from, to time.Time) ([]domain.DailyCount, error) {
	query := `
		SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD') AS day, COUNT(*)
		FROM appointments
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики бронирований: %w", err)
	}
	defer rows.Close()

	days := make([]domain.DailyCount, 0)
	for rows.Next() {
		var d domain.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("ошибка чтения статистики бронирований: %w", err)
		}
		days = append(days, d)
	}

	return days, rows.Err()
}

func (r *AppointmentRepo) TopServices(ctx context.Context, clinicID int64, limit int) ([]domain.ServiceStat, error) {
	query := `
		SELECT s.id, s.name, COUNT(a.id),
		       COALESCE(SUM(a.price) FILTER (WHERE a.status = 'COMPLETED'), 0)::float8
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.clinic_id = $1 AND a.status <> 'CANCELLED'
		GROUP BY s.id, s.name
		ORDER BY COUNT(a.id) DESC, s.name
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, clinicID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения популярных услуг: %w", err)
	}
	defer rows.Close()

	stats := make([]domain.ServiceStat, 0)
	for rows.Next() {
		var s domain.ServiceStat
		if err := rows.Scan(&s.ServiceID, &s.ServiceName, &s.Bookings, &s.Revenue); err != nil {
			return nil, fmt.Errorf("ошибка чтения статистики услуг: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}
