//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"dentalhub/config"
	"dentalhub/internal/domain"
	"dentalhub/migrations"
	"dentalhub/pkg/database"
)

var testDB *pgxpool.Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, pool, err := startPostgres(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "не удалось запустить postgres: %v\n", err)
		os.Exit(1)
	}
	testDB = pool

	code := m.Run()

	pool.Close()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func startPostgres(ctx context.Context) (testcontainers.Container, *pgxpool.Pool, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "dentalhub_test",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		return container, nil, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return container, nil, err
	}

	url := fmt.Sprintf("postgres://test:test@%s:%s/dentalhub_test?sslmode=disable", host, port.Port())
	pool, err := database.NewPostgresDBFromURL(ctx, url, config.PostgresConfig{MaxConnections: 20})
	if err != nil {
		return container, nil, err
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, zap.NewNop()); err != nil {
		pool.Close()
		return container, nil, err
	}

	return container, pool, nil
}

type bookingFixture struct {
	clinicID   int64
	serviceID  int64
	patientIDs []int64
	userIDs    []int64
}

var fixtureSeq int

// seedClinic creates an approved clinic with one service and the given number of patients.
func seedClinic(t *testing.T, patients int) bookingFixture {
	t.Helper()
	ctx := context.Background()
	fixtureSeq++

	newUser := func(role string, n int) int64 {
		var id int64
		err := testDB.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, email, phone, password_hash, role)
			VALUES ('Тест', 'Тестов', $1, $2, 'hash', $3) RETURNING id`,
			fmt.Sprintf("u%d-%d-%s@test.local", fixtureSeq, n, role),
			fmt.Sprintf("+7%03d%07d", fixtureSeq, n),
			role,
		).Scan(&id)
		require.NoError(t, err)
		return id
	}

	var f bookingFixture
	ownerID := newUser("CLINIC_OWNER", 0)
	require.NoError(t, testDB.QueryRow(ctx, `
		INSERT INTO clinics (owner_id, name, address, city, phone, email, status)
		VALUES ($1, 'Улыбка', 'ул. Ленина, 1', 'Москва', '+70000000000', 'clinic@test.local', 'APPROVED')
		RETURNING id`, ownerID).Scan(&f.clinicID))
	require.NoError(t, testDB.QueryRow(ctx, `
		INSERT INTO services (clinic_id, name, price, duration_minutes) VALUES ($1, 'Осмотр', 1500, 30)
		RETURNING id`, f.clinicID).Scan(&f.serviceID))

	for i := 1; i <= patients; i++ {
		userID := newUser("PATIENT", i)
		var patientID int64
		require.NoError(t, testDB.QueryRow(ctx, `INSERT INTO patients (user_id) VALUES ($1) RETURNING id`, userID).Scan(&patientID))
		f.userIDs = append(f.userIDs, userID)
		f.patientIDs = append(f.patientIDs, patientID)
	}

	return f
}

func (f bookingFixture) appointment(patient int, start time.Time, minutes int) domain.Appointment {
	return domain.Appointment{
		ClinicID:      f.clinicID,
		PatientID:     f.patientIDs[patient],
		ServiceID:     f.serviceID,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(minutes) * time.Minute),
		Status:        domain.AppointmentStatusBooked,
		PaymentStatus: domain.PaymentStatusPending,
	}
}

func (f bookingFixture) note(patient int) *domain.Notification {
	return &domain.Notification{
		UserID:  f.userIDs[patient],
		Type:    domain.NotificationAppointmentBooked,
		Title:   "Запись создана",
		Message: "Вы записаны на прием",
	}
}

func rejectOverlaps(clinicBusy, patientBusy []domain.Appointment) error {
	if len(clinicBusy) > 0 {
		return domain.ErrSlotUnavailable
	}
	if len(patientBusy) > 0 {
		return domain.ErrPatientBusy
	}
	return nil
}

func acceptAll([]domain.Appointment, []domain.Appointment) error { return nil }

func TestCreateCheckedStoresAppointmentAndNotification(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	f := seedClinic(t, 1)
	start := time.Date(2031, 3, 3, 10, 0, 0, 0, time.UTC)

	note := f.note(0)
	id, err := repo.CreateChecked(ctx, f.appointment(0, start, 30), note, rejectOverlaps)
	require.NoError(t, err)
	assert.NotZero(t, note.ID)
	require.NotNil(t, note.AppointmentID)
	assert.Equal(t, id, *note.AppointmentID)

	appt, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusBooked, appt.Status)
	assert.True(t, appt.StartTime.Equal(start))
	assert.Equal(t, "Улыбка", appt.ClinicName)

	notifications, err := NewNotificationRepository(testDB).List(ctx, domain.NotificationFilter{UserID: f.userIDs[0]})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, note.ID, notifications[0].ID)
}

func TestCreateCheckedSeesOverlaps(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	f := seedClinic(t, 2)
	start := time.Date(2031, 3, 3, 10, 0, 0, 0, time.UTC)

	_, err := repo.CreateChecked(ctx, f.appointment(0, start, 30), f.note(0), rejectOverlaps)
	require.NoError(t, err)

	_, err = repo.CreateChecked(ctx, f.appointment(1, start.Add(15*time.Minute), 30), f.note(1), rejectOverlaps)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)

	// half-open ranges: back to back is fine
	_, err = repo.CreateChecked(ctx, f.appointment(1, start.Add(30*time.Minute), 30), f.note(1), rejectOverlaps)
	assert.NoError(t, err)

	other := seedClinic(t, 0)
	elsewhere := other.appointment(0, start, 30)
	elsewhere.PatientID = f.patientIDs[0]
	elsewhere.ServiceID = other.serviceID
	noteCopy := f.note(0)
	_, err = repo.CreateChecked(ctx, elsewhere, noteCopy, rejectOverlaps)
	assert.ErrorIs(t, err, domain.ErrPatientBusy)
}

func TestCreateCheckedExclusionConstraint(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	f := seedClinic(t, 2)
	start := time.Date(2031, 3, 4, 10, 0, 0, 0, time.UTC)

	_, err := repo.CreateChecked(ctx, f.appointment(0, start, 30), f.note(0), acceptAll)
	require.NoError(t, err)

	_, err = repo.CreateChecked(ctx, f.appointment(1, start, 30), f.note(1), acceptAll)
	assert.ErrorIs(t, err, domain.ErrSlotUnavailable)
}

func TestCreateCheckedConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	const patients = 8
	f := seedClinic(t, patients)
	start := time.Date(2031, 3, 5, 10, 0, 0, 0, time.UTC)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		taken     int
	)
	for i := 0; i < patients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.CreateChecked(ctx, f.appointment(i, start, 30), f.note(i), rejectOverlaps)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domain.ErrSlotUnavailable):
				taken++
			default:
				t.Errorf("неожиданная ошибка: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, patients-1, taken)
}

func TestUpdateStatusReleasesSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(testDB)
	f := seedClinic(t, 2)
	start := time.Date(2031, 3, 6, 10, 0, 0, 0, time.UTC)

	id, err := repo.CreateChecked(ctx, f.appointment(0, start, 30), f.note(0), rejectOverlaps)
	require.NoError(t, err)

	reason := "заболел"
	note := &domain.Notification{UserID: f.userIDs[0], Type: domain.NotificationAppointmentStatus, Title: "Запись отменена", Message: "Причина: заболел", AppointmentID: &id}
	require.NoError(t, repo.UpdateStatus(ctx, id, domain.AppointmentStatusBooked, domain.AppointmentStatusCancelled, &reason, note))
	assert.NotZero(t, note.ID)

	// stale from-status
	err = repo.UpdateStatus(ctx, id, domain.AppointmentStatusBooked, domain.AppointmentStatusConfirmed, nil, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	appt, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, appt.Status)
	require.NotNil(t, appt.CancellationReason)
	assert.Equal(t, reason, *appt.CancellationReason)

	_, err = repo.CreateChecked(ctx, f.appointment(1, start, 30), f.note(1), rejectOverlaps)
	assert.NoError(t, err)

	occupying, err := repo.ListOccupying(ctx, f.clinicID, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, occupying, 1)
}
