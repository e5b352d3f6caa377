package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dentalhub/internal/domain"
)

type Repositories struct {
	User          UserRepository
	Auth          AuthRepository
	Patient       PatientRepository
	Clinic        ClinicRepository
	DentalService DentalServiceRepository
	Doctor        DoctorRepository
	Inventory     InventoryRepository
	WorkingHours  WorkingHoursRepository
	Appointment   AppointmentRepository
	Notification  NotificationRepository
}

func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Auth:          NewAuthRepository(db),
		Patient:       NewPatientRepository(db),
		Clinic:        NewClinicRepository(db),
		DentalService: NewDentalServiceRepository(db),
		Doctor:        NewDoctorRepository(db),
		Inventory:     NewInventoryRepository(db),
		WorkingHours:  NewWorkingHoursRepository(db),
		Appointment:   NewAppointmentRepository(db),
		Notification:  NewNotificationRepository(db),
	}
}

// rowScanner is satisfied by pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository interface {
	Create(ctx context.Context, user domain.CreateUserDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Update(ctx context.Context, id int64, user domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateRole(ctx context.Context, id int64, role domain.UserRole) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, error)
	Count(ctx context.Context, filter domain.UserFilter) (int, error)
	CountByRole(ctx context.Context) (map[domain.UserRole]int, error)
}

type AuthRepository interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByUserID(ctx context.Context, userID int64) error
}

type PatientRepository interface {
	// CreateForUser inserts the profile and promotes an UNASSIGNED user to PATIENT atomically.
	CreateForUser(ctx context.Context, userID int64, patient domain.Patient) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Patient, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Patient, error)
	Update(ctx context.Context, patient domain.Patient) error
}

type ClinicRepository interface {
	// CreateForOwner inserts a PENDING clinic and promotes an UNASSIGNED user to CLINIC_OWNER atomically.
	CreateForOwner(ctx context.Context, ownerID int64, clinic domain.CreateClinicDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Clinic, error)
	GetByOwnerID(ctx context.Context, ownerID int64) (*domain.Clinic, error)
	Update(ctx context.Context, id int64, clinic domain.UpdateClinicDTO) error
	UpdateLogo(ctx context.Context, id int64, logoURL *string) error
	// UpdateStatus moves the clinic to status only if its current status is one of from.
	UpdateStatus(ctx context.Context, id int64, from []domain.ClinicStatus, status domain.ClinicStatus, reason *string) error
	List(ctx context.Context, filter domain.ClinicFilter) ([]domain.Clinic, error)
	Count(ctx context.Context, filter domain.ClinicFilter) (int, error)
	CountByStatus(ctx context.Context) (map[domain.ClinicStatus]int, error)
}

type DentalServiceRepository interface {
	Create(ctx context.Context, clinicID int64, service domain.CreateDentalServiceDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.DentalService, error)
	Update(ctx context.Context, id int64, service domain.UpdateDentalServiceDTO) error
	ListByClinic(ctx context.Context, clinicID int64, activeOnly bool) ([]domain.DentalService, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, clinicID int64, doctor domain.CreateDoctorDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Doctor, error)
	Update(ctx context.Context, id int64, doctor domain.UpdateDoctorDTO) error
	ListByClinic(ctx context.Context, clinicID int64, activeOnly bool) ([]domain.Doctor, error)
}

type InventoryRepository interface {
	Create(ctx context.Context, clinicID int64, item domain.CreateInventoryItemDTO) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.InventoryItem, error)
	Update(ctx context.Context, id int64, item domain.UpdateInventoryItemDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryItem, error)
	Count(ctx context.Context, filter domain.InventoryFilter) (int, error)
	// AdjustQuantity adds delta to the quantity; the result never goes below zero.
	AdjustQuantity(ctx context.Context, id int64, delta int) (*domain.InventoryItem, error)
}

type WorkingHoursRepository interface {
	GetByClinic(ctx context.Context, clinicID int64) ([]domain.WorkingHours, error)
	// GetForDay returns nil without error when the clinic is closed on day.
	GetForDay(ctx context.Context, clinicID int64, day domain.Weekday) (*domain.WorkingHours, error)
	// Replace deletes the whole weekly schedule and inserts days in one transaction.
	Replace(ctx context.Context, clinicID int64, days []domain.WorkingHours) error
}

type AppointmentRepository interface {
	// CreateChecked serializes bookings per clinic and per patient, runs check
	// against the overlapping occupying appointments and inserts the appointment
	// with its notification in the same transaction. The notification ids are set on success.
	CreateChecked(ctx context.Context, appointment domain.Appointment, notification *domain.Notification, check domain.BookingCheck) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	// ListOccupying returns occupying appointments of the clinic overlapping [from, to).
	ListOccupying(ctx context.Context, clinicID int64, from, to time.Time) ([]domain.Appointment, error)
	// UpdateStatus applies the transition only if the stored status still equals from.
	// The notification, when given, is stored in the same transaction and gets its id set.
	UpdateStatus(ctx context.Context, id int64, from, to domain.AppointmentStatus, reason *string, notification *domain.Notification) error
	UpdateNotes(ctx context.Context, id int64, notes string) error
	List(ctx context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error)
	Count(ctx context.Context, filter domain.AppointmentFilter) (int, error)
	CountByStatus(ctx context.Context, clinicID *int64) (map[domain.AppointmentStatus]int, error)
	CountUpcoming(ctx context.Context, clinicID int64, now time.Time) (int, error)
	CompletedRevenue(ctx context.Context, clinicID *int64) (float64, error)
	BookingsPerDay(ctx context.Context, from, to time.Time) ([]domain.DailyCount, error)
	TopServices(ctx context.Context, clinicID int64, limit int) ([]domain.ServiceStat, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification domain.Notification) (int64, error)
	List(ctx context.Context, filter domain.NotificationFilter) ([]domain.Notification, error)
	Count(ctx context.Context, filter domain.NotificationFilter) (int, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}
