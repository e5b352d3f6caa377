package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dentalhub/config"
	"dentalhub/internal/ai"
	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/internal/storage"
	"dentalhub/pkg/auth"
)

// EventPublisher sends domain events to the message bus.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// PushSender delivers a notification to the user's open connections.
type PushSender interface {
	Push(ctx context.Context, userID int64, notification domain.Notification) error
}

// ReminderScheduler plans the reminder of a freshly booked appointment.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appointment domain.Appointment) error
}

type JSONCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type Recorder interface {
	RecordBooking(outcome string)
	RecordAIRequest(task, status string)
}

// Deps carries everything the services need. Optional collaborators may be nil.
type Deps struct {
	Repos       *repository.Repositories
	Logger      *zap.Logger
	Config      *config.Config
	Tokens      *auth.TokenManager
	FileStorage storage.FileStorage
	Publisher   EventPublisher
	Push        PushSender
	Reminders   ReminderScheduler
	Cache       JSONCache
	AI          ai.Model
	Metrics     Recorder
	Now         func() time.Time
}

type Services struct {
	Auth         AuthService
	User         UserService
	Onboarding   OnboardingService
	Patient      PatientService
	Clinic       ClinicService
	Catalog      CatalogService
	Doctor       DoctorService
	Inventory    InventoryService
	WorkingHours WorkingHoursService
	Availability AvailabilityService
	Booking      BookingService
	Appointment  AppointmentService
	Notification NotificationService
	Admin        AdminService
	Analytics    AnalyticsService
	AI           AIService
}

func NewServices(deps Deps) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Push == nil {
		deps.Push = nopPush{}
	}
	if deps.Reminders == nil {
		deps.Reminders = nopReminders{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopRecorder{}
	}

	loc := deps.Config.Location()
	fanout := newDispatcher(deps.Repos.Notification, deps.Publisher, deps.Push, deps.Logger)
	authService := NewAuthService(deps.Repos.Auth, deps.Repos.User, deps.Tokens, deps.Now, deps.Logger)
	analytics := NewAnalyticsService(deps.Repos.Clinic, deps.Repos.Appointment, deps.Repos.Inventory, deps.Now, deps.Logger)

	return &Services{
		Auth:         authService,
		User:         NewUserService(deps.Repos.User, deps.Logger),
		Onboarding:   NewOnboardingService(deps.Repos.Patient, deps.Repos.Clinic, authService, deps.Config.DefaultTimezone, deps.Logger),
		Patient:      NewPatientService(deps.Repos.Patient, deps.Logger),
		Clinic:       NewClinicService(deps.Repos.Clinic, deps.Repos.DentalService, deps.Repos.Doctor, deps.FileStorage, deps.Logger),
		Catalog:      NewCatalogService(deps.Repos.DentalService, deps.Repos.Clinic, deps.Logger),
		Doctor:       NewDoctorService(deps.Repos.Doctor, deps.Repos.Clinic, deps.Logger),
		Inventory:    NewInventoryService(deps.Repos.Inventory, deps.Repos.Clinic, deps.Logger),
		WorkingHours: NewWorkingHoursService(deps.Repos.WorkingHours, deps.Repos.Clinic, deps.Logger),
		Availability: NewAvailabilityService(
			deps.Repos.Clinic,
			deps.Repos.DentalService,
			deps.Repos.WorkingHours,
			deps.Repos.Appointment,
			AvailabilityOptions{Location: loc, MinLead: deps.Config.Booking.MinLeadTime, Now: deps.Now},
			deps.Logger,
		),
		Booking: NewBookingService(
			BookingRepos{
				Patient:      deps.Repos.Patient,
				Clinic:       deps.Repos.Clinic,
				Service:      deps.Repos.DentalService,
				Doctor:       deps.Repos.Doctor,
				WorkingHours: deps.Repos.WorkingHours,
				Appointment:  deps.Repos.Appointment,
			},
			fanout,
			deps.Reminders,
			deps.Metrics,
			BookingOptions{MinLead: deps.Config.Booking.MinLeadTime, Location: loc, Now: deps.Now},
			deps.Logger,
		),
		Appointment:  NewAppointmentService(deps.Repos.Appointment, deps.Repos.Patient, deps.Repos.Clinic, fanout, deps.Now, deps.Logger),
		Notification: NewNotificationService(deps.Repos.Notification, deps.Repos.Appointment, deps.Repos.Clinic, fanout, deps.Now, deps.Logger),
		Admin:        NewAdminService(deps.Repos.Clinic, deps.Repos.User, deps.Repos.Appointment, fanout, deps.Now, deps.Logger),
		Analytics:    analytics,
		AI: NewAIService(
			deps.AI,
			deps.Cache,
			deps.Repos.Clinic,
			deps.Repos.Appointment,
			analytics,
			deps.Metrics,
			AIOptions{InsightsTTL: deps.Config.AI.InsightsTTL, Timeout: deps.Config.AI.Timeout},
			deps.Logger,
		),
	}
}

type AuthService interface {
	Register(ctx context.Context, dto domain.RegisterRequest) (int64, error)
	Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error)
	RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ParseToken(ctx context.Context, token string) (domain.Identity, error)
	// IssueTokens starts a fresh session with the role currently stored for the user.
	IssueTokens(ctx context.Context, userID int64, userAgent, ip string) (*domain.Tokens, error)
}

type UserService interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Update(ctx context.Context, id int64, dto domain.UpdateUserDTO) error
	UpdatePassword(ctx context.Context, id int64, dto domain.PasswordUpdateDTO) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter domain.UserFilter) ([]domain.User, int, error)
	// EnsureAdmin creates the platform administrator unless the email is already registered.
	EnsureAdmin(ctx context.Context, cfg config.AdminConfig) error
}

type OnboardingService interface {
	State(ctx context.Context, identity domain.Identity) (domain.OnboardingState, error)
	Destination(ctx context.Context, identity domain.Identity) (domain.Destination, error)
	OnboardPatient(ctx context.Context, identity domain.Identity, dto domain.OnboardPatientDTO, userAgent, ip string) (*domain.OnboardingResult, error)
	OnboardClinic(ctx context.Context, identity domain.Identity, dto domain.OnboardClinicDTO, userAgent, ip string) (*domain.OnboardingResult, error)
}

type PatientService interface {
	GetByUserID(ctx context.Context, userID int64) (*domain.Patient, error)
	UpdateProfile(ctx context.Context, userID int64, dto domain.PatientProfileDTO) (*domain.Patient, error)
}

type ClinicService interface {
	GetMine(ctx context.Context, ownerID int64) (*domain.Clinic, error)
	UpdateMine(ctx context.Context, ownerID int64, dto domain.UpdateClinicDTO) (*domain.Clinic, error)
	UploadLogo(ctx context.Context, ownerID int64, data []byte, filename string) (string, error)
	DeleteLogo(ctx context.Context, ownerID int64) error
	Search(ctx context.Context, filter domain.ClinicFilter) ([]domain.Clinic, int, error)
	GetPublic(ctx context.Context, id int64) (*domain.ClinicDetails, error)
}

type CatalogService interface {
	Create(ctx context.Context, ownerID int64, dto domain.CreateDentalServiceDTO) (*domain.DentalService, error)
	Update(ctx context.Context, ownerID, id int64, dto domain.UpdateDentalServiceDTO) (*domain.DentalService, error)
	ListMine(ctx context.Context, ownerID int64) ([]domain.DentalService, error)
}

type DoctorService interface {
	Create(ctx context.Context, ownerID int64, dto domain.CreateDoctorDTO) (*domain.Doctor, error)
	Update(ctx context.Context, ownerID, id int64, dto domain.UpdateDoctorDTO) (*domain.Doctor, error)
	ListMine(ctx context.Context, ownerID int64) ([]domain.Doctor, error)
}

type InventoryService interface {
	Create(ctx context.Context, ownerID int64, dto domain.CreateInventoryItemDTO) (*domain.InventoryItem, error)
	GetByID(ctx context.Context, ownerID, id int64) (*domain.InventoryItem, error)
	Update(ctx context.Context, ownerID, id int64, dto domain.UpdateInventoryItemDTO) (*domain.InventoryItem, error)
	Delete(ctx context.Context, ownerID, id int64) error
	List(ctx context.Context, ownerID int64, lowStockOnly bool, limit, offset int) ([]domain.InventoryItem, int, error)
	Adjust(ctx context.Context, ownerID, id int64, dto domain.AdjustStockDTO) (*domain.InventoryItem, error)
}

type WorkingHoursService interface {
	GetMine(ctx context.Context, ownerID int64) ([]domain.WorkingHours, error)
	GetPublic(ctx context.Context, clinicID int64) ([]domain.WorkingHours, error)
	Replace(ctx context.Context, ownerID int64, dto domain.ReplaceWorkingHoursDTO) ([]domain.WorkingHours, error)
}

type AvailabilityService interface {
	Slots(ctx context.Context, query domain.SlotQuery) (*domain.SlotsResponse, error)
}

type BookingService interface {
	Book(ctx context.Context, identity domain.Identity, dto domain.CreateAppointmentDTO) (*domain.Appointment, error)
}

type AppointmentService interface {
	GetByID(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error)
	List(ctx context.Context, identity domain.Identity, filter domain.AppointmentFilter) ([]domain.Appointment, int, error)
	UpdateStatus(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateAppointmentStatusDTO) (*domain.Appointment, error)
	Cancel(ctx context.Context, identity domain.Identity, id int64, dto domain.CancelAppointmentDTO) (*domain.Appointment, error)
	UpdateNotes(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateAppointmentNotesDTO) (*domain.Appointment, error)
}

type NotificationService interface {
	List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	SendReminder(ctx context.Context, appointmentID int64) error
}

type AdminService interface {
	ListClinics(ctx context.Context, filter domain.ClinicFilter) ([]domain.Clinic, int, error)
	ApproveClinic(ctx context.Context, id int64) (*domain.Clinic, error)
	RejectClinic(ctx context.Context, id int64, dto domain.RejectClinicDTO) (*domain.Clinic, error)
	SuspendClinic(ctx context.Context, id int64) (*domain.Clinic, error)
	PlatformAnalytics(ctx context.Context, days int) (*domain.PlatformAnalytics, error)
}

type AnalyticsService interface {
	ClinicAnalytics(ctx context.Context, ownerID int64) (*domain.ClinicAnalytics, error)
}

type AIService interface {
	CheckSymptoms(ctx context.Context, dto domain.SymptomCheckRequest) (*domain.SymptomCheckResult, error)
	TreatmentPlan(ctx context.Context, ownerID, appointmentID int64, dto domain.TreatmentPlanRequest) (*domain.TreatmentPlan, error)
	ClinicInsights(ctx context.Context, ownerID int64, refresh bool) (*domain.ClinicInsights, error)
}

func PointerTo[T any](v T) *T {
	return &v
}

type nopPublisher struct{}

func (nopPublisher) PublishJSON(context.Context, string, any) error { return nil }

type nopPush struct{}

func (nopPush) Push(context.Context, int64, domain.Notification) error { return nil }

type nopReminders struct{}

func (nopReminders) ScheduleReminder(context.Context, domain.Appointment) error { return nil }

type nopRecorder struct{}

func (nopRecorder) RecordBooking(string)           {}
func (nopRecorder) RecordAIRequest(string, string) {}
