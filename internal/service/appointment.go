package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/notify"
	"dentalhub/internal/repository"
)

var statusTitles = map[domain.AppointmentStatus]string{
	domain.AppointmentStatusConfirmed:  "Запись подтверждена",
	domain.AppointmentStatusInProgress: "Прием начался",
	domain.AppointmentStatusCompleted:  "Прием завершен",
	domain.AppointmentStatusCancelled:  "Запись отменена",
	domain.AppointmentStatusNoShow:     "Неявка на прием",
}

type AppointmentServiceImpl struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	clinicRepo  repository.ClinicRepository
	fanout      *dispatcher
	now         func() time.Time
	logger      *zap.Logger
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	clinicRepo repository.ClinicRepository,
	fanout *dispatcher,
	now func() time.Time,
	logger *zap.Logger,
) *AppointmentServiceImpl {
	return &AppointmentServiceImpl{
		repo:        repo,
		patientRepo: patientRepo,
		clinicRepo:  clinicRepo,
		fanout:      fanout,
		now:         now,
		logger:      logger,
	}
}

// canView: admins see everything, patients and owners only their own appointments.
func canView(identity domain.Identity, appt *domain.Appointment) bool {
	switch identity.Role {
	case domain.UserRoleAdmin:
		return true
	case domain.UserRolePatient:
		return appt.PatientUserID == identity.UserID
	case domain.UserRoleClinicOwner:
		return appt.ClinicOwnerID == identity.UserID
	}
	return false
}

func (s *AppointmentServiceImpl) GetByID(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(identity, appt) {
		return nil, domain.ErrAppointmentNotFound
	}
	return appt, nil
}

// List scopes the filter to the caller: a patient gets their own appointments,
// an owner those of their clinic, an admin any.
func (s *AppointmentServiceImpl) List(ctx context.Context, identity domain.Identity, filter domain.AppointmentFilter) ([]domain.Appointment, int, error) {
	switch identity.Role {
	case domain.UserRolePatient:
		patient, err := s.patientRepo.GetByUserID(ctx, identity.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.PatientID = &patient.ID
	case domain.UserRoleClinicOwner:
		clinic, err := ownedClinic(ctx, s.clinicRepo, identity.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.ClinicID = &clinic.ID
	case domain.UserRoleAdmin:
	default:
		return nil, 0, domain.ErrForbidden
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка получения списка записей", zap.Int64("userID", identity.UserID), zap.Error(err))
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("ошибка подсчета записей", zap.Int64("userID", identity.UserID), zap.Error(err))
		return nil, 0, err
	}

	return appointments, total, nil
}

// UpdateStatus moves an appointment of the owner's clinic along the lifecycle.
func (s *AppointmentServiceImpl) UpdateStatus(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateAppointmentStatusDTO) (*domain.Appointment, error) {
	appt, err := s.clinicAppointment(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	return s.transition(ctx, appt, dto.Status, dto.Reason, appt.PatientUserID)
}

// Cancel is available to the patient while the appointment is BOOKED or CONFIRMED,
// and to the clinic owner whenever the lifecycle allows it.
func (s *AppointmentServiceImpl) Cancel(ctx context.Context, identity domain.Identity, id int64, dto domain.CancelAppointmentDTO) (*domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case identity.Role == domain.UserRolePatient && appt.PatientUserID == identity.UserID:
		if !appt.Status.PatientCancellable() {
			return nil, domain.ErrInvalidTransition
		}
		return s.transition(ctx, appt, domain.AppointmentStatusCancelled, dto.Reason, appt.ClinicOwnerID)
	case identity.Role == domain.UserRoleClinicOwner && appt.ClinicOwnerID == identity.UserID:
		return s.transition(ctx, appt, domain.AppointmentStatusCancelled, dto.Reason, appt.PatientUserID)
	}

	return nil, domain.ErrAppointmentNotFound
}

// UpdateNotes is allowed in any status, including terminal ones.
func (s *AppointmentServiceImpl) UpdateNotes(ctx context.Context, identity domain.Identity, id int64, dto domain.UpdateAppointmentNotesDTO) (*domain.Appointment, error) {
	appt, err := s.clinicAppointment(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateNotes(ctx, appt.ID, dto.Notes); err != nil {
		s.logger.Error("ошибка обновления заметок", zap.Int64("appointmentID", id), zap.Error(err))
		return nil, err
	}

	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentServiceImpl) clinicAppointment(ctx context.Context, identity domain.Identity, id int64) (*domain.Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if identity.Role != domain.UserRoleClinicOwner || appt.ClinicOwnerID != identity.UserID {
		return nil, domain.ErrAppointmentNotFound
	}
	return appt, nil
}

func (s *AppointmentServiceImpl) transition(ctx context.Context, appt *domain.Appointment, to domain.AppointmentStatus, reason *string, recipient int64) (*domain.Appointment, error) {
	if !appt.Status.CanTransitionTo(to) {
		return nil, domain.ErrInvalidTransition
	}

	note := domain.Notification{
		UserID:        recipient,
		Type:          domain.NotificationAppointmentStatus,
		Title:         statusTitles[to],
		Message:       statusMessage(appt, to, reason, clinicLocation(ctx, s.clinicRepo, appt.ClinicID)),
		AppointmentID: &appt.ID,
	}

	if err := s.repo.UpdateStatus(ctx, appt.ID, appt.Status, to, reason, &note); err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка смены статуса записи",
				zap.Int64("appointmentID", appt.ID),
				zap.String("to", string(to)),
				zap.Error(err),
			)
		}
		return nil, err
	}

	s.logger.Info("статус записи изменен",
		zap.Int64("appointmentID", appt.ID),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(to)),
	)

	updated, err := s.repo.GetByID(ctx, appt.ID)
	if err != nil {
		return nil, err
	}

	s.fanout.publish(ctx, notify.AppointmentStatusKey(string(to)), appointmentEvent(*updated, s.now()))
	s.fanout.deliver(ctx, note)

	return updated, nil
}

// clinicLocation falls back to UTC; it only affects how times are printed.
func clinicLocation(ctx context.Context, repo repository.ClinicRepository, clinicID int64) *time.Location {
	clinic, err := repo.GetByID(ctx, clinicID)
	if err != nil {
		return time.UTC
	}
	return clinic.Location(time.UTC)
}

func statusMessage(appt *domain.Appointment, to domain.AppointmentStatus, reason *string, loc *time.Location) string {
	msg := fmt.Sprintf("Запись в клинику «%s» на услугу «%s» %s: статус %s",
		appt.ClinicName, appt.ServiceName, appt.StartTime.In(loc).Format(displayLayout), to)
	if reason != nil && *reason != "" {
		msg += ". Причина: " + *reason
	}
	return msg
}
