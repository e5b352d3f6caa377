package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/notify"
	"dentalhub/internal/repository"
	"dentalhub/pkg/metrics"
	"dentalhub/pkg/timeslot"
)

// displayLayout formats appointment times in notification texts.
const displayLayout = "02.01.2006 15:04"

type BookingRepos struct {
	Patient      repository.PatientRepository
	Clinic       repository.ClinicRepository
	Service      repository.DentalServiceRepository
	Doctor       repository.DoctorRepository
	WorkingHours repository.WorkingHoursRepository
	Appointment  repository.AppointmentRepository
}

type BookingOptions struct {
	MinLead  time.Duration
	Location *time.Location
	Now      func() time.Time
}

type BookingServiceImpl struct {
	repos     BookingRepos
	fanout    *dispatcher
	reminders ReminderScheduler
	metrics   Recorder
	opts      BookingOptions
	logger    *zap.Logger
}

func NewBookingService(
	repos BookingRepos,
	fanout *dispatcher,
	reminders ReminderScheduler,
	recorder Recorder,
	opts BookingOptions,
	logger *zap.Logger,
) *BookingServiceImpl {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &BookingServiceImpl{
		repos:     repos,
		fanout:    fanout,
		reminders: reminders,
		metrics:   recorder,
		opts:      opts,
		logger:    logger,
	}
}

// Book validates the request and creates a BOOKED appointment. The overlap checks
// are repeated inside the storage transaction, so two concurrent requests for the
// same slot end with one appointment and one ErrSlotUnavailable.
func (s *BookingServiceImpl) Book(ctx context.Context, identity domain.Identity, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	appt, err := s.book(ctx, identity, dto)
	s.metrics.RecordBooking(bookingOutcome(err))
	return appt, err
}

func (s *BookingServiceImpl) book(ctx context.Context, identity domain.Identity, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	patient, err := s.repos.Patient.GetByUserID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if !patient.IsActive {
		return nil, domain.ErrPatientProfileRequired
	}

	clinic, err := approvedClinic(ctx, s.repos.Clinic, dto.ClinicID)
	if err != nil {
		return nil, err
	}

	service, err := clinicService(ctx, s.repos.Service, clinic.ID, dto.ServiceID)
	if err != nil {
		return nil, err
	}

	if !dto.StartTime.After(s.opts.Now().Add(s.opts.MinLead)) {
		return nil, domain.ErrStartInPast
	}
	if !dto.EndTime.After(dto.StartTime) {
		return nil, domain.ErrEndBeforeStart
	}

	loc := clinic.Location(s.opts.Location)
	if err := s.checkSchedule(ctx, clinic.ID, service, dto, loc); err != nil {
		return nil, err
	}

	if dto.DoctorID != nil {
		doctor, err := s.repos.Doctor.GetByID(ctx, *dto.DoctorID)
		if err != nil {
			return nil, err
		}
		if doctor.ClinicID != clinic.ID || !doctor.IsActive {
			return nil, domain.ErrDoctorNotFound
		}
	}

	appt := domain.Appointment{
		ClinicID:      clinic.ID,
		PatientID:     patient.ID,
		ServiceID:     service.ID,
		DoctorID:      dto.DoctorID,
		StartTime:     dto.StartTime,
		EndTime:       dto.EndTime,
		Status:        domain.AppointmentStatusBooked,
		PaymentStatus: domain.PaymentStatusNotRequired,
		Price:         service.Price,
		Description:   dto.Description,
		PatientUserID: patient.UserID,
		ClinicOwnerID: clinic.OwnerID,
		ClinicName:    clinic.Name,
		ServiceName:   service.Name,
	}
	if service.RequiresPayment() {
		appt.PaymentStatus = domain.PaymentStatusPending
	}

	patientNote := domain.Notification{
		UserID:  patient.UserID,
		Type:    domain.NotificationAppointmentBooked,
		Title:   "Запись создана",
		Message: fmt.Sprintf("Вы записаны в клинику «%s» на услугу «%s» %s", clinic.Name, service.Name, appt.StartTime.In(loc).Format(displayLayout)),
	}

	id, err := s.repos.Appointment.CreateChecked(ctx, appt, &patientNote, bookingCheck(appt.Interval()))
	if err != nil {
		if domain.KindOf(err) == domain.KindInternal {
			s.logger.Error("ошибка создания записи на прием",
				zap.Int64("clinicID", clinic.ID),
				zap.Int64("patientID", patient.ID),
				zap.Error(err),
			)
		}
		return nil, err
	}
	appt.ID = id

	s.logger.Info("создана запись на прием",
		zap.Int64("appointmentID", id),
		zap.Int64("clinicID", clinic.ID),
		zap.Int64("patientID", patient.ID),
		zap.Time("start", appt.StartTime),
	)

	if stored, err := s.repos.Appointment.GetByID(ctx, id); err == nil {
		appt = *stored
	} else {
		s.logger.Warn("не удалось перечитать созданную запись", zap.Int64("appointmentID", id), zap.Error(err))
	}

	s.afterBooking(ctx, appt, patientNote, loc)

	return &appt, nil
}

// checkSchedule accepts only windows the slot generator would offer for the
// service on that clinic day.
func (s *BookingServiceImpl) checkSchedule(ctx context.Context, clinicID int64, service *domain.DentalService, dto domain.CreateAppointmentDTO, loc *time.Location) error {
	date := dto.StartTime.In(loc)

	wh, err := s.repos.WorkingHours.GetForDay(ctx, clinicID, domain.WeekdayOf(date))
	if err != nil {
		s.logger.Error("ошибка получения рабочего времени", zap.Int64("clinicID", clinicID), zap.Error(err))
		return err
	}
	if wh == nil {
		return domain.ErrClinicClosed
	}

	day, err := wh.Day()
	if err != nil {
		s.logger.Error("некорректное рабочее время в базе", zap.Int64("clinicID", clinicID), zap.String("day", string(wh.DayOfWeek)), zap.Error(err))
		return err
	}

	serviceMinutes := 0
	if service.DurationMinutes != nil {
		serviceMinutes = *service.DurationMinutes
	}
	duration := timeslot.EffectiveDuration(day.Interval, serviceMinutes)

	window := timeslot.Interval{Start: date, End: dto.EndTime.In(loc)}
	switch err := day.Fits(date, window, duration); {
	case err == nil:
		return nil
	case errors.Is(err, timeslot.ErrLength):
		return domain.ErrWrongSlotLength
	case errors.Is(err, timeslot.ErrOutsideDay):
		return domain.ErrOutsideWorkingHours
	case errors.Is(err, timeslot.ErrOffGrid):
		return domain.ErrOffSlotGrid
	case errors.Is(err, timeslot.ErrInBreak):
		return domain.ErrDuringBreak
	default:
		return domain.NewValidationError(err.Error())
	}
}

// bookingCheck rejects the window when it overlaps an occupying appointment of
// the clinic or of the patient in any clinic.
func bookingCheck(window timeslot.Interval) domain.BookingCheck {
	return func(clinicBusy, patientBusy []domain.Appointment) error {
		for i := range clinicBusy {
			if timeslot.Overlaps(window, clinicBusy[i].Interval()) {
				return domain.ErrSlotUnavailable
			}
		}
		for i := range patientBusy {
			if timeslot.Overlaps(window, patientBusy[i].Interval()) {
				return domain.ErrPatientBusy
			}
		}
		return nil
	}
}

func (s *BookingServiceImpl) afterBooking(ctx context.Context, appt domain.Appointment, patientNote domain.Notification, loc *time.Location) {
	s.fanout.publish(ctx, notify.KeyAppointmentBooked, appointmentEvent(appt, s.opts.Now()))
	s.fanout.deliver(ctx, patientNote)

	who := appt.PatientName
	if who == "" {
		who = "Пациент"
	}
	s.fanout.notify(ctx, domain.Notification{
		UserID:        appt.ClinicOwnerID,
		Type:          domain.NotificationNewClinicAppointment,
		Title:         "Новая запись",
		Message:       fmt.Sprintf("%s записался на услугу «%s» %s", who, appt.ServiceName, appt.StartTime.In(loc).Format(displayLayout)),
		AppointmentID: &appt.ID,
	})

	rctx, cancel := detached(ctx)
	defer cancel()
	if err := s.reminders.ScheduleReminder(rctx, appt); err != nil {
		s.logger.Warn("ошибка планирования напоминания", zap.Int64("appointmentID", appt.ID), zap.Error(err))
	}
}

func appointmentEvent(appt domain.Appointment, now time.Time) domain.AppointmentEvent {
	return domain.AppointmentEvent{
		EventID:       uuid.NewString(),
		AppointmentID: appt.ID,
		ClinicID:      appt.ClinicID,
		PatientID:     appt.PatientID,
		ServiceID:     appt.ServiceID,
		Status:        appt.Status,
		StartTime:     appt.StartTime,
		EndTime:       appt.EndTime,
		OccurredAt:    now,
	}
}

func bookingOutcome(err error) string {
	if err == nil {
		return metrics.BookingSucceeded
	}
	switch domain.KindOf(err) {
	case domain.KindConflict:
		return metrics.BookingConflict
	case domain.KindInternal:
		return metrics.BookingFailed
	default:
		return metrics.BookingRejected
	}
}
