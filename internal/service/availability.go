package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/timeslot"
)

const closedDayMessage = "Клиника не работает в этот день"

type AvailabilityOptions struct {
	// Location is used for clinics without a valid timezone.
	Location *time.Location
	MinLead  time.Duration
	Now      func() time.Time
}

type AvailabilityServiceImpl struct {
	clinicRepo       repository.ClinicRepository
	serviceRepo      repository.DentalServiceRepository
	workingHoursRepo repository.WorkingHoursRepository
	appointmentRepo  repository.AppointmentRepository
	opts             AvailabilityOptions
	logger           *zap.Logger
}

func NewAvailabilityService(
	clinicRepo repository.ClinicRepository,
	serviceRepo repository.DentalServiceRepository,
	workingHoursRepo repository.WorkingHoursRepository,
	appointmentRepo repository.AppointmentRepository,
	opts AvailabilityOptions,
	logger *zap.Logger,
) *AvailabilityServiceImpl {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &AvailabilityServiceImpl{
		clinicRepo:       clinicRepo,
		serviceRepo:      serviceRepo,
		workingHoursRepo: workingHoursRepo,
		appointmentRepo:  appointmentRepo,
		opts:             opts,
		logger:           logger,
	}
}

// Slots computes the bookable and taken slots of a clinic day. Nothing is cached:
// every call reads the current schedule and appointments.
func (s *AvailabilityServiceImpl) Slots(ctx context.Context, query domain.SlotQuery) (*domain.SlotsResponse, error) {
	clinic, err := approvedClinic(ctx, s.clinicRepo, query.ClinicID)
	if err != nil {
		return nil, err
	}

	loc := clinic.Location(s.opts.Location)
	date, err := time.ParseInLocation(dateLayout, query.Date, loc)
	if err != nil {
		return nil, domain.ErrInvalidDate
	}

	serviceMinutes := 0
	if query.ServiceID != nil {
		service, err := clinicService(ctx, s.serviceRepo, clinic.ID, *query.ServiceID)
		if err != nil {
			return nil, err
		}
		if service.DurationMinutes != nil {
			serviceMinutes = *service.DurationMinutes
		}
	}

	resp := &domain.SlotsResponse{
		Date:        query.Date,
		Slots:       make([]timeslot.Slot, 0),
		BookedSlots: make([]timeslot.Slot, 0),
	}

	wh, err := s.workingHoursRepo.GetForDay(ctx, clinic.ID, domain.WeekdayOf(date))
	if err != nil {
		s.logger.Error("ошибка получения рабочего времени", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, err
	}
	if wh == nil {
		resp.ServiceDuration = serviceMinutes
		resp.Message = closedDayMessage
		return resp, nil
	}

	day, err := wh.Day()
	if err != nil {
		s.logger.Error("некорректное рабочее время в базе", zap.Int64("clinicID", clinic.ID), zap.String("day", string(wh.DayOfWeek)), zap.Error(err))
		return nil, err
	}

	duration := timeslot.EffectiveDuration(day.Interval, serviceMinutes)

	occupied, err := s.appointmentRepo.ListOccupying(ctx, clinic.ID, date, date.AddDate(0, 0, 1))
	if err != nil {
		s.logger.Error("ошибка получения записей клиники", zap.Int64("clinicID", clinic.ID), zap.Error(err))
		return nil, err
	}

	intervals := make([]timeslot.Interval, 0, len(occupied))
	for i := range occupied {
		intervals = append(intervals, occupied[i].Interval())
	}

	result := timeslot.Generate(timeslot.Request{
		Date:     date,
		Day:      day,
		Duration: duration,
		Occupied: intervals,
		Now:      s.opts.Now(),
		MinLead:  s.opts.MinLead,
	})

	resp.Slots = result.Available
	resp.BookedSlots = result.Booked
	resp.WorkingHours = wh
	resp.ServiceDuration = int(duration / time.Minute)

	return resp, nil
}

// clinicService loads an active service of the clinic; anything else is reported as not found.
func clinicService(ctx context.Context, repo repository.DentalServiceRepository, clinicID, serviceID int64) (*domain.DentalService, error) {
	service, err := repo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service.ClinicID != clinicID || !service.IsActive {
		return nil, domain.ErrServiceNotFound
	}
	return service, nil
}
