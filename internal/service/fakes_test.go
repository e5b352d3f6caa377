package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/internal/repository"
	"dentalhub/pkg/timeslot"
)

// 2030-01-07 is a Monday; tests run "on" the Sunday before it.
var testNow = time.Date(2030, time.January, 6, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func monday(hour, minute int) time.Time {
	return time.Date(2030, time.January, 7, hour, minute, 0, 0, time.UTC)
}

// memStore backs the fake repositories. One mutex guards everything, which also
// gives CreateChecked the same serialization the advisory locks give in Postgres.
type memStore struct {
	mu            sync.Mutex
	nextID        int64
	clinics       map[int64]*domain.Clinic
	patients      map[int64]*domain.Patient
	services      map[int64]*domain.DentalService
	doctors       map[int64]*domain.Doctor
	hours         map[int64][]domain.WorkingHours
	appointments  map[int64]*domain.Appointment
	notifications []domain.Notification
}

func newMemStore() *memStore {
	price := 1500.0
	thirty := 30
	s := &memStore{
		nextID:       1000,
		clinics:      map[int64]*domain.Clinic{},
		patients:     map[int64]*domain.Patient{},
		services:     map[int64]*domain.DentalService{},
		doctors:      map[int64]*domain.Doctor{},
		hours:        map[int64][]domain.WorkingHours{},
		appointments: map[int64]*domain.Appointment{},
	}

	s.clinics[1] = &domain.Clinic{ID: 1, OwnerID: 10, Name: "Улыбка", Timezone: "UTC", Status: domain.ClinicStatusApproved}
	s.clinics[2] = &domain.Clinic{ID: 2, OwnerID: 20, Name: "Дентал", Timezone: "UTC", Status: domain.ClinicStatusPending}

	s.patients[1] = &domain.Patient{ID: 1, UserID: 100, IsActive: true, FirstName: "Иван", LastName: "Петров"}
	s.patients[2] = &domain.Patient{ID: 2, UserID: 200, IsActive: true, FirstName: "Анна", LastName: "Смирнова"}
	s.patients[3] = &domain.Patient{ID: 3, UserID: 300, IsActive: false}

	s.services[1] = &domain.DentalService{ID: 1, ClinicID: 1, Name: "Осмотр", Price: &price, DurationMinutes: &thirty, IsActive: true}
	s.services[2] = &domain.DentalService{ID: 2, ClinicID: 2, Name: "Чистка", IsActive: true}
	s.services[3] = &domain.DentalService{ID: 3, ClinicID: 1, Name: "Архив", IsActive: false}
	s.services[4] = &domain.DentalService{ID: 4, ClinicID: 1, Name: "Консультация", IsActive: true}

	s.doctors[1] = &domain.Doctor{ID: 1, ClinicID: 1, FirstName: "Олег", LastName: "Зубов", IsActive: true}
	s.doctors[2] = &domain.Doctor{ID: 2, ClinicID: 2, FirstName: "Мария", LastName: "Кариес", IsActive: true}

	breakStart, breakEnd := "12:00", "13:00"
	s.hours[1] = []domain.WorkingHours{{
		ID: 1, ClinicID: 1, DayOfWeek: domain.Monday, OpenTime: "09:00", CloseTime: "17:00",
		SlotDurationMinutes: 30, BreakStartTime: &breakStart, BreakEndTime: &breakEnd,
	}}

	return s
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addAppointment(a domain.Appointment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	s.appointments[a.ID] = &a
	return a.ID
}

func (s *memStore) notificationsFor(userID int64) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (s *memStore) repos() *repository.Repositories {
	return &repository.Repositories{
		Patient:       &fakePatientRepo{s: s},
		Clinic:        &fakeClinicRepo{s: s},
		DentalService: &fakeServiceRepo{s: s},
		Doctor:        &fakeDoctorRepo{s: s},
		WorkingHours:  &fakeWorkingHoursRepo{s: s},
		Appointment:   &fakeAppointmentRepo{s: s},
		Notification:  &fakeNotificationRepo{s: s},
	}
}

type fakeClinicRepo struct {
	repository.ClinicRepository
	s *memStore
}

func (r *fakeClinicRepo) GetByID(_ context.Context, id int64) (*domain.Clinic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clinics[id]
	if !ok {
		return nil, domain.ErrClinicNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeClinicRepo) GetByOwnerID(_ context.Context, ownerID int64) (*domain.Clinic, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.clinics {
		if c.OwnerID == ownerID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrClinicNotFound
}

func (r *fakeClinicRepo) UpdateStatus(_ context.Context, id int64, from []domain.ClinicStatus, status domain.ClinicStatus, reason *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clinics[id]
	if !ok {
		return domain.ErrClinicNotFound
	}
	for _, f := range from {
		if c.Status == f {
			c.Status = status
			c.RejectionReason = reason
			return nil
		}
	}
	return domain.ErrInvalidClinicMove
}

type fakePatientRepo struct {
	repository.PatientRepository
	s *memStore
}

func (r *fakePatientRepo) GetByUserID(_ context.Context, userID int64) (*domain.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.patients {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPatientProfileRequired
}

type fakeServiceRepo struct {
	repository.DentalServiceRepository
	s *memStore
}

func (r *fakeServiceRepo) GetByID(_ context.Context, id int64) (*domain.DentalService, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	svc, ok := r.s.services[id]
	if !ok {
		return nil, domain.ErrServiceNotFound
	}
	cp := *svc
	return &cp, nil
}

type fakeDoctorRepo struct {
	repository.DoctorRepository
	s *memStore
}

func (r *fakeDoctorRepo) GetByID(_ context.Context, id int64) (*domain.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.doctors[id]
	if !ok {
		return nil, domain.ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

type fakeWorkingHoursRepo struct {
	s *memStore
}

func (r *fakeWorkingHoursRepo) GetByClinic(_ context.Context, clinicID int64) ([]domain.WorkingHours, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.WorkingHours{}, r.s.hours[clinicID]...), nil
}

func (r *fakeWorkingHoursRepo) GetForDay(_ context.Context, clinicID int64, day domain.Weekday) (*domain.WorkingHours, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, wh := range r.s.hours[clinicID] {
		if wh.DayOfWeek == day {
			cp := wh
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeWorkingHoursRepo) Replace(_ context.Context, clinicID int64, days []domain.WorkingHours) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.hours[clinicID] = append([]domain.WorkingHours{}, days...)
	return nil
}

type fakeAppointmentRepo struct {
	repository.AppointmentRepository
	s *memStore
}

// decorate fills the joined fields the Postgres repository selects.
func (r *fakeAppointmentRepo) decorate(a domain.Appointment) *domain.Appointment {
	if p, ok := r.s.patients[a.PatientID]; ok {
		a.PatientUserID = p.UserID
		a.PatientName = p.FirstName + " " + p.LastName
	}
	if c, ok := r.s.clinics[a.ClinicID]; ok {
		a.ClinicOwnerID = c.OwnerID
		a.ClinicName = c.Name
	}
	if svc, ok := r.s.services[a.ServiceID]; ok {
		a.ServiceName = svc.Name
	}
	return &a
}

func (r *fakeAppointmentRepo) overlapping(match func(*domain.Appointment) bool, window timeslot.Interval) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range r.s.appointments {
		if match(a) && a.Status.IsOccupying() && timeslot.Overlaps(window, a.Interval()) {
			out = append(out, *a)
		}
	}
	return out
}

func (r *fakeAppointmentRepo) CreateChecked(_ context.Context, appt domain.Appointment, notification *domain.Notification, check domain.BookingCheck) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	window := appt.Interval()
	clinicBusy := r.overlapping(func(a *domain.Appointment) bool { return a.ClinicID == appt.ClinicID }, window)
	patientBusy := r.overlapping(func(a *domain.Appointment) bool { return a.PatientID == appt.PatientID }, window)
	if err := check(clinicBusy, patientBusy); err != nil {
		return 0, err
	}

	appt.ID = r.s.id()
	appt.CreatedAt = testNow
	r.s.appointments[appt.ID] = &appt

	notification.ID = r.s.id()
	notification.AppointmentID = &appt.ID
	r.s.notifications = append(r.s.notifications, *notification)

	return appt.ID, nil
}

func (r *fakeAppointmentRepo) GetByID(_ context.Context, id int64) (*domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return nil, domain.ErrAppointmentNotFound
	}
	return r.decorate(*a), nil
}

func (r *fakeAppointmentRepo) ListOccupying(_ context.Context, clinicID int64, from, to time.Time) ([]domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.overlapping(func(a *domain.Appointment) bool { return a.ClinicID == clinicID }, timeslot.Interval{Start: from, End: to})
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (r *fakeAppointmentRepo) UpdateStatus(_ context.Context, id int64, from, to domain.AppointmentStatus, reason *string, notification *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok || a.Status != from {
		return domain.ErrInvalidTransition
	}
	a.Status = to
	if reason != nil {
		a.CancellationReason = reason
	}
	if notification != nil {
		notification.ID = r.s.id()
		r.s.notifications = append(r.s.notifications, *notification)
	}
	return nil
}

func (r *fakeAppointmentRepo) UpdateNotes(_ context.Context, id int64, notes string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.appointments[id]
	if !ok {
		return domain.ErrAppointmentNotFound
	}
	a.Notes = &notes
	return nil
}

func (r *fakeAppointmentRepo) matching(filter domain.AppointmentFilter) []domain.Appointment {
	var out []domain.Appointment
	for _, a := range r.s.appointments {
		if filter.ClinicID != nil && a.ClinicID != *filter.ClinicID {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, *r.decorate(*a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (r *fakeAppointmentRepo) List(_ context.Context, filter domain.AppointmentFilter) ([]domain.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.matching(filter), nil
}

func (r *fakeAppointmentRepo) Count(_ context.Context, filter domain.AppointmentFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.matching(filter)), nil
}

type fakeNotificationRepo struct {
	repository.NotificationRepository
	s *memStore
}

func (r *fakeNotificationRepo) Create(_ context.Context, n domain.Notification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	r.s.notifications = append(r.s.notifications, n)
	return n.ID, nil
}

// recordingSinks captures fan-out calls.
type recordingSinks struct {
	mu       sync.Mutex
	events   []string
	pushed   []domain.Notification
	planned  []int64
	outcomes []string
}

func (r *recordingSinks) PublishJSON(_ context.Context, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, key)
	return nil
}

func (r *recordingSinks) Push(_ context.Context, _ int64, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushed = append(r.pushed, n)
	return nil
}

func (r *recordingSinks) ScheduleReminder(_ context.Context, a domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.planned = append(r.planned, a.ID)
	return nil
}

func (r *recordingSinks) RecordBooking(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func (r *recordingSinks) RecordAIRequest(string, string) {}

func newTestDispatcher(s *memStore, sinks *recordingSinks) *dispatcher {
	return newDispatcher(&fakeNotificationRepo{s: s}, sinks, sinks, zap.NewNop())
}
