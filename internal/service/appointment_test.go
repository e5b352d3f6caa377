package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
)

var ownerIdentity = domain.Identity{UserID: 10, Role: domain.UserRoleClinicOwner}

func newAppointmentService(s *memStore, sinks *recordingSinks) *AppointmentServiceImpl {
	repos := s.repos()
	return NewAppointmentService(repos.Appointment, repos.Patient, repos.Clinic, newTestDispatcher(s, sinks), fixedNow, zap.NewNop())
}

func seedAppointment(s *memStore, status domain.AppointmentStatus) int64 {
	return s.addAppointment(domain.Appointment{
		ClinicID: 1, PatientID: 1, ServiceID: 1,
		StartTime: monday(10, 0), EndTime: monday(10, 30),
		Status: status,
	})
}

func TestUpdateStatus_Transitions(t *testing.T) {
	tests := []struct {
		from    domain.AppointmentStatus
		to      domain.AppointmentStatus
		allowed bool
	}{
		{domain.AppointmentStatusBooked, domain.AppointmentStatusConfirmed, true},
		{domain.AppointmentStatusBooked, domain.AppointmentStatusCancelled, true},
		{domain.AppointmentStatusBooked, domain.AppointmentStatusNoShow, true},
		{domain.AppointmentStatusBooked, domain.AppointmentStatusInProgress, false},
		{domain.AppointmentStatusBooked, domain.AppointmentStatusCompleted, false},
		{domain.AppointmentStatusConfirmed, domain.AppointmentStatusInProgress, true},
		{domain.AppointmentStatusConfirmed, domain.AppointmentStatusCompleted, false},
		{domain.AppointmentStatusInProgress, domain.AppointmentStatusCompleted, true},
		{domain.AppointmentStatusInProgress, domain.AppointmentStatusCancelled, false},
		{domain.AppointmentStatusCompleted, domain.AppointmentStatusCancelled, false},
		{domain.AppointmentStatusCancelled, domain.AppointmentStatusConfirmed, false},
		{domain.AppointmentStatusNoShow, domain.AppointmentStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			s := newMemStore()
			sinks := &recordingSinks{}
			svc := newAppointmentService(s, sinks)
			id := seedAppointment(s, tt.from)

			appt, err := svc.UpdateStatus(context.Background(), ownerIdentity, id, domain.UpdateAppointmentStatusDTO{Status: tt.to})
			if !tt.allowed {
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.Equal(t, tt.from, s.appointments[id].Status)
				assert.Empty(t, sinks.events)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, appt.Status)

			notes := s.notificationsFor(100)
			require.Len(t, notes, 1)
			assert.Equal(t, domain.NotificationAppointmentStatus, notes[0].Type)
			assert.Equal(t, []string{"appointment." + strings.ToLower(string(tt.to))}, sinks.events)
			require.Len(t, sinks.pushed, 1)
			assert.NotZero(t, sinks.pushed[0].ID)
		})
	}
}

func TestUpdateStatus_OnlyOwnClinic(t *testing.T) {
	s := newMemStore()
	svc := newAppointmentService(s, &recordingSinks{})
	id := seedAppointment(s, domain.AppointmentStatusBooked)

	otherOwner := domain.Identity{UserID: 20, Role: domain.UserRoleClinicOwner}
	_, err := svc.UpdateStatus(context.Background(), otherOwner, id, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)

	_, err = svc.UpdateStatus(context.Background(), patientIdentity, id, domain.UpdateAppointmentStatusDTO{Status: domain.AppointmentStatusConfirmed})
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestCancel_ByPatient(t *testing.T) {
	s := newMemStore()
	sinks := &recordingSinks{}
	svc := newAppointmentService(s, sinks)
	id := seedAppointment(s, domain.AppointmentStatusConfirmed)

	reason := "заболел"
	appt, err := svc.Cancel(context.Background(), patientIdentity, id, domain.CancelAppointmentDTO{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, domain.AppointmentStatusCancelled, appt.Status)
	require.NotNil(t, appt.CancellationReason)
	assert.Equal(t, reason, *appt.CancellationReason)

	// the clinic owner is told about a patient cancellation
	require.Len(t, s.notificationsFor(10), 1)
	assert.Contains(t, s.notificationsFor(10)[0].Message, reason)
}

func TestCancel_PatientRules(t *testing.T) {
	s := newMemStore()
	svc := newAppointmentService(s, &recordingSinks{})

	inProgress := seedAppointment(s, domain.AppointmentStatusInProgress)
	_, err := svc.Cancel(context.Background(), patientIdentity, inProgress, domain.CancelAppointmentDTO{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	booked := seedAppointment(s, domain.AppointmentStatusBooked)
	stranger := domain.Identity{UserID: 200, Role: domain.UserRolePatient}
	_, err = svc.Cancel(context.Background(), stranger, booked, domain.CancelAppointmentDTO{})
	assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)
}

func TestUpdateNotes_AnyStatus(t *testing.T) {
	s := newMemStore()
	svc := newAppointmentService(s, &recordingSinks{})
	id := seedAppointment(s, domain.AppointmentStatusCompleted)

	appt, err := svc.UpdateNotes(context.Background(), ownerIdentity, id, domain.UpdateAppointmentNotesDTO{Notes: "пломба 36"})
	require.NoError(t, err)
	require.NotNil(t, appt.Notes)
	assert.Equal(t, "пломба 36", *appt.Notes)
	assert.Equal(t, domain.AppointmentStatusCompleted, appt.Status)
}

func TestGetByID_Visibility(t *testing.T) {
	s := newMemStore()
	svc := newAppointmentService(s, &recordingSinks{})
	id := seedAppointment(s, domain.AppointmentStatusBooked)

	tests := []struct {
		name     string
		identity domain.Identity
		visible  bool
	}{
		{"own patient", patientIdentity, true},
		{"clinic owner", ownerIdentity, true},
		{"admin", domain.Identity{UserID: 1, Role: domain.UserRoleAdmin}, true},
		{"other patient", domain.Identity{UserID: 200, Role: domain.UserRolePatient}, false},
		{"other owner", domain.Identity{UserID: 20, Role: domain.UserRoleClinicOwner}, false},
		{"unassigned", domain.Identity{UserID: 100, Role: domain.UserRoleUnassigned}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt, err := svc.GetByID(context.Background(), tt.identity, id)
			if tt.visible {
				require.NoError(t, err)
				assert.Equal(t, id, appt.ID)
				return
			}
			assert.ErrorIs(t, err, domain.ErrAppointmentNotFound)
		})
	}
}

func TestList_ScopedByRole(t *testing.T) {
	s := newMemStore()
	svc := newAppointmentService(s, &recordingSinks{})
	seedAppointment(s, domain.AppointmentStatusBooked)
	s.addAppointment(domain.Appointment{
		ClinicID: 1, PatientID: 2, ServiceID: 1,
		StartTime: monday(11, 0), EndTime: monday(11, 30),
		Status: domain.AppointmentStatusBooked,
	})

	mine, total, err := svc.List(context.Background(), patientIdentity, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, int64(1), mine[0].PatientID)

	clinic, total, err := svc.List(context.Background(), ownerIdentity, domain.AppointmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, clinic, 2)

	// a patient cannot widen the filter to someone else
	other := int64(2)
	mine, _, err = svc.List(context.Background(), patientIdentity, domain.AppointmentFilter{PatientID: &other})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(1), mine[0].PatientID)

	_, _, err = svc.List(context.Background(), domain.Identity{UserID: 5, Role: domain.UserRoleUnassigned}, domain.AppointmentFilter{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
