package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
	"dentalhub/pkg/timeslot"
)

func newAvailabilityService(s *memStore, now time.Time) *AvailabilityServiceImpl {
	repos := s.repos()
	return NewAvailabilityService(
		repos.Clinic,
		repos.DentalService,
		repos.WorkingHours,
		repos.Appointment,
		AvailabilityOptions{Location: time.UTC, Now: func() time.Time { return now }},
		zap.NewNop(),
	)
}

func slotStarts(slots []timeslot.Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.Format("15:04"))
	}
	return out
}

func TestSlots_FullDayWithBreak(t *testing.T) {
	s := newMemStore()
	svc := newAvailabilityService(s, testNow)

	resp, err := svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-07"})
	require.NoError(t, err)

	// 09:00-17:00 by 30 minutes minus the 12:00-13:00 break
	assert.Len(t, resp.Slots, 14)
	assert.Empty(t, resp.BookedSlots)
	assert.NotContains(t, slotStarts(resp.Slots), "12:00")
	assert.NotContains(t, slotStarts(resp.Slots), "12:30")
	assert.Equal(t, "09:00", slotStarts(resp.Slots)[0])
	assert.Equal(t, "16:30", slotStarts(resp.Slots)[13])
	assert.Equal(t, 30, resp.ServiceDuration)
	require.NotNil(t, resp.WorkingHours)
	assert.Equal(t, domain.Monday, resp.WorkingHours.DayOfWeek)
	assert.Empty(t, resp.Message)
}

func TestSlots_BookedSlotsAreSeparated(t *testing.T) {
	s := newMemStore()
	s.addAppointment(domain.Appointment{
		ClinicID: 1, PatientID: 2, ServiceID: 1,
		StartTime: monday(10, 0), EndTime: monday(10, 30),
		Status: domain.AppointmentStatusBooked,
	})
	s.addAppointment(domain.Appointment{
		ClinicID: 1, PatientID: 2, ServiceID: 1,
		StartTime: monday(11, 0), EndTime: monday(11, 30),
		Status: domain.AppointmentStatusCancelled,
	})
	svc := newAvailabilityService(s, testNow)

	resp, err := svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-07"})
	require.NoError(t, err)

	assert.Equal(t, []string{"10:00"}, slotStarts(resp.BookedSlots))
	assert.False(t, resp.BookedSlots[0].Available)
	assert.Len(t, resp.Slots, 13)
	assert.Contains(t, slotStarts(resp.Slots), "11:00")
	assert.Contains(t, slotStarts(resp.Slots), "10:30")
}

func TestSlots_PastSlotsDropped(t *testing.T) {
	s := newMemStore()
	svc := newAvailabilityService(s, monday(15, 0))

	resp, err := svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-07"})
	require.NoError(t, err)
	assert.Equal(t, []string{"15:30", "16:00", "16:30"}, slotStarts(resp.Slots))
}

func TestSlots_ServiceDuration(t *testing.T) {
	s := newMemStore()
	sixty := 60
	fortyFive := 45
	s.services[1].DurationMinutes = &sixty
	s.services[4].DurationMinutes = &fortyFive
	svc := newAvailabilityService(s, testNow)

	serviceID := int64(1)
	resp, err := svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-07", ServiceID: &serviceID})
	require.NoError(t, err)
	assert.Equal(t, 60, resp.ServiceDuration)
	for _, slot := range resp.Slots {
		assert.Equal(t, time.Hour, slot.End.Sub(slot.Start))
	}
	// 16:30 would end at 17:30, after closing
	assert.NotContains(t, slotStarts(resp.Slots), "16:30")

	// not a multiple of the interval: falls back to 30 minutes
	serviceID = 4
	resp, err = svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-07", ServiceID: &serviceID})
	require.NoError(t, err)
	assert.Equal(t, 30, resp.ServiceDuration)
}

func TestSlots_ClosedDay(t *testing.T) {
	s := newMemStore()
	svc := newAvailabilityService(s, testNow)

	resp, err := svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-08"})
	require.NoError(t, err)
	assert.Empty(t, resp.Slots)
	assert.Empty(t, resp.BookedSlots)
	assert.NotNil(t, resp.Slots)
	assert.Nil(t, resp.WorkingHours)
	assert.Equal(t, closedDayMessage, resp.Message)
}

func TestSlots_Errors(t *testing.T) {
	foreignService := int64(2)
	inactiveService := int64(3)

	tests := []struct {
		name    string
		query   domain.SlotQuery
		wantErr error
	}{
		{"unknown clinic", domain.SlotQuery{ClinicID: 99, Date: "2030-01-07"}, domain.ErrClinicNotFound},
		{"pending clinic", domain.SlotQuery{ClinicID: 2, Date: "2030-01-07"}, domain.ErrClinicNotFound},
		{"malformed date", domain.SlotQuery{ClinicID: 1, Date: "07.01.2030"}, domain.ErrInvalidDate},
		{"service of another clinic", domain.SlotQuery{ClinicID: 1, Date: "2030-01-07", ServiceID: &foreignService}, domain.ErrServiceNotFound},
		{"inactive service", domain.SlotQuery{ClinicID: 1, Date: "2030-01-07", ServiceID: &inactiveService}, domain.ErrServiceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newAvailabilityService(newMemStore(), testNow)
			_, err := svc.Slots(context.Background(), tt.query)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSlots_Idempotent(t *testing.T) {
	s := newMemStore()
	svc := newAvailabilityService(s, testNow)
	q := domain.SlotQuery{ClinicID: 1, Date: "2030-01-07"}

	first, err := svc.Slots(context.Background(), q)
	require.NoError(t, err)
	second, err := svc.Slots(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSlots_ClinicTimezone(t *testing.T) {
	s := newMemStore()
	s.clinics[1].Timezone = "Europe/Moscow"
	svc := newAvailabilityService(s, testNow)

	resp, err := svc.Slots(context.Background(), domain.SlotQuery{ClinicID: 1, Date: "2030-01-07"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Slots)
	// 09:00 Moscow is 06:00 UTC
	assert.Equal(t, time.Date(2030, time.January, 7, 6, 0, 0, 0, time.UTC), resp.Slots[0].Start.UTC())
}
