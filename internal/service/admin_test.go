package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
)

func newAdminService(s *memStore, sinks *recordingSinks) *AdminServiceImpl {
	repos := s.repos()
	return NewAdminService(repos.Clinic, nil, repos.Appointment, newTestDispatcher(s, sinks), fixedNow, zap.NewNop())
}

func TestClinicModeration(t *testing.T) {
	s := newMemStore()
	sinks := &recordingSinks{}
	svc := newAdminService(s, sinks)
	ctx := context.Background()

	// clinic 2 is PENDING
	_, err := svc.SuspendClinic(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrInvalidClinicMove)

	clinic, err := svc.ApproveClinic(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.ClinicStatusApproved, clinic.Status)

	_, err = svc.RejectClinic(ctx, 2, domain.RejectClinicDTO{Reason: "нет лицензии"})
	assert.ErrorIs(t, err, domain.ErrInvalidClinicMove)

	clinic, err = svc.SuspendClinic(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.ClinicStatusSuspended, clinic.Status)

	clinic, err = svc.ApproveClinic(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.ClinicStatusApproved, clinic.Status)

	notes := s.notificationsFor(20)
	require.Len(t, notes, 3)
	for _, n := range notes {
		assert.Equal(t, domain.NotificationClinicStatus, n.Type)
	}
	assert.Equal(t, []string{"clinic.status", "clinic.status", "clinic.status"}, sinks.events)
}

func TestRejectClinic(t *testing.T) {
	s := newMemStore()
	svc := newAdminService(s, &recordingSinks{})

	_, err := svc.RejectClinic(context.Background(), 2, domain.RejectClinicDTO{Reason: "   "})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	clinic, err := svc.RejectClinic(context.Background(), 2, domain.RejectClinicDTO{Reason: "нет лицензии"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClinicStatusRejected, clinic.Status)
	require.NotNil(t, clinic.RejectionReason)
	assert.Equal(t, "нет лицензии", *clinic.RejectionReason)
	assert.Contains(t, s.notificationsFor(20)[0].Message, "нет лицензии")

	_, err = svc.ApproveClinic(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrClinicNotFound)
}

func TestFillDays(t *testing.T) {
	start := time.Date(2030, time.January, 1, 0, 0, 0, 0, time.UTC)
	got := fillDays([]domain.DailyCount{{Date: "2030-01-02", Count: 4}}, start, 3)

	assert.Equal(t, []domain.DailyCount{
		{Date: "2030-01-01", Count: 0},
		{Date: "2030-01-02", Count: 4},
		{Date: "2030-01-03", Count: 0},
	}, got)
}
