package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"dentalhub/config"
	"dentalhub/internal/domain"
	"dentalhub/internal/service"
	"dentalhub/pkg/timeslot"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Register(ctx context.Context, dto domain.RegisterRequest) (int64, error) {
	args := m.Called(ctx, dto)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockAuth) Login(ctx context.Context, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error) {
	args := m.Called(ctx, dto, userAgent, ip)
	tokens, _ := args.Get(0).(*domain.Tokens)
	return tokens, args.Error(1)
}

func (m *mockAuth) RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error) {
	args := m.Called(ctx, refreshToken, userAgent, ip)
	tokens, _ := args.Get(0).(*domain.Tokens)
	return tokens, args.Error(1)
}

func (m *mockAuth) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *mockAuth) ParseToken(ctx context.Context, token string) (domain.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(domain.Identity), args.Error(1)
}

func (m *mockAuth) IssueTokens(ctx context.Context, userID int64, userAgent, ip string) (*domain.Tokens, error) {
	args := m.Called(ctx, userID, userAgent, ip)
	tokens, _ := args.Get(0).(*domain.Tokens)
	return tokens, args.Error(1)
}

type mockAvailability struct {
	mock.Mock
}

func (m *mockAvailability) Slots(ctx context.Context, query domain.SlotQuery) (*domain.SlotsResponse, error) {
	args := m.Called(ctx, query)
	resp, _ := args.Get(0).(*domain.SlotsResponse)
	return resp, args.Error(1)
}

type mockBooking struct {
	mock.Mock
}

func (m *mockBooking) Book(ctx context.Context, identity domain.Identity, dto domain.CreateAppointmentDTO) (*domain.Appointment, error) {
	args := m.Called(ctx, identity, dto)
	appt, _ := args.Get(0).(*domain.Appointment)
	return appt, args.Error(1)
}

const (
	patientToken = "patient-token"
	ownerToken   = "owner-token"
)

func newTestRouter(t *testing.T, services *service.Services, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if cfg == nil {
		cfg = &config.Config{DefaultTimezone: "UTC"}
	}

	router := gin.New()
	NewHandler(services, zap.NewNop(), cfg, nil, nil).InitRoutes(router)
	return router
}

func authWithTokens() *mockAuth {
	auth := &mockAuth{}
	auth.On("ParseToken", mock.Anything, patientToken).Return(domain.Identity{UserID: 100, Role: domain.UserRolePatient}, nil)
	auth.On("ParseToken", mock.Anything, ownerToken).Return(domain.Identity{UserID: 10, Role: domain.UserRoleClinicOwner}, nil)
	auth.On("ParseToken", mock.Anything, mock.Anything).Return(domain.Identity{}, domain.ErrUnauthorized)
	return auth
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &service.Services{}, &config.Config{Version: "1.2.3"})

	w := doRequest(router, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "1.2.3")
}

func TestAuthMiddleware(t *testing.T) {
	router := newTestRouter(t, &service.Services{Auth: authWithTokens(), Booking: &mockBooking{}}, nil)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "empty token", header: "Bearer "},
		{name: "unknown token", header: "Bearer nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader("{}"))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRole(t *testing.T) {
	booking := &mockBooking{}
	router := newTestRouter(t, &service.Services{Auth: authWithTokens(), Booking: booking}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/appointments", ownerToken, `{"clinic_id":1}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	booking.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetSlots(t *testing.T) {
	start := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	serviceID := int64(1)

	availability := &mockAvailability{}
	availability.On("Slots", mock.Anything, domain.SlotQuery{ClinicID: 1, Date: "2030-01-07", ServiceID: &serviceID}).
		Return(&domain.SlotsResponse{
			Date:            "2030-01-07",
			Slots:           []timeslot.Slot{{Start: start, End: start.Add(30 * time.Minute), Available: true}},
			BookedSlots:     []timeslot.Slot{},
			ServiceDuration: 30,
		}, nil)
	availability.On("Slots", mock.Anything, domain.SlotQuery{ClinicID: 2, Date: "2030-01-07"}).
		Return(nil, domain.ErrClinicNotFound)

	router := newTestRouter(t, &service.Services{Availability: availability}, nil)

	t.Run("ok", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/clinics/1/slots?date=2030-01-07&service_id=1", "", "")
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data domain.SlotsResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Len(t, body.Data.Slots, 1)
		assert.Equal(t, 30, body.Data.ServiceDuration)
	})

	t.Run("missing date", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/clinics/1/slots", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad service id", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/clinics/1/slots?date=2030-01-07&service_id=x", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad clinic id", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/clinics/abc/slots?date=2030-01-07", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("hidden clinic", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/clinics/2/slots?date=2030-01-07", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "клиника не найдена")
	})
}

func TestCreateAppointment(t *testing.T) {
	body := `{"clinic_id":1,"service_id":1,"start_time":"2030-01-07T10:00:00Z","end_time":"2030-01-07T10:30:00Z"}`
	patient := domain.Identity{UserID: 100, Role: domain.UserRolePatient}

	tests := []struct {
		name       string
		appt       *domain.Appointment
		err        error
		wantStatus int
	}{
		{name: "created", appt: &domain.Appointment{ID: 7, Status: domain.AppointmentStatusBooked}, wantStatus: http.StatusCreated},
		{name: "slot taken", err: domain.ErrSlotUnavailable, wantStatus: http.StatusConflict},
		{name: "no profile", err: domain.ErrPatientProfileRequired, wantStatus: http.StatusNotFound},
		{name: "in the past", err: domain.ErrStartInPast, wantStatus: http.StatusBadRequest},
		{name: "unexpected", err: assert.AnError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := &mockBooking{}
			booking.On("Book", mock.Anything, patient, mock.AnythingOfType("domain.CreateAppointmentDTO")).Return(tt.appt, tt.err)

			router := newTestRouter(t, &service.Services{Auth: authWithTokens(), Booking: booking}, nil)
			w := doRequest(router, http.MethodPost, "/api/v1/appointments", patientToken, body)

			assert.Equal(t, tt.wantStatus, w.Code)
			booking.AssertExpectations(t)
		})
	}
}

func TestCreateAppointmentInvalidBody(t *testing.T) {
	booking := &mockBooking{}
	router := newTestRouter(t, &service.Services{Auth: authWithTokens(), Booking: booking}, nil)

	w := doRequest(router, http.MethodPost, "/api/v1/appointments", patientToken, `{"clinic_id":1}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	booking.AssertNotCalled(t, "Book", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespondErrorKinds(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: domain.NewValidationError("плохо"), status: http.StatusBadRequest},
		{err: domain.ErrClinicNotFound, status: http.StatusNotFound},
		{err: domain.ErrSlotUnavailable, status: http.StatusConflict},
		{err: domain.ErrForbidden, status: http.StatusForbidden},
		{err: domain.ErrUnauthorized, status: http.StatusUnauthorized},
		{err: domain.ErrAIUnavailable, status: http.StatusServiceUnavailable},
		{err: domain.ErrAIInvalidOutput, status: http.StatusBadGateway},
		{err: assert.AnError, status: http.StatusInternalServerError},
	}

	gin.SetMode(gin.TestMode)
	h := NewHandler(&service.Services{}, zap.NewNop(), &config.Config{}, nil, nil)

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), assert.AnError.Error())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	cfg := &config.Config{HTTP: config.HTTPConfig{RateLimitRPS: 1, RateLimitBurst: 2}}
	availability := &mockAvailability{}
	availability.On("Slots", mock.Anything, mock.Anything).Return(&domain.SlotsResponse{}, nil)
	router := newTestRouter(t, &service.Services{Availability: availability}, cfg)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := doRequest(router, http.MethodGet, "/api/v1/clinics/1/slots?date=2030-01-07", "", "")
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestIPLimitersEvictIdle(t *testing.T) {
	limiters := newIPLimiters(1, 1)
	now := time.Now()

	assert.True(t, limiters.allow("10.0.0.1", now))
	assert.False(t, limiters.allow("10.0.0.1", now))

	later := now.Add(limiterIdleTTL + time.Minute)
	assert.True(t, limiters.allow("10.0.0.2", later))
	assert.NotContains(t, limiters.limiters, "10.0.0.1")
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query              string
		page, size, offset int
	}{
		{query: "", page: 1, size: defaultPageSize, offset: 0},
		{query: "page=3&page_size=10", page: 3, size: 10, offset: 20},
		{query: "page=-1&page_size=1000", page: 1, size: maxPageSize, offset: 0},
		{query: "page=x&page_size=y", page: 1, size: defaultPageSize, offset: 0},
	}

	gin.SetMode(gin.TestMode)
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)

			page, size, offset := pagination(c)

			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.size, size)
			assert.Equal(t, tt.offset, offset)
		})
	}
}
