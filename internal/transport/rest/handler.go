package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dentalhub/config"
	"dentalhub/internal/domain"
	"dentalhub/internal/service"
	"dentalhub/internal/transport/websocket"
	"dentalhub/pkg/metrics"
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
	hub      *websocket.Hub
	metrics  *metrics.Metrics
}

// NewHandler accepts a nil hub and nil metrics; the matching routes are then not registered.
func NewHandler(services *service.Services, logger *zap.Logger, config *config.Config, hub *websocket.Hub, m *metrics.Metrics) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   config,
		hub:      hub,
		metrics:  m,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())
	router.Use(h.errorMiddleware())
	router.Use(h.corsMiddleware())
	if h.metrics != nil {
		router.Use(h.metrics.GinMiddleware())
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	router.GET("/health", h.health)

	if h.hub != nil {
		// the websocket handler authenticates by the token query parameter
		router.GET("/ws", h.hub.HandleWebSocket)
	}

	api := router.Group("/api/v1")
	api.Use(h.rateLimitMiddleware())
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.logout)
		}

		api.GET("/me/destination", h.optionalAuthMiddleware(), h.getDestination)

		me := api.Group("/me", h.authMiddleware())
		{
			me.GET("", h.getCurrentUser)
			me.PUT("", h.updateCurrentUser)
			me.PUT("/password", h.updatePassword)
		}

		onboarding := api.Group("/onboarding", h.authMiddleware(), h.requireRole(domain.UserRoleUnassigned))
		{
			onboarding.POST("/patient", h.onboardPatient)
			onboarding.POST("/clinic", h.onboardClinic)
		}

		patient := api.Group("/patient", h.authMiddleware(), h.requireRole(domain.UserRolePatient))
		{
			patient.GET("/profile", h.getPatientProfile)
			patient.PUT("/profile", h.updatePatientProfile)
		}

		clinics := api.Group("/clinics")
		{
			clinics.GET("", h.searchClinics)
			clinics.GET("/:id", h.getClinic)
			clinics.GET("/:id/slots", h.getSlots)
			clinics.GET("/:id/working-hours", h.getClinicWorkingHours)
		}

		h.initMyClinicRoutes(api)

		appointments := api.Group("/appointments", h.authMiddleware())
		{
			appointments.POST("", h.requireRole(domain.UserRolePatient), h.createAppointment)
			appointments.GET("", h.getAppointments)
			appointments.GET("/:id", h.getAppointmentByID)
			appointments.PATCH("/:id/status", h.requireRole(domain.UserRoleClinicOwner), h.updateAppointmentStatus)
			appointments.POST("/:id/cancel", h.requireRole(domain.UserRolePatient, domain.UserRoleClinicOwner), h.cancelAppointment)
			appointments.PUT("/:id/notes", h.requireRole(domain.UserRoleClinicOwner), h.updateAppointmentNotes)
		}

		notifications := api.Group("/notifications", h.authMiddleware())
		{
			notifications.GET("", h.getNotifications)
			notifications.POST("/read-all", h.markAllNotificationsRead)
			notifications.POST("/:id/read", h.markNotificationRead)
		}

		api.POST("/ai/symptom-check", h.authMiddleware(), h.requireRole(domain.UserRolePatient), h.checkSymptoms)

		admin := api.Group("/admin", h.authMiddleware(), h.adminMiddleware())
		{
			admin.GET("/clinics", h.adminListClinics)
			admin.POST("/clinics/:id/approve", h.approveClinic)
			admin.POST("/clinics/:id/reject", h.rejectClinic)
			admin.POST("/clinics/:id/suspend", h.suspendClinic)
			admin.GET("/analytics", h.platformAnalytics)
			admin.GET("/users", h.getUsers)
			admin.DELETE("/users/:id", h.deleteUser)
		}
	}
}

func (h *Handler) initMyClinicRoutes(api *gin.RouterGroup) {
	mine := api.Group("/my-clinic", h.authMiddleware(), h.requireRole(domain.UserRoleClinicOwner))
	{
		mine.GET("", h.getMyClinic)
		mine.PUT("", h.updateMyClinic)
		mine.POST("/logo", h.uploadClinicLogo)
		mine.DELETE("/logo", h.deleteClinicLogo)

		mine.GET("/working-hours", h.getMyWorkingHours)
		mine.PUT("/working-hours", h.replaceWorkingHours)

		mine.GET("/services", h.getMyServices)
		mine.POST("/services", h.createService)
		mine.PUT("/services/:id", h.updateService)

		mine.GET("/doctors", h.getMyDoctors)
		mine.POST("/doctors", h.createDoctor)
		mine.PUT("/doctors/:id", h.updateDoctor)

		mine.GET("/inventory", h.getInventory)
		mine.POST("/inventory", h.createInventoryItem)
		mine.GET("/inventory/:id", h.getInventoryItem)
		mine.PUT("/inventory/:id", h.updateInventoryItem)
		mine.DELETE("/inventory/:id", h.deleteInventoryItem)
		mine.POST("/inventory/:id/adjust", h.adjustInventory)

		mine.GET("/analytics", h.clinicAnalytics)
		mine.GET("/insights", h.clinicInsights)
		mine.POST("/appointments/:id/treatment-plan", h.treatmentPlan)
	}
}

// @Summary Проверка состояния
// @Tags Служебные
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.config.Version})
}
