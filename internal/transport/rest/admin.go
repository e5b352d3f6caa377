package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dentalhub/internal/domain"
)

// @Summary Клиники на модерации
// @Description Список клиник любого статуса (по умолчанию все)
// @Tags Администрирование
// @Produce json
// @Param status query string false "Статус" Enums(PENDING, APPROVED, REJECTED, SUSPENDED)
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} paginatedResponse
// @Security ApiKeyAuth
// @Router /admin/clinics [get]
func (h *Handler) adminListClinics(c *gin.Context) {
	page, pageSize, offset := pagination(c)

	filter := domain.ClinicFilter{Limit: pageSize, Offset: offset}
	if raw := c.Query("status"); raw != "" {
		status := domain.ClinicStatus(raw)
		switch status {
		case domain.ClinicStatusPending, domain.ClinicStatusApproved, domain.ClinicStatusRejected, domain.ClinicStatusSuspended:
			filter.Status = &status
		default:
			badRequestResponse(c, "неизвестный статус клиники")
			return
		}
	}

	clinics, total, err := h.services.Admin.ListClinics(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, clinics, total, page, pageSize)
}

// @Summary Одобрить клинику
// @Tags Администрирование
// @Produce json
// @Param id path int true "ID клиники"
// @Success 200 {object} domain.Clinic
// @Failure 404 {object} errorResponseBody "Клиника не найдена"
// @Failure 409 {object} errorResponseBody "Недопустимая смена статуса"
// @Security ApiKeyAuth
// @Router /admin/clinics/{id}/approve [post]
func (h *Handler) approveClinic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.services.Admin.ApproveClinic(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, clinic)
}

// @Summary Отклонить клинику
// @Tags Администрирование
// @Accept json
// @Produce json
// @Param id path int true "ID клиники"
// @Param input body domain.RejectClinicDTO true "Причина"
// @Success 200 {object} domain.Clinic
// @Failure 400 {object} errorResponseBody "Не указана причина"
// @Failure 409 {object} errorResponseBody "Недопустимая смена статуса"
// @Security ApiKeyAuth
// @Router /admin/clinics/{id}/reject [post]
func (h *Handler) rejectClinic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.RejectClinicDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	clinic, err := h.services.Admin.RejectClinic(c.Request.Context(), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, clinic)
}

// @Summary Приостановить клинику
// @Tags Администрирование
// @Produce json
// @Param id path int true "ID клиники"
// @Success 200 {object} domain.Clinic
// @Failure 409 {object} errorResponseBody "Недопустимая смена статуса"
// @Security ApiKeyAuth
// @Router /admin/clinics/{id}/suspend [post]
func (h *Handler) suspendClinic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.services.Admin.SuspendClinic(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, clinic)
}

// @Summary Аналитика платформы
// @Tags Администрирование
// @Produce json
// @Param days query int false "Окно в днях (по умолчанию 30, максимум 365)"
// @Success 200 {object} domain.PlatformAnalytics
// @Security ApiKeyAuth
// @Router /admin/analytics [get]
func (h *Handler) platformAnalytics(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequestResponse(c, "неверный параметр days")
			return
		}
		days = parsed
	}

	analytics, err := h.services.Admin.PlatformAnalytics(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, analytics)
}

// @Summary Аналитика клиники
// @Tags Кабинет клиники
// @Produce json
// @Success 200 {object} domain.ClinicAnalytics
// @Security ApiKeyAuth
// @Router /my-clinic/analytics [get]
func (h *Handler) clinicAnalytics(c *gin.Context) {
	analytics, err := h.services.Analytics.ClinicAnalytics(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, analytics)
}

// @Summary AI-рекомендации для клиники
// @Description Сводка и рекомендации по аналитике клиники. Результат кешируется
// @Tags AI
// @Produce json
// @Param refresh query bool false "Игнорировать кеш"
// @Success 200 {object} domain.ClinicInsights
// @Failure 503 {object} errorResponseBody "AI недоступен"
// @Security ApiKeyAuth
// @Router /my-clinic/insights [get]
func (h *Handler) clinicInsights(c *gin.Context) {
	refresh := c.Query("refresh") == "true"

	insights, err := h.services.AI.ClinicInsights(c.Request.Context(), getIdentity(c).UserID, refresh)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, insights)
}

// @Summary План лечения
// @Tags AI
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.TreatmentPlanRequest true "Диагноз"
// @Success 200 {object} domain.TreatmentPlan
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Failure 502 {object} errorResponseBody "Некорректный ответ AI"
// @Failure 503 {object} errorResponseBody "AI недоступен"
// @Security ApiKeyAuth
// @Router /my-clinic/appointments/{id}/treatment-plan [post]
func (h *Handler) treatmentPlan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.TreatmentPlanRequest
	if !bindJSON(c, h.logger, &input) {
		return
	}

	plan, err := h.services.AI.TreatmentPlan(c.Request.Context(), getIdentity(c).UserID, id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, plan)
}

// @Summary Проверка симптомов
// @Description Предварительная оценка симптомов. Не является медицинским диагнозом
// @Tags AI
// @Accept json
// @Produce json
// @Param input body domain.SymptomCheckRequest true "Симптомы"
// @Success 200 {object} domain.SymptomCheckResult
// @Failure 502 {object} errorResponseBody "Некорректный ответ AI"
// @Failure 503 {object} errorResponseBody "AI недоступен"
// @Security ApiKeyAuth
// @Router /ai/symptom-check [post]
func (h *Handler) checkSymptoms(c *gin.Context) {
	var input domain.SymptomCheckRequest
	if !bindJSON(c, h.logger, &input) {
		return
	}

	result, err := h.services.AI.CheckSymptoms(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, result)
}
