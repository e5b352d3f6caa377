package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dentalhub/internal/domain"
)

const dateLayout = "2006-01-02"

// @Summary Записаться на прием
// @Description Создает запись пациента. Слот проверяется по расписанию, занятости клиники и пациента
// @Tags Запись
// @Accept json
// @Produce json
// @Param input body domain.CreateAppointmentDTO true "Данные записи"
// @Success 201 {object} domain.Appointment
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 404 {object} errorResponseBody "Нет профиля пациента, клиника, услуга или врач не найдены"
// @Failure 409 {object} errorResponseBody "Слот занят"
// @Security ApiKeyAuth
// @Router /appointments [post]
func (h *Handler) createAppointment(c *gin.Context) {
	var input domain.CreateAppointmentDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	appointment, err := h.services.Booking.Book(c.Request.Context(), getIdentity(c), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, appointment)
}

// @Summary Список записей
// @Description Пациент видит свои записи, владелец клиники записи своей клиники, администратор все
// @Tags Запись
// @Produce json
// @Param status query string false "Статус"
// @Param from query string false "С даты (YYYY-MM-DD)"
// @Param to query string false "По дату включительно (YYYY-MM-DD)"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} paginatedResponse
// @Security ApiKeyAuth
// @Router /appointments [get]
func (h *Handler) getAppointments(c *gin.Context) {
	page, pageSize, offset := pagination(c)

	filter := domain.AppointmentFilter{Limit: pageSize, Offset: offset}
	if raw := c.Query("status"); raw != "" {
		status := domain.AppointmentStatus(raw)
		if !status.Valid() {
			badRequestResponse(c, "неизвестный статус записи")
			return
		}
		filter.Status = &status
	}

	loc := h.config.Location()
	if raw := c.Query("from"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			badRequestResponse(c, "неверный формат даты from")
			return
		}
		filter.StartDate = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			badRequestResponse(c, "неверный формат даты to")
			return
		}
		to = to.AddDate(0, 0, 1)
		filter.EndDate = &to
	}

	appointments, total, err := h.services.Appointment.List(c.Request.Context(), getIdentity(c), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, appointments, total, page, pageSize)
}

// @Summary Запись по ID
// @Tags Запись
// @Produce json
// @Param id path int true "ID записи"
// @Success 200 {object} domain.Appointment
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Security ApiKeyAuth
// @Router /appointments/{id} [get]
func (h *Handler) getAppointmentByID(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	appointment, err := h.services.Appointment.GetByID(c.Request.Context(), getIdentity(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Сменить статус записи
// @Description Владелец клиники переводит запись по жизненному циклу
// @Tags Запись
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.UpdateAppointmentStatusDTO true "Новый статус"
// @Success 200 {object} domain.Appointment
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Failure 409 {object} errorResponseBody "Недопустимый переход"
// @Security ApiKeyAuth
// @Router /appointments/{id}/status [patch]
func (h *Handler) updateAppointmentStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateAppointmentStatusDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	appointment, err := h.services.Appointment.UpdateStatus(c.Request.Context(), getIdentity(c), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Отменить запись
// @Tags Запись
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.CancelAppointmentDTO false "Причина отмены"
// @Success 200 {object} domain.Appointment
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Failure 409 {object} errorResponseBody "Запись нельзя отменить"
// @Security ApiKeyAuth
// @Router /appointments/{id}/cancel [post]
func (h *Handler) cancelAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.CancelAppointmentDTO
	if c.Request.ContentLength > 0 && !bindJSON(c, h.logger, &input) {
		return
	}

	appointment, err := h.services.Appointment.Cancel(c.Request.Context(), getIdentity(c), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}

// @Summary Заметки врача
// @Tags Запись
// @Accept json
// @Produce json
// @Param id path int true "ID записи"
// @Param input body domain.UpdateAppointmentNotesDTO true "Заметки"
// @Success 200 {object} domain.Appointment
// @Failure 404 {object} errorResponseBody "Запись не найдена"
// @Security ApiKeyAuth
// @Router /appointments/{id}/notes [put]
func (h *Handler) updateAppointmentNotes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateAppointmentNotesDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	appointment, err := h.services.Appointment.UpdateNotes(c.Request.Context(), getIdentity(c), id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, appointment)
}
