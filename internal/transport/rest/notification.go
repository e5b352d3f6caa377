package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Уведомления
// @Tags Уведомления
// @Produce json
// @Param unread query bool false "Только непрочитанные"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} paginatedResponse
// @Security ApiKeyAuth
// @Router /notifications [get]
func (h *Handler) getNotifications(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	unread := c.Query("unread") == "true"

	notifications, total, err := h.services.Notification.List(c.Request.Context(), getIdentity(c).UserID, unread, pageSize, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, notifications, total, page, pageSize)
}

// @Summary Отметить уведомление прочитанным
// @Tags Уведомления
// @Param id path int true "ID уведомления"
// @Success 204 "Отмечено"
// @Failure 404 {object} errorResponseBody "Уведомление не найдено"
// @Security ApiKeyAuth
// @Router /notifications/{id}/read [post]
func (h *Handler) markNotificationRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Notification.MarkRead(c.Request.Context(), getIdentity(c).UserID, id); err != nil {
		h.respondError(c, err)
		return
	}

	noContentResponse(c)
}

// @Summary Отметить все уведомления прочитанными
// @Tags Уведомления
// @Produce json
// @Success 200 {object} map[string]int64 "Количество отмеченных"
// @Security ApiKeyAuth
// @Router /notifications/read-all [post]
func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	updated, err := h.services.Notification.MarkAllRead(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"updated": updated})
}
