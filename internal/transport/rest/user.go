package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dentalhub/internal/domain"
)

// @Summary Текущий пользователь
// @Description Возвращает данные авторизованного пользователя
// @Tags Пользователи
// @Produce json
// @Success 200 {object} domain.User "Данные пользователя"
// @Failure 401 {object} errorResponseBody "Не авторизован"
// @Security ApiKeyAuth
// @Router /me [get]
func (h *Handler) getCurrentUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, user)
}

// @Summary Обновить свои данные
// @Tags Пользователи
// @Accept json
// @Produce json
// @Param input body domain.UpdateUserDTO true "Новые данные"
// @Success 200 {object} domain.User "Обновленные данные"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Email или телефон уже заняты"
// @Security ApiKeyAuth
// @Router /me [put]
func (h *Handler) updateCurrentUser(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.UpdateUserDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}
	// only an administrator can (de)activate accounts
	input.IsActive = nil

	if err := h.services.User.Update(c.Request.Context(), userID, input); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.services.User.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, user)
}

// @Summary Сменить пароль
// @Tags Пользователи
// @Accept json
// @Produce json
// @Param input body domain.PasswordUpdateDTO true "Старый и новый пароль"
// @Success 200 {object} messageResponseType
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверный текущий пароль"
// @Security ApiKeyAuth
// @Router /me/password [put]
func (h *Handler) updatePassword(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		unauthorizedResponse(c)
		return
	}

	var input domain.PasswordUpdateDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	if err := h.services.User.UpdatePassword(c.Request.Context(), userID, input); err != nil {
		h.respondError(c, err)
		return
	}

	messageResponse(c, http.StatusOK, "пароль успешно изменен")
}

// @Summary Список пользователей
// @Description Возвращает пользователей платформы (только для администраторов)
// @Tags Администрирование
// @Produce json
// @Param role query string false "Роль" Enums(UNASSIGNED, PATIENT, CLINIC_OWNER, ADMIN)
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} paginatedResponse
// @Failure 403 {object} errorResponseBody "Доступ запрещен"
// @Security ApiKeyAuth
// @Router /admin/users [get]
func (h *Handler) getUsers(c *gin.Context) {
	page, pageSize, offset := pagination(c)

	filter := domain.UserFilter{Limit: pageSize, Offset: offset}
	if role := domain.UserRole(c.Query("role")); role != "" {
		if !role.Valid() {
			badRequestResponse(c, "неизвестная роль")
			return
		}
		filter.Role = &role
	}

	users, total, err := h.services.User.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, users, total, page, pageSize)
}

// @Summary Удалить пользователя
// @Tags Администрирование
// @Param id path int true "ID пользователя"
// @Success 204 "Пользователь удален"
// @Failure 404 {object} errorResponseBody "Пользователь не найден"
// @Security ApiKeyAuth
// @Router /admin/users/{id} [delete]
func (h *Handler) deleteUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.User.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}

	noContentResponse(c)
}
