package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dentalhub/internal/domain"
)

// @Summary Регистрация нового пользователя
// @Description Создает учетную запись без роли; роль выбирается при онбординге
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RegisterRequest true "Данные для регистрации"
// @Success 201 {object} successResponseBody "ID пользователя"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Email или телефон уже заняты"
// @Failure 500 {object} errorResponseBody "Внутренняя ошибка сервера"
// @Router /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input domain.RegisterRequest
	if !bindJSON(c, h.logger, &input) {
		return
	}

	id, err := h.services.Auth.Register(c.Request.Context(), input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, gin.H{"id": id})
}

// @Summary Вход в систему
// @Description Авторизует пользователя по email или телефону и возвращает токены доступа
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.LoginRequest true "Данные для входа"
// @Success 200 {object} domain.Tokens "Токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверные учетные данные"
// @Failure 403 {object} errorResponseBody "Учетная запись отключена"
// @Router /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input domain.LoginRequest
	if !bindJSON(c, h.logger, &input) {
		return
	}

	tokens, err := h.services.Auth.Login(c.Request.Context(), input, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Обновление токена
// @Description Обновляет токены доступа и обновления
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RefreshTokenRequest true "Токен обновления"
// @Success 200 {object} domain.Tokens "Новые токены доступа и обновления"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 401 {object} errorResponseBody "Неверный токен обновления"
// @Router /auth/refresh [post]
func (h *Handler) refreshTokens(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if !bindJSON(c, h.logger, &input) {
		return
	}

	tokens, err := h.services.Auth.RefreshTokens(c.Request.Context(), input.RefreshToken, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, tokens)
}

// @Summary Выход из системы
// @Description Завершает сессию пользователя
// @Tags Авторизация
// @Accept json
// @Produce json
// @Param input body domain.RefreshTokenRequest true "Токен обновления"
// @Success 204 "Успешный выход"
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Router /auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	var input domain.RefreshTokenRequest
	if !bindJSON(c, h.logger, &input) {
		return
	}

	if err := h.services.Auth.Logout(c.Request.Context(), input.RefreshToken); err != nil {
		h.respondError(c, err)
		return
	}

	noContentResponse(c)
}
