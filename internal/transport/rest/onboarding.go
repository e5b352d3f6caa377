package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dentalhub/internal/domain"
)

// @Summary Куда направить пользователя
// @Description Возвращает страницу, на которую должен попасть пользователь с учетом роли и онбординга. Без токена возвращает /login
// @Tags Онбординг
// @Produce json
// @Success 200 {object} domain.DestinationResponse
// @Router /me/destination [get]
func (h *Handler) getDestination(c *gin.Context) {
	identity := getIdentity(c)

	destination, err := h.services.Onboarding.Destination(c.Request.Context(), identity)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, domain.DestinationResponse{
		Destination: destination,
		Role:        identity.Role,
	})
}

// @Summary Стать пациентом
// @Description Назначает роль пациента и создает профиль. Возвращает новые токены
// @Tags Онбординг
// @Accept json
// @Produce json
// @Param input body domain.OnboardPatientDTO true "Профиль пациента"
// @Success 201 {object} domain.OnboardingResult
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 403 {object} errorResponseBody "Роль уже назначена"
// @Failure 409 {object} errorResponseBody "Роль уже назначена"
// @Security ApiKeyAuth
// @Router /onboarding/patient [post]
func (h *Handler) onboardPatient(c *gin.Context) {
	var input domain.OnboardPatientDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	result, err := h.services.Onboarding.OnboardPatient(c.Request.Context(), getIdentity(c), input, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, result)
}

// @Summary Зарегистрировать клинику
// @Description Назначает роль владельца клиники и создает клинику в статусе PENDING. Возвращает новые токены
// @Tags Онбординг
// @Accept json
// @Produce json
// @Param input body domain.OnboardClinicDTO true "Данные клиники"
// @Success 201 {object} domain.OnboardingResult
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Failure 409 {object} errorResponseBody "Роль уже назначена"
// @Security ApiKeyAuth
// @Router /onboarding/clinic [post]
func (h *Handler) onboardClinic(c *gin.Context) {
	var input domain.OnboardClinicDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	result, err := h.services.Onboarding.OnboardClinic(c.Request.Context(), getIdentity(c), input, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, result)
}

// @Summary Профиль пациента
// @Tags Пациенты
// @Produce json
// @Success 200 {object} domain.Patient
// @Failure 404 {object} errorResponseBody "Профиль не найден"
// @Security ApiKeyAuth
// @Router /patient/profile [get]
func (h *Handler) getPatientProfile(c *gin.Context) {
	patient, err := h.services.Patient.GetByUserID(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, patient)
}

// @Summary Обновить профиль пациента
// @Tags Пациенты
// @Accept json
// @Produce json
// @Param input body domain.PatientProfileDTO true "Поля профиля"
// @Success 200 {object} domain.Patient
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /patient/profile [put]
func (h *Handler) updatePatientProfile(c *gin.Context) {
	var input domain.PatientProfileDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	patient, err := h.services.Patient.UpdateProfile(c.Request.Context(), getIdentity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, patient)
}
