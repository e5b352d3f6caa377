package rest

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
)

const maxLogoSize = 5 << 20

// @Summary Поиск клиник
// @Description Возвращает одобренные клиники с фильтрами по городу и названию
// @Tags Клиники
// @Produce json
// @Param city query string false "Город"
// @Param q query string false "Поиск по названию"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} paginatedResponse
// @Router /clinics [get]
func (h *Handler) searchClinics(c *gin.Context) {
	page, pageSize, offset := pagination(c)

	filter := domain.ClinicFilter{Limit: pageSize, Offset: offset}
	if city := strings.TrimSpace(c.Query("city")); city != "" {
		filter.City = &city
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		filter.Query = &q
	}

	clinics, total, err := h.services.Clinic.Search(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, clinics, total, page, pageSize)
}

// @Summary Карточка клиники
// @Description Клиника с активными услугами и врачами
// @Tags Клиники
// @Produce json
// @Param id path int true "ID клиники"
// @Success 200 {object} domain.ClinicDetails
// @Failure 404 {object} errorResponseBody "Клиника не найдена"
// @Router /clinics/{id} [get]
func (h *Handler) getClinic(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.services.Clinic.GetPublic(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, clinic)
}

// @Summary Свободные слоты
// @Description Возвращает свободные и занятые слоты клиники на дату
// @Tags Запись
// @Produce json
// @Param id path int true "ID клиники"
// @Param date query string true "Дата (YYYY-MM-DD)"
// @Param service_id query int false "ID услуги, задает длительность слота"
// @Success 200 {object} domain.SlotsResponse
// @Failure 400 {object} errorResponseBody "Неверная дата"
// @Failure 404 {object} errorResponseBody "Клиника или услуга не найдены"
// @Router /clinics/{id}/slots [get]
func (h *Handler) getSlots(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		badRequestResponse(c, "параметр date обязателен")
		return
	}

	query := domain.SlotQuery{ClinicID: id, Date: date}
	if raw := c.Query("service_id"); raw != "" {
		serviceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || serviceID <= 0 {
			badRequestResponse(c, "неверный формат service_id")
			return
		}
		query.ServiceID = &serviceID
	}

	slots, err := h.services.Availability.Slots(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, slots)
}

// @Summary Расписание клиники
// @Tags Клиники
// @Produce json
// @Param id path int true "ID клиники"
// @Success 200 {array} domain.WorkingHours
// @Failure 404 {object} errorResponseBody "Клиника не найдена"
// @Router /clinics/{id}/working-hours [get]
func (h *Handler) getClinicWorkingHours(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	days, err := h.services.WorkingHours.GetPublic(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, days)
}

// @Summary Моя клиника
// @Tags Кабинет клиники
// @Produce json
// @Success 200 {object} domain.Clinic
// @Failure 404 {object} errorResponseBody "Клиника не найдена"
// @Security ApiKeyAuth
// @Router /my-clinic [get]
func (h *Handler) getMyClinic(c *gin.Context) {
	clinic, err := h.services.Clinic.GetMine(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, clinic)
}

// @Summary Обновить данные клиники
// @Tags Кабинет клиники
// @Accept json
// @Produce json
// @Param input body domain.UpdateClinicDTO true "Поля клиники"
// @Success 200 {object} domain.Clinic
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /my-clinic [put]
func (h *Handler) updateMyClinic(c *gin.Context) {
	var input domain.UpdateClinicDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	clinic, err := h.services.Clinic.UpdateMine(c.Request.Context(), getIdentity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, clinic)
}

// @Summary Загрузить логотип
// @Tags Кабинет клиники
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Изображение"
// @Success 200 {object} map[string]string "URL логотипа"
// @Failure 400 {object} errorResponseBody "Файл не передан или не является изображением"
// @Failure 503 {object} errorResponseBody "Хранилище файлов не настроено"
// @Security ApiKeyAuth
// @Router /my-clinic/logo [post]
func (h *Handler) uploadClinicLogo(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequestResponse(c, "файл не передан")
		return
	}
	if header.Size > maxLogoSize {
		badRequestResponse(c, "размер файла превышает 5 МБ")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.logger.Error("ошибка открытия файла", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoSize))
	if err != nil {
		h.logger.Error("ошибка чтения файла", zap.Error(err))
		internalServerErrorResponse(c)
		return
	}

	url, err := h.services.Clinic.UploadLogo(c.Request.Context(), getIdentity(c).UserID, data, header.Filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, gin.H{"logo_url": url})
}

// @Summary Удалить логотип
// @Tags Кабинет клиники
// @Success 204 "Логотип удален"
// @Security ApiKeyAuth
// @Router /my-clinic/logo [delete]
func (h *Handler) deleteClinicLogo(c *gin.Context) {
	if err := h.services.Clinic.DeleteLogo(c.Request.Context(), getIdentity(c).UserID); err != nil {
		h.respondError(c, err)
		return
	}

	noContentResponse(c)
}

// @Summary Расписание моей клиники
// @Tags Кабинет клиники
// @Produce json
// @Success 200 {array} domain.WorkingHours
// @Security ApiKeyAuth
// @Router /my-clinic/working-hours [get]
func (h *Handler) getMyWorkingHours(c *gin.Context) {
	days, err := h.services.WorkingHours.GetMine(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, days)
}

// @Summary Заменить расписание
// @Description Полностью заменяет недельное расписание клиники. Дни, которых нет в списке, считаются выходными
// @Tags Кабинет клиники
// @Accept json
// @Produce json
// @Param input body domain.ReplaceWorkingHoursDTO true "Рабочие дни"
// @Success 200 {array} domain.WorkingHours
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /my-clinic/working-hours [put]
func (h *Handler) replaceWorkingHours(c *gin.Context) {
	var input domain.ReplaceWorkingHoursDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	days, err := h.services.WorkingHours.Replace(c.Request.Context(), getIdentity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, days)
}

// @Summary Услуги моей клиники
// @Tags Кабинет клиники
// @Produce json
// @Success 200 {array} domain.DentalService
// @Security ApiKeyAuth
// @Router /my-clinic/services [get]
func (h *Handler) getMyServices(c *gin.Context) {
	services, err := h.services.Catalog.ListMine(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, services)
}

// @Summary Добавить услугу
// @Tags Кабинет клиники
// @Accept json
// @Produce json
// @Param input body domain.CreateDentalServiceDTO true "Услуга"
// @Success 201 {object} domain.DentalService
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /my-clinic/services [post]
func (h *Handler) createService(c *gin.Context) {
	var input domain.CreateDentalServiceDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	service, err := h.services.Catalog.Create(c.Request.Context(), getIdentity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, service)
}

// @Summary Обновить услугу
// @Tags Кабинет клиники
// @Accept json
// @Produce json
// @Param id path int true "ID услуги"
// @Param input body domain.UpdateDentalServiceDTO true "Поля услуги"
// @Success 200 {object} domain.DentalService
// @Failure 404 {object} errorResponseBody "Услуга не найдена"
// @Security ApiKeyAuth
// @Router /my-clinic/services/{id} [put]
func (h *Handler) updateService(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateDentalServiceDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	service, err := h.services.Catalog.Update(c.Request.Context(), getIdentity(c).UserID, id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, service)
}

// @Summary Врачи моей клиники
// @Tags Кабинет клиники
// @Produce json
// @Success 200 {array} domain.Doctor
// @Security ApiKeyAuth
// @Router /my-clinic/doctors [get]
func (h *Handler) getMyDoctors(c *gin.Context) {
	doctors, err := h.services.Doctor.ListMine(c.Request.Context(), getIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctors)
}

// @Summary Добавить врача
// @Tags Кабинет клиники
// @Accept json
// @Produce json
// @Param input body domain.CreateDoctorDTO true "Врач"
// @Success 201 {object} domain.Doctor
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /my-clinic/doctors [post]
func (h *Handler) createDoctor(c *gin.Context) {
	var input domain.CreateDoctorDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	doctor, err := h.services.Doctor.Create(c.Request.Context(), getIdentity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, doctor)
}

// @Summary Обновить врача
// @Tags Кабинет клиники
// @Accept json
// @Produce json
// @Param id path int true "ID врача"
// @Param input body domain.UpdateDoctorDTO true "Поля врача"
// @Success 200 {object} domain.Doctor
// @Failure 404 {object} errorResponseBody "Врач не найден"
// @Security ApiKeyAuth
// @Router /my-clinic/doctors/{id} [put]
func (h *Handler) updateDoctor(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateDoctorDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	doctor, err := h.services.Doctor.Update(c.Request.Context(), getIdentity(c).UserID, id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, doctor)
}
