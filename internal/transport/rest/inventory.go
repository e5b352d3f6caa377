package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dentalhub/internal/domain"
)

// @Summary Склад клиники
// @Tags Склад
// @Produce json
// @Param low_stock query bool false "Только позиции с остатком не выше минимального"
// @Param page query int false "Номер страницы"
// @Param page_size query int false "Размер страницы"
// @Success 200 {object} paginatedResponse
// @Security ApiKeyAuth
// @Router /my-clinic/inventory [get]
func (h *Handler) getInventory(c *gin.Context) {
	page, pageSize, offset := pagination(c)
	lowStock := c.Query("low_stock") == "true"

	items, total, err := h.services.Inventory.List(c.Request.Context(), getIdentity(c).UserID, lowStock, pageSize, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	paginatedSuccessResponse(c, items, total, page, pageSize)
}

// @Summary Добавить позицию склада
// @Tags Склад
// @Accept json
// @Produce json
// @Param input body domain.CreateInventoryItemDTO true "Позиция"
// @Success 201 {object} domain.InventoryItem
// @Failure 400 {object} errorResponseBody "Ошибка валидации"
// @Security ApiKeyAuth
// @Router /my-clinic/inventory [post]
func (h *Handler) createInventoryItem(c *gin.Context) {
	var input domain.CreateInventoryItemDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	item, err := h.services.Inventory.Create(c.Request.Context(), getIdentity(c).UserID, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	createdResponse(c, item)
}

// @Summary Позиция склада
// @Tags Склад
// @Produce json
// @Param id path int true "ID позиции"
// @Success 200 {object} domain.InventoryItem
// @Failure 404 {object} errorResponseBody "Позиция не найдена"
// @Security ApiKeyAuth
// @Router /my-clinic/inventory/{id} [get]
func (h *Handler) getInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	item, err := h.services.Inventory.GetByID(c.Request.Context(), getIdentity(c).UserID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, item)
}

// @Summary Обновить позицию склада
// @Description Количество меняется только через /adjust
// @Tags Склад
// @Accept json
// @Produce json
// @Param id path int true "ID позиции"
// @Param input body domain.UpdateInventoryItemDTO true "Поля позиции"
// @Success 200 {object} domain.InventoryItem
// @Failure 404 {object} errorResponseBody "Позиция не найдена"
// @Security ApiKeyAuth
// @Router /my-clinic/inventory/{id} [put]
func (h *Handler) updateInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.UpdateInventoryItemDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	item, err := h.services.Inventory.Update(c.Request.Context(), getIdentity(c).UserID, id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, item)
}

// @Summary Удалить позицию склада
// @Tags Склад
// @Param id path int true "ID позиции"
// @Success 204 "Позиция удалена"
// @Failure 404 {object} errorResponseBody "Позиция не найдена"
// @Security ApiKeyAuth
// @Router /my-clinic/inventory/{id} [delete]
func (h *Handler) deleteInventoryItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.services.Inventory.Delete(c.Request.Context(), getIdentity(c).UserID, id); err != nil {
		h.respondError(c, err)
		return
	}

	noContentResponse(c)
}

// @Summary Изменить остаток
// @Description Приход (delta > 0) или списание (delta < 0). Остаток не может стать отрицательным
// @Tags Склад
// @Accept json
// @Produce json
// @Param id path int true "ID позиции"
// @Param input body domain.AdjustStockDTO true "Изменение"
// @Success 200 {object} domain.InventoryItem
// @Failure 409 {object} errorResponseBody "Недостаточно на складе"
// @Security ApiKeyAuth
// @Router /my-clinic/inventory/{id}/adjust [post]
func (h *Handler) adjustInventory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input domain.AdjustStockDTO
	if !bindJSON(c, h.logger, &input) {
		return
	}

	item, err := h.services.Inventory.Adjust(c.Request.Context(), getIdentity(c).UserID, id, input)
	if err != nil {
		h.respondError(c, err)
		return
	}

	successResponse(c, http.StatusOK, item)
}
