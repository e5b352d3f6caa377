package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dentalhub/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type errorResponseBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code,omitempty"`
}

type successResponseBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type messageResponseType struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type paginatedResponse struct {
	Data       any `json:"data"`
	TotalCount int `json:"total_count"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

func successResponse(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, successResponseBody{
		Status: "success",
		Data:   data,
	})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, errorResponseBody{
		Status:  "error",
		Message: message,
		Code:    statusCode,
	})
}

func messageResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, messageResponseType{
		Status:  "success",
		Message: message,
	})
}

func paginatedSuccessResponse(c *gin.Context, data any, totalCount, page, pageSize int) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	totalPages := totalCount / pageSize
	if totalCount%pageSize > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, paginatedResponse{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

func createdResponse(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, successResponseBody{
		Status: "success",
		Data:   data,
	})
}

func noContentResponse(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusBadRequest, message)
}

func unauthorizedResponse(c *gin.Context) {
	errorResponse(c, http.StatusUnauthorized, "требуется авторизация")
}

func forbiddenResponse(c *gin.Context, message ...string) {
	msg := "доступ запрещен"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	errorResponse(c, http.StatusForbidden, msg)
}

func notFoundResponse(c *gin.Context, message string) {
	errorResponse(c, http.StatusNotFound, message)
}

func internalServerErrorResponse(c *gin.Context) {
	errorResponse(c, http.StatusInternalServerError, "внутренняя ошибка сервера")
}

func tooManyRequestsResponse(c *gin.Context) {
	errorResponse(c, http.StatusTooManyRequests, "слишком много запросов, попробуйте позже")
}

var kindStatus = map[domain.ErrorKind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindConflict:     http.StatusConflict,
	domain.KindForbidden:    http.StatusForbidden,
	domain.KindUnauthorized: http.StatusUnauthorized,
	domain.KindUnavailable:  http.StatusServiceUnavailable,
	domain.KindBadGateway:   http.StatusBadGateway,
}

// respondError answers with the status of the domain error kind. Anything else is
// logged and hidden behind a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	if status, ok := kindStatus[domain.KindOf(err)]; ok {
		errorResponse(c, status, domain.MessageOf(err))
		return
	}

	h.logger.Error("внутренняя ошибка",
		zap.String("path", c.FullPath()),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)
	_ = c.Error(err)
	internalServerErrorResponse(c)
}

// pagination reads page/page_size query parameters and converts them to limit/offset.
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize, (page - 1) * pageSize
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequestResponse(c, "неверный формат ID")
		return 0, false
	}
	return id, true
}

func bindJSON(c *gin.Context, logger *zap.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Warn("неверный формат данных", zap.String("path", c.FullPath()), zap.Error(err))
		badRequestResponse(c, "неверный формат данных")
		return false
	}
	return true
}
