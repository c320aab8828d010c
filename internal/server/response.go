package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response единый конверт ответа API
type Response struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// respondOK отправляет успешный ответ с данными
func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Status:  http.StatusOK,
		Success: true,
		Data:    data,
	})
}

// respondError отправляет ответ с ошибкой.
// HTTP-статус всегда 200: клиент разбирает поле status конверта.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(http.StatusOK, Response{
		Status:  status,
		Success: false,
		Message: message,
	})
}

// abortError прерывает обработку с HTTP-статусом
func abortError(c *gin.Context, httpStatus int, message string) {
	c.AbortWithStatusJSON(httpStatus, Response{
		Status:  httpStatus,
		Success: false,
		Message: message,
	})
}
