// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sportshop/store-api/internal/interfaces/http/middleware"
	"github.com/sportshop/store-api/internal/pkg/apperror"
)

const internalErrorMessage = "Error interno del servidor"

// respondError writes err as {"error": message, ...details} with the status of its kind.
// Unclassified failures are logged and hidden behind a generic message.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	kind := apperror.KindOf(err)
	status := apperror.HTTPStatus(kind)

	if status == http.StatusInternalServerError {
		log.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c),
			"method":     c.Request.Method,
			"path":       c.FullPath(),
		}).WithError(err).Error("Request failed")
		c.JSON(status, gin.H{"error": internalErrorMessage})
		return
	}

	body := gin.H{"error": err.Error()}
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		body["error"] = appErr.Message
		for k, v := range appErr.Details {
			body[k] = v
		}
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body into dest, answering 400 on failure
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Datos inválidos",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return 0, false
	}
	return uint(id), true
}

// queryInt reads an integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	return v
}
