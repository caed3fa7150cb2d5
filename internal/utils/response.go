package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error shape the clinic backend speaks: a single detail string.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Success sends data with 200.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends data with 201.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// Error sends a detail error response and aborts the chain.
func Error(c *gin.Context, statusCode int, detail string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Detail: detail})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, detail string) {
	Error(c, http.StatusUnauthorized, detail)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(c *gin.Context, detail string) {
	Error(c, http.StatusForbidden, detail)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

// Conflict sends a 409 Conflict error response.
func Conflict(c *gin.Context, detail string) {
	Error(c, http.StatusConflict, detail)
}

// Unprocessable sends a 422 Unprocessable Entity error response.
func Unprocessable(c *gin.Context, detail string) {
	Error(c, http.StatusUnprocessableEntity, detail)
}

// TooManyRequests sends a 429 Too Many Requests error response.
func TooManyRequests(c *gin.Context, detail string) {
	Error(c, http.StatusTooManyRequests, detail)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, detail string) {
	Error(c, http.StatusInternalServerError, detail)
}
