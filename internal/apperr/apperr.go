package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	// ErrUpstream covers an unreachable provider, a non-2xx status or a timeout.
	ErrUpstream = errors.New("upstream error")
	// ErrInvalidUpstreamResponse is a 2xx response missing required fields.
	ErrInvalidUpstreamResponse = errors.New("invalid upstream response")
	ErrCoverNotFound           = errors.New("cover not found")
	ErrRecordNotFound          = errors.New("record not found")
	ErrInvalidArgument         = errors.New("invalid argument")
)

// Code returns the stable error code sent to API clients.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrUpstream):
		return "UPSTREAM_ERROR"
	case errors.Is(err, ErrInvalidUpstreamResponse):
		return "INVALID_UPSTREAM_RESPONSE"
	case errors.Is(err, ErrCoverNotFound):
		return "COVER_NOT_FOUND"
	case errors.Is(err, ErrRecordNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidArgument):
		return "BAD_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}

func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrInvalidUpstreamResponse):
		return http.StatusInternalServerError
	case errors.Is(err, ErrCoverNotFound), errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the JSON error body for err.
func Respond(c *gin.Context, err error) {
	c.JSON(HTTPStatus(err), gin.H{
		"error":   Code(err),
		"message": err.Error(),
	})
}
