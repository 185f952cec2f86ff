package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHTTPStatusFollowsWrappedKind(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{fmt.Errorf("fetch random: %w", ErrUpstream), http.StatusBadGateway, "UPSTREAM_ERROR"},
		{fmt.Errorf("decode: %w", ErrInvalidUpstreamResponse), http.StatusInternalServerError, "INVALID_UPSTREAM_RESPONSE"},
		{ErrCoverNotFound, http.StatusNotFound, "COVER_NOT_FOUND"},
		{fmt.Errorf("user 7: %w", ErrRecordNotFound), http.StatusNotFound, "NOT_FOUND"},
		{ErrInvalidArgument, http.StatusBadRequest, "BAD_REQUEST"},
		{errors.New("disk full"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
		if got := Code(tc.err); got != tc.code {
			t.Errorf("Code(%v) = %q, want %q", tc.err, got, tc.code)
		}
	}
}

func TestRespondWritesCodeAndMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	Respond(c, fmt.Errorf("manga abc: %w", ErrCoverNotFound))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "COVER_NOT_FOUND" {
		t.Fatalf("error code = %q", body["error"])
	}
	if body["message"] != "manga abc: cover not found" {
		t.Fatalf("message = %q", body["message"])
	}
}
