package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"mangacover/internal/chat"
	synchub "mangacover/internal/sync"
	"mangacover/internal/users"
	"mangacover/pkg/utils"
)

type pinger struct{ err error }

func (p pinger) PingContext(ctx context.Context) error { return p.err }

func newTestRouter(db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(Deps{
		Config: utils.DefaultAppConfig(),
		DB:     db,
		Users:  users.NewHandler(users.NewRepo()),
		Chat:   chat.NewHub(10),
		Feed:   synchub.NewHub(),
	})
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHelloWorld(t *testing.T) {
	rec := get(newTestRouter(pinger{}), "/")
	if rec.Code != http.StatusOK || rec.Body.String() != "Hello World!" {
		t.Fatalf("GET / = %d %q", rec.Code, rec.Body)
	}
}

func TestConfigEcho(t *testing.T) {
	rec := get(newTestRouter(pinger{}), "/config")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		APIBase     string `json:"apiBase"`
		UploadsBase string `json:"uploadsBase"`
		Timeout     int    `json:"timeout"`
		Port        string `json:"port"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	def := utils.DefaultAppConfig()
	if body.APIBase != def.APIBase || body.UploadsBase != def.UploadsBase || body.Timeout != def.HTTPTimeoutMS || body.Port != def.Port {
		t.Fatalf("config = %+v", body)
	}
}

func TestReadyReflectsStore(t *testing.T) {
	if rec := get(newTestRouter(pinger{}), "/ready"); rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	rec := get(newTestRouter(pinger{err: errors.New("disk gone")}), "/ready")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready status = %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["db_error"] != "disk gone" {
		t.Fatalf("body = %v", body)
	}
}

func TestUsersMounted(t *testing.T) {
	if rec := get(newTestRouter(pinger{}), "/users/1"); rec.Code != http.StatusOK {
		t.Fatalf("GET /users/1 = %d", rec.Code)
	}
}
