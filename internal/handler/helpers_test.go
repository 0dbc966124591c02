package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/carsound-ops/api/internal/auth"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/carsound-ops/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const testJWTSecret = "test-secret-for-handlers"

// newAuthRouter mounts routes behind Authenticate, the way the real router does.
func newAuthRouter(pattern string, register func(chi.Router), roles ...string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	if len(roles) > 0 {
		r.Use(middleware.RequireRole(roles...))
	}
	r.Route(pattern, register)
	return r
}

func adminRouter(pattern string, register func(chi.Router)) *chi.Mux {
	return newAuthRouter(pattern, register, enum.UserRoleAdmin)
}

func doAuthRequest(t *testing.T, router http.Handler, method, path string, body interface{}, role string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	token, err := auth.GenerateToken(testJWTSecret, uuid.New(), "Rana", role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	decodeBody(t, rr, &resp)
	return resp["error"]
}
