package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/carsound-ops/api/internal/auth"
	"github.com/carsound-ops/api/internal/enum"
	"github.com/carsound-ops/api/internal/handler"
	"github.com/carsound-ops/api/internal/incentive"
	"github.com/carsound-ops/api/internal/service"
)

type mockClosingService struct {
	closeFn func(ctx context.Context, day, closedBy string) (*service.ClosingResult, error)
}

func (m *mockClosingService) Close(ctx context.Context, day, closedBy string) (*service.ClosingResult, error) {
	return m.closeFn(ctx, day, closedBy)
}

func setupClosingRouter(svc *mockClosingService, pinHash string) http.Handler {
	h := handler.NewClosingHandler(svc, pinHash)
	return adminRouter("/closings", h.RegisterRoutes)
}

func TestCloseDay_Success(t *testing.T) {
	var gotDay, gotBy string
	svc := &mockClosingService{
		closeFn: func(ctx context.Context, day, closedBy string) (*service.ClosingResult, error) {
			gotDay, gotBy = day, closedBy
			return &service.ClosingResult{
				Day:        day,
				RowsClosed: 2,
				Totals:     incentive.Totals{GrandTotal: 11000},
			}, nil
		},
	}
	router := setupClosingRouter(svc, "")

	rr := doAuthRequest(t, router, "POST", "/closings", map[string]string{"date": "2024-03-01"},
		enum.UserRoleAdmin, "X-Confirm", "true")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gotDay != "2024-03-01" || gotBy != "Rana" {
		t.Errorf("service called with %q by %q", gotDay, gotBy)
	}

	var resp map[string]interface{}
	decodeBody(t, rr, &resp)
	if resp["rows_closed"] != float64(2) {
		t.Errorf("rows_closed: got %v", resp["rows_closed"])
	}
}

func TestCloseDay_AlreadyClosed(t *testing.T) {
	svc := &mockClosingService{
		closeFn: func(ctx context.Context, day, closedBy string) (*service.ClosingResult, error) {
			return &service.ClosingResult{Day: day}, nil
		},
	}
	router := setupClosingRouter(svc, "")

	rr := doAuthRequest(t, router, "POST", "/closings", map[string]string{"date": "2024-03-01"},
		enum.UserRoleAdmin, "X-Confirm", "true")

	if rr.Code != http.StatusOK {
		t.Fatalf("closing twice must not be an error, got %d", rr.Code)
	}
	var resp map[string]interface{}
	decodeBody(t, rr, &resp)
	if resp["rows_closed"] != float64(0) {
		t.Errorf("rows_closed: got %v, want 0", resp["rows_closed"])
	}
}

func TestCloseDay_Guards(t *testing.T) {
	hash, err := auth.HashPin("2468")
	if err != nil {
		t.Fatalf("hash pin: %v", err)
	}
	svc := &mockClosingService{
		closeFn: func(ctx context.Context, day, closedBy string) (*service.ClosingResult, error) {
			return &service.ClosingResult{Day: day, RowsClosed: 1}, nil
		},
	}
	router := setupClosingRouter(svc, hash)
	body := map[string]string{"date": "2024-03-01"}

	tests := []struct {
		name       string
		role       string
		headers    []string
		wantStatus int
	}{
		{"no confirmation", enum.UserRoleAdmin, nil, http.StatusPreconditionRequired},
		{"wrong pin", enum.UserRoleAdmin, []string{"X-Confirm", "true", "X-Confirm-Pin", "1111"}, http.StatusForbidden},
		{"cashier", enum.UserRoleCashier, []string{"X-Confirm", "true", "X-Confirm-Pin", "2468"}, http.StatusForbidden},
		{"confirmed", enum.UserRoleAdmin, []string{"X-Confirm", "true", "X-Confirm-Pin", "2468"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doAuthRequest(t, router, "POST", "/closings", body, tt.role, tt.headers...)
			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}

func TestCloseDay_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]string
		err        error
		wantStatus int
	}{
		{"missing date", map[string]string{}, nil, http.StatusBadRequest},
		{"bad date", map[string]string{"date": "yesterday"}, incentive.ErrInvalidDay, http.StatusBadRequest},
		{"busy", map[string]string{"date": "2024-03-01"}, service.ErrBusy, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockClosingService{
				closeFn: func(ctx context.Context, day, closedBy string) (*service.ClosingResult, error) {
					return nil, tt.err
				},
			}
			router := setupClosingRouter(svc, "")

			rr := doAuthRequest(t, router, "POST", "/closings", tt.body, enum.UserRoleAdmin, "X-Confirm", "true")

			if rr.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rr.Code)
			}
		})
	}
}
