package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wellnest/wellnest/internal/domain/report"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/handlers"
)

type fakeReportStore struct {
	create         func(ctx context.Context, rep report.Report) (report.Report, error)
	getByID        func(ctx context.Context, id string) (report.Report, error)
	listAll        func(ctx context.Context) ([]report.Report, error)
	listByStatus   func(ctx context.Context, status report.Status) ([]report.Report, error)
	listByCustomer func(ctx context.Context, customerID string) ([]report.Report, error)
	listByTrainer  func(ctx context.Context, trainerID string) ([]report.Report, error)
	updateStatus   func(ctx context.Context, id string, status report.Status, resolvedBy *string, resolvedAt *time.Time) (report.Report, error)
	delete         func(ctx context.Context, id string) error
}

func (f *fakeReportStore) Create(ctx context.Context, rep report.Report) (report.Report, error) {
	return f.create(ctx, rep)
}

func (f *fakeReportStore) GetByID(ctx context.Context, id string) (report.Report, error) {
	return f.getByID(ctx, id)
}

func (f *fakeReportStore) ListAll(ctx context.Context) ([]report.Report, error) {
	return f.listAll(ctx)
}

func (f *fakeReportStore) ListByStatus(ctx context.Context, status report.Status) ([]report.Report, error) {
	return f.listByStatus(ctx, status)
}

func (f *fakeReportStore) ListByCustomer(ctx context.Context, customerID string) ([]report.Report, error) {
	return f.listByCustomer(ctx, customerID)
}

func (f *fakeReportStore) ListByTrainer(ctx context.Context, trainerID string) ([]report.Report, error) {
	return f.listByTrainer(ctx, trainerID)
}

func (f *fakeReportStore) UpdateStatus(ctx context.Context, id string, status report.Status, resolvedBy *string, resolvedAt *time.Time) (report.Report, error) {
	return f.updateStatus(ctx, id, status, resolvedBy, resolvedAt)
}

func (f *fakeReportStore) Delete(ctx context.Context, id string) error {
	return f.delete(ctx, id)
}

func TestCreateReportDenormalizesNames(t *testing.T) {
	gin.SetMode(gin.TestMode)

	trainerID := uuid.NewString()

	users := &fakeUserGetter{
		getByID: func(ctx context.Context, id string) (user.User, error) {
			if id == trainerID {
				return user.User{ID: id, FullName: "Coach One", Email: "coach@x.com", Role: user.RoleTrainer}, nil
			}
			return user.User{ID: id, FullName: "Alice", Email: "a@x.com", Role: user.RoleCustomer}, nil
		},
	}

	var created report.Report

	store := &fakeReportStore{
		create: func(ctx context.Context, rep report.Report) (report.Report, error) {
			created = rep
			return rep, nil
		},
	}

	h := handlers.NewReportsHandler(store, users)

	r := gin.New()
	r.Use(identityAs("c-1", string(user.RoleCustomer)))
	r.POST("/api/reports", h.CreateReport)

	body, _ := json.Marshal(gin.H{"trainerId": trainerID, "message": "Did not show up to the session"})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	if created.CustomerName != "Alice" || created.TrainerName != "Coach One" {
		t.Fatalf("names not denormalized: %+v", created)
	}
	if created.Status != report.StatusPending {
		t.Fatalf("new report must be PENDING, got %s", created.Status)
	}
}

func TestCreateReportRejectsNonTrainerTarget(t *testing.T) {
	gin.SetMode(gin.TestMode)

	users := &fakeUserGetter{
		getByID: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, Role: user.RoleCustomer}, nil
		},
	}

	h := handlers.NewReportsHandler(&fakeReportStore{}, users)

	r := gin.New()
	r.Use(identityAs("c-1", string(user.RoleCustomer)))
	r.POST("/api/reports", h.CreateReport)

	body, _ := json.Marshal(gin.H{"trainerId": uuid.NewString(), "message": "this is long enough"})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestUpdateReportStatusStampsResolver(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var stampedBy *string
	var stampedStatus report.Status

	store := &fakeReportStore{
		getByID: func(ctx context.Context, id string) (report.Report, error) {
			return report.Report{ID: id, Status: report.StatusPending}, nil
		},
		updateStatus: func(ctx context.Context, id string, status report.Status, resolvedBy *string, resolvedAt *time.Time) (report.Report, error) {
			stampedBy = resolvedBy
			stampedStatus = status
			return report.Report{ID: id, Status: status, ResolvedBy: resolvedBy, ResolvedAt: resolvedAt}, nil
		},
	}

	h := handlers.NewReportsHandler(store, &fakeUserGetter{})

	r := gin.New()
	r.Use(identityAs("admin-1", string(user.RoleAdmin)))
	r.PUT("/api/admin/reports/:id/status", h.UpdateReportStatus)

	body, _ := json.Marshal(gin.H{"status": "RESOLVED"})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/reports/r-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if stampedBy == nil || *stampedBy != "admin-1" {
		t.Fatalf("resolver not stamped: %v", stampedBy)
	}
	if stampedStatus != report.StatusResolved {
		t.Fatalf("wrong status: %s", stampedStatus)
	}
}

func TestUpdateReportStatusRejectsClosedReport(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeReportStore{
		getByID: func(ctx context.Context, id string) (report.Report, error) {
			return report.Report{ID: id, Status: report.StatusResolved}, nil
		},
	}

	h := handlers.NewReportsHandler(store, &fakeUserGetter{})

	r := gin.New()
	r.Use(identityAs("admin-1", string(user.RoleAdmin)))
	r.PUT("/api/admin/reports/:id/status", h.UpdateReportStatus)

	body, _ := json.Marshal(gin.H{"status": "DISMISSED"})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/reports/r-1/status", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestListReportsStatusFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &fakeReportStore{
		listByStatus: func(ctx context.Context, status report.Status) ([]report.Report, error) {
			return []report.Report{{ID: "r-1", Status: status}}, nil
		},
	}

	h := handlers.NewReportsHandler(store, &fakeUserGetter{})

	r := gin.New()
	r.Use(identityAs("admin-1", string(user.RoleAdmin)))
	r.GET("/api/admin/reports", h.ListReports)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/reports?status=PENDING", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/reports?status=BOGUS", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}
}
