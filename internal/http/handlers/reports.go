package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/wellnest/internal/domain/report"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/middlewares"
)

type ReportStore interface {
	Create(ctx context.Context, rep report.Report) (report.Report, error)
	GetByID(ctx context.Context, id string) (report.Report, error)
	ListAll(ctx context.Context) ([]report.Report, error)
	ListByStatus(ctx context.Context, status report.Status) ([]report.Report, error)
	ListByCustomer(ctx context.Context, customerID string) ([]report.Report, error)
	ListByTrainer(ctx context.Context, trainerID string) ([]report.Report, error)
	UpdateStatus(ctx context.Context, id string, status report.Status, resolvedBy *string, resolvedAt *time.Time) (report.Report, error)
	Delete(ctx context.Context, id string) error
}

type ReportsHandler struct {
	reports ReportStore
	users   UserGetter
}

func NewReportsHandler(reports ReportStore, users UserGetter) *ReportsHandler {
	return &ReportsHandler{reports: reports, users: users}
}

// CreateReport files a complaint by the calling customer against a
// trainer. Names and emails are denormalized into the report row.
func (h *ReportsHandler) CreateReport(ctx *gin.Context) {
	customerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req report.CreateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	customer, err := h.users.GetByID(rctx, customerID)

	if err != nil {
		RespondInternal(ctx, "Could not file report")
		return
	}

	trainer, err := h.users.GetByID(rctx, req.TrainerID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Trainer not found")
			return
		}
		RespondInternal(ctx, "Could not file report")
		return
	}

	if trainer.Role != user.RoleTrainer {
		RespondBadRequest(ctx, "Reports can only be filed against trainers", nil)
		return
	}

	rep := report.New(
		customer.ID, customer.FullName, customer.Email,
		trainer.ID, trainer.FullName, trainer.Email,
		req.Message,
	)

	rep, err = h.reports.Create(rctx, rep)

	if err != nil {
		RespondInternal(ctx, "Could not file report")
		return
	}

	ctx.JSON(http.StatusCreated, rep)
}

// MyReports lists reports filed by the calling customer.
func (h *ReportsHandler) MyReports(ctx *gin.Context) {
	customerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	items, err := h.reports.ListByCustomer(ctx.Request.Context(), customerID)

	if err != nil {
		RespondInternal(ctx, "Could not list reports")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// ReportsAgainstMe lists reports naming the calling trainer.
func (h *ReportsHandler) ReportsAgainstMe(ctx *gin.Context) {
	trainerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	items, err := h.reports.ListByTrainer(ctx.Request.Context(), trainerID)

	if err != nil {
		RespondInternal(ctx, "Could not list reports")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// ListReports is the admin view, optionally filtered by ?status=.
func (h *ReportsHandler) ListReports(ctx *gin.Context) {
	rctx := ctx.Request.Context()

	var items []report.Report
	var err error

	if statusParam := ctx.Query("status"); statusParam != "" {
		status := report.Status(statusParam)

		if !status.IsValid() {
			RespondBadRequest(ctx, "Unknown report status", gin.H{"status": statusParam})
			return
		}

		items, err = h.reports.ListByStatus(rctx, status)
	} else {
		items, err = h.reports.ListAll(rctx)
	}

	if err != nil {
		RespondInternal(ctx, "Could not list reports")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// UpdateReportStatus resolves or dismisses a pending report, stamping
// who closed it and when.
func (h *ReportsHandler) UpdateReportStatus(ctx *gin.Context) {
	adminID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req report.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id := ctx.Param("id")
	rctx := ctx.Request.Context()

	existing, err := h.reports.GetByID(rctx, id)

	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			RespondNotFound(ctx, "Report not found")
			return
		}
		RespondInternal(ctx, "Could not update report")
		return
	}

	if existing.Status.IsTerminal() {
		RespondConflict(ctx, "report_closed", "Report has already been closed")
		return
	}

	now := time.Now().UTC()

	rep, err := h.reports.UpdateStatus(rctx, id, report.Status(req.Status), &adminID, &now)

	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			RespondNotFound(ctx, "Report not found")
			return
		}
		RespondInternal(ctx, "Could not update report")
		return
	}

	ctx.JSON(http.StatusOK, rep)
}

func (h *ReportsHandler) DeleteReport(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.reports.Delete(ctx.Request.Context(), id)

	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			RespondNotFound(ctx, "Report not found")
			return
		}
		RespondInternal(ctx, "Could not delete report")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Report deleted."})
}
