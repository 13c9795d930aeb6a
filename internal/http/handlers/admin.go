package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/wellnest/internal/cache"
	"github.com/wellnest/wellnest/internal/domain/report"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/middlewares"
)

const adminStatsCacheKey = "admin:stats"

type AdminUserStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
	CountByRole(ctx context.Context, role user.Role) (int, error)
	Delete(ctx context.Context, id string) error
}

type ReportCounter interface {
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status report.Status) (int, error)
}

type AssignmentCounter interface {
	CountActive(ctx context.Context) (int, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}

type ProfileDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

type AdminHandler struct {
	users       AdminUserStore
	reports     ReportCounter
	assignments AssignmentCounter
	profiles    ProfileDeleter
	cache       *cache.Cache
}

func NewAdminHandler(users AdminUserStore, reports ReportCounter, assignments AssignmentCounter, profiles ProfileDeleter, c *cache.Cache) *AdminHandler {
	return &AdminHandler{
		users:       users,
		reports:     reports,
		assignments: assignments,
		profiles:    profiles,
		cache:       c,
	}
}

type dashboardStats struct {
	Customers         int `json:"customers"`
	Trainers          int `json:"trainers"`
	Reports           int `json:"reports"`
	PendingReports    int `json:"pendingReports"`
	ActiveAssignments int `json:"activeAssignments"`
}

// DashboardStats aggregates the landing-page counters. TTL-cached since
// every admin page load asks for them.
func (h *AdminHandler) DashboardStats(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(adminStatsCacheKey); ok {
			if stats, ok := v.(dashboardStats); ok {
				ctx.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	rctx := ctx.Request.Context()

	var stats dashboardStats
	var err error

	if stats.Customers, err = h.users.CountByRole(rctx, user.RoleCustomer); err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}
	if stats.Trainers, err = h.users.CountByRole(rctx, user.RoleTrainer); err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}
	if stats.Reports, err = h.reports.Count(rctx); err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}
	if stats.PendingReports, err = h.reports.CountByStatus(rctx, report.StatusPending); err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}
	if stats.ActiveAssignments, err = h.assignments.CountActive(rctx); err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}

	if h.cache != nil {
		h.cache.Set(adminStatsCacheKey, stats)
	}

	ctx.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) ListCustomers(ctx *gin.Context) {
	h.listByRole(ctx, user.RoleCustomer)
}

func (h *AdminHandler) ListTrainers(ctx *gin.Context) {
	h.listByRole(ctx, user.RoleTrainer)
}

func (h *AdminHandler) listByRole(ctx *gin.Context, role user.Role) {
	items, err := h.users.ListByRole(ctx.Request.Context(), role)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// DeleteUser removes an account with its fitness profile and
// assignments. Reports stay, they carry denormalized names. Admins
// cannot delete themselves or each other.
func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	adminID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	id := ctx.Param("id")

	if id == adminID {
		RespondBadRequest(ctx, "You cannot delete your own account", nil)
		return
	}

	rctx := ctx.Request.Context()

	target, err := h.users.GetByID(rctx, id)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		RespondInternal(ctx, "Could not delete user")
		return
	}

	if target.Role == user.RoleAdmin {
		RespondForbidden(ctx, "forbidden", "Admin accounts cannot be deleted", nil)
		return
	}

	if err := h.assignments.DeleteAllForUser(rctx, id); err != nil {
		RespondInternal(ctx, "Could not delete user")
		return
	}
	if err := h.profiles.DeleteByUserID(rctx, id); err != nil {
		RespondInternal(ctx, "Could not delete user")
		return
	}
	if err := h.users.Delete(rctx, id); err != nil {
		RespondInternal(ctx, "Could not delete user")
		return
	}

	if h.cache != nil {
		h.cache.Delete(adminStatsCacheKey)
		h.cache.Delete(trainerListCacheKey)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted."})
}
