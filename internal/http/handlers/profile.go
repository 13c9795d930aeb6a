package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/wellnest/internal/domain/profile"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/middlewares"
)

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (profile.FitnessProfile, error)
	Save(ctx context.Context, p profile.FitnessProfile) (profile.FitnessProfile, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type ProfileHandler struct {
	profiles ProfileStore
	users    UserGetter
}

func NewProfileHandler(profiles ProfileStore, users UserGetter) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, users: users}
}

type profileResponse struct {
	User    user.User              `json:"user"`
	Fitness profile.FitnessProfile `json:"fitness"`
	BMI     float64                `json:"bmi,omitempty"`
}

// GetProfile returns the caller's account joined with their fitness
// profile. A missing fitness profile is not an error, it just comes
// back empty.
func (h *ProfileHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	rctx := ctx.Request.Context()

	u, err := h.users.GetByID(rctx, userID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Account not found")
			return
		}
		RespondInternal(ctx, "Could not load profile")
		return
	}

	p, err := h.profiles.GetByUserID(rctx, userID)

	if err != nil && !errors.Is(err, profile.ErrNotFound) {
		RespondInternal(ctx, "Could not load profile")
		return
	}

	ctx.JSON(http.StatusOK, profileResponse{User: u, Fitness: p, BMI: p.BMI()})
}

// UpdateProfile upserts the caller's fitness profile. Only fields present
// in the request change; absent fields keep their stored values.
func (h *ProfileHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req profile.UpdateRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	p, err := h.profiles.GetByUserID(rctx, userID)

	if err != nil {
		if !errors.Is(err, profile.ErrNotFound) {
			RespondInternal(ctx, "Could not update profile")
			return
		}
		p = profile.New(userID)
	}

	if req.Age != nil {
		p.Age = req.Age
	}
	if req.WeightKg != nil {
		p.WeightKg = req.WeightKg
	}
	if req.HeightCm != nil {
		p.HeightCm = req.HeightCm
	}
	if req.Gender != nil {
		p.Gender = req.Gender
	}
	if req.FitnessGoal != nil {
		p.FitnessGoal = req.FitnessGoal
	}
	if req.ActivityLevel != nil {
		p.ActivityLevel = req.ActivityLevel
	}
	if req.MedicalNotes != nil {
		p.MedicalNotes = req.MedicalNotes
	}

	p, err = h.profiles.Save(rctx, p)

	if err != nil {
		RespondInternal(ctx, "Could not update profile")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"profile":   p,
		"bmi":       p.BMI(),
		"updatedAt": time.Now().UTC(),
	})
}
