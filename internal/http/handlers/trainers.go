package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/wellnest/internal/cache"
	"github.com/wellnest/wellnest/internal/domain/assignment"
	"github.com/wellnest/wellnest/internal/domain/profile"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/middlewares"
)

const trainerListCacheKey = "trainers:list"

type TrainerDirectory interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	ListByRole(ctx context.Context, role user.Role) ([]user.User, error)
}

type AssignmentStore interface {
	Upsert(ctx context.Context, a assignment.Assignment) (bool, error)
	GetByTraineeAndDate(ctx context.Context, traineeID string, date time.Time) (assignment.Assignment, error)
	ListActiveByTrainer(ctx context.Context, trainerID string) ([]assignment.Assignment, error)
	CountActiveByTrainer(ctx context.Context, trainerID string) (int, error)
}

type TrainersHandler struct {
	users       TrainerDirectory
	assignments AssignmentStore
	profiles    ProfileStore
	cache       *cache.Cache
}

func NewTrainersHandler(users TrainerDirectory, assignments AssignmentStore, profiles ProfileStore, c *cache.Cache) *TrainersHandler {
	return &TrainersHandler{users: users, assignments: assignments, profiles: profiles, cache: c}
}

type trainerCard struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	ActiveTrainees int    `json:"activeTrainees"`
}

// ListTrainers returns the verified trainers with their current load.
// The list is TTL-cached, one process-wide copy.
func (h *TrainersHandler) ListTrainers(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(trainerListCacheKey); ok {
			if cards, ok := v.([]trainerCard); ok {
				ctx.JSON(http.StatusOK, gin.H{"items": cards, "count": len(cards)})
				return
			}
		}
	}

	rctx := ctx.Request.Context()

	trainers, err := h.users.ListByRole(rctx, user.RoleTrainer)

	if err != nil {
		RespondInternal(ctx, "Could not list trainers")
		return
	}

	cards := make([]trainerCard, 0, len(trainers))

	for _, t := range trainers {
		if !t.EmailVerified {
			continue
		}

		n, err := h.assignments.CountActiveByTrainer(rctx, t.ID)

		if err != nil {
			RespondInternal(ctx, "Could not list trainers")
			return
		}

		cards = append(cards, trainerCard{
			ID:             t.ID,
			Username:       t.Username,
			FullName:       t.FullName,
			ActiveTrainees: n,
		})
	}

	if h.cache != nil {
		h.cache.Set(trainerListCacheKey, cards)
	}

	ctx.JSON(http.StatusOK, gin.H{"items": cards, "count": len(cards)})
}

// SelectTrainer books the caller with a trainer for today. One trainer per
// trainee per day; selecting again replaces today's booking.
func (h *TrainersHandler) SelectTrainer(ctx *gin.Context) {
	traineeID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	var req assignment.SelectTrainerRequest

	if !BindJSON(ctx, &req) {
		return
	}

	rctx := ctx.Request.Context()

	trainer, err := h.users.GetByID(rctx, req.TrainerID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "Trainer not found")
			return
		}
		RespondInternal(ctx, "Could not select trainer")
		return
	}

	if trainer.Role != user.RoleTrainer || !trainer.EmailVerified {
		RespondBadRequest(ctx, "Selected user is not an available trainer", nil)
		return
	}

	a := assignment.New(traineeID, trainer.ID, time.Now())

	replaced, err := h.assignments.Upsert(rctx, a)

	if err != nil {
		RespondInternal(ctx, "Could not select trainer")
		return
	}

	if h.cache != nil {
		h.cache.Delete(trainerListCacheKey)
	}

	status := http.StatusCreated
	message := "Trainer selected for today."

	if replaced {
		status = http.StatusOK
		message = "Today's trainer has been replaced."
	}

	ctx.JSON(status, gin.H{
		"message":   message,
		"trainerId": trainer.ID,
		"date":      assignment.Day(time.Now()),
	})
}

// MyTrainer returns today's booking for the calling trainee.
func (h *TrainersHandler) MyTrainer(ctx *gin.Context) {
	traineeID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	rctx := ctx.Request.Context()

	a, err := h.assignments.GetByTraineeAndDate(rctx, traineeID, time.Now())

	if err != nil {
		if errors.Is(err, assignment.ErrNotFound) {
			RespondNotFound(ctx, "No trainer selected for today")
			return
		}
		RespondInternal(ctx, "Could not load trainer")
		return
	}

	trainer, err := h.users.GetByID(rctx, a.TrainerID)

	if err != nil {
		RespondInternal(ctx, "Could not load trainer")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"trainer": trainerCard{
			ID:       trainer.ID,
			Username: trainer.Username,
			FullName: trainer.FullName,
		},
		"date": a.Date,
	})
}

type traineeCard struct {
	ID       string                 `json:"id"`
	Username string                 `json:"username"`
	FullName string                 `json:"fullName"`
	Since    time.Time              `json:"since"`
	Fitness  profile.FitnessProfile `json:"fitness"`
	BMI      float64                `json:"bmi,omitempty"`
}

// MyTrainees returns the calling trainer's active trainees joined with
// their fitness profiles.
func (h *TrainersHandler) MyTrainees(ctx *gin.Context) {
	trainerID, ok := middlewares.UserIDFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Missing identity context")
		return
	}

	rctx := ctx.Request.Context()

	assignments, err := h.assignments.ListActiveByTrainer(rctx, trainerID)

	if err != nil {
		RespondInternal(ctx, "Could not list trainees")
		return
	}

	cards := make([]traineeCard, 0, len(assignments))

	for _, a := range assignments {
		trainee, err := h.users.GetByID(rctx, a.TraineeID)

		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				continue // account deleted since assignment
			}
			RespondInternal(ctx, "Could not list trainees")
			return
		}

		p, err := h.profiles.GetByUserID(rctx, a.TraineeID)

		if err != nil && !errors.Is(err, profile.ErrNotFound) {
			RespondInternal(ctx, "Could not list trainees")
			return
		}

		cards = append(cards, traineeCard{
			ID:       trainee.ID,
			Username: trainee.Username,
			FullName: trainee.FullName,
			Since:    a.CreatedAt,
			Fitness:  p,
			BMI:      p.BMI(),
		})
	}

	ctx.JSON(http.StatusOK, gin.H{"items": cards, "count": len(cards)})
}
