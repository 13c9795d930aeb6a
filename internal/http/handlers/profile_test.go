package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/wellnest/wellnest/internal/domain/profile"
	"github.com/wellnest/wellnest/internal/domain/user"
	"github.com/wellnest/wellnest/internal/http/handlers"
)

type fakeProfileStore struct {
	getByUserID func(ctx context.Context, userID string) (profile.FitnessProfile, error)
	save        func(ctx context.Context, p profile.FitnessProfile) (profile.FitnessProfile, error)
}

func (f *fakeProfileStore) GetByUserID(ctx context.Context, userID string) (profile.FitnessProfile, error) {
	return f.getByUserID(ctx, userID)
}

func (f *fakeProfileStore) Save(ctx context.Context, p profile.FitnessProfile) (profile.FitnessProfile, error) {
	return f.save(ctx, p)
}

type fakeUserGetter struct {
	getByID func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUserGetter) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.getByID(ctx, id)
}

// identityAs fakes an authenticated session the way the auth middleware
// would establish it.
func identityAs(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("auth.userID", userID)
		c.Set("auth.role", role)
		c.Next()
	}
}

func profileRouter(store *fakeProfileStore, users *fakeUserGetter, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handlers.NewProfileHandler(store, users)

	r := gin.New()
	r.Use(identityAs(userID, string(user.RoleCustomer)))
	r.GET("/api/profile", h.GetProfile)
	r.PUT("/api/profile", h.UpdateProfile)

	return r
}

func TestGetProfileReturnsEmptyFitnessWhenUnset(t *testing.T) {
	store := &fakeProfileStore{
		getByUserID: func(ctx context.Context, userID string) (profile.FitnessProfile, error) {
			return profile.FitnessProfile{}, profile.ErrNotFound
		},
	}
	users := &fakeUserGetter{
		getByID: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id, Username: "alice", Role: user.RoleCustomer, EmailVerified: true}, nil
		},
	}

	r := profileRouter(store, users, "u-1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		User    user.User              `json:"user"`
		Fitness profile.FitnessProfile `json:"fitness"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if resp.User.Username != "alice" {
		t.Fatalf("wrong user: %+v", resp.User)
	}
	if resp.Fitness.Age != nil {
		t.Fatalf("expected empty fitness profile, got %+v", resp.Fitness)
	}
}

func TestUpdateProfileCreatesThenMergesFields(t *testing.T) {
	var saved *profile.FitnessProfile

	store := &fakeProfileStore{
		getByUserID: func(ctx context.Context, userID string) (profile.FitnessProfile, error) {
			if saved == nil {
				return profile.FitnessProfile{}, profile.ErrNotFound
			}
			return *saved, nil
		},
		save: func(ctx context.Context, p profile.FitnessProfile) (profile.FitnessProfile, error) {
			saved = &p
			return p, nil
		},
	}
	users := &fakeUserGetter{
		getByID: func(ctx context.Context, id string) (user.User, error) {
			return user.User{ID: id}, nil
		},
	}

	r := profileRouter(store, users, "u-1")

	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	if w := put(`{"age":30,"weight":80,"height":180}`); w.Code != http.StatusOK {
		t.Fatalf("first update failed: %d %s", w.Code, w.Body.String())
	}

	if saved == nil || saved.UserID != "u-1" {
		t.Fatalf("profile not created for caller: %+v", saved)
	}

	// partial update keeps the untouched fields
	if w := put(`{"fitnessGoal":"MUSCLE_GAIN"}`); w.Code != http.StatusOK {
		t.Fatalf("second update failed: %d %s", w.Code, w.Body.String())
	}

	if saved.Age == nil || *saved.Age != 30 {
		t.Fatalf("age lost on partial update: %+v", saved)
	}
	if saved.FitnessGoal == nil || *saved.FitnessGoal != "MUSCLE_GAIN" {
		t.Fatalf("goal not applied: %+v", saved)
	}
}

func TestUpdateProfileRejectsUnknownGoal(t *testing.T) {
	r := profileRouter(&fakeProfileStore{}, &fakeUserGetter{}, "u-1")

	req := httptest.NewRequest(http.MethodPut, "/api/profile", bytes.NewBufferString(`{"fitnessGoal":"GET_SWOLE"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
