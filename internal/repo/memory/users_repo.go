package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wellnest/wellnest/internal/domain/user"
)

// UsersRepo is an in-memory user store enforcing the same username and
// email uniqueness the postgres indexes do.
type UsersRepo struct {
	mu    sync.Mutex
	users map[string]user.User // by id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]user.User)}
}

func (r *UsersRepo) GetByUsernameOrEmail(_ context.Context, identifier string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *UsersRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

// Save inserts or updates by id, rejecting username/email collisions
// with other users.
func (r *UsersRepo) Save(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		if other.Username == u.Username {
			return user.User{}, user.ErrUsernameTaken
		}
		if other.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.users, id)
	return nil
}

func (r *UsersRepo) ListByRole(_ context.Context, role user.Role) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []user.User

	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UsersRepo) CountByRole(_ context.Context, role user.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0

	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
