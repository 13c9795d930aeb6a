package memory

import (
	"context"
	"sync"
	"time"

	"github.com/wellnest/wellnest/internal/domain/otp"
	otpengine "github.com/wellnest/wellnest/internal/otp"
)

// OtpsRepo is an in-memory otp.Store with the same atomicity
// guarantees as the postgres repo: mark-used and extend are
// compare-and-set on the used flag under one lock.
type OtpsRepo struct {
	mu   sync.Mutex
	recs []otp.Record
}

func NewOtpsRepo() *OtpsRepo {
	return &OtpsRepo{}
}

func (r *OtpsRepo) Insert(_ context.Context, rec otp.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.recs = append(r.recs, rec)
	return nil
}

func (r *OtpsRepo) FindLatestUnused(_ context.Context, email string, purpose otp.Purpose) (otp.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var found *otp.Record

	for i := range r.recs {
		rec := &r.recs[i]

		if rec.Email != email || rec.Purpose != purpose || rec.Used {
			continue
		}

		if found == nil || rec.CreatedAt.After(found.CreatedAt) {
			found = rec
		}
	}

	if found == nil {
		return otp.Record{}, otpengine.ErrNoActiveCode
	}

	return *found, nil
}

func (r *OtpsRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.recs {
		if r.recs[i].ID == id {
			if r.recs[i].Used {
				return otpengine.ErrCodeConsumed
			}
			r.recs[i].Used = true
			return nil
		}
	}

	return otpengine.ErrCodeConsumed
}

func (r *OtpsRepo) ExtendExpiry(_ context.Context, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.recs {
		if r.recs[i].ID == id {
			if r.recs[i].Used {
				return otpengine.ErrCodeConsumed
			}
			r.recs[i].ExpiresAt = until
			return nil
		}
	}

	return otpengine.ErrCodeConsumed
}

func (r *OtpsRepo) DeleteAll(_ context.Context, email string, purpose otp.Purpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.recs[:0]

	for _, rec := range r.recs {
		if rec.Email != email || rec.Purpose != purpose {
			kept = append(kept, rec)
		}
	}

	r.recs = kept
	return nil
}

func (r *OtpsRepo) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.recs[:0]
	removed := 0

	for _, rec := range r.recs {
		if now.After(rec.ExpiresAt) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}

	r.recs = kept
	return removed, nil
}
