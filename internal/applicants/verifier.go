// Package applicants answers whether a member account may submit a loan
// application.
package applicants

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"loan-intake/internal/common/database"
	"loan-intake/internal/common/logger"
	"loan-intake/internal/models"
)

var ErrApplicantCheckFailed = errors.New("APPLICANT_CHECK_FAILED")

const (
	cacheKeyPrefix  = "applicant:"
	DefaultCacheTTL = 60 * time.Second
)

// Cache is the subset of the Redis wrapper used for applicant records.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type Verifier struct {
	db       database.DBTX
	cache    Cache
	cacheTTL time.Duration
	logger   logger.Logger
}

type Option func(*Verifier)

// WithCache enables the active-applicant cache. Only active records are
// cached; a negative answer from postgres evicts the key.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(v *Verifier) {
		v.cache = cache
		if ttl > 0 {
			v.cacheTTL = ttl
		}
	}
}

func NewVerifier(db database.DBTX, log logger.Logger, opts ...Option) *Verifier {
	v := &Verifier{
		db:       db,
		cacheTTL: DefaultCacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "applicant-verifier"}),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// IsActive reports whether an active member account with id exists. A
// cached active record answers without a query; a negative answer always
// comes from postgres.
func (v *Verifier) IsActive(ctx context.Context, id string) (bool, error) {
	if cached := v.fromCache(ctx, id); cached != nil && cached.IsActive {
		return true, nil
	}

	a := models.Applicant{UserID: id, IsActive: true}
	var memberNumber sql.NullString

	err := v.db.QueryRowContext(ctx,
		`SELECT user_id, user_name, member_number FROM member_users WHERE user_id = $1 AND is_active = true`,
		id,
	).Scan(&a.UserID, &a.UserName, &memberNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			v.evict(ctx, id)
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrApplicantCheckFailed, err)
	}

	if memberNumber.Valid {
		a.MemberNumber = &memberNumber.String
	}
	v.toCache(ctx, &a)
	return true, nil
}

// Lookup returns the member record regardless of is_active, or nil when no
// account exists. It always reads postgres so a deleted account is never
// reported as inactive; the cache is refreshed or evicted from the result.
func (v *Verifier) Lookup(ctx context.Context, id string) (*models.Applicant, error) {
	var a models.Applicant
	var email, memberNumber sql.NullString

	err := v.db.QueryRowContext(ctx,
		`SELECT user_id, user_name, user_email, member_number, is_active FROM member_users WHERE user_id = $1`,
		id,
	).Scan(&a.UserID, &a.UserName, &email, &memberNumber, &a.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			v.evict(ctx, id)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrApplicantCheckFailed, err)
	}

	if email.Valid {
		a.UserEmail = &email.String
	}
	if memberNumber.Valid {
		a.MemberNumber = &memberNumber.String
	}

	if a.IsActive {
		v.toCache(ctx, &a)
	} else {
		v.evict(ctx, id)
	}
	return &a, nil
}

func (v *Verifier) fromCache(ctx context.Context, id string) *models.Applicant {
	if v.cache == nil {
		return nil
	}

	val, err := v.cache.Get(ctx, cacheKeyPrefix+id)
	if err != nil {
		return nil
	}

	var a models.Applicant
	if err := json.Unmarshal([]byte(val), &a); err != nil {
		v.logger.Warn("discarding unreadable cached applicant", map[string]interface{}{
			"applicantId": id,
			"error":       err.Error(),
		})
		return nil
	}
	return &a
}

func (v *Verifier) toCache(ctx context.Context, a *models.Applicant) {
	if v.cache == nil {
		return
	}

	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := v.cache.Set(ctx, cacheKeyPrefix+a.UserID, string(data), v.cacheTTL); err != nil {
		v.logger.Warn("failed to cache applicant", map[string]interface{}{
			"applicantId": a.UserID,
			"error":       err.Error(),
		})
	}
}

func (v *Verifier) evict(ctx context.Context, id string) {
	if v.cache == nil {
		return
	}
	if err := v.cache.Del(ctx, cacheKeyPrefix+id); err != nil {
		v.logger.Warn("failed to evict cached applicant", map[string]interface{}{
			"applicantId": id,
			"error":       err.Error(),
		})
	}
}
