package usecase

import (
	"context"
	"time"

	accountDomain "github.com/allisson/credentials/internal/account/domain"
	"github.com/allisson/credentials/internal/metrics"
)

const metricsDomain = "account"

// useCaseWithMetrics decorates UseCase with metrics instrumentation.
type useCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewUseCaseWithMetrics wraps a UseCase with metrics recording.
func NewUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &useCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// PublicKey is not instrumented.
func (u *useCaseWithMetrics) PublicKey(ctx context.Context) string {
	return u.next.PublicKey(ctx)
}

// CreateUser records metrics for registrations.
func (u *useCaseWithMetrics) CreateUser(ctx context.Context, input *accountDomain.RegisterInput) error {
	start := time.Now()
	err := u.next.CreateUser(ctx, input)
	metrics.Observe(ctx, u.metrics, metricsDomain, "user_create", start, err)
	return err
}

// Login records metrics for login attempts.
func (u *useCaseWithMetrics) Login(
	ctx context.Context,
	input *accountDomain.LoginInput,
) (*accountDomain.Profile, error) {
	start := time.Now()
	profile, err := u.next.Login(ctx, input)
	metrics.Observe(ctx, u.metrics, metricsDomain, "login", start, err)
	return profile, err
}

// Ping is not instrumented.
func (u *useCaseWithMetrics) Ping(ctx context.Context) error {
	return u.next.Ping(ctx)
}
