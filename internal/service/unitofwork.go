package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Shivanand-hulikatti/campus-events/internal/repository"
)

const tracerName = "github.com/Shivanand-hulikatti/campus-events/internal/service"

// Options bounds every unit of work run by the services.
type Options struct {
	// TxTimeout limits a single attempt. The attempt is detached from the
	// caller's cancellation so it always ends in a commit or a rollback.
	TxTimeout time.Duration
	// MaxAttempts is the total number of tries for transient failures.
	MaxAttempts uint
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{TxTimeout: 5 * time.Second, MaxAttempts: 3}
}

type unitOfWork struct {
	store  repository.Store
	opts   Options
	tracer trace.Tracer
}

func newUnitOfWork(store repository.Store, opts Options) *unitOfWork {
	def := DefaultOptions()
	if opts.TxTimeout <= 0 {
		opts.TxTimeout = def.TxTimeout
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	return &unitOfWork{store: store, opts: opts, tracer: otel.Tracer(tracerName)}
}

// run executes fn in a transaction, retrying the whole transaction while it
// fails with repository.ErrTransient. Any other error is returned as is.
func (u *unitOfWork) run(ctx context.Context, name string, fn repository.TxFunc) error {
	ctx, span := u.tracer.Start(ctx, name)
	defer span.End()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 20 * time.Millisecond
	policy.MaxInterval = 500 * time.Millisecond

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := u.attempt(ctx, fn)
		if err != nil && !errors.Is(err, repository.ErrTransient) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(u.opts.MaxAttempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("unit of work retry", "unit", name, "attempt", attempts, "next", next, "error", err)
		}),
	)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}

	span.SetAttributes(attribute.Int("uow.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (u *unitOfWork) attempt(ctx context.Context, fn repository.TxFunc) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), u.opts.TxTimeout)
	defer cancel()
	return u.store.WithinTx(ctx, fn)
}
