package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"orgdir/internal/metrics"
)

// WakeupPolicy controls how connection attempts handle a backing store that
// suspends after idling. The first attempt gets a long timeout so the compute
// can reactivate; later attempts back off exponentially.
type WakeupPolicy struct {
	MaxRetries     int
	InitialTimeout time.Duration
	RetryTimeout   time.Duration
	Backoff        []time.Duration
}

// DefaultWakeupPolicy mirrors the scale-to-zero behavior of hosted Postgres:
// waking an idle compute usually completes within the first long attempt.
func DefaultWakeupPolicy() WakeupPolicy {
	return WakeupPolicy{
		MaxRetries:     10,
		InitialTimeout: 60 * time.Second,
		RetryTimeout:   20 * time.Second,
		Backoff:        []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second},
	}
}

func (p WakeupPolicy) backoffFor(retry int) time.Duration {
	if len(p.Backoff) == 0 {
		return 2 * time.Second
	}
	if retry < len(p.Backoff) {
		return p.Backoff[retry]
	}
	return p.Backoff[len(p.Backoff)-1] // capped
}

var pingDatabase = func(ctx context.Context, dsn string, timeout time.Duration) error {
	db, err := sqlOpen("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.PingContext(pingCtx)
}

// WaitForDatabase blocks until the database answers a ping or the policy's
// retry budget runs out. DNS and authentication failures are fatal and
// returned immediately; everything else is retried and finally surfaced as a
// ConnectivityError with kind ConnActivationTimeout.
func WaitForDatabase(ctx context.Context, dsn string, p WakeupPolicy, log zerolog.Logger) error {
	if dsn == "" {
		return &ConnectivityError{Kind: ConnOther, Attempts: 0, Err: errNoDSN}
	}

	log.Info().
		Dur("timeout", p.InitialTimeout).
		Msgf("connecting to database, attempt 1/%d (allowing for compute activation)", p.MaxRetries)

	err := pingDatabase(ctx, dsn, p.InitialTimeout)
	if err == nil {
		return nil
	}
	if connErr := fatalOrNil(err, 1); connErr != nil {
		return connErr
	}
	log.Warn().Err(err).Msg("first attempt failed, database may be activating from idle state")

	var lastErr = err
	for i := 1; i < p.MaxRetries; i++ {
		wait := p.backoffFor(i - 1)
		log.Info().Dur("backoff", wait).Msgf("waiting before retry %d/%d", i+1, p.MaxRetries)

		select {
		case <-ctx.Done():
			return &ConnectivityError{Kind: ConnOther, Attempts: i, Err: ctx.Err()}
		case <-time.After(wait):
		}

		metrics.ConnectRetries.Inc()

		err := pingDatabase(ctx, dsn, p.RetryTimeout)
		if err == nil {
			log.Info().Int("attempts", i+1).Msg("database connection established")
			return nil
		}
		if connErr := fatalOrNil(err, i+1); connErr != nil {
			return connErr
		}
		log.Warn().Err(err).Msgf("attempt %d/%d failed", i+1, p.MaxRetries)
		lastErr = err
	}

	return &ConnectivityError{Kind: ConnActivationTimeout, Attempts: p.MaxRetries, Err: lastErr}
}

// fatalOrNil returns a non-retryable ConnectivityError for DNS and auth
// failures, nil otherwise.
func fatalOrNil(err error, attempt int) *ConnectivityError {
	switch kind := ClassifyConnError(err); kind {
	case ConnDNSFailure, ConnAuthFailure:
		return &ConnectivityError{Kind: kind, Attempts: attempt, Err: err}
	}
	return nil
}

var errNoDSN = errors.New("database connection string not provided")
