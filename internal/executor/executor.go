// Package executor implements the pipeline every public storage operation
// flows through: log intent, ensure authentication, invoke the unit of work,
// classify a fault into a domain error, log the outcome once, and record
// metrics. Centralizing this keeps per-operation code free of repeated
// error-translation plumbing.
package executor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cloudstow/cloudstow/internal/metrics"
	"github.com/cloudstow/cloudstow/pkg/errors"
	"github.com/cloudstow/cloudstow/pkg/retry"
)

// Authenticator is the slice of the auth manager the pipeline needs.
type Authenticator interface {
	EnsureAuthenticated(ctx context.Context) error
}

// Executor runs operations through the cross-cutting pipeline.
type Executor struct {
	auth      Authenticator
	collector *metrics.Collector
	retryer   *retry.Retryer
	log       logrus.FieldLogger
}

// New creates an Executor. auth may be nil for operations that manage their
// own session (none currently do); retryer nil means single-attempt.
func New(auth Authenticator, collector *metrics.Collector, retryer *retry.Retryer, log logrus.FieldLogger) *Executor {
	if retryer == nil {
		retryer = retry.New(retry.DefaultConfig())
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Executor{
		auth:      auth,
		collector: collector,
		retryer:   retryer,
		log:       log,
	}
}

// Run executes one operation. The intent message is logged at debug before
// the work starts; success is silent. On failure the classifier may replace
// the transport fault with a domain error, the failure message is logged once
// together with the fault, and the (possibly replaced) error is returned.
// Faults the classifier does not recognize propagate unmodified.
func (e *Executor) Run(ctx context.Context, operation, message string,
	fn func(ctx context.Context) error, classify errors.Classifier) error {

	logger := e.log.WithField("operation", operation)
	logger.Debug(message)

	start := time.Now()

	if e.auth != nil {
		if err := e.auth.EnsureAuthenticated(ctx); err != nil {
			logger.WithError(err).Error("authentication failed")
			e.collector.RecordOperation(operation, time.Since(start), err)
			return err
		}
	}

	err := e.retryer.DoWithContext(ctx, fn)
	if err == nil {
		e.collector.RecordOperation(operation, time.Since(start), nil)
		return nil
	}

	final := err
	if classify != nil {
		if domainErr := classify(err); domainErr != nil {
			final = domainErr.WithCause(err)
		}
	}

	logger.WithError(final).Errorf("%s failed", message)
	e.collector.RecordOperation(operation, time.Since(start), final)
	return final
}
