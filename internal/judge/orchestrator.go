package judge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spigell/cv-refiner/internal/ai"
	"github.com/spigell/cv-refiner/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoEvaluations means no judge produced a usable evaluation, so no report can be built.
var ErrNoEvaluations = errors.New("all judges failed to produce an evaluation")

const (
	DefaultMaxAttempts = 3
	initialRetryDelay  = time.Second
)

// Ensemble is the outcome of one ensemble run.
type Ensemble struct {
	ID          string
	Evaluations map[string]ModelEvaluation
	Failed      []string
}

// Orchestrator runs every configured judge concurrently and keeps whatever succeeds.
type Orchestrator struct {
	registry    Registry
	evaluators  map[string]Evaluator
	maxAttempts int
	newBackOff  func() backoff.BackOff
	logger      *zap.Logger
}

type Option func(*Orchestrator)

func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger.WithFields(log)
	}
}

func NewOrchestrator(registry Registry, evaluators map[string]Evaluator, opts ...Option) (*Orchestrator, error) {
	if err := registry.Validate(); err != nil {
		return nil, err
	}
	for _, m := range registry {
		if evaluators[m.Key] == nil {
			return nil, fmt.Errorf("no evaluator configured for judge %q", m.Key)
		}
	}

	o := &Orchestrator{
		registry:    registry,
		evaluators:  evaluators,
		maxAttempts: DefaultMaxAttempts,
		newBackOff:  defaultBackOff,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

func defaultBackOff() backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = initialRetryDelay
	expo.RandomizationFactor = 0
	expo.Multiplier = 2
	expo.MaxElapsedTime = 0
	return expo
}

func (o *Orchestrator) Registry() Registry {
	return o.registry
}

// RunEnsemble queries all judges in parallel and waits for every one of them to settle.
// Judges that keep failing are left out. ErrNoEvaluations is returned when none succeeded.
func (o *Orchestrator) RunEnsemble(ctx context.Context, actx AnalysisContext) (*Ensemble, error) {
	ensemble := &Ensemble{
		ID:          uuid.NewString(),
		Evaluations: make(map[string]ModelEvaluation, len(o.registry)),
	}
	log := o.logger.With(zap.String("ensemble_id", ensemble.ID))

	log.Info("starting judge ensemble", zap.Strings("judges", o.registry.Keys()))

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, model := range o.registry {
		g.Go(func() error {
			jlog := logger.WithFields(log, logger.JudgeFields(model.Key, model.Name)...)

			evaluation, err := o.query(ctx, model, actx, jlog)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				jlog.Warn("judge dropped from ensemble", zap.Error(err))
				ensemble.Failed = append(ensemble.Failed, model.Key)
				return nil
			}
			ensemble.Evaluations[model.Key] = *evaluation
			return nil
		})
	}
	_ = g.Wait()

	ensemble.Failed = Order(o.registry, toSet(ensemble.Failed))

	if len(ensemble.Evaluations) == 0 {
		return ensemble, ErrNoEvaluations
	}

	log.Info("judge ensemble finished",
		zap.Int("evaluations", len(ensemble.Evaluations)),
		zap.Strings("failed", ensemble.Failed),
	)
	return ensemble, nil
}

func (o *Orchestrator) query(ctx context.Context, model Model, actx AnalysisContext, log *zap.Logger) (*ModelEvaluation, error) {
	evaluator := o.evaluators[model.Key]

	var result *ModelEvaluation
	attempt := 0
	op := func() error {
		attempt++
		evaluation, err := evaluator.Evaluate(ctx, actx)
		if err != nil {
			if ai.IsPermanent(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = evaluation
		return nil
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("judge attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", o.maxAttempts),
			zap.Bool("rate_limited", ai.IsRateLimited(err)),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(o.newBackOff(), uint64(o.maxAttempts-1)), ctx)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, err
	}

	return result, nil
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
