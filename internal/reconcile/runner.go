// Package reconcile corre periódicamente la pasada que completa los requestId
// que quedaron vacíos en el cache de consentimientos.
package reconcile

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellodid/internal/http/services/access"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
)

// Reconciler es la parte del orquestador que usa el runner.
type Reconciler interface {
	Reconcile(ctx context.Context, limit int) (access.ReconcileResult, error)
}

// Runner ejecuta Reconcile cada Interval. Interval <= 0 lo deshabilita.
type Runner struct {
	Reconciler Reconciler
	Interval   time.Duration
	BatchSize  int
}

// Run bloquea hasta que ctx se cancele. Hace una pasada inmediata al arrancar.
func (r *Runner) Run(ctx context.Context) error {
	log := logger.From(ctx).With(logger.Component("reconcile"))
	if r.Interval <= 0 || r.Reconciler == nil {
		log.Info("reconciler disabled")
		<-ctx.Done()
		return nil
	}

	log.Info("reconciler started", logger.String("interval", r.Interval.String()), logger.Int("batch", r.BatchSize))
	r.once(ctx)

	t := time.NewTicker(r.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("reconciler stopped")
			return nil
		case <-t.C:
			r.once(ctx)
		}
	}
}

func (r *Runner) once(ctx context.Context) {
	if _, err := r.Reconciler.Reconcile(ctx, r.BatchSize); err != nil && ctx.Err() == nil {
		logger.From(ctx).Warn("reconcile pass failed", logger.Component("reconcile"), logger.Err(err))
	}
}
