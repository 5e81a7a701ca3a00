// Package audit registra eventos de negocio (REGISTER, ISSUE, ACCESS_*, ...)
// en el log estructurado y en el AuditRepository del store.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
)

const (
	EventRegister      = "REGISTER"
	EventIssue         = "ISSUE"
	EventRevoke        = "REVOKE"
	EventVerify        = "VERIFY"
	EventAccessRequest = "ACCESS_REQUEST"
	EventAccessApprove = "ACCESS_APPROVE"
	EventCacheDrift    = "CACHE_DRIFT"
)

// Recorder es best-effort: un fallo al persistir se loguea y no se propaga.
type Recorder struct {
	repo repository.AuditRepository
	now  func() time.Time
}

// New crea un Recorder. repo puede ser nil (solo log).
func New(repo repository.AuditRepository) *Recorder {
	return &Recorder{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Record escribe el evento.
func (r *Recorder) Record(ctx context.Context, ev repository.AuditEvent) {
	if r == nil {
		return
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = r.now()
	}

	log := logger.From(ctx).With(logger.Component("audit"))
	fields := []zap.Field{
		logger.String("event", ev.Type),
		logger.Address(ev.Actor),
	}
	if ev.Subject != "" {
		fields = append(fields, logger.Subject(ev.Subject))
	}
	if ev.RequestID != "" {
		fields = append(fields, logger.ConsentRequestID(ev.RequestID))
	}
	if ev.TokenID != "" {
		fields = append(fields, logger.TokenID(ev.TokenID))
	}
	if ev.TxHash != "" {
		fields = append(fields, logger.TxHash(ev.TxHash))
	}
	if len(ev.Details) > 0 {
		fields = append(fields, logger.Any("details", ev.Details))
	}
	log.Info("audit", fields...)

	if r.repo == nil {
		return
	}
	// el request puede haberse cancelado; el evento igual se persiste
	if err := r.repo.Append(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("audit append failed", logger.Err(err))
	}
}
