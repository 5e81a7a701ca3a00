package access

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dropDatabas3/hellodid/internal/domain/repository"
	"github.com/dropDatabas3/hellodid/internal/metrics"
	"github.com/dropDatabas3/hellodid/internal/observability/logger"
)

// DefaultReconcileBatch es el tamaño de lote si el caller pasa limit <= 0.
const DefaultReconcileBatch = 100

// ReconcileResult resume una pasada del reconciliador.
type ReconcileResult struct {
	Scanned  int
	Resolved int
	Pending  int // tx sin receipt todavía o sin evento
	Failed   int
}

// Reconcile completa el requestId de los registros que quedaron sin él,
// releyendo el receipt de su transacción. Un fallo en un registro no corta la pasada.
//
// Cada pasada sigue desde el último registro visto: los que nunca se resuelven
// (tx revertida, receipt sin evento) no tapan a los más nuevos. Cuando una
// pasada no llena el lote, la siguiente vuelve al principio.
func (s *service) Reconcile(ctx context.Context, limit int) (ReconcileResult, error) {
	const op = "Reconcile"
	log := s.log(ctx, op)

	var out ReconcileResult
	if s.deps.Registry == nil {
		return out, chainFailed(op, errChainDisabled)
	}
	if limit <= 0 {
		limit = DefaultReconcileBatch
	}

	s.mu.Lock()
	after := s.reconcileCursor
	s.mu.Unlock()

	pending, err := s.deps.Consents.ListUnresolved(ctx, after, limit)
	if err != nil {
		return out, storageFailed(op, "", err)
	}

	next := ""
	if len(pending) >= limit {
		next = pending[len(pending)-1].ID
	}
	s.mu.Lock()
	s.reconcileCursor = next
	s.mu.Unlock()

	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out.Scanned++
		clog := log.With(logger.TxHash(c.TxHash), logger.String("consent_id", c.ID))

		if c.TxHash == "" {
			out.Failed++
			clog.Warn("unresolved consent without tx hash")
			continue
		}

		start := time.Now()
		requestID, found, err := s.deps.Registry.LookupRequestID(ctx, common.HexToHash(c.TxHash))
		metrics.ObserveChainCall("lookup_request_id", start, err)
		if err != nil {
			out.Failed++
			clog.Warn("lookup request id failed", logger.Err(err))
			continue
		}
		if !found {
			out.Pending++
			continue
		}

		if _, err := s.deps.Consents.RecordIdentifier(ctx, c.TxHash, requestID); err != nil {
			out.Failed++
			if errors.Is(err, repository.ErrDuplicateRequest) {
				clog.Error("request id already owned by another consent",
					logger.ConsentRequestID(requestID), logger.Drift(), logger.Err(err))
				metrics.CacheDrift.WithLabelValues("reconcile").Inc()
				continue
			}
			clog.Warn("record identifier failed", logger.ConsentRequestID(requestID), logger.Err(err))
			continue
		}
		out.Resolved++
		metrics.ReconcileResolved.Inc()
		clog.Info("consent resolved", logger.ConsentRequestID(requestID))
	}

	if out.Scanned > 0 {
		log.Info("reconcile pass finished",
			logger.Count(out.Scanned),
			logger.Int("resolved", out.Resolved),
			logger.Int("pending", out.Pending),
			logger.Int("failed", out.Failed),
		)
	}
	return out, nil
}
