package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var (
	once     sync.Once
	instance *zap.Logger
)

// Init construye el logger global. Llamadas posteriores no tienen efecto.
func Init(cfg Config) {
	once.Do(func() {
		instance = build(cfg)
	})
}

// L retorna el logger global; sin Init previo usa dev/info.
func L() *zap.Logger {
	Init(Config{Env: "dev", Level: "info", ServiceName: "hellodid"})
	return instance
}

func Sync() error {
	return L().Sync()
}

type ctxKey struct{}

// ToContext guarda l en ctx. El middleware de logging lo usa con los campos del request.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From devuelve el logger del request, o el global si ctx no trae ninguno.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L()
}
