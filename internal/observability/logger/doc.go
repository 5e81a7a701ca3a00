// Package logger envuelve zap: un logger global, propagación por contexto
// y helpers de campos para los identificadores del dominio (tx, requestId, address).
//
// # Uso
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{
//	    Env:   cfg.App.Env,   // "dev" o "prod"
//	    Level: cfg.Log.Level, // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// En controllers/services (con contexto):
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Access.RequestAccess"))
//	log.Info("access requested", logger.Subject(subject), logger.TxHash(tx))
//
// Sin contexto (fallback a singleton):
//
//	logger.L().Info("reconciler started")
package logger
