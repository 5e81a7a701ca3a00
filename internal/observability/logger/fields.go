package logger

import (
	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }

// ─── Consentimiento / cadena ───

// ConsentRequestID es el identificador bytes32 asignado por el contrato.
// Se llama distinto a RequestID para no pisar el request_id HTTP.
func ConsentRequestID(v string) zap.Field { return zap.String("consent_request_id", v) }

func Requester(v string) zap.Field   { return zap.String("requester", v) }
func Subject(v string) zap.Field     { return zap.String("subject", v) }
func Address(v string) zap.Field     { return zap.String("address", v) }
func PurposeHash(v string) zap.Field { return zap.String("purpose_hash", v) }
func TxHash(v string) zap.Field      { return zap.String("tx_hash", v) }
func TokenID(v string) zap.Field     { return zap.String("token_id", v) }
func Contract(v string) zap.Field    { return zap.String("contract", v) }
func BlockNumber(v uint64) zap.Field { return zap.Uint64("block_number", v) }

// Drift marca entradas donde la cadena quedó adelantada respecto del cache off-chain.
func Drift() zap.Field { return zap.Bool("drift", true) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }
func Count(v int) zap.Field        { return zap.Int("count", v) }

func String(key, v string) zap.Field    { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }
