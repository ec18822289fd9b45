package logger

import (
	"time"

	"go.uber.org/zap"
)

// Typed field helpers so call sites agree on key names.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }
func DurationMs(v int64) zap.Field       { return zap.Int64("duration_ms", v) }

func PrincipalID(v string) zap.Field { return zap.String("principal_id", v) }
func Role(v string) zap.Field        { return zap.String("role", v) }

// Email logs an address. Use sparingly in prod.
func Email(v string) zap.Field { return zap.String("email", v) }

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(k, v string) zap.Field  { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }
