package keyvalue

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	gorm_logger "gorm.io/gorm/logger"
)

// gormLogger only surfaces real errors; key-value traffic is too chatty
// to log per query.
type gormLogger struct{}

func (gormLogger) LogMode(gorm_logger.LogLevel) gorm_logger.Interface {
	return gormLogger{}
}

func (gormLogger) Info(_ context.Context, s string, args ...interface{}) {
	log.Info().Msgf(s, args...)
}

func (gormLogger) Warn(_ context.Context, s string, args ...interface{}) {
	log.Warn().Msgf(s, args...)
}

func (gormLogger) Error(_ context.Context, s string, args ...interface{}) {
	log.Error().Msgf(s, args...)
}

func (gormLogger) Trace(_ context.Context, _ time.Time, fc func() (string, int64), err error) {
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
	sql, _ := fc()
	log.Error().Err(err).Str("sql", sql).Msg("[KV] query error")
}
