// Package logger provides the shared zerolog instance.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func InitLog() *zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "nexa").Logger()
	return &log
}
