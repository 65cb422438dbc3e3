package gbdt

import (
	"os"

	"github.com/rs/zerolog"
)

// logger is the package-level structured logger. Callers that embed gbdt
// into a larger service can redirect it with SetLogger; by default it
// writes human-readable output to stderr.
var logger zerolog.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

// SetLogger replaces the package-level logger.
func SetLogger(l zerolog.Logger) { logger = l }
