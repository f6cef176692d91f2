package node

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewLogger builds the node's structured logger. level must already have
// passed ValidateConfig (one of debug/info/warn/error); an unrecognized
// value falls back to info rather than erroring, since logging setup should
// never be the reason a node fails to start.
func NewLogger(level string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		l = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(l).With().Timestamp().Logger()
}

// NewCorrelationID mints a non-consensus identifier for tying a mempool
// submission or RPC call to the log lines it produced. It must never be
// hashed, signed, or otherwise fed into anything consensus-relevant.
func NewCorrelationID() string {
	return uuid.NewString()
}
