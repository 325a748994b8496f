package shardqueue

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Config groups all tunables. Values are taken from environment variables with
// the prefix "SQ_". Example: SQ_SHARDS=8 SQ_QUEUE_SIZE=256 .
type Config struct {
	Shards         int           `envconfig:"SHARDS"          default:"4"`
	QueueSize      int           `envconfig:"QUEUE_SIZE"      default:"64"`
	EnqueueTimeout time.Duration `envconfig:"ENQUEUE_TIMEOUT" default:"100ms"`

	// ErrorHandler is called synchronously after a Job finally fails.
	// Leave nil if you do not care.
	ErrorHandler func(error) `envconfig:"-"`

	// Logger receives the executor's own messages. Nil means the global
	// zerolog logger.
	Logger *zerolog.Logger `envconfig:"-"`

	// MaxAttempts bounds retries of recoverable failures. Event mutations
	// are not idempotent, so the default is a single attempt.
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS"   default:"1"`
	BaseBackoff time.Duration `envconfig:"BASE_BACKOFF"   default:"100ms"`
	MaxInterval time.Duration `envconfig:"MAX_INTERVAL"   default:"5s"`
}

// LoadConfig populates Config from environment variables (prefix SQ_).
func LoadConfig() (Config, error) {
	var c Config
	return c, envconfig.Process("SQ", &c)
}
