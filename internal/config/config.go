package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jason-s-yu/eights/internal/game"
	"github.com/joeshaw/envdecode"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

var ErrInvalid = errors.New("invalid configuration")

const (
	TransportTCP = "tcp"
	TransportWS  = "ws"
)

// Config is read from the environment (and a .env file, when present). Command-line flags
// override individual fields after Load.
type Config struct {
	Addr      string `env:"EIGHTS_ADDR,default=:7777"`
	Transport string `env:"EIGHTS_TRANSPORT,default=tcp"`
	Seats     int    `env:"EIGHTS_SEATS,default=4"`
	Remote    int    `env:"EIGHTS_REMOTE,default=1"`
	LocalSeat bool   `env:"EIGHTS_LOCAL_SEAT,default=true"`
	Name      string `env:"EIGHTS_NAME,default=Player"`

	InitialHandSize int           `env:"EIGHTS_INITIAL_HAND,default=6"`
	MaxHandSize     int           `env:"EIGHTS_MAX_HAND,default=12"`
	MaxScore        int           `env:"EIGHTS_MAX_SCORE,default=50"`
	ReverseOnAce    bool          `env:"EIGHTS_REVERSE_ON_ACE,default=false"`
	SkipOnQueen     bool          `env:"EIGHTS_SKIP_ON_QUEEN,default=false"`
	AIDelay         time.Duration `env:"EIGHTS_AI_DELAY,default=750ms"`

	RedisAddr   string `env:"REDIS_ADDR"`
	RedisDB     int    `env:"REDIS_DB,default=0"`
	Queue       string `env:"HISTORIAN_QUEUE_NAME,default=eights_actions"`
	DatabaseURL string `env:"DATABASE_URL"`

	BatchSize     int           `env:"HISTORIAN_BATCH_SIZE,default=20"`
	FlushInterval time.Duration `env:"HISTORIAN_FLUSH_INTERVAL,default=500ms"`
	Inactivity    time.Duration `env:"GAME_INACTIVITY_TIMEOUT,default=10m"`

	MetricsAddr string `env:"EIGHTS_METRICS_ADDR"`
	LogLevel    string `env:"EIGHTS_LOG_LEVEL,default=info"`
}

// Load decodes the environment into a Config. Defaults apply to every unset variable.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks the table-shaping fields.
func (c *Config) Validate() error {
	if err := c.Rules().Validate(c.Seats); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	switch c.Transport {
	case TransportTCP, TransportWS:
	default:
		return fmt.Errorf("%w: transport %q (want %s or %s)", ErrInvalid, c.Transport, TransportTCP, TransportWS)
	}
	humans := c.Humans()
	if c.Remote < 0 || humans < 1 || humans > c.Seats {
		return fmt.Errorf("%w: %d remote players at a %d-seat table", ErrInvalid, c.Remote, c.Seats)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Humans is the number of human seats: the remote players plus the host's own seat.
func (c *Config) Humans() int {
	if c.LocalSeat {
		return c.Remote + 1
	}
	return c.Remote
}

func (c *Config) Rules() game.Rules {
	return game.Rules{
		InitialHandSize: c.InitialHandSize,
		MaxHandSize:     c.MaxHandSize,
		MaxScore:        c.MaxScore,
		ReverseOnAce:    c.ReverseOnAce,
		SkipOnQueen:     c.SkipOnQueen,
	}
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(strings.TrimSpace(c.LogLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
