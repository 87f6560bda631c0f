package types

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"
)

// Config holds the prover configuration
type Config struct {
	RootDir string

	// TracePath is the block trace file read by the file fetcher
	TracePath string
	// OutputDir receives proof and summary files
	OutputDir string

	// MaxRws is the largest operation log a block may carry
	MaxRws int
	// ChunkRws is the row budget of one RW table chunk
	ChunkRws int

	AllowMissingBaseFee bool
	// Prove runs groth16 proving on top of witness generation
	Prove bool

	LogLevel string
}

func NewConfig(args ...string) *Config {
	// Parse configuration from environment variables or command line args
	config := Config{
		RootDir:             getEnv("ROOT", "."),
		TracePath:           getEnv("TRACE", "data/block-trace.json"),
		OutputDir:           getEnv("OUTPUT", "output"),
		MaxRws:              getEnvInt("MAX_RWS", 1<<20),
		ChunkRws:            getEnvInt("CHUNK_RWS", 1<<10),
		AllowMissingBaseFee: getEnvBool("ALLOW_MISSING_BASE_FEE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--prove":
			config.Prove = true
			continue
		case "--allow-missing-base-fee":
			config.AllowMissingBaseFee = true
			continue
		}

		if len(args) <= i+1 {
			panic(fmt.Errorf("missing argument for %s", args[i]))
		}

		switch args[i] {
		case "--root":
			config.RootDir = args[i+1]
			i++
		case "--trace":
			config.TracePath = args[i+1]
			i++
		case "--output":
			config.OutputDir = args[i+1]
			i++
		case "--max-rws":
			config.MaxRws = mustAtoi(args[i], args[i+1])
			i++
		case "--chunk-rws":
			config.ChunkRws = mustAtoi(args[i], args[i+1])
			i++
		case "--log-level":
			config.LogLevel = args[i+1]
			i++
		}
	}

	return &config
}

// Validate checks the budgets against each other.
func (c *Config) Validate() error {
	if c.ChunkRws < 2 {
		return fmt.Errorf("chunk rws %d must be at least 2", c.ChunkRws)
	}
	if c.MaxRws < 1 {
		return fmt.Errorf("max rws %d must be positive", c.MaxRws)
	}
	return nil
}

// Path resolves p against RootDir unless it is absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.RootDir, p)
}

// BuildDir is where compiled circuits and keys are cached.
func (c *Config) BuildDir() string {
	return c.Path(".build")
}

// Logger returns a console logger at the configured level.
func (c *Config) Logger() zerolog.Logger {
	return c.LoggerTo(zerolog.ConsoleWriter{Out: os.Stderr})
}

func (c *Config) LoggerTo(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		return mustAtoi(key, value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			panic(fmt.Errorf("invalid %s: %w", key, err))
		}
		return b
	}
	return defaultValue
}

func mustAtoi(name, value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(fmt.Errorf("invalid %s: %w", name, err))
	}
	return n
}
