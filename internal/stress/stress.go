package stress

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidConfig is returned for a Config that cannot run.
	ErrInvalidConfig = errors.New("stress: invalid config")

	// ErrCorruptValue is returned when a worker reads back data it did not write.
	ErrCorruptValue = errors.New("stress: corrupt value")

	// ErrLeak is returned when values are still live after every worker finished.
	ErrLeak = errors.New("stress: leaked values")
)

// Config describes a workload.
type Config struct {
	Workers    int   // Concurrent workers
	Objects    int   // Objects each worker holds per iteration
	Iterations int   // Rounds per worker
	MaxSize    int   // Largest request of the alloc workload
	Seed       int64 // Base seed; worker i uses Seed+i
}

// DefaultConfig mirrors the repository's own concurrency tests.
var DefaultConfig = Config{
	Workers:    4,
	Objects:    256,
	Iterations: 256,
	MaxSize:    4096,
	Seed:       42,
}

// Validate reports whether c can run.
func (c Config) Validate() error {
	switch {
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.Objects <= 0:
		return fmt.Errorf("%w: objects must be positive, got %d", ErrInvalidConfig, c.Objects)
	case c.Iterations <= 0:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	}
	return nil
}

// Report summarizes a finished run.
type Report struct {
	Workload   string        `json:"workload"`
	Workers    int           `json:"workers"`
	Objects    int           `json:"objects"`
	Iterations int           `json:"iterations"`
	Operations int64         `json:"operations"`
	Retries    int64         `json:"retries"`
	Failures   int64         `json:"failures"`
	Duration   time.Duration `json:"duration_ns"`
	OpsPerSec  float64       `json:"ops_per_sec"`
	Audit      string        `json:"audit"`
}

func (r *Report) finish(start time.Time, auditErr error) {
	r.Duration = time.Since(start)
	if secs := r.Duration.Seconds(); secs > 0 {
		r.OpsPerSec = float64(r.Operations) / secs
	}
	r.Audit = "ok"
	if auditErr != nil {
		r.Audit = auditErr.Error()
	}
}
