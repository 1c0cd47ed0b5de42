package observers

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/taskline/taskline/internal/lifecycle"
	"github.com/taskline/taskline/internal/logger"
)

// Policy defines the retry configuration for condition-rejected tasks
type Policy struct {
	MaxRetries     int           `json:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff"`
	MaxBackoff     time.Duration `json:"max_backoff"`
	BackoffFactor  float64       `json:"backoff_factor"`
	EnableJitter   bool          `json:"enable_jitter"`
	JitterFactor   float64       `json:"jitter_factor"` // Percentage of jitter (0.0 to 1.0)
}

// DefaultPolicy creates a retry policy with sensible defaults
func DefaultPolicy() *Policy {
	return &Policy{
		MaxRetries:     3,
		InitialBackoff: 5 * time.Second,
		MaxBackoff:     2 * time.Minute,
		BackoffFactor:  2.0,
		EnableJitter:   true,
		JitterFactor:   0.3, // 30% jitter
	}
}

// Backoff calculates the backoff duration for a given attempt count
func (p *Policy) Backoff(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}

	// Exponential backoff: initialBackoff * (factor ^ (attempts-1))
	backoff := time.Duration(float64(p.InitialBackoff) * math.Pow(p.BackoffFactor, float64(attempts-1)))

	if backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}

	// Jitter avoids thundering-herd resubmission
	if p.EnableJitter {
		jitter := rand.Float64() * p.JitterFactor
		backoff = time.Duration(float64(backoff) * (1 + jitter))
	}

	return backoff
}

// Submitter admits a fresh task for scheduling. *scheduler.Scheduler
// satisfies it.
type Submitter interface {
	Add(t *lifecycle.Task) error
}

// Retry re-submits a fresh task when the observed task finished
// cancelled. The task primitive itself never retries; a finished task is
// terminal, so each attempt is a brand new task built by the factory.
// The submitter must still be dispatching when the backoff elapses or
// the resubmitted task will sit pending.
type Retry struct {
	submitter Submitter
	policy    *Policy
	factory   func() *lifecycle.Task

	mu       sync.Mutex
	attempts int
}

// NewRetry creates a retry observer. Attach it to the first attempt;
// subsequent attempts are observed automatically.
func NewRetry(submitter Submitter, policy *Policy, factory func() *lifecycle.Task) *Retry {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Retry{
		submitter: submitter,
		policy:    policy,
		factory:   factory,
	}
}

// Attempts returns how many resubmissions have been made
func (r *Retry) Attempts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts
}

func (r *Retry) Attached(t *lifecycle.Task)  {}
func (r *Retry) Started(t *lifecycle.Task)   {}
func (r *Retry) Cancelled(t *lifecycle.Task) {}

func (r *Retry) Finished(t *lifecycle.Task) {
	if !t.Cancelled() {
		return
	}

	r.mu.Lock()
	if r.attempts >= r.policy.MaxRetries {
		r.mu.Unlock()
		logger.Op.WithFields(map[string]interface{}{
			"task":       t.Name(),
			"maxRetries": r.policy.MaxRetries,
		}).Warn("Retry budget exhausted, giving up")
		return
	}
	r.attempts++
	attempt := r.attempts
	r.mu.Unlock()

	backoff := r.policy.Backoff(attempt)
	logger.Op.WithFields(map[string]interface{}{
		"task":    t.Name(),
		"attempt": attempt,
		"backoff": backoff.String(),
	}).Info("Resubmitting cancelled task")

	time.AfterFunc(backoff, func() {
		fresh := r.factory()
		fresh.AddObserver(r)
		if err := r.submitter.Add(fresh); err != nil {
			logger.Op.WithFields(map[string]interface{}{
				"task":  fresh.Name(),
				"error": err.Error(),
			}).Error("Failed to resubmit task")
		}
	})
}
