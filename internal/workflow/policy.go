package workflow

import (
	"time"

	"podslice/internal/queue"
	"podslice/internal/services"
)

// retryPolicy decides how many attempts a stage gets per failure class and
// how long to wait between them.
type retryPolicy struct {
	// maxAttempts is the per-stage total-attempt ceiling for transient and
	// quota failures. The synthesize stage gets a higher ceiling so the
	// secondary provider has real attempts left after fallback; elsewhere
	// unbounded provider retries would just hammer an exhausted upstream.
	maxAttempts           int
	maxSynthesizeAttempts int

	// Unknown failures get exactly one re-attempt: enough to absorb a
	// one-off crash, conservative enough not to loop on a logic bug.
	maxUnknownAttempts int

	transientBackoffBase time.Duration
	quotaBackoffBase     time.Duration
	backoffCap           time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{
		maxAttempts:           3,
		maxSynthesizeAttempts: 5,
		maxUnknownAttempts:    2,
		transientBackoffBase:  2 * time.Second,
		quotaBackoffBase:      30 * time.Second,
		backoffCap:            10 * time.Minute,
	}
}

// attemptCeiling returns the total attempts (including the one that just
// failed) a stage may consume for the given classification. Zero means the
// failure is terminal immediately.
func (p retryPolicy) attemptCeiling(s queue.Stage, class services.Classification) int {
	switch class {
	case services.ClassInvalid, services.ClassUnsupported:
		return 0
	case services.ClassUnknown:
		return p.maxUnknownAttempts
	default:
		if s == queue.StageSynthesizing {
			return p.maxSynthesizeAttempts
		}
		return p.maxAttempts
	}
}

// backoffDelay computes the wait before the next attempt. attempt is the
// 1-based count of attempts already made; delays double per attempt, capped.
// Quota exhaustion backs off from a longer base since provider windows reset
// on the order of minutes, not seconds.
func (p retryPolicy) backoffDelay(class services.Classification, attempt int) time.Duration {
	base := p.transientBackoffBase
	if class == services.ClassQuota {
		base = p.quotaBackoffBase
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := base
	for i := 1; i < attempt; i++ {
		if delay > p.backoffCap/2 {
			return p.backoffCap
		}
		delay *= 2
	}
	if delay > p.backoffCap {
		return p.backoffCap
	}
	return delay
}

// primaryAttemptLimit is how many synthesize attempts the primary TTS
// provider gets before the job's provider selection flips to secondary.
const primaryAttemptLimit = 2
