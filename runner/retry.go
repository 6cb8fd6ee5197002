package runner

import (
	"errors"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Default retry policy values, chosen for spawn failures caused by
// short-lived resource contention.
const (
	DefaultMaxAttempts     = 6
	DefaultInitialInterval = 2 * time.Second
	DefaultMaxInterval     = 60 * time.Second
	DefaultMultiplier      = 2.0
)

// RetryPolicy controls how transient spawn failures are retried.
// Zero fields mean the package defaults; the policy is always active.
type RetryPolicy struct {
	MaxAttempts         int           // total attempts, including the first
	InitialInterval     time.Duration // base backoff interval
	MaxInterval         time.Duration // backoff cap
	Multiplier          float64       // interval growth per attempt
	RandomizationFactor float64       // jitter; the default 1.0 is full jitter
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts > 0 {
		return p.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultInitialInterval
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	b.MaxInterval = DefaultMaxInterval
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.Multiplier = DefaultMultiplier
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}
	b.RandomizationFactor = 1.0
	if p.RandomizationFactor > 0 {
		b.RandomizationFactor = p.RandomizationFactor
	}
	return b
}

// transientErrnos are spawn errors expected to resolve on retry.
var transientErrnos = []syscall.Errno{
	syscall.EAGAIN,
	syscall.EMFILE,
	syscall.ENFILE,
	syscall.ENOMEM,
	syscall.ETXTBSY,
}

// spawnKind classifies an OS-level start failure as transient or
// permanent. Anything that is not a known-transient errno, e.g. a
// missing executable or a permission error, is permanent.
func spawnKind(err error) Kind {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		for _, e := range transientErrnos {
			if errno == e {
				return KindSpawnTransient
			}
		}
	}
	return KindSpawnPermanent
}
