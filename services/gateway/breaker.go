package gateway

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"studioz/utils"
)

// Breaker wraps gobreaker and mirrors its state into Prometheus.
type Breaker struct {
	*gobreaker.CircuitBreaker
	name string
}

// NewBreaker creates a breaker that trips when 60% of at least 3 calls in a window fail.
// Upstream answers below 500 count as successes so a taken slot never opens the circuit.
func NewBreaker(name string) *Breaker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    15 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var ue *UpstreamError
			return errors.As(err, &ue) && ue.Status < 500
		},
		OnStateChange: func(cbName string, from gobreaker.State, to gobreaker.State) {
			utils.CircuitBreakerState.WithLabelValues(cbName).Set(stateValue(to))
			utils.GetLogger().Info("Circuit breaker state changed",
				zap.String("circuit", cbName),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	utils.CircuitBreakerState.WithLabelValues(name).Set(0)
	return &Breaker{CircuitBreaker: cb, name: name}
}

// GetState returns the current state of the circuit breaker
func (b *Breaker) GetState() string {
	return b.State().String()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

func isBreakerRejection(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
