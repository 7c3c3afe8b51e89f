package http

import "golang.org/x/time/rate"

// inboundLimiter throttles the events a single connection may send.
// A nil limiter allows everything.
type inboundLimiter struct {
	limiter *rate.Limiter
}

func newInboundLimiter(perSecond float64, burst int) *inboundLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &inboundLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (l *inboundLimiter) allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
