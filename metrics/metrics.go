// Package metrics exports hashing outcomes as Prometheus metrics.
//
//	c, err := metrics.NewCollector(prometheus.DefaultRegisterer)
//	e, err := hashing.NewDefaultEngine(hashing.WithObserver(c))
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hasbyte1/go-pbkdf2hash/hashing"
)

const namespace = "pbkdf2hash"

// Result label values.
const (
	ResultOK       = "ok"
	ResultMatch    = "match"
	ResultMismatch = "mismatch"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// unknownAlgorithm labels verifications that failed before decoding.
const unknownAlgorithm = "unknown"

// Collector implements [hashing.Observer] on top of Prometheus vectors.
type Collector struct {
	generated *prometheus.CounterVec
	verified  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCollector creates the collector's metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		generated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generate_total",
			Help:      "Password hashes generated, by algorithm and result.",
		}, []string{"algorithm", "result"}),
		verified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_total",
			Help:      "Password verifications, by algorithm and result.",
		}, []string{"algorithm", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "derive_duration_seconds",
			Help:      "Time spent in generate and verify calls.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"operation", "algorithm"}),
	}
	for _, col := range []prometheus.Collector{c.generated, c.verified, c.duration} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ObserveGenerate implements [hashing.Observer].
func (c *Collector) ObserveGenerate(alg hashing.Algorithm, elapsed time.Duration, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.generated.WithLabelValues(string(alg), result).Inc()
	c.duration.WithLabelValues("generate", string(alg)).Observe(elapsed.Seconds())
}

// ObserveVerify implements [hashing.Observer].
func (c *Collector) ObserveVerify(alg hashing.Algorithm, elapsed time.Duration, matched bool, err error) {
	label := string(alg)
	if label == "" {
		label = unknownAlgorithm
	}
	c.verified.WithLabelValues(label, verifyResult(matched, err)).Inc()
	c.duration.WithLabelValues("verify", label).Observe(elapsed.Seconds())
}

func verifyResult(matched bool, err error) string {
	switch {
	case errors.Is(err, hashing.ErrDecode):
		return ResultInvalid
	case err != nil:
		return ResultError
	case matched:
		return ResultMatch
	default:
		return ResultMismatch
	}
}

var _ hashing.Observer = (*Collector)(nil)
