package world

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wippyai/wordstore/errors"
)

type metrics struct {
	ops *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordstore",
		Subsystem: "world",
		Name:      "operations_total",
		Help:      "World operations by name and result.",
	}, []string{"op", "result"})

	if reg != nil {
		if err := reg.Register(ops); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !stderrors.As(err, &are) {
				return nil, err
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, err
			}
			ops = existing
		}
	}
	return &metrics{ops: ops}, nil
}

// observe counts one call of op and passes err through.
func (m *metrics) observe(op string, err error) error {
	result := "ok"
	if err != nil {
		result = "error"
		var e *errors.Error
		if stderrors.As(err, &e) {
			result = string(e.Kind)
		}
	}
	m.ops.WithLabelValues(op, result).Inc()
	return err
}
