package metrics

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register is called from init in each metrics file.
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// RegisterWith adds every pipeline collector to reg. Collectors that reg
// already holds are skipped.
func RegisterWith(reg prometheus.Registerer) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var dup prometheus.AlreadyRegisteredError
			if errors.As(err, &dup) {
				continue
			}
			return fmt.Errorf("register collector: %w", err)
		}
	}
	return nil
}

// MustRegister registers with the default registry once and panics on conflict.
func MustRegister() {
	once.Do(func() {
		if err := RegisterWith(prometheus.DefaultRegisterer); err != nil {
			panic(err)
		}
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
