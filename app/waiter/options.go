package waiter

import (
	"os"
)

type Option func(*waiterCfg)

type waiterCfg struct {
	signals []os.Signal
}

// WithSignals makes Wait return, cancelling every waiting function, when one
// of signals is received.
func WithSignals(signals ...os.Signal) Option {
	return func(cfg *waiterCfg) {
		cfg.signals = signals
	}
}
