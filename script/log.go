package script

import "github.com/btcsuite/btclog"

var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
