package consensus

import "github.com/btcsuite/btclog"

// log is the package-level logger, disabled by default until the
// supervisor calls UseLogger. The core never configures a backend
// itself; wiring a file/console backend is the caller's concern.
var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
