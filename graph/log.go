package graph

import "github.com/btcsuite/btclog"

// log is the package-level subsystem logger, set by UseLogger the way every
// lnd subsystem does (spec.md expanded ambient-stack notes, SPEC_FULL.md
// §4.0). Disabled until the caller installs a real backend.
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by the graph package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
