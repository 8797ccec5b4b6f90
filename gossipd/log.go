package gossipd

import "github.com/btcsuite/btclog"

// log is the gossipd package's subsystem logger, following the same
// UseLogger pattern as every other package here and as the teacher's
// subsystem registration in its cmd entrypoint (SPEC_FULL.md §4.0).
var log = btclog.Disabled

// UseLogger sets the package-wide logger used by gossipd.
func UseLogger(logger btclog.Logger) {
	log = logger
}
