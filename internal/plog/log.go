// Package plog provides the structured logger shared by the Builder and
// Reader. It logs ingestion and resolution decisions at Debug level and
// never touches the hot per-byte read path.
package plog

import (
	"os"

	"github.com/sirupsen/logrus"
)

// L is the package-wide logger. Hosts embedding packfs may reconfigure
// its level or formatter; by default only warnings and above are visible.
var L = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	return log
}

// SetDebug toggles verbose ingestion/resolution logging, mainly useful
// from cmd/packctl's --verbose flag.
func SetDebug(on bool) {
	if on {
		L.SetLevel(logrus.DebugLevel)
		return
	}
	L.SetLevel(logrus.WarnLevel)
}

// WithPath returns an entry pre-populated with the path field, used by
// both the Builder and Reader so log lines stay greppable by path.
func WithPath(path string) *logrus.Entry {
	return L.WithField("path", path)
}
