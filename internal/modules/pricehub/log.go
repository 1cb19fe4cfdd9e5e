package pricehub

import (
	"fmt"

	"propfirm-core/pkg/logger"
)

// logInfo scopes every log line from this package to the "pricehub"
// component (SPEC_FULL.md §4.G).
func logInfo(format string, args ...interface{}) {
	logger.With("pricehub").Info(fmt.Sprintf(format, args...))
}
