package matching

import (
	"fmt"

	"propfirm-core/pkg/logger"
)

// logInfo scopes every log line from this package to the "matching"
// component, the way risk and pricehub do (SPEC_FULL.md §4.G).
func logInfo(format string, args ...interface{}) {
	logger.With("matching").Info(fmt.Sprintf(format, args...))
}
