package risk

import (
	"fmt"

	"propfirm-core/pkg/logger"
)

// logInfo scopes every log line from this package to the "risk"
// component, the same convention matching and pricehub use
// (SPEC_FULL.md §4.G).
func logInfo(format string, args ...interface{}) {
	logger.With("risk").Info(fmt.Sprintf(format, args...))
}
