package registry

import "propfirm-core/pkg/logger"

func init() {
	if _, err := logger.Init("registry-test", true); err != nil {
		panic(err)
	}
}
