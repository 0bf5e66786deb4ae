package util

import (
	"time"

	"go.uber.org/zap"
)

// Trace 记录一段操作的耗时：defer util.Trace("compose outfit")()
func Trace(name string) func() {
	start := time.Now()
	return func() {
		Logger.Info("trace", zap.String("name", name), zap.Duration("cost", time.Since(start)))
	}
}
