// Package goroutine launches background work with panic containment.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"vossync/internal/shared/logger"
)

// SafeGo runs fn on its own goroutine. A panic is logged with the goroutine
// name and stack instead of taking the process down; background sync jobs
// must never crash the scheduler.
func SafeGo(log logger.Interface, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		fn()
	}()
}
