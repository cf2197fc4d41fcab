package graph

import "sync"

// SafeGo runs fn in a goroutine tracked by wg, routing panics to onPanic
// instead of crashing the process. Node execution uses it so that a panicking
// node surfaces as an error on its wave.
func SafeGo(wg *sync.WaitGroup, fn func(), onPanic func(panicVal any)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				onPanic(r)
			}
		}()
		fn()
	}()
}
