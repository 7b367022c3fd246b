package service

import "sync"

// keyedMutex serializes mutating operations per shipment hash. Operations
// on different shipments proceed fully in parallel. Entries are kept for
// the lifetime of the process; the working set is bounded by the number
// of shipments active in one deployment.
type keyedMutex struct {
	locks sync.Map // shipmentHash -> *sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{}
}

// Lock acquires the mutex for key and returns the unlock function.
func (k *keyedMutex) Lock(key string) func() {
	v, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
