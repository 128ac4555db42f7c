package catalog

import "sync"

// keyedLocks hands out one mutex per entity id, so the
// read-compare-write section is atomic per id while different ids
// proceed concurrently. Entries are refcounted and dropped when idle.
type keyedLocks struct {
	mu sync.Mutex
	m  map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{m: make(map[string]*keyedLock)}
}

// lock acquires the mutex for key and returns its release func.
func (kl *keyedLocks) lock(key string) func() {
	kl.mu.Lock()
	l, ok := kl.m[key]
	if !ok {
		l = &keyedLock{}
		kl.m[key] = l
	}
	l.refs++
	kl.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		kl.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(kl.m, key)
		}
		kl.mu.Unlock()
	}
}
