package convo

import "sync"

// KeyMutex serializes turns per conversation identity so duplicate channel
// deliveries for the same user never interleave writes to one session.
// Entries are reference-counted and removed once unused.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[Key]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyMutex creates an empty KeyMutex.
func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[Key]*keyLock)}
}

// Lock blocks until the key's lock is held and returns the release function.
func (k *KeyMutex) Lock(key Key) (release func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
