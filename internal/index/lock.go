package index

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Lock when another process is indexing.
var ErrLocked = errors.New("index is locked by another process")

// Lock takes the cross-process indexing lock that sits next to the database.
// The returned function releases it.
func Lock(dbPath string) (func() error, error) {
	l := flock.New(dbPath + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return l.Unlock, nil
}
