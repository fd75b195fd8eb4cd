// Package checkpoint implements an optional, periodic on-disk checkpoint of
// movement state, supplementing (not replacing) the stream-based
// Move_SaveState/Move_LoadState pair §4.9 requires. Crash recovery can
// resume from the most recent checkpoint tick instead of whatever the host
// last explicitly saved.
package checkpoint

import (
	"encoding/binary"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
)

// Store is a leveldb-backed table of tick number → opaque snapshot bytes
// (the same bytes a stream Save would produce).
type Store struct {
	db *leveldb.DB
}

// Open opens (creating if necessary) the checkpoint database at path.
func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Put records snapshot as the checkpoint for tick, keyed by its big-endian
// encoding so iteration order matches tick order.
func (s *Store) Put(tick int64, snapshot []byte) error {
	return s.db.Put(tickKey(tick), snapshot, nil)
}

// Latest returns the snapshot at the highest tick <= tick that has been
// checkpointed together with that tick, or (nil, 0, false) if none exists
// yet.
func (s *Store) Latest(tick int64) ([]byte, int64, bool) {
	iter := s.db.NewIterator(nil, nil)
	defer iter.Release()

	// Seek lands on the first key >= tick. If that overshoots (or there is
	// no such key at all), step back to the nearest key <= tick.
	if !iter.Seek(tickKey(tick)) {
		if !iter.Last() {
			return nil, 0, false
		}
	} else if t := int64(binary.BigEndian.Uint64(iter.Key())); t > tick {
		if !iter.Prev() {
			return nil, 0, false
		}
	}

	bestTick := int64(binary.BigEndian.Uint64(iter.Key()))
	best := append([]byte(nil), iter.Value()...)
	return best, bestTick, true
}

func tickKey(tick int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(tick))
	return b
}
