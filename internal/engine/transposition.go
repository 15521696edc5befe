package engine

import (
	"unsafe"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// Bound tells how a stored score relates to the true value of the position.
type Bound uint8

const (
	BoundExact Bound = iota // score is exact
	BoundLower              // failed high: true value >= score
	BoundUpper              // failed low: true value <= score
)

// TTEntry is one slot of the transposition table.
type TTEntry struct {
	Key      uint64 // full Zobrist hash, compared on probe
	BestMove board.Move
	Score    int16
	Depth    int8
	Bound    Bound
	used     bool
}

const minTTEntries = 1 << 10

// TranspositionTable is a fixed-size hash table indexed by the low bits of
// the Zobrist hash. It is owned by one Engine and is not safe for concurrent
// searches.
type TranspositionTable struct {
	entries []TTEntry
	mask    uint64

	probes     uint64
	hits       uint64
	stores     uint64
	overwrites uint64
}

// NewTranspositionTable creates a table of at most sizeMB megabytes, capped at
// a quarter of physical memory. The entry count is rounded down to a power
// of two.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	bytes := uint64(sizeMB) << 20
	if limit := memory.TotalMemory() / 4; limit > 0 && bytes > limit {
		log.Warn().Int("requested-mb", sizeMB).Uint64("limit-mb", limit>>20).Msg("tt-size-clamped")
		bytes = limit
	}

	n := roundDownToPowerOf2(bytes / uint64(unsafe.Sizeof(TTEntry{})))
	if n < minTTEntries {
		n = minTTEntries
	}

	log.Debug().Uint64("entries", n).Int("size-mb", sizeMB).Msg("transposition-table-size")
	return &TranspositionTable{
		entries: make([]TTEntry, n),
		mask:    n - 1,
	}
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n >> 1) + 1
}

// Probe returns the entry stored for hash, if any.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	entry := tt.entries[hash&tt.mask]
	if entry.used && entry.Key == hash {
		tt.hits++
		return entry, true
	}
	return TTEntry{}, false
}

// Store writes an entry for hash. An empty slot or one holding the same
// position is always overwritten. A slot holding a different position is
// overwritten only if the new entry is at least as deep; on equal depth the
// newer entry wins.
func (tt *TranspositionTable) Store(hash uint64, e TTEntry) {
	slot := &tt.entries[hash&tt.mask]
	if slot.used && slot.Key != hash {
		if e.Depth < slot.Depth {
			return
		}
		tt.overwrites++
	}
	e.Key = hash
	e.used = true
	*slot = e
	tt.stores++
}

// Clear empties the table and resets the statistics.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.probes, tt.hits, tt.stores, tt.overwrites = 0, 0, 0, 0
}

// HashFull returns the permille of used slots among the first thousand.
func (tt *TranspositionTable) HashFull() int {
	sample := min(1000, len(tt.entries))
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].used {
			used++
		}
	}
	return used * 1000 / sample
}

// HitRate returns the percentage of probes that found their position.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of slots.
func (tt *TranspositionTable) Size() int {
	return len(tt.entries)
}

// scoreToTT converts a mate score relative to the root into one relative to
// the stored node.
func scoreToTT(score, ply int) int {
	switch {
	case score > MateScore-MaxPly:
		return score + ply
	case score < -MateScore+MaxPly:
		return score - ply
	}
	return score
}

// scoreFromTT is the inverse of scoreToTT.
func scoreFromTT(score, ply int) int {
	switch {
	case score > MateScore-MaxPly:
		return score - ply
	case score < -MateScore+MaxPly:
		return score + ply
	}
	return score
}
