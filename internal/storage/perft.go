package storage

import (
	"context"
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"

	"github.com/hailam/chesscore/internal/board"
)

// perftKey is prefixPerft followed by the big-endian hash and the depth.
func perftKey(hash uint64, depth int) []byte {
	key := make([]byte, 0, len(prefixPerft)+9)
	key = append(key, prefixPerft...)
	key = binary.BigEndian.AppendUint64(key, hash)
	return append(key, byte(depth))
}

// PerftNodes returns a cached perft count.
func (s *Storage) PerftNodes(hash uint64, depth int) (uint64, bool, error) {
	var nodes uint64
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(perftKey(hash, depth))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			nodes = binary.BigEndian.Uint64(val)
			found = true
			return nil
		})
	})
	return nodes, found, err
}

// SavePerftNodes caches a perft count.
func (s *Storage) SavePerftNodes(hash uint64, depth int, nodes uint64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(perftKey(hash, depth), binary.BigEndian.AppendUint64(nil, nodes))
	})
}

// Perft counts leaf nodes of pos to depth, consulting the cache first and
// filling it for the root and for every root move.
func (s *Storage) Perft(ctx context.Context, pos *board.Position, depth int) (uint64, bool, error) {
	if depth <= 0 {
		return 1, false, nil
	}
	if nodes, ok, err := s.PerftNodes(pos.Hash(), depth); err != nil || ok {
		return nodes, ok, err
	}

	entries, err := board.Divide(ctx, pos, depth)
	if err != nil {
		return 0, false, err
	}

	var total uint64
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, e := range entries {
		total += e.Nodes
		if depth > 1 {
			child := pos.Copy()
			child.MakeMove(e.Move)
			if err := wb.Set(perftKey(child.Hash(), depth-1), binary.BigEndian.AppendUint64(nil, e.Nodes)); err != nil {
				return 0, false, err
			}
		}
	}
	if err := wb.Set(perftKey(pos.Hash(), depth), binary.BigEndian.AppendUint64(nil, total)); err != nil {
		return 0, false, err
	}
	if err := wb.Flush(); err != nil {
		return 0, false, err
	}
	log.Debug().Int("depth", depth).Uint64("nodes", total).Int("children", len(entries)).Msg("perft-cached")
	return total, false, nil
}
