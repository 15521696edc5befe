package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/game"
)

// GameRecord is a finished or abandoned game.
type GameRecord struct {
	ID       uint64        `json:"id"`
	StartFEN string        `json:"start_fen"`
	Moves    []string      `json:"moves"` // coordinate notation
	SAN      []string      `json:"san"`
	Result   string        `json:"result"`
	Reason   string        `json:"reason"`
	Plies    int           `json:"plies"`
	PlayedAt time.Time     `json:"played_at"`
	Duration time.Duration `json:"duration"`
}

// NewGameRecord captures the current state of g.
func NewGameRecord(g *game.Game, took time.Duration) GameRecord {
	result, reason := g.Outcome()
	return GameRecord{
		StartFEN: g.StartFEN(),
		Moves:    lo.Map(g.Moves(), func(m board.Move, _ int) string { return m.String() }),
		SAN:      g.SAN(),
		Result:   result.String(),
		Reason:   reason.String(),
		Plies:    g.Plies(),
		PlayedAt: time.Now(),
		Duration: took,
	}
}

// GameStats aggregates all recorded games.
type GameStats struct {
	GamesPlayed   int            `json:"games_played"`
	WhiteWins     int            `json:"white_wins"`
	BlackWins     int            `json:"black_wins"`
	Draws         int            `json:"draws"`
	ByReason      map[string]int `json:"by_reason"`
	TotalPlies    int            `json:"total_plies"`
	TotalPlayTime time.Duration  `json:"total_play_time"`
	LongestGame   int            `json:"longest_game"`
}

// NewGameStats returns empty statistics.
func NewGameStats() *GameStats {
	return &GameStats{ByReason: make(map[string]int)}
}

// DrawRate returns the share of drawn games as a percentage (0-100).
func (s *GameStats) DrawRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.Draws) / float64(s.GamesPlayed) * 100
}

// AveragePlies returns the mean game length.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}

func (s *GameStats) add(rec GameRecord) {
	s.GamesPlayed++
	s.TotalPlies += rec.Plies
	s.TotalPlayTime += rec.Duration
	s.LongestGame = max(s.LongestGame, rec.Plies)
	switch rec.Result {
	case game.WhiteWins.String():
		s.WhiteWins++
	case game.BlackWins.String():
		s.BlackWins++
	case game.Draw.String():
		s.Draws++
	}
	s.ByReason[rec.Reason]++
}

func gameKey(id uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte(prefixGame), id)
}

// RecordGame stores rec under a new ID and folds it into the statistics.
// The ID is returned and also set on the stored record.
func (s *Storage) RecordGame(rec GameRecord) (uint64, error) {
	seq, err := s.db.GetSequence([]byte(keyGameSeq), 16)
	if err != nil {
		return 0, err
	}
	defer seq.Release()
	id, err := seq.Next()
	if err != nil {
		return 0, err
	}
	rec.ID = id + 1 // IDs start at one

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.add(rec)
		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := txn.Set(gameKey(rec.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
	return rec.ID, err
}

// LoadGame returns the record with the given ID.
func (s *Storage) LoadGame(id uint64) (GameRecord, error) {
	var rec GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(gameKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("game %d: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	return rec, err
}

// Games returns every stored record in ID order.
func (s *Storage) Games() ([]GameRecord, error) {
	var recs []GameRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(prefixGame)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec GameRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			recs = append(recs, rec)
		}
		return nil
	})
	return recs, err
}

// LoadStats loads game statistics, returns empty stats if none were saved.
func (s *Storage) LoadStats() (*GameStats, error) {
	var stats *GameStats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (*GameStats, error) {
	stats := NewGameStats()
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, stats)
	})
	if stats.ByReason == nil {
		stats.ByReason = make(map[string]int)
	}
	return stats, err
}
