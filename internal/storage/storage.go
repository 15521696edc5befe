package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Key prefixes
const (
	prefixPerft = "perft/"
	prefixGame  = "game/"
	keyStats    = "stats"
	keyGameSeq  = "seq/game"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Storage wraps BadgerDB for persistent storage.
type Storage struct {
	db *badger.DB
}

// Open opens the database in dir. An empty dir opens an in-memory database,
// which is what tests use.
func Open(dir string) (*Storage, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{log.With().Str("component", "badger").Logger()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open storage %q: %w", dir, err)
	}
	return &Storage{db: db}, nil
}

// OpenDefault opens the database below dataDir, or the platform data
// directory when dataDir is empty.
func OpenDefault(dataDir string) (*Storage, error) {
	dbDir, err := DatabaseDir(dataDir)
	if err != nil {
		return nil, err
	}
	return Open(dbDir)
}

// Close closes the database.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// badgerLogger routes badger's messages through zerolog. Badger is chatty at
// info level, so info is demoted to debug.
type badgerLogger struct {
	zl zerolog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	l.zl.Error().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	l.zl.Warn().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l badgerLogger) Infof(f string, v ...interface{}) {
	l.zl.Debug().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}

func (l badgerLogger) Debugf(f string, v ...interface{}) {
	l.zl.Trace().Msg(strings.TrimSpace(fmt.Sprintf(f, v...)))
}
