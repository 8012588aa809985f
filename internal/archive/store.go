// Package archive keeps named copies of graph snapshots in a BadgerDB
// catalog so earlier states can be listed and restored.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Key prefixes for the BadgerDB key scheme.
const (
	prefixEntry   = "a:"
	prefixBlob    = "b:"
	prefixIdxName = "idx:name:"
)

var (
	// ErrNotFound is returned when no entry has the requested id.
	ErrNotFound = errors.New("archive entry not found")
	// ErrDigestMismatch is returned when a stored blob no longer matches
	// the digest recorded when it was archived.
	ErrDigestMismatch = errors.New("archive digest mismatch")
)

// Entry describes one archived snapshot.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Digest    uint64    `json:"digest"`
	IDWidth   int       `json:"id_width,omitempty"`
	Strategy  string    `json:"strategy,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Meta is caller-supplied information stored with a snapshot.
type Meta struct {
	IDWidth  int
	Strategy string
}

// Config configures the catalog database.
type Config struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// Logger receives badger's own log output. Nil disables it.
	Logger *slog.Logger
}

// Store is a snapshot catalog backed by BadgerDB.
type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) the catalog described by cfg.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

func entryKey(id string) []byte { return []byte(prefixEntry + id) }

func blobKey(id string) []byte { return []byte(prefixBlob + id) }

func indexNameKey(name, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixIdxName, name, id))
}

// Put reads a snapshot from r and stores it under name.
func (s *Store) Put(ctx context.Context, name string, meta Meta, r io.Reader) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if name == "" || strings.Contains(name, ":") {
		return Entry{}, fmt.Errorf("invalid archive name %q", name)
	}

	h := xxhash.New()
	var buf bytes.Buffer
	n, err := io.Copy(io.MultiWriter(&buf, h), r)
	if err != nil {
		return Entry{}, fmt.Errorf("read snapshot: %w", err)
	}

	entry := Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Size:      n,
		Digest:    h.Sum64(),
		IDWidth:   meta.IDWidth,
		Strategy:  meta.Strategy,
		CreatedAt: s.now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(entryKey(entry.ID), data); err != nil {
			return err
		}
		if err := txn.Set(blobKey(entry.ID), buf.Bytes()); err != nil {
			return err
		}
		return txn.Set(indexNameKey(name, entry.ID), nil)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("store snapshot %s: %w", name, err)
	}
	return entry, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(_ context.Context, id string) (Entry, error) {
	var entry Entry
	err := s.db.View(func(txn *badger.Txn) error {
		e, err := getEntryInTxn(txn, id)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	return entry, err
}

func getEntryInTxn(txn *badger.Txn, id string) (Entry, error) {
	item, err := txn.Get(entryKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &entry)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("unmarshal entry %s: %w", id, err)
	}
	return entry, nil
}

// List returns every entry, oldest first.
func (s *Store) List(_ context.Context) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		prefix := []byte(prefixEntry)
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.Valid(); it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("unmarshal entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

// FindByName returns the ids of every entry stored under name.
func (s *Store) FindByName(_ context.Context, name string) ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = scanIndexPrefix(txn, []byte(prefixIdxName+name+":"))
		return err
	})
	return ids, err
}

// Restore writes the snapshot with the given id to w after checking its
// digest.
func (s *Store) Restore(ctx context.Context, id string, w io.Writer) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	var (
		entry Entry
		blob  []byte
	)
	err := s.db.View(func(txn *badger.Txn) error {
		e, err := getEntryInTxn(txn, id)
		if err != nil {
			return err
		}
		entry = e
		item, err := txn.Get(blobKey(id))
		if err != nil {
			return fmt.Errorf("read blob %s: %w", id, err)
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	if got := xxhash.Sum64(blob); got != entry.Digest {
		return Entry{}, fmt.Errorf("%w: %s has %016x, recorded %016x", ErrDigestMismatch, id, got, entry.Digest)
	}
	if _, err := w.Write(blob); err != nil {
		return Entry{}, fmt.Errorf("write snapshot: %w", err)
	}
	return entry, nil
}

// Delete removes an entry and its blob.
func (s *Store) Delete(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		entry, err := getEntryInTxn(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(indexNameKey(entry.Name, id)); err != nil {
			return err
		}
		if err := txn.Delete(blobKey(id)); err != nil {
			return err
		}
		return txn.Delete(entryKey(id))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// scanIndexPrefix collects the trailing id segment of every key under prefix.
func scanIndexPrefix(txn *badger.Txn, prefix []byte) ([]string, error) {
	var ids []string
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(prefix); it.Valid(); it.Next() {
		key := string(it.Item().Key())
		if idx := strings.LastIndex(key, ":"); idx >= 0 && idx < len(key)-1 {
			ids = append(ids, key[idx+1:])
		}
	}
	return ids, nil
}

// badgerLogger adapts slog.Logger to badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
