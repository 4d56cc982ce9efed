// Package store keeps encoded meshes in a badger database keyed by name.
package store

import (
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/edgebreaker/pkg/edgebreaker"
)

// Store errors.
var (
	ErrNotFound  = errors.New("mesh not found")
	ErrEmptyName = errors.New("mesh name is empty")
)

const prefixMesh = "mesh:"

// Entry describes one archived mesh.
type Entry struct {
	Name string
	Size int
	Info edgebreaker.Info
}

// Store is an archive of encoded meshes.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

// Open opens the archive at path. An empty path keeps everything in memory.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	opts := badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening store %q", path)
	}
	return &Store{db: db, log: log}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(name string) []byte { return []byte(prefixMesh + name) }

// Put stores an encoded mesh under name, replacing any previous one. The
// stream header is checked first so the archive never holds foreign data.
func (s *Store) Put(name string, data []byte) (Entry, error) {
	if name == "" {
		return Entry{}, ErrEmptyName
	}
	info, err := edgebreaker.Inspect(data)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "storing %q", name)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(name), data)
	})
	if err != nil {
		return Entry{}, errors.Wrapf(err, "persist %q", name)
	}
	s.log.Debug("mesh stored",
		zap.String("name", name),
		zap.Int("bytes", len(data)),
		zap.Int("faces", info.NumFaces),
	)
	return Entry{Name: name, Size: len(data), Info: info}, nil
}

// Get returns the encoded mesh stored under name.
func (s *Store) Get(name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrap(ErrNotFound, name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", name)
	}
	return data, nil
}

// Delete removes name. Deleting a missing mesh is not an error.
func (s *Store) Delete(name string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(name))
	})
	if err != nil {
		return errors.Wrapf(err, "deleting %q", name)
	}
	return nil
}

// List returns every archived mesh sorted by name.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixMesh)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])
			var entry Entry
			err := item.Value(func(val []byte) error {
				info, err := edgebreaker.Inspect(val)
				if err != nil {
					return err
				}
				entry = Entry{Name: name, Size: len(val), Info: info}
				return nil
			})
			if err != nil {
				return errors.Wrapf(err, "entry %q", name)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}
