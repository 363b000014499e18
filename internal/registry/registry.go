package registry

import (
	"encoding/json"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/marketbay/marketd/internal/domain"
)

// ErrStatusMismatch is returned by the conditional mutations when the
// stored status is not the expected one. Settlement maps it onto the
// domain taxonomy depending on which transition was attempted.
var ErrStatusMismatch = errors.New("registry: sale status mismatch")

// Store is the durable listing registry, a Badger-backed KV mapping
// ListingKey -> Sale (JSON). It is a passive store: each method is one
// atomic transaction, and all ordering discipline above single
// operations belongs to the settlement protocol.
type Store struct {
	db *badger.DB
}

type OpenOptions struct {
	Path     string
	InMemory bool // no files on disk; used by tests
}

func Open(opts OpenOptions) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if strings.TrimSpace(opts.Path) == "" {
			return nil, errors.New("registry: path is required")
		}
		bopts = badger.DefaultOptions(opts.Path)
	}
	bopts = bopts.WithLogger(nil)
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrap(err, "registry: open badger")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts the sale at key, rejecting occupied keys. Overwriting
// would orphan the previous lister's deposit, so duplicates are an
// error rather than a replace.
func (s *Store) Create(key domain.ListingKey, sale *domain.Sale) error {
	val, err := json.Marshal(sale)
	if err != nil {
		return errors.Wrap(err, "registry: encode sale")
	}
	k := []byte(key.String())
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return domain.ErrDuplicateListing
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(k, val)
	})
}

// Get returns the sale at key or domain.ErrNotFound.
func (s *Store) Get(key domain.ListingKey) (*domain.Sale, error) {
	var sale *domain.Sale
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key.String()))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			sale = new(domain.Sale)
			return json.Unmarshal(val, sale)
		})
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Remove deletes the sale at key and returns it. This and the
// conditional removes below are the only ways a sale disappears.
func (s *Store) Remove(key domain.ListingKey) (*domain.Sale, error) {
	k := []byte(key.String())
	var sale *domain.Sale
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			sale = new(domain.Sale)
			return json.Unmarshal(val, sale)
		}); err != nil {
			return err
		}
		return txn.Delete(k)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Transition compare-and-sets the sale status from -> to in a single
// transaction and returns the updated sale. A stored status other than
// from yields ErrStatusMismatch and leaves the record untouched.
func (s *Store) Transition(key domain.ListingKey, from, to domain.SaleStatus) (*domain.Sale, error) {
	k := []byte(key.String())
	var sale *domain.Sale
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			sale = new(domain.Sale)
			return json.Unmarshal(val, sale)
		}); err != nil {
			return err
		}
		if sale.Status != from {
			return errors.Wrapf(ErrStatusMismatch, "have %s, want %s", sale.Status, from)
		}
		sale.Status = to
		val, err := json.Marshal(sale)
		if err != nil {
			return errors.Wrap(err, "registry: encode sale")
		}
		return txn.Set(k, val)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// RemoveIfStatus deletes the sale only when its stored status matches
// want, returning the removed sale.
func (s *Store) RemoveIfStatus(key domain.ListingKey, want domain.SaleStatus) (*domain.Sale, error) {
	k := []byte(key.String())
	var sale *domain.Sale
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			sale = new(domain.Sale)
			return json.Unmarshal(val, sale)
		}); err != nil {
			return err
		}
		if sale.Status != want {
			return errors.Wrapf(ErrStatusMismatch, "have %s, want %s", sale.Status, want)
		}
		return txn.Delete(k)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// RemoveIfOwnerAndStatus deletes the sale only when it is owned by
// owner and its status matches want, all inside one transaction. The
// record can change hands between a caller's read and its remove; the
// in-transaction owner check keeps authorization bound to the record
// actually deleted.
func (s *Store) RemoveIfOwnerAndStatus(key domain.ListingKey, owner string, want domain.SaleStatus) (*domain.Sale, error) {
	k := []byte(key.String())
	var sale *domain.Sale
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			sale = new(domain.Sale)
			return json.Unmarshal(val, sale)
		}); err != nil {
			return err
		}
		if sale.Owner != owner {
			return errors.Wrapf(domain.ErrNotOwner, "caller %s, owner %s", owner, sale.Owner)
		}
		if sale.Status != want {
			return errors.Wrapf(ErrStatusMismatch, "have %s, want %s", sale.Status, want)
		}
		return txn.Delete(k)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Listing pairs a key with its sale for iteration results.
type Listing struct {
	Key  domain.ListingKey `json:"key"`
	Sale *domain.Sale      `json:"sale"`
}

// List returns every current listing. Order follows the key encoding.
func (s *Store) List() ([]Listing, error) {
	var out []Listing
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := parseKey(string(item.Key()))
			var sale domain.Sale
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &sale)
			}); err != nil {
				return err
			}
			out = append(out, Listing{Key: key, Sale: &sale})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseKey(raw string) domain.ListingKey {
	service, asset, ok := strings.Cut(raw, ":")
	if !ok {
		return domain.ListingKey{AssetID: raw}
	}
	return domain.NewListingKey(service, asset)
}
