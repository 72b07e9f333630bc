// Package instancestore is the content-addressed cache of instance bodies:
// a single bbolt bucket keyed by DID, holding the raw PACE text for each
// instance body ever downloaded or imported.
package instancestore

import (
	"context"
	"fmt"

	"github.com/cuemby/stride/pkg/ids"
	bolt "go.etcd.io/bbolt"
)

var bucketBodies = []byte("bodies")

// Origin is the subset of the origin client this store needs: downloading
// an instance body by id.
type Origin interface {
	DownloadInstanceBody(ctx context.Context, iid ids.IID) ([]byte, error)
}

// Store is a bbolt-backed cache of instance bodies.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the instance-body database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening instance store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBodies)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bodies bucket: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Get returns the cached body for did, or ok=false on a cache miss.
func (s *Store) Get(did ids.DID) (body []byte, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBodies).Get(did.BytesKey())
		if v != nil {
			body = append([]byte(nil), v...)
			ok = true
		}
		return nil
	})
	return body, ok, err
}

// Put inserts or overwrites the body for did. A duplicate insert of
// identical bytes is not an error: bbolt's single-writer transaction model
// makes the Put idempotent, so no explicit tolerate-duplicate handling is
// needed here the way the original SQL-backed store required.
func (s *Store) Put(did ids.DID, body []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketBodies).Put(did.BytesKey(), body)
	})
}

// FetchByDID returns the body for did, downloading it from origin on a
// cache miss and persisting the result.
func (s *Store) FetchByDID(ctx context.Context, origin Origin, iid ids.IID, did ids.DID) ([]byte, error) {
	if body, ok, err := s.Get(did); err != nil {
		return nil, err
	} else if ok {
		return body, nil
	}
	body, err := origin.DownloadInstanceBody(ctx, iid)
	if err != nil {
		return nil, fmt.Errorf("downloading body for instance %s: %w", iid, err)
	}
	if err := s.Put(did, body); err != nil {
		return nil, fmt.Errorf("caching body for did %s: %w", did, err)
	}
	return body, nil
}

// MergeFromFile copies every body present in otherPath but absent locally
// into this store, used by "update" when --replace-all is not given.
func (s *Store) MergeFromFile(otherPath string) (copied int, err error) {
	other, err := bolt.Open(otherPath, 0o600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return 0, fmt.Errorf("opening merge source %s: %w", otherPath, err)
	}
	defer other.Close()

	err = other.View(func(otx *bolt.Tx) error {
		b := otx.Bucket(bucketBodies)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			return s.db.Update(func(tx *bolt.Tx) error {
				bucket := tx.Bucket(bucketBodies)
				if bucket.Get(k) != nil {
					return nil
				}
				copied++
				return bucket.Put(k, v)
			})
		})
	})
	if err != nil {
		return copied, fmt.Errorf("merging from %s: %w", otherPath, err)
	}
	return copied, nil
}
