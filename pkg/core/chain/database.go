// This Source Code Form is subject to the terms of the MIT License.
// If a copy of the MIT License was not distributed with this
// file, you can obtain one at https://opensource.org/licenses/MIT.
//
// Copyright (c) DUSK NETWORK. All rights reserved.

// Package chain is a reference implementation of the admission processor's
// ChainDatabase collaborator: a forged-transaction-id lookup backed by
// LevelDB.
package chain

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"
	lderrors "github.com/syndtr/goleveldb/leveldb/errors"
)

var forgedPrefix = []byte("forged:")

// Database is the forged-id store. MarkForged is not part of the
// ChainDatabase contract the admission processor consumes; it exists so
// that block acceptance (out of this package's scope) and tests can
// populate the store.
type Database interface {
	GetForgedTransactionIDs(ctx context.Context, ids []string) ([]string, error)
	MarkForged(id string) error
	Close() error
}

type ldb struct {
	storage *leveldb.DB
	path    string
}

// NewDatabase opens (or creates) a LevelDB-backed chain database at path,
// attempting recovery once if the existing store is corrupted.
func NewDatabase(path string) (Database, error) {
	storage, err := leveldb.OpenFile(path, nil)
	if lderrors.IsCorrupted(err) {
		storage, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}

	return &ldb{storage: storage, path: path}, nil
}

func (l *ldb) GetForgedTransactionIDs(_ context.Context, ids []string) ([]string, error) {
	var forged []string
	for _, id := range ids {
		ok, err := l.storage.Has(forgedKey(id), nil)
		if err != nil {
			return nil, err
		}
		if ok {
			forged = append(forged, id)
		}
	}
	return forged, nil
}

func (l *ldb) MarkForged(id string) error {
	return l.storage.Put(forgedKey(id), []byte{1}, nil)
}

func (l *ldb) Close() error {
	return l.storage.Close()
}

func forgedKey(id string) []byte {
	return append(append([]byte{}, forgedPrefix...), id...)
}
