// Copyright (c) 2012-present The upper.io/db authors. All rights reserved.
//
// Permission is hereby granted, free of charge, to any person obtaining
// a copy of this software and associated documentation files (the
// "Software"), to deal in the Software without restriction, including
// without limitation the rights to use, copy, modify, merge, publish,
// distribute, sublicense, and/or sell copies of the Software, and to
// permit persons to whom the Software is furnished to do so, subject to
// the following conditions:
//
// The above copyright notice and this permission notice shall be
// included in all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
// MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE
// LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION
// OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION
// WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package cascade

import (
	"context"
	"time"

	"github.com/upper/cascade/internal/mapper"
)

// Cond is a set of column/value equality constraints joined by AND. A nil
// value matches NULL.
//
// Example:
//
//	cascade.Cond{"post_id": post.ID}
type Cond map[string]interface{}

// Store represents a collection of records of one type.
type Store interface {
	// Name returns the name of the underlying table or collection.
	Name() string

	// PrimaryKeys returns the names of the primary key columns.
	PrimaryKeys() []string

	// Insert adds rec to the store. If the primary key of rec was left
	// empty, the generated key is written back into rec.
	Insert(rec Record) error

	// Find returns all the records matching cond as new values of the same
	// type as proto. Soft-deleted records are skipped unless withTrashed is
	// true; withTrashed is ignored if proto is not soft-deletable.
	Find(proto Record, cond Cond, withTrashed bool) ([]Record, error)

	// Exists reports whether at least one record matches cond.
	Exists(proto Record, cond Cond, withTrashed bool) (bool, error)

	// Delete permanently removes rec.
	Delete(rec Record) error
}

// SoftDeleteStore is a Store that can mark records as deleted and restore
// them.
type SoftDeleteStore interface {
	Store

	// MarkDeleted sets the deleted_at marker of rec.
	MarkDeleted(rec Record, at time.Time) error

	// MarkRestored clears the deleted_at marker of rec. Restoring a record
	// that no longer exists is not an error.
	MarkRestored(rec Record) error
}

// Backend is implemented by adapters, it provides stores and transactions
// to a Session.
type Backend interface {
	// Name returns the name of the database.
	Name() string

	// Collection returns the store for the named collection, bound to ctx.
	Collection(ctx context.Context, name string) Store

	// Tx runs fn within a transaction. The transaction is committed if fn
	// returns nil and rolled back otherwise.
	Tx(ctx context.Context, fn func(Backend) error) error

	// Close releases the resources held by the backend.
	Close() error
}

// KeyCond returns the primary key condition that identifies rec within st.
func KeyCond(st Store, rec Record) (Cond, error) {
	pKeys := st.PrimaryKeys()
	if len(pKeys) == 0 {
		return nil, ErrMissingPrimaryKeys
	}
	cond := make(Cond, len(pKeys))
	for _, key := range pKeys {
		value, err := mapper.Get(rec, key)
		if err != nil {
			return nil, err
		}
		if mapper.IsZero(value) {
			return nil, ErrZeroRecordID
		}
		cond[key] = value
	}
	return cond, nil
}
