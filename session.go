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
)

// Session represents a connection to a database through an adapter. It
// runs the lifecycle hooks of the records it persists and removes.
type Session interface {
	// Name returns the name of the database.
	Name() string

	// Context returns the context the session is running in.
	Context() context.Context

	// WithContext returns a copy of the session bound to ctx.
	WithContext(ctx context.Context) Session

	// Collection returns the store for the given collection name.
	Collection(name string) Store

	// Insert looks up the record's store and inserts rec into it.
	Insert(rec Record) error

	// Find is a shortcut for proto.Store(sess).Find(proto, cond,
	// withTrashed).
	Find(proto Record, cond Cond, withTrashed bool) ([]Record, error)

	// Delete soft-deletes rec if it embeds SoftDeletes and permanently
	// removes it otherwise. BeforeDelete and AfterDelete hooks are called
	// around the operation.
	Delete(rec Record) error

	// ForceDelete permanently removes rec. During the call
	// rec.ForceDeleting() reports true.
	ForceDelete(rec Record) error

	// Restore clears the soft-delete marker of rec. BeforeRestore and
	// AfterRestore hooks are called around the operation.
	Restore(rec Record) error

	// Tx runs fn within a transaction.
	Tx(fn func(sess Session) error) error

	// Close terminates the session.
	Close() error
}

type session struct {
	backend Backend
	ctx     context.Context
}

// NewSession returns a Session on top of the given backend.
func NewSession(backend Backend) Session {
	return &session{
		backend: backend,
		ctx:     context.Background(),
	}
}

func (s *session) Name() string {
	return s.backend.Name()
}

func (s *session) Context() context.Context {
	return s.ctx
}

func (s *session) WithContext(ctx context.Context) Session {
	return &session{
		backend: s.backend,
		ctx:     ctx,
	}
}

func (s *session) Collection(name string) Store {
	return s.backend.Collection(s.ctx, name)
}

func (s *session) store(rec Record) (Store, error) {
	if rec == nil {
		return nil, ErrExpectingNonNilRecord
	}
	st := rec.Store(s)
	if st == nil {
		return nil, ErrInvalidCollection
	}
	return st, nil
}

func (s *session) Insert(rec Record) error {
	st, err := s.store(rec)
	if err != nil {
		return err
	}
	return st.Insert(rec)
}

func (s *session) Find(proto Record, cond Cond, withTrashed bool) ([]Record, error) {
	st, err := s.store(proto)
	if err != nil {
		return nil, err
	}
	return st.Find(proto, cond, withTrashed)
}

func (s *session) Delete(rec Record) error {
	return s.delete(rec, false)
}

func (s *session) ForceDelete(rec Record) error {
	return s.delete(rec, true)
}

func (s *session) delete(rec Record, force bool) error {
	st, err := s.store(rec)
	if err != nil {
		return err
	}

	sd, soft := rec.(SoftDeletable)
	soft = soft && !force

	var softStore SoftDeleteStore
	if soft {
		if softStore, soft = st.(SoftDeleteStore); !soft {
			return ErrStoreNotSoftDeletable
		}
	}

	if sd != nil && force {
		sd.setForceDeleting(true)
		defer sd.setForceDeleting(false)
	}

	if m, ok := rec.(BeforeDeleteHook); ok {
		if err := m.BeforeDelete(s); err != nil {
			return err
		}
	}

	if soft {
		at := time.Now().UTC()
		if err := softStore.MarkDeleted(rec, at); err != nil {
			return err
		}
		sd.markDeleted(at)
	} else {
		if err := st.Delete(rec); err != nil {
			return err
		}
	}

	if m, ok := rec.(AfterDeleteHook); ok {
		if err := m.AfterDelete(s); err != nil {
			return err
		}
	}

	return nil
}

func (s *session) Restore(rec Record) error {
	st, err := s.store(rec)
	if err != nil {
		return err
	}

	sd, ok := rec.(SoftDeletable)
	if !ok {
		return &SoftDeleteNotSupportedError{Type: TypeName(rec)}
	}

	softStore, ok := st.(SoftDeleteStore)
	if !ok {
		return ErrStoreNotSoftDeletable
	}

	if m, ok := rec.(BeforeRestoreHook); ok {
		if err := m.BeforeRestore(s); err != nil {
			return err
		}
	}

	if err := softStore.MarkRestored(rec); err != nil {
		return err
	}
	sd.markRestored()

	if m, ok := rec.(AfterRestoreHook); ok {
		if err := m.AfterRestore(s); err != nil {
			return err
		}
	}

	return nil
}

func (s *session) Tx(fn func(sess Session) error) error {
	return s.backend.Tx(s.ctx, func(tx Backend) error {
		return fn(&session{
			backend: tx,
			ctx:     s.ctx,
		})
	})
}

func (s *session) Close() error {
	return s.backend.Close()
}
