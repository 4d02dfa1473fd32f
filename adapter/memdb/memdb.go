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

// Package memdb is an in-memory adapter. Tables are created on first use,
// integer primary keys are assigned from a per-table sequence and
// transactions are implemented by snapshot and restore.
//
// Failures can be injected per table for testing:
//
//	memdb.Mock(sess).Collection("comments").OnDelete(func(rec cascade.Record) error {
//		return errors.New("disk full")
//	})
package memdb

import (
	"context"
	"strings"
	"sync"

	"github.com/upper/cascade"
)

// Adapter is the internal name of the adapter.
const Adapter = "memdb"

func init() {
	cascade.RegisterAdapter(Adapter, &adapter{})
}

type adapter struct{}

func (*adapter) Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return Open(connURL)
}

var (
	databasesMu sync.Mutex
	databases   = map[string]*MemDB{}
)

// Open returns a session on the in-memory database named by connURL.
func Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	if connURL == nil {
		return nil, cascade.ErrMissingConnURL
	}
	u, err := ParseURL(connURL.String())
	if err != nil {
		return nil, err
	}

	databasesMu.Lock()
	defer databasesMu.Unlock()

	m, ok := databases[u.Database]
	if !ok {
		m = &MemDB{
			name:   u.Database,
			tables: map[string]*Table{},
		}
		databases[u.Database] = m
	}
	m.refs++

	return cascade.NewSession(&backend{MemDB: m}), nil
}

// Mock returns the database behind sess. It panics if sess was not opened
// by this adapter.
func Mock(sess cascade.Session) *MemDB {
	databasesMu.Lock()
	defer databasesMu.Unlock()

	m, ok := databases[sess.Name()]
	if !ok {
		panic("memdb: no such database: " + sess.Name())
	}
	return m
}

// MemDB is an in-memory database.
type MemDB struct {
	name string
	refs int

	mu     sync.Mutex
	tables map[string]*Table
	inTx   bool
}

// Name returns the name of the database.
func (m *MemDB) Name() string {
	return m.name
}

// Collection returns the named table, creating it if needed.
func (m *MemDB) Collection(name string) *Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.table(name)
}

func (m *MemDB) table(name string) *Table {
	name = strings.ToLower(name)
	t, ok := m.tables[name]
	if !ok {
		t = &Table{
			db:          m,
			name:        name,
			primaryKeys: []string{"id"},
		}
		m.tables[name] = t
	}
	return t
}

// Reset drops all tables.
func (m *MemDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tables = map[string]*Table{}
}

type snapshot map[string]tableState

type tableState struct {
	rows []row
	seq  int64
}

func (m *MemDB) snapshot() snapshot {
	snap := snapshot{}
	for name, t := range m.tables {
		rows := make([]row, len(t.rows))
		for i := range t.rows {
			rows[i] = t.rows[i].clone()
		}
		snap[name] = tableState{rows: rows, seq: t.seq}
	}
	return snap
}

func (m *MemDB) restore(snap snapshot) {
	for name, t := range m.tables {
		state := snap[name]
		t.rows = state.rows
		t.seq = state.seq
	}
}

// backend is the cascade.Backend view of a MemDB.
type backend struct {
	*MemDB
}

var _ cascade.Backend = (*backend)(nil)

func (b *backend) Collection(_ context.Context, name string) cascade.Store {
	return &store{t: b.MemDB.Collection(name)}
}

// Tx snapshots every table and restores the snapshot if fn fails. A Tx
// within a Tx joins the outer one.
func (b *backend) Tx(_ context.Context, fn func(cascade.Backend) error) error {
	m := b.MemDB

	m.mu.Lock()
	if m.inTx {
		m.mu.Unlock()
		return fn(b)
	}
	snap := m.snapshot()
	m.inTx = true
	m.mu.Unlock()

	err := fn(b)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inTx = false
	if err != nil {
		m.restore(snap)
	}
	return err
}

// Close releases the session. The data is dropped when the last session on
// the database is closed.
func (b *backend) Close() error {
	databasesMu.Lock()
	defer databasesMu.Unlock()

	m := b.MemDB
	m.refs--
	if m.refs <= 0 {
		delete(databases, m.name)
	}
	return nil
}
