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

package memdb

import (
	"errors"
	"reflect"
	"time"

	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/mapper"
)

type row map[string]interface{}

func (r row) clone() row {
	c := make(row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Table is an in-memory table. Its On* methods install functions that are
// called before the matching store operation; a non-nil error aborts the
// operation and is returned as is.
type Table struct {
	db          *MemDB
	name        string
	primaryKeys []string
	rows        []row
	seq         int64

	onInsert       func(cascade.Record) error
	onFind         func(cascade.Cond) error
	onDelete       func(cascade.Record) error
	onMarkDeleted  func(cascade.Record) error
	onMarkRestored func(cascade.Record) error
}

// Name returns the name of the table.
func (t *Table) Name() string {
	return t.name
}

// SetPrimaryKeys overrides the default primary key ("id").
func (t *Table) SetPrimaryKeys(keys ...string) *Table {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.primaryKeys = keys
	return t
}

// OnInsert sets a hook that runs before every insert. A non-nil error
// aborts the insert and is returned to the caller.
func (t *Table) OnInsert(fn func(cascade.Record) error) *Table {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.onInsert = fn
	return t
}

// OnFind sets a hook that runs with the condition of every Find and Exists.
func (t *Table) OnFind(fn func(cascade.Cond) error) *Table {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.onFind = fn
	return t
}

// OnDelete sets a hook that runs before a row is permanently removed.
func (t *Table) OnDelete(fn func(cascade.Record) error) *Table {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.onDelete = fn
	return t
}

// OnMarkDeleted sets a hook that runs before a row is soft deleted.
func (t *Table) OnMarkDeleted(fn func(cascade.Record) error) *Table {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.onMarkDeleted = fn
	return t
}

// OnMarkRestored sets a hook that runs before a row is restored.
func (t *Table) OnMarkRestored(fn func(cascade.Record) error) *Table {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	t.onMarkRestored = fn
	return t
}

// Len returns the number of rows in the table, soft-deleted ones included.
func (t *Table) Len() int {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	return len(t.rows)
}

type store struct {
	t *Table
}

var _ cascade.SoftDeleteStore = (*store)(nil)

func (s *store) Name() string {
	return s.t.name
}

func (s *store) PrimaryKeys() []string {
	s.t.db.mu.Lock()
	defer s.t.db.mu.Unlock()

	return append([]string(nil), s.t.primaryKeys...)
}

func (s *store) hook(fn func(*Table) func(cascade.Record) error, rec cascade.Record) error {
	s.t.db.mu.Lock()
	h := fn(s.t)
	s.t.db.mu.Unlock()

	if h == nil {
		return nil
	}
	return h(rec)
}

func (s *store) Insert(rec cascade.Record) error {
	if err := s.hook(func(t *Table) func(cascade.Record) error { return t.onInsert }, rec); err != nil {
		return err
	}

	columns, values, err := mapper.Map(rec)
	if err != nil {
		return err
	}
	r := row{}
	for i := range columns {
		r[columns[i]] = normalize(values[i])
	}

	t := s.t
	t.db.mu.Lock()
	var generated []string
	for _, key := range t.primaryKeys {
		id, ok := r[key]
		if ok && id != nil && !mapper.IsZero(id) {
			if n, isInt := id.(int64); isInt && n > t.seq {
				t.seq = n
			}
			continue
		}
		if len(t.primaryKeys) > 1 {
			t.db.mu.Unlock()
			return cascade.ErrZeroRecordID
		}
		t.seq++
		r[key] = t.seq
		generated = append(generated, key)
	}
	t.rows = append(t.rows, r)
	t.db.mu.Unlock()

	for _, key := range generated {
		if err := mapper.Set(rec, key, r[key]); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) match(proto cascade.Record, cond cascade.Cond, withTrashed bool) ([]row, error) {
	t := s.t

	t.db.mu.Lock()
	onFind := t.onFind
	t.db.mu.Unlock()

	if onFind != nil {
		if err := onFind(cond); err != nil {
			return nil, err
		}
	}

	skipTrashed := !withTrashed && cascade.SupportsSoftDelete(proto)

	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	rows := []row{}
	for _, r := range t.rows {
		if skipTrashed && r[cascade.DeletedAtColumn] != nil {
			continue
		}
		if matches(r, cond) {
			rows = append(rows, r.clone())
		}
	}
	return rows, nil
}

func (s *store) Find(proto cascade.Record, cond cascade.Cond, withTrashed bool) ([]cascade.Record, error) {
	rows, err := s.match(proto, cond, withTrashed)
	if err != nil {
		return nil, err
	}

	records := make([]cascade.Record, 0, len(rows))
	for _, r := range rows {
		rec := mapper.New(proto).(cascade.Record)
		for column, value := range r {
			if err := mapper.Set(rec, column, value); err != nil {
				if errors.Is(err, mapper.ErrNoSuchField) {
					continue
				}
				return nil, err
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *store) Exists(proto cascade.Record, cond cascade.Cond, withTrashed bool) (bool, error) {
	rows, err := s.match(proto, cond, withTrashed)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// update applies fn to the rows that hold rec.
func (s *store) update(rec cascade.Record, fn func(t *Table, i int)) error {
	cond, err := cascade.KeyCond(s, rec)
	if err != nil {
		return err
	}

	t := s.t
	t.db.mu.Lock()
	defer t.db.mu.Unlock()

	for i := len(t.rows) - 1; i >= 0; i-- {
		if matches(t.rows[i], cond) {
			fn(t, i)
		}
	}
	return nil
}

func (s *store) Delete(rec cascade.Record) error {
	if err := s.hook(func(t *Table) func(cascade.Record) error { return t.onDelete }, rec); err != nil {
		return err
	}
	return s.update(rec, func(t *Table, i int) {
		t.rows = append(t.rows[:i], t.rows[i+1:]...)
	})
}

func (s *store) MarkDeleted(rec cascade.Record, at time.Time) error {
	if err := s.hook(func(t *Table) func(cascade.Record) error { return t.onMarkDeleted }, rec); err != nil {
		return err
	}
	return s.update(rec, func(t *Table, i int) {
		t.rows[i][cascade.DeletedAtColumn] = at
	})
}

func (s *store) MarkRestored(rec cascade.Record) error {
	if err := s.hook(func(t *Table) func(cascade.Record) error { return t.onMarkRestored }, rec); err != nil {
		return err
	}
	return s.update(rec, func(t *Table, i int) {
		t.rows[i][cascade.DeletedAtColumn] = nil
	})
}

func matches(r row, cond cascade.Cond) bool {
	for column, want := range cond {
		want = normalize(want)
		have := r[column]
		if want == nil || have == nil {
			if want != have {
				return false
			}
			continue
		}
		if !equal(have, want) {
			return false
		}
	}
	return true
}

// normalize dereferences pointers and widens numbers so that values coming
// from differently typed fields compare equal.
func normalize(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return string(v.Bytes())
		}
	}
	return v.Interface()
}

func equal(a, b interface{}) bool {
	switch x := a.(type) {
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Equal(y)
		}
		return false
	case int64:
		if y, ok := b.(float64); ok {
			return float64(x) == y
		}
	case float64:
		if y, ok := b.(int64); ok {
			return x == float64(y)
		}
	}
	return reflect.DeepEqual(a, b)
}
