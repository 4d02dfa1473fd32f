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

package mapper

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embedded struct {
	DeletedAt *time.Time `db:"deleted_at"`
}

type item struct {
	ID      int64     `db:"id,omitempty"`
	Title   string    `db:"title"`
	Ignored string    `db:"-"`
	Created time.Time `db:"created_at"`
	Plain   int
	hidden  int

	embedded
}

type Stamp struct {
	DeletedAt *time.Time `db:"deleted_at"`
}

type withPointer struct {
	ID int64 `db:"id"`
	*Stamp
}

func names(fields []Field) []string {
	out := make([]string, len(fields))
	for i := range fields {
		out[i] = fields[i].Name
	}
	return out
}

func TestFields(t *testing.T) {
	fields := Fields(reflect.TypeOf(&item{}))
	assert.Equal(t, []string{"id", "title", "created_at", "plain", "deleted_at"}, names(fields))
	assert.True(t, fields[0].OmitEmpty)
	assert.False(t, fields[1].OmitEmpty)
	assert.Equal(t, []int{6, 0}, fields[4].Index)
}

func TestMap(t *testing.T) {
	columns, values, err := Map(&item{Title: "hello"})
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "created_at", "plain", "deleted_at"}, columns)
	assert.Equal(t, "hello", values[0])

	columns, _, err = Map(&item{ID: 3})
	require.NoError(t, err)
	assert.Equal(t, "id", columns[0])

	// Nil embedded pointers contribute no columns.
	columns, _, err = Map(&withPointer{ID: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, columns)

	_, _, err = Map(item{})
	assert.True(t, errors.Is(err, ErrExpectingPointerToStruct))
}

func TestGetSet(t *testing.T) {
	it := &item{}

	require.NoError(t, Set(it, "id", int32(7)))
	assert.Equal(t, int64(7), it.ID)

	require.NoError(t, Set(it, "title", []byte("bytes")))
	assert.Equal(t, "bytes", it.Title)

	now := time.Now()
	require.NoError(t, Set(it, "deleted_at", now))
	require.NotNil(t, it.DeletedAt)
	assert.True(t, now.Equal(*it.DeletedAt))

	require.NoError(t, Set(it, "deleted_at", nil))
	assert.Nil(t, it.DeletedAt)

	var nilTime *time.Time
	require.NoError(t, Set(it, "created_at", nilTime))
	assert.True(t, it.Created.IsZero())

	value, err := Get(it, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(7), value)

	_, err = Get(it, "nope")
	assert.True(t, errors.Is(err, ErrNoSuchField))

	err = Set(it, "title", 3.5)
	assert.Error(t, err)

	wp := &withPointer{}
	value, err = Get(wp, "deleted_at")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, Set(wp, "deleted_at", now))
	require.NotNil(t, wp.Stamp)
	assert.True(t, now.Equal(*wp.DeletedAt))
}

func TestTraversals(t *testing.T) {
	traversals := Mapper.TraversalsByName(reflect.TypeOf(item{}), []string{"title", "deleted_at", "unknown", "ignored"})
	require.Len(t, traversals, 4)
	assert.Equal(t, []int{1}, traversals[0])
	assert.Equal(t, []int{6, 0}, traversals[1])
	assert.Empty(t, traversals[2])
	assert.Empty(t, traversals[3])
}

func TestNewAndIsZero(t *testing.T) {
	n := New(&item{ID: 1})
	assert.IsType(t, &item{}, n)
	assert.Equal(t, int64(0), n.(*item).ID)

	assert.True(t, IsZero(nil))
	assert.True(t, IsZero(int64(0)))
	assert.True(t, IsZero(""))
	assert.False(t, IsZero(int64(1)))
	assert.False(t, IsZero("a"))
}
