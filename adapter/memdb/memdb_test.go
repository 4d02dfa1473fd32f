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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/testsuite"
)

type item struct {
	ID    int64  `db:"id,omitempty"`
	Title string `db:"title"`

	cascade.SoftDeletes
}

func (*item) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("items")
}

func TestCascade(t *testing.T) {
	suite.Run(t, &testsuite.CascadeTestSuite{
		Suite: testsuite.Suite{Helper: &Helper{}},
	})
}

func TestOpen(t *testing.T) {
	sess, err := cascade.Open(Adapter, ConnectionURL{Database: "open_test"})
	require.NoError(t, err)
	defer sess.Close()

	assert.Equal(t, "open_test", sess.Name())

	_, err = Open(nil)
	assert.True(t, errors.Is(err, cascade.ErrMissingConnURL))
}

func TestSharedDatabase(t *testing.T) {
	a, err := Open(ConnectionURL{Database: "shared_test"})
	require.NoError(t, err)

	b, err := Open(ConnectionURL{Database: "shared_test"})
	require.NoError(t, err)

	require.NoError(t, a.Insert(&item{Title: "shared"}))

	records, err := b.Find(&item{}, cascade.Cond{}, false)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	require.NoError(t, a.Close())
	require.NoError(t, b.Close())

	c, err := Open(ConnectionURL{Database: "shared_test"})
	require.NoError(t, err)
	defer c.Close()

	records, err = c.Find(&item{}, cascade.Cond{}, false)
	require.NoError(t, err)
	assert.Len(t, records, 0, "data is dropped with the last session")
}

func TestStore(t *testing.T) {
	sess, err := Open(ConnectionURL{Database: "store_test"})
	require.NoError(t, err)
	defer sess.Close()

	first := &item{Title: "first"}
	require.NoError(t, sess.Insert(first))
	assert.Equal(t, int64(1), first.ID)

	second := &item{Title: "second"}
	require.NoError(t, sess.Insert(second))
	assert.Equal(t, int64(2), second.ID)

	st := sess.Collection("items")
	assert.Equal(t, "items", st.Name())
	assert.Equal(t, []string{"id"}, st.PrimaryKeys())

	{
		records, err := st.Find(&item{}, cascade.Cond{"title": "second"}, false)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, second.ID, records[0].(*item).ID)
	}

	{
		soft := st.(cascade.SoftDeleteStore)
		at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, soft.MarkDeleted(first, at))

		ok, err := st.Exists(&item{}, cascade.Cond{"id": first.ID}, false)
		require.NoError(t, err)
		assert.False(t, ok)

		records, err := st.Find(&item{}, cascade.Cond{"id": first.ID}, true)
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.NotNil(t, records[0].(*item).DeletedAt)
		assert.True(t, at.Equal(*records[0].(*item).DeletedAt))

		records, err = st.Find(&item{}, cascade.Cond{"deleted_at": nil}, true)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		require.NoError(t, soft.MarkRestored(first))

		ok, err = st.Exists(&item{}, cascade.Cond{"id": first.ID}, false)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	{
		require.NoError(t, st.Delete(second))
		assert.Equal(t, 1, Mock(sess).Collection("items").Len())

		// Deleting a missing record is not an error.
		require.NoError(t, st.Delete(second))
	}

	{
		err := st.Delete(&item{})
		assert.True(t, errors.Is(err, cascade.ErrZeroRecordID))
	}
}

func TestInjectedFailures(t *testing.T) {
	sess, err := Open(ConnectionURL{Database: "failures_test"})
	require.NoError(t, err)
	defer sess.Close()

	post := &testsuite.Post{Title: "Failing"}
	require.NoError(t, sess.Insert(post))
	for i := 0; i < 3; i++ {
		require.NoError(t, sess.Insert(&testsuite.Comment{PostID: post.ID, Body: "comment"}))
	}

	errDiskFull := errors.New("disk full")

	calls := 0
	Mock(sess).Collection("comments").OnDelete(func(rec cascade.Record) error {
		calls++
		if calls == 2 {
			return errDiskFull
		}
		return nil
	})

	err = sess.Delete(post)
	assert.Equal(t, errDiskFull, err, "storage errors are returned unchanged")
	assert.False(t, post.Trashed())
	assert.Equal(t, 2, Mock(sess).Collection("comments").Len())

	Mock(sess).Collection("comments").OnDelete(nil)
	Mock(sess).Collection("posts").OnMarkDeleted(func(rec cascade.Record) error {
		return errDiskFull
	})

	err = sess.Delete(post)
	assert.Equal(t, errDiskFull, err)
	assert.False(t, post.Trashed())
	assert.Equal(t, 0, Mock(sess).Collection("comments").Len())
}

func TestInjectedFindFailure(t *testing.T) {
	sess, err := Open(ConnectionURL{Database: "find_failure_test"})
	require.NoError(t, err)
	defer sess.Close()

	post := &testsuite.Post{Title: "Failing"}
	require.NoError(t, sess.Insert(post))

	errTimeout := errors.New("timeout")
	Mock(sess).Collection("comments").OnFind(func(cond cascade.Cond) error {
		return errTimeout
	})

	err = sess.Delete(post)
	assert.Equal(t, errTimeout, err)
	assert.Equal(t, 1, Mock(sess).Collection("posts").Len())
}

func TestTxRollback(t *testing.T) {
	sess, err := Open(ConnectionURL{Database: "tx_test"})
	require.NoError(t, err)
	defer sess.Close()

	require.NoError(t, sess.Insert(&item{Title: "kept"}))

	errAbort := errors.New("abort")
	err = sess.Tx(func(tx cascade.Session) error {
		if err := tx.Insert(&item{Title: "discarded"}); err != nil {
			return err
		}
		return tx.Tx(func(nested cascade.Session) error {
			return errAbort
		})
	})
	assert.Equal(t, errAbort, err)

	records, err := sess.Find(&item{}, cascade.Cond{}, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].(*item).Title)

	next := &item{Title: "next"}
	require.NoError(t, sess.Insert(next))
	assert.Equal(t, int64(2), next.ID, "sequences are rolled back too")
}

func TestCompositeKeys(t *testing.T) {
	sess, err := Open(ConnectionURL{Database: "composite_test"})
	require.NoError(t, err)
	defer sess.Close()

	Mock(sess).Collection("items").SetPrimaryKeys("id", "title")

	err = sess.Insert(&item{Title: "missing id"})
	assert.True(t, errors.Is(err, cascade.ErrZeroRecordID))

	require.NoError(t, sess.Insert(&item{ID: 7, Title: "seven"}))
	require.NoError(t, sess.Delete(&item{ID: 7, Title: "seven"}))

	records, err := sess.Find(&item{}, cascade.Cond{}, false)
	require.NoError(t, err)
	assert.Len(t, records, 0)
}
