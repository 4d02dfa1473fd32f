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

package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/testsuite"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCascade(t *testing.T) {
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST is not set")
	}
	suite.Run(t, &testsuite.CascadeTestSuite{
		Suite: testsuite.Suite{Helper: &Helper{}},
	})
}

func TestFilter(t *testing.T) {
	cond := cascade.Cond{"post_id": int64(3), "body": nil}

	assert.Equal(t, bson.D{
		{Key: "body", Value: nil},
		{Key: "post_id", Value: int64(3)},
	}, filter(&testsuite.Comment{}, cond, false))

	assert.Equal(t, bson.D{
		{Key: "body", Value: nil},
		{Key: "post_id", Value: int64(3)},
		{Key: "deleted_at", Value: nil},
	}, filter(&testsuite.SoftDeleteComment{}, cond, false))

	assert.Equal(t, bson.D{
		{Key: "body", Value: nil},
		{Key: "post_id", Value: int64(3)},
	}, filter(&testsuite.SoftDeleteComment{}, cond, true))

	assert.Equal(t, bson.D{}, filter(nil, nil, false))
}

func TestDecode(t *testing.T) {
	deletedAt := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	rec, err := decode(&testsuite.Post{}, bson.M{
		"_id":        primitive.NewObjectID(),
		"id":         int32(7),
		"title":      "Hello",
		"deleted_at": primitive.NewDateTimeFromTime(deletedAt),
		"unknown":    "ignored",
	})
	require.NoError(t, err)

	post, ok := rec.(*testsuite.Post)
	require.True(t, ok)
	assert.Equal(t, int64(7), post.ID)
	assert.Equal(t, "Hello", post.Title)
	require.NotNil(t, post.DeletedAt)
	assert.True(t, deletedAt.Equal(*post.DeletedAt))
	assert.True(t, post.Trashed())

	rec, err = decode(&testsuite.Post{}, bson.M{"id": int64(8), "deleted_at": nil})
	require.NoError(t, err)
	assert.False(t, rec.(*testsuite.Post).Trashed())

	_, err = decode(&testsuite.Post{}, bson.M{"title": bson.A{"not", "a", "string"}})
	assert.Error(t, err)
}

func TestTxNotSupported(t *testing.T) {
	b := &backend{}
	err := b.Tx(context.Background(), func(cascade.Backend) error {
		return nil
	})
	assert.True(t, errors.Is(err, cascade.ErrNotSupportedByAdapter))
}

func TestOpenMissingURL(t *testing.T) {
	_, err := Open(nil)
	assert.True(t, errors.Is(err, cascade.ErrMissingConnURL))

	_, err = Open(ConnectionURL{})
	assert.Error(t, err)
}
