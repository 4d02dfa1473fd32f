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

package sqlite

import (
	"os"
	"path/filepath"

	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/testsuite"
)

var settings = ConnectionURL{
	Database: databasePath(),
}

func databasePath() string {
	if name := os.Getenv("DB_NAME"); name != "" {
		return name
	}
	return filepath.Join(os.TempDir(), "cascade_sqlite_test.db")
}

type Helper struct {
	sess cascade.Session
}

func (h *Helper) Session() cascade.Session {
	return h.sess
}

func (h *Helper) Adapter() string {
	return Adapter
}

func (h *Helper) TearDown() error {
	return h.sess.Close()
}

func (h *Helper) TearUp() error {
	d, err := registeredAdapter.OpenDatabase(settings)
	if err != nil {
		return err
	}
	d.Driver().SetMaxOpenConns(1)

	batch := []string{
		`PRAGMA foreign_keys=OFF`,

		`BEGIN TRANSACTION`,
	}

	for _, table := range testsuite.Tables {
		batch = append(batch, `DROP TABLE IF EXISTS "`+table+`"`)
	}

	batch = append(batch,
		`CREATE TABLE authors (
			id integer primary key,
			name varchar(60),
			deleted_at datetime
		)`,

		`CREATE TABLE posts (
			id integer primary key,
			author_id integer,
			title varchar(80),
			body text,
			deleted_at datetime
		)`,

		`CREATE TABLE comments (
			id integer primary key,
			post_id integer,
			body text
		)`,

		`CREATE TABLE soft_delete_comments (
			id integer primary key,
			post_id integer,
			body text,
			deleted_at datetime
		)`,

		`CREATE TABLE post_types (
			id integer primary key,
			post_id integer,
			label varchar(60)
		)`,

		`CREATE TABLE authors__post_types (
			id integer primary key,
			author_id integer,
			posttype_id integer
		)`,

		`CREATE TABLE labels (
			id integer primary key,
			label varchar(60)
		)`,

		`CREATE TABLE authors__labels (
			id integer primary key,
			author_id integer,
			label_id integer,
			deleted_at datetime
		)`,

		`CREATE TABLE teams (
			id integer primary key,
			name varchar(60),
			deleted_at datetime
		)`,

		`CREATE TABLE members (
			id integer primary key,
			team_id integer,
			name varchar(60),
			deleted_at datetime
		)`,

		`CREATE TABLE nodes (
			id integer primary key,
			parent_id integer,
			name varchar(60),
			deleted_at datetime
		)`,

		`COMMIT`,
	)

	for _, query := range batch {
		if _, err := d.Driver().Exec(query); err != nil {
			return err
		}
	}
	d.ClearCache()

	h.sess = cascade.NewSession(d)
	return nil
}

var _ testsuite.Helper = &Helper{}
