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

package cockroachdb

import (
	"os"

	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/testsuite"
)

var settings = ConnectionURL{
	Database: os.Getenv("DB_NAME"),
	User:     os.Getenv("DB_USERNAME"),
	Password: os.Getenv("DB_PASSWORD"),
	Host:     os.Getenv("DB_HOST") + ":" + os.Getenv("DB_PORT"),
	Options: map[string]string{
		"timezone": "UTC",
	},
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

	batch := []string{}
	for _, table := range testsuite.Tables {
		batch = append(batch, `DROP TABLE IF EXISTS "`+table+`"`)
	}

	batch = append(batch,
		`CREATE TABLE authors (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			name VARCHAR(60),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE posts (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			author_id BIGINT,
			title VARCHAR(80),
			body TEXT,
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE comments (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			post_id BIGINT,
			body TEXT
		)`,

		`CREATE TABLE soft_delete_comments (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			post_id BIGINT,
			body TEXT,
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE post_types (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			post_id BIGINT,
			label VARCHAR(60)
		)`,

		`CREATE TABLE authors__post_types (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			author_id BIGINT,
			posttype_id BIGINT
		)`,

		`CREATE TABLE labels (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			label VARCHAR(60)
		)`,

		`CREATE TABLE authors__labels (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			author_id BIGINT,
			label_id BIGINT,
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE teams (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			name VARCHAR(60),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE members (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			team_id BIGINT,
			name VARCHAR(60),
			deleted_at TIMESTAMPTZ
		)`,

		`CREATE TABLE nodes (
			id INT8 PRIMARY KEY DEFAULT unique_rowid(),
			parent_id BIGINT,
			name VARCHAR(60),
			deleted_at TIMESTAMPTZ
		)`,
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
