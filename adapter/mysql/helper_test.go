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

package mysql

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
		"loc": "UTC",
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
		batch = append(batch, "DROP TABLE IF EXISTS `"+table+"`")
	}

	batch = append(batch,
		`CREATE TABLE authors (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			name VARCHAR(60),
			deleted_at DATETIME(6) NULL
		)`,

		`CREATE TABLE posts (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			author_id BIGINT,
			title VARCHAR(80),
			body TEXT,
			deleted_at DATETIME(6) NULL
		)`,

		`CREATE TABLE comments (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			post_id BIGINT,
			body TEXT
		)`,

		`CREATE TABLE soft_delete_comments (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			post_id BIGINT,
			body TEXT,
			deleted_at DATETIME(6) NULL
		)`,

		`CREATE TABLE post_types (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			post_id BIGINT,
			label VARCHAR(60)
		)`,

		`CREATE TABLE authors__post_types (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			author_id BIGINT,
			posttype_id BIGINT
		)`,

		`CREATE TABLE labels (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			label VARCHAR(60)
		)`,

		`CREATE TABLE authors__labels (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			author_id BIGINT,
			label_id BIGINT,
			deleted_at DATETIME(6) NULL
		)`,

		`CREATE TABLE teams (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			name VARCHAR(60),
			deleted_at DATETIME(6) NULL
		)`,

		`CREATE TABLE members (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			team_id BIGINT,
			name VARCHAR(60),
			deleted_at DATETIME(6) NULL
		)`,

		`CREATE TABLE nodes (
			id BIGINT UNSIGNED PRIMARY KEY NOT NULL AUTO_INCREMENT,
			parent_id BIGINT,
			name VARCHAR(60),
			deleted_at DATETIME(6) NULL
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
