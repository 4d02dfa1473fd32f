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

// Package sqlite is the SQLite adapter, on top of the
// github.com/mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver.
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/sqladapter"
)

// Adapter is the public name of the adapter.
const Adapter = `sqlite`

var registeredAdapter = sqladapter.RegisterAdapter(Adapter, &dialect{})

// Open opens a new connection with the SQLite server.
func Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return registeredAdapter.OpenDSN(connURL)
}

// New wraps a regular *sql.DB session.
func New(sqlDB *sql.DB) (cascade.Session, error) {
	return registeredAdapter.New(sqlDB)
}

type dialect struct{}

func (*dialect) DriverName() string {
	return "sqlite3"
}

func (*dialect) Rebind(query string) string {
	return query
}

func (*dialect) QuoteIdent(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

func (d *dialect) InsertQuery(table string, columns []string, pk string) (string, bool) {
	return "INSERT INTO " + d.QuoteIdent(table) +
		" (" + sqladapter.QuoteIdents(d.QuoteIdent, columns) + ")" +
		" VALUES (" + sqladapter.Placeholders(len(columns)) + ")", false
}

// LookupName returns the path of the main database file, or "main" for
// in-memory databases.
func (*dialect) LookupName(ctx context.Context, q sqladapter.Querier) (string, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA database_list`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			seq        int
			name, file sql.NullString
		)
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return "", err
		}
		if name.String != "main" {
			continue
		}
		if file.String != "" {
			return file.String, nil
		}
		return name.String, nil
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return "main", nil
}

func (d *dialect) PrimaryKeys(ctx context.Context, q sqladapter.Querier, table string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `PRAGMA table_info(`+d.QuoteIdent(table)+`)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type column struct {
		name string
		pk   int
	}

	found := false
	columns := []column{}
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   sql.NullString
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		found = true
		if pk > 0 {
			columns = append(columns, column{name: name, pk: pk})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, cascade.ErrCollectionDoesNotExist
	}

	pks := make([]string, len(columns))
	for _, c := range columns {
		pks[c.pk-1] = c.name
	}
	return pks, nil
}
