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

// Package mysql is the MySQL adapter, on top of the
// github.com/go-sql-driver/mysql driver.
package mysql

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver.
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/sqladapter"
)

// Adapter is the public name of the adapter.
const Adapter = `mysql`

var registeredAdapter = sqladapter.RegisterAdapter(Adapter, &dialect{})

// Open opens a new connection with the MySQL server.
func Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return registeredAdapter.OpenDSN(connURL)
}

// New wraps a regular *sql.DB session. The DSN must set parseTime=true.
func New(sqlDB *sql.DB) (cascade.Session, error) {
	return registeredAdapter.New(sqlDB)
}

type dialect struct{}

func (*dialect) DriverName() string {
	return "mysql"
}

func (*dialect) Rebind(query string) string {
	return query
}

func (*dialect) QuoteIdent(name string) string {
	return "`" + strings.Replace(name, "`", "``", -1) + "`"
}

func (d *dialect) InsertQuery(table string, columns []string, pk string) (string, bool) {
	return "INSERT INTO " + d.QuoteIdent(table) +
		" (" + sqladapter.QuoteIdents(d.QuoteIdent, columns) + ")" +
		" VALUES (" + sqladapter.Placeholders(len(columns)) + ")", false
}

func (*dialect) LookupName(ctx context.Context, q sqladapter.Querier) (string, error) {
	var name sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT DATABASE()`).Scan(&name); err != nil {
		return "", err
	}
	return name.String, nil
}

func (*dialect) PrimaryKeys(ctx context.Context, q sqladapter.Querier, table string) ([]string, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_name = ?
	`, table).Scan(&n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, cascade.ErrCollectionDoesNotExist
	}

	rows, err := q.QueryContext(ctx, `
		SELECT column_name FROM information_schema.key_column_usage
		WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pks := []string{}
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, err
		}
		pks = append(pks, pk)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return pks, nil
}
