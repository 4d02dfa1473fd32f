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

// Package mssql is the SQL Server adapter, on top of the
// github.com/denisenkom/go-mssqldb driver.
package mssql

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver.
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/sqladapter"
)

// Adapter is the public name of the adapter.
const Adapter = `mssql`

var registeredAdapter = sqladapter.RegisterAdapter(Adapter, &dialect{})

// Open opens a new connection with the SQL Server.
func Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return registeredAdapter.OpenDSN(connURL)
}

// New wraps a regular *sql.DB session.
func New(sqlDB *sql.DB) (cascade.Session, error) {
	return registeredAdapter.New(sqlDB)
}

type dialect struct{}

func (*dialect) DriverName() string {
	return "sqlserver"
}

func (*dialect) Rebind(query string) string {
	return sqladapter.ReplaceWithAtSign(query)
}

func (*dialect) QuoteIdent(name string) string {
	return "[" + strings.Replace(name, "]", "]]", -1) + "]"
}

func (d *dialect) InsertQuery(table string, columns []string, pk string) (string, bool) {
	query := "INSERT INTO " + d.QuoteIdent(table)
	if len(columns) > 0 {
		query += " (" + sqladapter.QuoteIdents(d.QuoteIdent, columns) + ")"
	}
	returning := pk != ""
	if returning {
		query += " OUTPUT INSERTED." + d.QuoteIdent(pk)
	}
	if len(columns) == 0 {
		return query + " DEFAULT VALUES", returning
	}
	return query + " VALUES (" + sqladapter.Placeholders(len(columns)) + ")", returning
}

func (*dialect) LookupName(ctx context.Context, q sqladapter.Querier) (string, error) {
	var name string
	if err := q.QueryRowContext(ctx, `SELECT DB_NAME()`).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}

func (*dialect) PrimaryKeys(ctx context.Context, q sqladapter.Querier, table string) ([]string, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM information_schema.tables
		WHERE table_catalog = DB_NAME() AND table_name = @p1
	`, table).Scan(&n)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, cascade.ErrCollectionDoesNotExist
	}

	rows, err := q.QueryContext(ctx, `
		SELECT k.column_name
		FROM information_schema.table_constraints AS c
		JOIN information_schema.key_column_usage AS k
			ON k.constraint_name = c.constraint_name AND k.table_name = c.table_name
		WHERE c.table_catalog = DB_NAME() AND c.table_name = @p1 AND c.constraint_type = 'PRIMARY KEY'
		ORDER BY k.ordinal_position
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
