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

// Package postgresql is the PostgreSQL adapter, on top of the
// github.com/jackc/pgx/v5 driver.
package postgresql

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgtype"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver.
	"github.com/lib/pq"
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/sqladapter"
)

// Adapter is the public name of the adapter.
const Adapter = `postgresql`

var registeredAdapter = sqladapter.RegisterAdapter(Adapter, &dialect{})

// Open opens a new connection with the PostgreSQL server.
func Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return registeredAdapter.OpenDSN(connURL)
}

// New wraps a regular *sql.DB session.
func New(sqlDB *sql.DB) (cascade.Session, error) {
	return registeredAdapter.New(sqlDB)
}

type dialect struct{}

func (*dialect) DriverName() string {
	return "pgx"
}

func (*dialect) Rebind(query string) string {
	return sqladapter.ReplaceWithDollarSign(query)
}

func (*dialect) QuoteIdent(name string) string {
	return pq.QuoteIdentifier(name)
}

func (d *dialect) InsertQuery(table string, columns []string, pk string) (string, bool) {
	query := "INSERT INTO " + d.QuoteIdent(table) +
		" (" + sqladapter.QuoteIdents(d.QuoteIdent, columns) + ")" +
		" VALUES (" + sqladapter.Placeholders(len(columns)) + ")"
	if pk == "" {
		return query, false
	}
	return query + " RETURNING " + d.QuoteIdent(pk), true
}

// ConvertValue binds timestamps as timestamptz.
func (*dialect) ConvertValue(value interface{}) interface{} {
	if t, ok := value.(time.Time); ok {
		return pgtype.Timestamptz{Time: t, Status: pgtype.Present}
	}
	return value
}

func (*dialect) LookupName(ctx context.Context, q sqladapter.Querier) (string, error) {
	var name string
	if err := q.QueryRowContext(ctx, `SELECT CURRENT_DATABASE()`).Scan(&name); err != nil {
		return "", err
	}
	return name, nil
}

func (d *dialect) PrimaryKeys(ctx context.Context, q sqladapter.Querier, table string) ([]string, error) {
	var exists bool
	err := q.QueryRowContext(ctx, `SELECT TO_REGCLASS($1) IS NOT NULL`, d.QuoteIdent(table)).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, cascade.ErrCollectionDoesNotExist
	}

	rows, err := q.QueryContext(ctx, `
		SELECT a.attname
		FROM pg_index i
		JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		WHERE i.indrelid = TO_REGCLASS($1) AND i.indisprimary
		ORDER BY ARRAY_POSITION(i.indkey::int2[], a.attnum)
	`, d.QuoteIdent(table))
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

var _ sqladapter.ValueConverter = (*dialect)(nil)
