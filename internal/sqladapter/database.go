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

// Package sqladapter provides the database/sql backend shared by the SQL
// adapters. Adapters contribute a Dialect and get sessions whose stores
// soft delete by updating the deleted_at column.
package sqladapter

import (
	"context"
	"database/sql"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/mapper"
)

var lastOperationID uint64

func newOperationID() uint64 {
	if atomic.LoadUint64(&lastOperationID) == math.MaxUint64 {
		atomic.StoreUint64(&lastOperationID, 1)
		return 1
	}
	return atomic.AddUint64(&lastOperationID, 1)
}

// Database is a cascade.Backend on top of a *sqlx.DB, or of a *sqlx.Tx
// while a transaction is running.
type Database struct {
	adapter string
	dialect Dialect
	name    string

	sqlDB *sqlx.DB
	sqlTx *sqlx.Tx

	// table name -> []string, shared with transactions.
	primaryKeys *sync.Map
}

var _ cascade.Backend = (*Database)(nil)

// queryer is satisfied by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	Querier
	QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error)
}

// NewDatabase wraps sqlDB and looks up the database name. Rows are scanned
// with mapper.Mapper; columns with no matching field are skipped.
func NewDatabase(ctx context.Context, adapter string, dialect Dialect, sqlDB *sql.DB) (*Database, error) {
	dbx := sqlx.NewDb(sqlDB, dialect.DriverName())
	dbx.Mapper = mapper.Mapper

	d := &Database{
		adapter:     adapter,
		dialect:     dialect,
		sqlDB:       dbx.Unsafe(),
		primaryKeys: &sync.Map{},
	}

	name, err := dialect.LookupName(ctx, d.sqlDB)
	if err != nil {
		return nil, err
	}
	d.name = name

	return d, nil
}

// Name returns the name of the database.
func (d *Database) Name() string {
	return d.name
}

// Driver returns the underlying *sql.DB.
func (d *Database) Driver() *sql.DB {
	return d.sqlDB.DB
}

func (d *Database) querier() queryer {
	if d.sqlTx != nil {
		return d.sqlTx
	}
	return d.sqlDB
}

// Collection returns a store for the named table.
func (d *Database) Collection(ctx context.Context, name string) cascade.Store {
	if ctx == nil {
		ctx = context.Background()
	}
	return &store{
		db:   d,
		ctx:  ctx,
		name: name,
	}
}

// ClearCache forgets the primary keys looked up so far.
func (d *Database) ClearCache() {
	d.primaryKeys.Range(func(key, _ interface{}) bool {
		d.primaryKeys.Delete(key)
		return true
	})
}

func (d *Database) tablePrimaryKeys(ctx context.Context, table string) ([]string, error) {
	if pks, ok := d.primaryKeys.Load(table); ok {
		return pks.([]string), nil
	}
	pks, err := d.dialect.PrimaryKeys(ctx, d.querier(), table)
	if err != nil {
		return nil, err
	}
	d.primaryKeys.Store(table, pks)
	return pks, nil
}

// Close closes the connection pool. Closing a transaction-bound database is
// a no-op.
func (d *Database) Close() error {
	if d.sqlTx != nil {
		return nil
	}
	return d.sqlDB.Close()
}

func (d *Database) bind(args []interface{}) []interface{} {
	conv, _ := d.dialect.(ValueConverter)
	for i := range args {
		args[i] = bindValue(args[i])
		if conv != nil {
			args[i] = conv.ConvertValue(args[i])
		}
	}
	return args
}

func (d *Database) log(query string, args []interface{}, start time.Time, err error) {
	entry := cascade.Logger().WithFields(logrus.Fields{
		"adapter": d.adapter,
		"op_id":   newOperationID(),
		"query":   query,
		"args":    args,
		"took":    time.Since(start),
	})
	if err != nil {
		entry.WithError(err).Debug("query failed")
		return
	}
	entry.Debug("query")
}

func (d *Database) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	query = d.dialect.Rebind(query)
	args = d.bind(args)

	start := time.Now()
	res, err := d.querier().ExecContext(ctx, query, args...)
	d.log(query, args, start, err)
	return res, err
}

func (d *Database) query(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	query = d.dialect.Rebind(query)
	args = d.bind(args)

	start := time.Now()
	rows, err := d.querier().QueryxContext(ctx, query, args...)
	d.log(query, args, start, err)
	return rows, err
}

func (d *Database) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	query = d.dialect.Rebind(query)
	args = d.bind(args)

	start := time.Now()
	row := d.querier().QueryRowContext(ctx, query, args...)
	d.log(query, args, start, row.Err())
	return row
}
