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

package sqladapter

import (
	"context"
	"database/sql"

	"github.com/upper/cascade"
)

// AdapterSession opens sessions for one registered SQL adapter.
type AdapterSession struct {
	name    string
	dialect Dialect
}

// RegisterAdapter registers a SQL adapter with cascade.RegisterAdapter and
// returns a helper the adapter package builds its Open and New functions
// on.
func RegisterAdapter(name string, dialect Dialect) *AdapterSession {
	as := &AdapterSession{name: name, dialect: dialect}
	cascade.RegisterAdapter(name, as)
	return as
}

// Open implements cascade.Adapter.
func (as *AdapterSession) Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return as.OpenDSN(connURL)
}

// OpenDSN opens a connection pool with the adapter's driver and returns a
// session on it.
func (as *AdapterSession) OpenDSN(connURL cascade.ConnectionURL) (cascade.Session, error) {
	d, err := as.OpenDatabase(connURL)
	if err != nil {
		return nil, err
	}
	return cascade.NewSession(d), nil
}

// OpenDatabase is like OpenDSN, but returns the backend itself.
func (as *AdapterSession) OpenDatabase(connURL cascade.ConnectionURL) (*Database, error) {
	if connURL == nil {
		return nil, cascade.ErrMissingConnURL
	}
	sqlDB, err := sql.Open(as.dialect.DriverName(), connURL.String())
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	d, err := as.NewDatabase(sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// New returns a session on an already open *sql.DB.
func (as *AdapterSession) New(sqlDB *sql.DB) (cascade.Session, error) {
	d, err := NewDatabase(context.Background(), as.name, as.dialect, sqlDB)
	if err != nil {
		return nil, err
	}
	return cascade.NewSession(d), nil
}

// NewDatabase is like New, but returns the backend itself.
func (as *AdapterSession) NewDatabase(sqlDB *sql.DB) (*Database, error) {
	return NewDatabase(context.Background(), as.name, as.dialect, sqlDB)
}
