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

	"github.com/pkg/errors"
	"github.com/upper/cascade"
)

// Tx runs fn within a transaction. The transaction is committed if fn
// returns nil and rolled back otherwise; a Tx within a Tx joins the outer
// one.
func (d *Database) Tx(ctx context.Context, fn func(cascade.Backend) error) error {
	if d.sqlTx != nil {
		return fn(d)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sqlTx, err := d.sqlDB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txDB := *d
	txDB.sqlTx = sqlTx

	if err := fn(&txDB); err != nil {
		if rErr := sqlTx.Rollback(); rErr != nil {
			return errors.Wrap(err, rErr.Error())
		}
		return err
	}
	return sqlTx.Commit()
}
