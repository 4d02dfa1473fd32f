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
	"strconv"
	"strings"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Dialect holds what differs between SQL databases.
type Dialect interface {
	// DriverName is the database/sql driver used to open DSNs.
	DriverName() string

	// Rebind rewrites the '?' placeholders of query into the ones expected
	// by the driver.
	Rebind(query string) string

	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string

	// InsertQuery returns the statement that inserts columns into table.
	// When returning is true the statement yields the generated value of pk
	// as a single row, otherwise it is read from sql.Result.LastInsertId.
	InsertQuery(table string, columns []string, pk string) (query string, returning bool)

	// LookupName returns the name of the current database.
	LookupName(ctx context.Context, q Querier) (string, error)

	// PrimaryKeys returns the primary key columns of table, in key order.
	// It returns cascade.ErrCollectionDoesNotExist if there is no such
	// table.
	PrimaryKeys(ctx context.Context, q Querier, table string) ([]string, error)
}

// ValueConverter is implemented by dialects that need to convert values
// before handing them to the driver.
type ValueConverter interface {
	ConvertValue(value interface{}) interface{}
}

// Placeholders returns n comma separated '?' placeholders.
func Placeholders(n int) string {
	if n < 1 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// QuoteIdents quotes every name with quote and joins them with commas.
func QuoteIdents(quote func(string) string, names []string) string {
	quoted := make([]string, len(names))
	for i := range names {
		quoted[i] = quote(names[i])
	}
	return strings.Join(quoted, ", ")
}

// ReplaceWithDollarSign turns a SQL statament with '?' placeholders into
// dollar placeholders, like $1, $2, ..., $n. A literal question mark is
// written as '??'.
func ReplaceWithDollarSign(in string) string {
	return replacePlaceholders(in, func(n int) string {
		return "$" + strconv.Itoa(n)
	})
}

// ReplaceWithAtSign is like ReplaceWithDollarSign, but produces named
// placeholders: @p1, @p2, ..., @pn.
func ReplaceWithAtSign(in string) string {
	return replacePlaceholders(in, func(n int) string {
		return "@p" + strconv.Itoa(n)
	})
}

func replacePlaceholders(in string, placeholder func(n int) string) string {
	var out strings.Builder
	out.Grow(len(in))

	n := 0
	for i := 0; i < len(in); i++ {
		if in[i] != '?' {
			out.WriteByte(in[i])
			continue
		}
		if i+1 < len(in) && in[i+1] == '?' {
			out.WriteByte('?')
			i++
			continue
		}
		n++
		out.WriteString(placeholder(n))
	}
	return out.String()
}
