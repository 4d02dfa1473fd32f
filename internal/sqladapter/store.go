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
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/mapper"
)

type store struct {
	db   *Database
	ctx  context.Context
	name string
}

var _ cascade.SoftDeleteStore = (*store)(nil)

func (s *store) Name() string {
	return s.name
}

// PrimaryKeys returns the primary keys of the table, or nil if they could
// not be looked up.
func (s *store) PrimaryKeys() []string {
	pks, err := s.db.tablePrimaryKeys(s.ctx, s.name)
	if err != nil {
		return nil
	}
	return pks
}

func (s *store) quote(name string) string {
	return s.db.dialect.QuoteIdent(name)
}

// where builds the WHERE clause for cond. Columns are sorted so that the
// same cond always produces the same statement.
func (s *store) where(proto cascade.Record, cond cascade.Cond, withTrashed bool) (string, []interface{}) {
	columns := make([]string, 0, len(cond))
	for column := range cond {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	clauses := []string{}
	args := []interface{}{}
	for _, column := range columns {
		value := bindValue(cond[column])
		if value == nil {
			clauses = append(clauses, s.quote(column)+" IS NULL")
			continue
		}
		clauses = append(clauses, s.quote(column)+" = ?")
		args = append(args, value)
	}
	if !withTrashed && cascade.SupportsSoftDelete(proto) {
		clauses = append(clauses, s.quote(cascade.DeletedAtColumn)+" IS NULL")
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *store) Insert(rec cascade.Record) error {
	columns, values, err := mapper.Map(rec)
	if err != nil {
		return err
	}

	pks, err := s.db.tablePrimaryKeys(s.ctx, s.name)
	if err != nil {
		return err
	}

	var pk string
	if len(pks) == 1 && !contains(columns, pks[0]) {
		pk = pks[0]
	}

	query, returning := s.db.dialect.InsertQuery(s.name, columns, pk)

	if pk == "" {
		_, err := s.db.exec(s.ctx, query, values...)
		return err
	}

	var id interface{}
	if returning {
		if err := s.db.queryRow(s.ctx, query, values...).Scan(&id); err != nil {
			return err
		}
	} else {
		res, err := s.db.exec(s.ctx, query, values...)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return mapper.Set(rec, pk, id)
}

func (s *store) Find(proto cascade.Record, cond cascade.Cond, withTrashed bool) ([]cascade.Record, error) {
	where, args := s.where(proto, cond, withTrashed)

	query := "SELECT * FROM " + s.quote(s.name) + where
	if pks := s.PrimaryKeys(); len(pks) > 0 {
		query += " ORDER BY " + QuoteIdents(s.quote, pks)
	}

	rows, err := s.db.query(s.ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAll(rows, proto)
}

func scanAll(rows *sqlx.Rows, proto cascade.Record) ([]cascade.Record, error) {
	records := []cascade.Record{}
	for rows.Next() {
		rec := mapper.New(proto).(cascade.Record)
		if err := rows.StructScan(rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store) Exists(proto cascade.Record, cond cascade.Cond, withTrashed bool) (bool, error) {
	where, args := s.where(proto, cond, withTrashed)

	var count int64
	err := s.db.queryRow(s.ctx, "SELECT COUNT(1) FROM "+s.quote(s.name)+where, args...).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *store) keyWhere(rec cascade.Record) (string, []interface{}, error) {
	cond, err := cascade.KeyCond(s, rec)
	if err != nil {
		return "", nil, err
	}
	where, args := s.where(nil, cond, true)
	return where, args, nil
}

func (s *store) Delete(rec cascade.Record) error {
	where, args, err := s.keyWhere(rec)
	if err != nil {
		return err
	}
	_, err = s.db.exec(s.ctx, "DELETE FROM "+s.quote(s.name)+where, args...)
	return err
}

func (s *store) MarkDeleted(rec cascade.Record, at time.Time) error {
	where, args, err := s.keyWhere(rec)
	if err != nil {
		return err
	}
	query := "UPDATE " + s.quote(s.name) + " SET " + s.quote(cascade.DeletedAtColumn) + " = ?" + where
	_, err = s.db.exec(s.ctx, query, append([]interface{}{at}, args...)...)
	return err
}

func (s *store) MarkRestored(rec cascade.Record) error {
	where, args, err := s.keyWhere(rec)
	if err != nil {
		return err
	}
	query := "UPDATE " + s.quote(s.name) + " SET " + s.quote(cascade.DeletedAtColumn) + " = NULL" + where
	_, err = s.db.exec(s.ctx, query, args...)
	return err
}

// bindValue turns nil pointers into nil and dereferences the rest.
func bindValue(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Ptr {
		return value
	}
	if v.IsNil() {
		return nil
	}
	return v.Elem().Interface()
}

func contains(list []string, item string) bool {
	for i := range list {
		if list[i] == item {
			return true
		}
	}
	return false
}
