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

// Package mapper maps struct fields to column names using the `db` struct
// tag.
//
// Untagged exported fields are mapped to their lowercased name, fields tagged
// `db:"-"` are ignored, and the fields of anonymous structs are promoted into
// the parent (this is how cascade.SoftDeletes contributes its deleted_at
// column).
package mapper

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/jmoiron/sqlx/reflectx"
)

// TagName is the struct tag read by the mapper.
const TagName = "db"

var (
	ErrExpectingPointerToStruct = errors.New(`expecting pointer to struct`)
	ErrNoSuchField              = errors.New(`no such field`)
)

// Mapper is shared with the sqlx handles of the SQL adapters, so rows are
// scanned with the same names Map produces.
var Mapper = reflectx.NewMapperFunc(TagName, strings.ToLower)

// Field describes a mapped struct field.
type Field struct {
	Name      string
	Index     []int
	OmitEmpty bool
}

// Fields returns the mapped fields of the given struct type.
func Fields(t reflect.Type) []Field {
	sm := Mapper.TypeMap(reflectx.Deref(t))

	fields := make([]Field, 0, len(sm.Index))
	for _, fi := range sm.Index {
		if !isColumn(fi) {
			continue
		}
		_, omitEmpty := fi.Options["omitempty"]
		fields = append(fields, Field{
			Name:      fi.Path,
			Index:     fi.Index,
			OmitEmpty: omitEmpty,
		})
	}
	return fields
}

// isColumn reports whether fi is a column: it is not an anonymous struct
// itself and every struct above it is anonymous.
func isColumn(fi *reflectx.FieldInfo) bool {
	if fi.Embedded || fi.Field.PkgPath != "" {
		return false
	}
	for p := fi.Parent; p != nil && p.Parent != nil; p = p.Parent {
		if !p.Embedded {
			return false
		}
	}
	return true
}

func structValue(item interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(item)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, ErrExpectingPointerToStruct
	}
	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, ErrExpectingPointerToStruct
	}
	return v, nil
}

// readOnly returns the field at index, or false when a nil embedded pointer
// stands in the way.
func readOnly(v reflect.Value, index []int) (reflect.Value, bool) {
	parent := v
	for _, i := range index[:len(index)-1] {
		parent = reflect.Indirect(parent).Field(i)
		if parent.Kind() == reflect.Ptr && parent.IsNil() {
			return reflect.Value{}, false
		}
	}
	return reflectx.FieldByIndexesReadOnly(v, index), true
}

func lookup(item interface{}, name string) (reflect.Value, Field, error) {
	v, err := structValue(item)
	if err != nil {
		return reflect.Value{}, Field{}, err
	}
	for _, f := range Fields(v.Type()) {
		if f.Name == name {
			return v, f, nil
		}
	}
	return reflect.Value{}, Field{}, fmt.Errorf("%w: %q in %T", ErrNoSuchField, name, item)
}

// Map returns the column names and values of item. Fields marked omitempty
// are skipped when they hold their zero value.
func Map(item interface{}) ([]string, []interface{}, error) {
	v, err := structValue(item)
	if err != nil {
		return nil, nil, err
	}
	fields := Fields(v.Type())

	columns := make([]string, 0, len(fields))
	values := make([]interface{}, 0, len(fields))
	for _, f := range fields {
		fv, ok := readOnly(v, f.Index)
		if !ok {
			continue
		}
		if f.OmitEmpty && fv.IsZero() {
			continue
		}
		columns = append(columns, f.Name)
		values = append(values, fv.Interface())
	}
	return columns, values, nil
}

// Get returns the value of the column name in item.
func Get(item interface{}, name string) (interface{}, error) {
	v, f, err := lookup(item, name)
	if err != nil {
		return nil, err
	}
	fv, ok := readOnly(v, f.Index)
	if !ok {
		return nil, nil
	}
	return fv.Interface(), nil
}

// Set assigns value to the column name in item, converting between
// compatible kinds (e.g. int32 into int64, time.Time into *time.Time).
func Set(item interface{}, name string, value interface{}) error {
	v, f, err := lookup(item, name)
	if err != nil {
		return err
	}
	return assign(reflectx.FieldByIndexes(v, f.Index), value)
}

func assign(dst reflect.Value, value interface{}) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	src := reflect.ValueOf(value)
	if src.Kind() == reflect.Ptr {
		if src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		if !src.Type().AssignableTo(dst.Type()) {
			src = src.Elem()
		}
	}

	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
		return nil
	case dst.Kind() == reflect.Ptr:
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src.Interface()); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	case isNumber(src.Kind()) && isNumber(dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
		return nil
	case src.Kind() == reflect.String && dst.Kind() == reflect.String:
		dst.SetString(src.String())
		return nil
	case src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8 && dst.Kind() == reflect.String:
		dst.SetString(string(src.Bytes()))
		return nil
	}

	return fmt.Errorf("mapper: cannot assign %T to %s", value, dst.Type())
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// New returns a pointer to a new zero value of the type item points to.
func New(item interface{}) interface{} {
	t := reflect.TypeOf(item)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return reflect.New(t).Interface()
}

// IsZero reports whether value is nil or the zero value of its type.
func IsZero(value interface{}) bool {
	if value == nil {
		return true
	}
	return reflect.ValueOf(value).IsZero()
}
