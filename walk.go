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

package cascade

import (
	"context"
	"fmt"
	"reflect"
	"sort"

	"github.com/google/uuid"
	"github.com/segmentio/fasthash/fnv1a"
)

type walkKey struct{}

// walk is the state shared by all the cascades triggered by one top-level
// delete or restore. It travels down the recursion in the session context.
type walk struct {
	id      string
	op      Op
	visited map[uint64]struct{}
}

func newWalk(op Op) *walk {
	return &walk{
		id:      uuid.New().String(),
		op:      op,
		visited: map[uint64]struct{}{},
	}
}

func walkFrom(ctx context.Context) *walk {
	w, _ := ctx.Value(walkKey{}).(*walk)
	return w
}

func withWalk(ctx context.Context, w *walk) context.Context {
	return context.WithValue(ctx, walkKey{}, w)
}

// seen reports whether the record with the given key was already entered.
func (w *walk) seen(key uint64, ok bool) bool {
	if !ok {
		return false
	}
	_, found := w.visited[key]
	return found
}

// enter marks the record as visited, it returns false if it already was.
func (w *walk) enter(key uint64, ok bool) bool {
	if !ok {
		return true
	}
	if _, found := w.visited[key]; found {
		return false
	}
	w.visited[key] = struct{}{}
	return true
}

// recordKey hashes the store name and primary key values of rec. ok is false
// if rec cannot be identified (no primary key, or a zero one).
func recordKey(sess Session, rec Record) (uint64, bool) {
	if rec == nil {
		return 0, false
	}
	st := rec.Store(sess)
	if st == nil {
		return 0, false
	}
	cond, err := KeyCond(st, rec)
	if err != nil {
		return 0, false
	}

	keys := make([]string, 0, len(cond))
	for k := range cond {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv1a.HashString64(st.Name())
	for _, k := range keys {
		h = fnv1a.AddString64(h, k)
		h = fnv1a.AddString64(h, fmt.Sprint(keyValue(cond[k])))
	}
	return h, true
}

// keyValue dereferences pointer key values, two copies of the same row must
// hash alike.
func keyValue(value interface{}) interface{} {
	v := reflect.ValueOf(value)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
