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

import "reflect"

// Targets returns the cascade targets declared for rec: the entry of the
// engine settings for the record's store if there is one, the record's own
// CascadeDeletes() otherwise.
func (e *Engine) Targets(sess Session, rec Record) Targets {
	if st := rec.Store(sess); st != nil {
		if targets, ok := e.Settings.targets(st.Name()); ok {
			return targets
		}
	}
	if d, ok := rec.(HasCascadeDeletes); ok {
		return d.CascadeDeletes()
	}
	return nil
}

// InvalidTargets returns the declared targets of rec that do not name a
// relation producer, or whose producer does not return a relation of a known
// kind. Declaration order and duplicates are preserved; an empty result
// means rec is valid.
func (e *Engine) InvalidTargets(sess Session, rec Record) []string {
	relations := relationsOf(rec)

	invalid := []string{}
	for _, name := range e.Targets(sess, rec) {
		if _, ok := resolve(relations, name); !ok {
			invalid = append(invalid, name)
		}
	}
	return invalid
}

// ActiveTargets narrows the declared targets of rec down to the ones that
// currently have related records to act on. Targets are expected to be
// valid, invalid ones are skipped.
//
// When deleting, a target is active if it has related records that are not
// soft-deleted (or any related record at all when rec is being force
// deleted). When restoring, a target is active only if at least one of its
// related records is soft-deleted.
func (e *Engine) ActiveTargets(sess Session, rec Record, restoring bool) ([]string, error) {
	relations := relationsOf(rec)
	force := isForceDeleting(rec)

	active := []string{}
	seen := map[string]bool{}
	for _, name := range e.Targets(sess, rec) {
		if seen[name] {
			continue
		}
		seen[name] = true

		rel, ok := resolve(relations, name)
		if !ok {
			continue
		}

		var found bool
		var err error
		if restoring {
			found, err = hasTrashed(sess, rel)
		} else {
			found, err = rel.Exists(sess, force)
		}
		if err != nil {
			return nil, err
		}
		if found {
			active = append(active, name)
		}
	}
	return active, nil
}

func relationsOf(rec Record) Relations {
	if r, ok := rec.(HasRelations); ok {
		return r.Relations()
	}
	return nil
}

func resolve(relations Relations, name string) (Relation, bool) {
	fn, ok := relations[name]
	if !ok || fn == nil {
		return nil, false
	}
	rel := fn()
	if isNil(rel) {
		return nil, false
	}
	switch rel.Kind() {
	case RelationDirect, RelationPivoted:
		return rel, true
	}
	return nil, false
}

func isNil(rel Relation) bool {
	if rel == nil {
		return true
	}
	v := reflect.ValueOf(rel)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice:
		return v.IsNil()
	}
	return false
}

func isForceDeleting(rec Record) bool {
	sd, ok := rec.(SoftDeletable)
	return ok && sd.ForceDeleting()
}

func hasTrashed(sess Session, rel Relation) (bool, error) {
	found, err := rel.Exists(sess, true)
	if err != nil || !found {
		return false, err
	}
	matches, err := rel.All(sess, true)
	if err != nil {
		return false, err
	}
	for _, m := range matches {
		if restorable(m) {
			return true, nil
		}
	}
	return false, nil
}

func restorable(m Match) bool {
	sd, ok := m.Target().(SoftDeletable)
	return ok && sd.Trashed()
}
