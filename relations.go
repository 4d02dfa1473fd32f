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
	"fmt"

	"github.com/upper/cascade/internal/mapper"
)

type hasMany struct {
	proto      Record
	foreignKey string
	ownerKey   interface{}
	limit      int
}

// HasMany relates a parent to every record of proto's store whose foreignKey
// column equals ownerKey.
//
//	cascade.HasMany(&Comment{}, "post_id", post.ID)
func HasMany(proto Record, foreignKey string, ownerKey interface{}) Relation {
	return &hasMany{proto: proto, foreignKey: foreignKey, ownerKey: ownerKey}
}

// HasOne is like HasMany, but yields at most one record.
func HasOne(proto Record, foreignKey string, ownerKey interface{}) Relation {
	return &hasMany{proto: proto, foreignKey: foreignKey, ownerKey: ownerKey, limit: 1}
}

func (r *hasMany) Kind() RelationKind {
	return RelationDirect
}

func (r *hasMany) store(sess Session) (Store, error) {
	if r.proto == nil {
		return nil, ErrExpectingNonNilRecord
	}
	st := r.proto.Store(sess)
	if st == nil {
		return nil, ErrInvalidCollection
	}
	return st, nil
}

func (r *hasMany) cond() Cond {
	return Cond{r.foreignKey: r.ownerKey}
}

func (r *hasMany) All(sess Session, withTrashed bool) ([]Match, error) {
	st, err := r.store(sess)
	if err != nil {
		return nil, err
	}
	records, err := st.Find(r.proto, r.cond(), withTrashed)
	if err != nil {
		return nil, err
	}
	if r.limit > 0 && len(records) > r.limit {
		records = records[:r.limit]
	}
	matches := make([]Match, 0, len(records))
	for _, rec := range records {
		matches = append(matches, Match{Record: rec})
	}
	return matches, nil
}

func (r *hasMany) Exists(sess Session, withTrashed bool) (bool, error) {
	st, err := r.store(sess)
	if err != nil {
		return false, err
	}
	return st.Exists(r.proto, r.cond(), withTrashed)
}

type belongsToMany struct {
	related         Record
	pivot           Record
	foreignPivotKey string
	parentKey       interface{}
	relatedPivotKey string
}

// BelongsToMany relates a parent to the records of related's store through
// link records of pivot's store. Link records are those whose
// foreignPivotKey column equals parentKey; relatedPivotKey holds the primary
// key of the far record.
//
//	cascade.BelongsToMany(&PostType{}, &AuthorPostType{}, "author_id", a.ID, "post_type_id")
//
// withTrashed applies to link records. Far records are looked up trashed or
// not, and a link whose far record is gone yields a Match with a nil Record.
// The related store must have a single column primary key.
func BelongsToMany(related Record, pivot Record, foreignPivotKey string, parentKey interface{}, relatedPivotKey string) Relation {
	return &belongsToMany{
		related:         related,
		pivot:           pivot,
		foreignPivotKey: foreignPivotKey,
		parentKey:       parentKey,
		relatedPivotKey: relatedPivotKey,
	}
}

func (r *belongsToMany) Kind() RelationKind {
	return RelationPivoted
}

func (r *belongsToMany) stores(sess Session) (pivots Store, related Store, err error) {
	if r.pivot == nil || r.related == nil {
		return nil, nil, ErrExpectingNonNilRecord
	}
	if pivots = r.pivot.Store(sess); pivots == nil {
		return nil, nil, ErrInvalidCollection
	}
	if related = r.related.Store(sess); related == nil {
		return nil, nil, ErrInvalidCollection
	}
	return pivots, related, nil
}

func (r *belongsToMany) All(sess Session, withTrashed bool) ([]Match, error) {
	pivots, related, err := r.stores(sess)
	if err != nil {
		return nil, err
	}

	pKeys := related.PrimaryKeys()
	switch {
	case len(pKeys) == 0:
		return nil, ErrMissingPrimaryKeys
	case len(pKeys) > 1:
		return nil, fmt.Errorf("%w: %s", ErrCompositeKeyNotSupported, related.Name())
	}

	links, err := pivots.Find(r.pivot, Cond{r.foreignPivotKey: r.parentKey}, withTrashed)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(links))
	for _, link := range links {
		farKey, err := mapper.Get(link, r.relatedPivotKey)
		if err != nil {
			return nil, err
		}
		far, err := related.Find(r.related, Cond{pKeys[0]: farKey}, true)
		if err != nil {
			return nil, err
		}
		m := Match{Pivot: link}
		if len(far) > 0 {
			m.Record = far[0]
		}
		matches = append(matches, m)
	}
	return matches, nil
}

func (r *belongsToMany) Exists(sess Session, withTrashed bool) (bool, error) {
	pivots, _, err := r.stores(sess)
	if err != nil {
		return false, err
	}
	return pivots.Exists(r.pivot, Cond{r.foreignPivotKey: r.parentKey}, withTrashed)
}
