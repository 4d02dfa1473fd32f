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

	"gopkg.in/yaml.v3"
)

// RelationKind identifies the shape of a relation.
type RelationKind uint8

// Relation kinds.
const (
	RelationUnknown RelationKind = iota

	// RelationDirect yields the related records themselves (has-one,
	// has-many).
	RelationDirect

	// RelationPivoted yields related records through a link record
	// (many-to-many). Cascades act on the link record.
	RelationPivoted
)

func (k RelationKind) String() string {
	switch k {
	case RelationDirect:
		return "direct"
	case RelationPivoted:
		return "pivoted"
	}
	return "unknown"
}

// Match is one related record. Pivot is the link record of a pivoted
// relation and nil for direct relations. Record may be nil for a pivot whose
// far side no longer exists.
type Match struct {
	Record Record
	Pivot  Record
}

// Target returns the record a cascade acts on: the pivot when present, the
// related record otherwise.
func (m Match) Target() Record {
	if m.Pivot != nil {
		return m.Pivot
	}
	return m.Record
}

// Relation is a queryable view over the records related to a parent.
type Relation interface {
	Kind() RelationKind

	// All lists the matching related records. Soft-deleted ones are included
	// only when withTrashed is true.
	All(sess Session, withTrashed bool) ([]Match, error)

	// Exists reports whether there is at least one match.
	Exists(sess Session, withTrashed bool) (bool, error)
}

// RelationFunc produces a Relation.
type RelationFunc func() Relation

// Relations maps relation names to producers.
type Relations map[string]RelationFunc

// Targets is the ordered list of relation names a record cascades through.
type Targets []string

// UnmarshalYAML accepts either a single scalar or a sequence of names.
func (t *Targets) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var name string
		if err := value.Decode(&name); err != nil {
			return err
		}
		*t = normalize(name)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := value.Decode(&names); err != nil {
			return err
		}
		*t = Targets(names)
		return nil
	}
	return fmt.Errorf("cascade: line %d: expecting a relation name or a list of names", value.Line)
}

// ParseTargets normalizes a declaration given as a string, a []string or
// Targets. A single string becomes a one-element list.
func ParseTargets(v interface{}) (Targets, error) {
	switch t := v.(type) {
	case nil:
		return Targets{}, nil
	case string:
		return normalize(t), nil
	case []string:
		return Targets(t), nil
	case Targets:
		return t, nil
	}
	return nil, fmt.Errorf("cascade: cannot use %T as cascade targets", v)
}

func normalize(name string) Targets {
	if name == "" {
		return Targets{}
	}
	return Targets{name}
}
