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
	"reflect"
	"time"
)

// DeletedAtColumn is the column that holds the soft-delete marker.
const DeletedAtColumn = "deleted_at"

// Record is the equivalence between concrete database schemas and Go values.
type Record interface {
	Store(sess Session) Store
}

// SoftDeletable is satisfied by records that embed SoftDeletes.
type SoftDeletable interface {
	// Trashed reports whether the record is currently soft-deleted.
	Trashed() bool

	// ForceDeleting reports whether the record is being permanently removed
	// by the delete call in progress.
	ForceDeleting() bool

	markDeleted(at time.Time)
	markRestored()
	setForceDeleting(bool)
}

// SoftDeletes gives a record the soft-delete capability. Embed it in the
// record struct:
//
//	type Post struct {
//		ID    int64  `db:"id,omitempty"`
//		Title string `db:"title"`
//
//		cascade.SoftDeletes
//	}
type SoftDeletes struct {
	DeletedAt *time.Time `db:"deleted_at"`

	forceDeleting bool
}

// Trashed reports whether the record is currently soft-deleted.
func (sd *SoftDeletes) Trashed() bool {
	return sd.DeletedAt != nil
}

// ForceDeleting is true only for the duration of a Session.ForceDelete call
// on the record.
func (sd *SoftDeletes) ForceDeleting() bool {
	return sd.forceDeleting
}

func (sd *SoftDeletes) markDeleted(at time.Time) {
	sd.DeletedAt = &at
}

func (sd *SoftDeletes) markRestored() {
	sd.DeletedAt = nil
}

func (sd *SoftDeletes) setForceDeleting(v bool) {
	sd.forceDeleting = v
}

var _ SoftDeletable = &SoftDeletes{}

// SupportsSoftDelete reports whether rec has the soft-delete capability.
func SupportsSoftDelete(rec Record) bool {
	_, ok := rec.(SoftDeletable)
	return ok
}

// HasCascadeDeletes is implemented by records that declare the relations to
// cascade through.
type HasCascadeDeletes interface {
	CascadeDeletes() Targets
}

// HasRelations is implemented by records that expose named relations.
type HasRelations interface {
	Relations() Relations
}

// BeforeDeleteHook is an interface that defines a BeforeDelete function for
// records that is called before removing a record (soft or permanently). If
// BeforeDelete returns an error the delete process is aborted.
type BeforeDeleteHook interface {
	BeforeDelete(Session) error
}

// AfterDeleteHook is an interface that defines an AfterDelete function for
// records that is called after removing a record.
type AfterDeleteHook interface {
	AfterDelete(Session) error
}

// BeforeRestoreHook is an interface that defines a BeforeRestore function
// for records that is called before restoring a soft-deleted record. If
// BeforeRestore returns an error the restore process is aborted.
type BeforeRestoreHook interface {
	BeforeRestore(Session) error
}

// AfterRestoreHook is an interface that defines an AfterRestore function for
// records that is called after restoring a record.
type AfterRestoreHook interface {
	AfterRestore(Session) error
}

// TypeName returns the name of the record type, as used in error messages.
func TypeName(rec Record) string {
	t := reflect.TypeOf(rec)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}
