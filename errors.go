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
	"errors"
	"fmt"
	"strings"
)

// Error messages
var (
	ErrSoftDeleteNotSupported   = errors.New(`record does not support soft deletes`)
	ErrInvalidRelationships     = errors.New(`invalid cascade relationships`)
	ErrExpectingNonNilRecord    = errors.New(`expecting non nil record`)
	ErrInvalidCollection        = errors.New(`invalid collection`)
	ErrStoreNotSoftDeletable    = errors.New(`store does not support soft deletes`)
	ErrMissingPrimaryKeys       = errors.New(`collection has no primary keys`)
	ErrCompositeKeyNotSupported = errors.New(`composite primary keys are not supported`)
	ErrZeroRecordID             = errors.New(`record ID is not defined`)
	ErrCollectionDoesNotExist   = errors.New(`collection does not exist`)
	ErrNotSupportedByAdapter    = errors.New(`not supported by adapter`)
	ErrMissingConnURL           = errors.New(`missing DSN`)
	ErrMissingAdapter           = errors.New(`missing adapter`)
	ErrAlreadyWithinTransaction = errors.New(`already within a transaction`)
)

// SoftDeleteNotSupportedError is returned when a record that does not embed
// SoftDeletes is fed into a cascading delete.
type SoftDeleteNotSupportedError struct {
	Type string
}

func (e *SoftDeleteNotSupportedError) Error() string {
	return fmt.Sprintf("%s does not implement cascade.SoftDeletes", e.Type)
}

// Is allows errors.Is(err, ErrSoftDeleteNotSupported).
func (e *SoftDeleteNotSupportedError) Is(target error) bool {
	return target == ErrSoftDeleteNotSupported
}

// InvalidRelationshipsError lists every declared cascade target of a record
// that is not a usable relation, in declaration order.
type InvalidRelationshipsError struct {
	Type          string
	Relationships []string
}

func (e *InvalidRelationshipsError) Error() string {
	noun := "Relationship"
	if len(e.Relationships) != 1 {
		noun = "Relationships"
	}
	return fmt.Sprintf(
		"%s [%s] must exist and return an object of type cascade.Relation",
		noun,
		strings.Join(e.Relationships, ", "),
	)
}

// Is allows errors.Is(err, ErrInvalidRelationships).
func (e *InvalidRelationshipsError) Is(target error) bool {
	return target == ErrInvalidRelationships
}
