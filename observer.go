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

import "context"

// Op identifies a cascading operation.
type Op uint8

// Cascading operations.
const (
	OpDelete Op = iota + 1
	OpForceDelete
	OpRestore
)

func (op Op) String() string {
	switch op {
	case OpDelete:
		return "delete"
	case OpForceDelete:
		return "force_delete"
	case OpRestore:
		return "restore"
	}
	return "unknown"
}

// Observer is notified of every cascade the engine runs on a record.
type Observer interface {
	// Begin is called before the engine starts cascading op on a record of
	// the given type. The returned context is used for the rest of the
	// cascade, including nested ones; done is called exactly once with the
	// number of related records the cascade acted on and its outcome.
	Begin(ctx context.Context, op Op, typeName string) (context.Context, func(affected int, err error))
}

type observers []Observer

// Observers returns an Observer that notifies all of the given observers.
func Observers(list ...Observer) Observer {
	return observers(list)
}

func (list observers) Begin(ctx context.Context, op Op, typeName string) (context.Context, func(int, error)) {
	dones := make([]func(int, error), 0, len(list))
	for _, o := range list {
		if o == nil {
			continue
		}
		var done func(int, error)
		ctx, done = o.Begin(ctx, op, typeName)
		dones = append(dones, done)
	}
	return ctx, func(affected int, err error) {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](affected, err)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Begin(ctx context.Context, _ Op, _ string) (context.Context, func(int, error)) {
	return ctx, func(int, error) {}
}
