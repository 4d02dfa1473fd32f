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
	"sync"
)

// ConnectionURL represents a data source name (DSN).
type ConnectionURL interface {
	// String returns the connection string that is going to be passed to the
	// adapter.
	String() string
}

// Adapter opens sessions for a specific database engine.
type Adapter interface {
	Open(ConnectionURL) (Session, error)
}

var (
	adapterMap   = make(map[string]Adapter)
	adapterMapMu sync.RWMutex
)

// RegisterAdapter registers a generic database adapter.
func RegisterAdapter(name string, adapter Adapter) {
	adapterMapMu.Lock()
	defer adapterMapMu.Unlock()

	if name == "" {
		panic(`Missing adapter name`)
	}
	if _, ok := adapterMap[name]; ok {
		panic(`cascade.RegisterAdapter() called twice for adapter: ` + name)
	}
	adapterMap[name] = adapter
}

// LookupAdapter returns the adapter registered with the given name.
func LookupAdapter(name string) (Adapter, error) {
	adapterMapMu.RLock()
	defer adapterMapMu.RUnlock()

	if adapter, ok := adapterMap[name]; ok {
		return adapter, nil
	}
	return nil, fmt.Errorf("%w: %q (forgot to import it?)", ErrMissingAdapter, name)
}

// Open attempts to stablish a connection with a database through the named
// adapter.
func Open(adapterName string, settings ConnectionURL) (Session, error) {
	adapter, err := LookupAdapter(adapterName)
	if err != nil {
		return nil, err
	}
	return adapter.Open(settings)
}
