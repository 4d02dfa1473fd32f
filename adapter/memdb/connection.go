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

package memdb

import (
	"fmt"
	"net/url"
	"strings"
)

const connectionScheme = `memdb`

const defaultDatabase = `memdb`

// ConnectionURL names an in-memory database. Sessions opened with the same
// Database name share their data until the last of them is closed.
type ConnectionURL struct {
	Database string
	Options  map[string]string
}

func (c ConnectionURL) String() string {
	if c.Database == "" {
		c.Database = defaultDatabase
	}

	vv := url.Values{}
	for k, v := range c.Options {
		vv.Set(k, v)
	}

	u := url.URL{
		Scheme:   connectionScheme,
		Host:     c.Database,
		RawQuery: vv.Encode(),
	}
	return u.String()
}

// ParseURL parses s into a ConnectionURL struct.
func ParseURL(s string) (conn ConnectionURL, err error) {
	if !strings.HasPrefix(s, connectionScheme+"://") {
		return conn, fmt.Errorf(`Expecting %s:// connection scheme.`, connectionScheme)
	}

	u, err := url.Parse(s)
	if err != nil {
		return conn, err
	}

	conn.Database = u.Host + u.Path
	if conn.Database == "" {
		conn.Database = defaultDatabase
	}

	vv, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return conn, err
	}
	if len(vv) > 0 {
		conn.Options = map[string]string{}
		for k := range vv {
			conn.Options[k] = vv.Get(k)
		}
	}

	return conn, nil
}
