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

package mongo

import (
	"errors"
	"net/url"
	"strings"
)

const connectionScheme = `mongodb`

// ConnectionURL represents a MongoDB connection URL. Host may list several
// comma separated members of a cluster.
type ConnectionURL struct {
	User     string
	Password string
	Host     string
	Database string
	Options  map[string]string
}

func (c ConnectionURL) String() string {
	if c.Database == "" {
		return ""
	}

	params := url.Values{}
	for k, v := range c.Options {
		params.Set(k, v)
	}

	u := url.URL{
		Scheme:   connectionScheme,
		Host:     c.Host,
		Path:     c.Database,
		RawQuery: params.Encode(),
	}

	if c.User != "" {
		if c.Password == "" {
			u.User = url.User(c.User)
		} else {
			u.User = url.UserPassword(c.User, c.Password)
		}
	}

	return u.String()
}

// ParseURL parses s into a ConnectionURL struct.
func ParseURL(s string) (conn ConnectionURL, err error) {
	if !strings.HasPrefix(s, connectionScheme+"://") {
		return conn, errors.New(`Expecting mongodb:// connection scheme.`)
	}

	u, err := url.Parse(s)
	if err != nil {
		return conn, err
	}

	conn.Host = u.Host
	conn.Database = strings.Trim(u.Path, "/")

	if u.User != nil {
		conn.User = u.User.Username()
		conn.Password, _ = u.User.Password()
	}

	q := u.Query()
	conn.Options = make(map[string]string, len(q))
	for k := range q {
		conn.Options[k] = q.Get(k)
	}

	return conn, nil
}
