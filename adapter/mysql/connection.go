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

package mysql

import (
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ConnectionURL represents a MySQL DSN.
type ConnectionURL struct {
	User     string
	Password string
	Database string
	Host     string
	Socket   string
	Options  map[string]string
}

func (c ConnectionURL) String() (s string) {
	if c.Database == "" {
		return ""
	}

	// Adding username.
	if c.User != "" {
		s = s + c.User
		// Adding password.
		if c.Password != "" {
			s = s + ":" + c.Password
		}
		s = s + "@"
	}

	// Adding protocol and address
	if c.Socket != "" {
		s = s + "unix(" + c.Socket + ")"
	} else if c.Host != "" {
		s = s + "tcp(" + c.Host + ")"
	}

	params := url.Values{}
	params.Set("charset", "utf8")
	for k, v := range c.Options {
		params.Set(k, v)
	}
	// Timestamps are scanned into time.Time.
	params.Set("parseTime", "true")

	return s + "/" + c.Database + "?" + params.Encode()
}

// ParseURL parses s into a ConnectionURL struct.
func ParseURL(s string) (conn ConnectionURL, err error) {
	dsn, query := s, ""
	if i := strings.LastIndex(s, "?"); i >= 0 {
		dsn, query = s[:i], s[i+1:]
	}

	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return conn, err
	}

	conn.User = cfg.User
	conn.Password = cfg.Passwd
	conn.Database = cfg.DBName
	if cfg.Net == "unix" {
		conn.Socket = cfg.Addr
	} else {
		conn.Host = cfg.Addr
	}

	if query != "" {
		values, err := url.ParseQuery(query)
		if err != nil {
			return conn, err
		}
		conn.Options = map[string]string{}
		for k := range values {
			conn.Options[k] = values.Get(k)
		}
	}

	return conn, nil
}
