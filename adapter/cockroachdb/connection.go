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

package cockroachdb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/lib/pq"
)

const defaultPort = "26257"

// ConnectionURL represents a CockroachDB data source in libpq's key=value
// form.
//
//	var settings = cockroachdb.ConnectionURL{
//		Host:     "localhost:26257",
//		Database: "peanuts",
//		User:     "cbrown",
//	}
type ConnectionURL struct {
	User     string
	Password string
	Host     string
	Socket   string
	Database string
	Options  map[string]string
}

var escaper = strings.NewReplacer(` `, `\ `, `'`, `\'`, `\`, `\\`)

func (c ConnectionURL) String() string {
	pairs := []string{}
	add := func(k, v string) {
		if v != "" {
			pairs = append(pairs, k+"="+escaper.Replace(v))
		}
	}

	add("user", c.User)
	add("password", c.Password)

	if c.Socket != "" {
		add("host", c.Socket)
	} else if c.Host != "" {
		host, port := c.Host, defaultPort
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host, port = host[:i], host[i+1:]
		}
		add("host", host)
		add("port", port)
	}

	add("dbname", c.Database)

	if len(pairs) == 0 && len(c.Options) == 0 {
		return ""
	}

	options := map[string]string{"sslmode": "disable"}
	for k, v := range c.Options {
		options[k] = v
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, options[k])
	}

	return strings.Join(pairs, " ")
}

// ParseURL parses a key=value string, or a postgres:// URL, into a
// ConnectionURL.
func ParseURL(s string) (u ConnectionURL, err error) {
	if strings.HasPrefix(s, "postgres://") || strings.HasPrefix(s, "postgresql://") {
		if s, err = pq.ParseURL(s); err != nil {
			return u, err
		}
	}

	o, err := parseOpts(s)
	if err != nil {
		return u, err
	}

	u.User = o["user"]
	u.Password = o["password"]
	u.Database = o["dbname"]

	if h := o["host"]; strings.HasPrefix(h, "/") {
		u.Socket = h
	} else if h != "" {
		port := o["port"]
		if port == "" {
			port = defaultPort
		}
		u.Host = h + ":" + port
	}

	u.Options = map[string]string{}
	for k, v := range o {
		switch k {
		case "user", "password", "host", "port", "dbname":
		default:
			u.Options[k] = v
		}
	}

	return u, nil
}

// parseOpts follows libpq's conninfo_parse: whitespace separated key=value
// pairs, values may be single quoted and backslash escapes one character.
func parseOpts(s string) (map[string]string, error) {
	o := map[string]string{}
	r := []rune(s)
	i := 0

	skipSpaces := func() {
		for i < len(r) && unicode.IsSpace(r[i]) {
			i++
		}
	}

	for {
		skipSpaces()
		if i >= len(r) {
			return o, nil
		}

		start := i
		for i < len(r) && !unicode.IsSpace(r[i]) && r[i] != '=' {
			i++
		}
		key := string(r[start:i])

		skipSpaces()
		if i >= len(r) || r[i] != '=' {
			return nil, fmt.Errorf(`missing "=" after %q in connection info string`, key)
		}
		i++
		skipSpaces()

		var value []rune
		if i < len(r) && r[i] == '\'' {
			i++
			for {
				if i >= len(r) {
					return nil, errors.New(`unterminated quoted string literal in connection string`)
				}
				if r[i] == '\'' {
					i++
					break
				}
				if r[i] == '\\' {
					i++
					if i >= len(r) {
						return nil, errors.New(`missing character after backslash`)
					}
				}
				value = append(value, r[i])
				i++
			}
		} else {
			for i < len(r) && !unicode.IsSpace(r[i]) {
				if r[i] == '\\' {
					i++
					if i >= len(r) {
						return nil, errors.New(`missing character after backslash`)
					}
				}
				value = append(value, r[i])
				i++
			}
		}

		o[key] = string(value)
	}
}
