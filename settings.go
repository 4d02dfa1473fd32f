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
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Settings holds engine configuration, usually read from a YAML file:
//
//	log_level: debug
//	disable_cycle_guard: false
//	cascade:
//	  authors: posts
//	  posts: [comments, post_type]
type Settings struct {
	// LogLevel is a logrus level name ("debug", "info", ...). Empty keeps
	// the level of the logger in use.
	LogLevel string `yaml:"log_level"`

	// DisableCycleGuard turns off the per-walk visited set that stops a
	// cascade from entering the same record twice.
	DisableCycleGuard bool `yaml:"disable_cycle_guard"`

	// Cascade declares cascade targets per store name. An entry takes
	// precedence over the record's own CascadeDeletes().
	Cascade map[string]Targets `yaml:"cascade"`
}

// LoadSettings decodes YAML settings from r. Unknown keys are rejected.
func LoadSettings(r io.Reader) (*Settings, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Settings
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return nil, fmt.Errorf("cascade: decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReadSettingsFile reads YAML settings from the file at path.
func ReadSettingsFile(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadSettings(f)
}

// Validate checks the settings for values that cannot be applied.
func (s *Settings) Validate() error {
	if s.LogLevel != "" {
		if _, err := logrus.ParseLevel(s.LogLevel); err != nil {
			return fmt.Errorf("cascade: invalid log_level: %w", err)
		}
	}
	for name, targets := range s.Cascade {
		for _, target := range targets {
			if target == "" {
				return fmt.Errorf("cascade: empty relation name in targets of %q", name)
			}
		}
	}
	return nil
}

// Level returns the configured log level, ok is false if none was set.
func (s *Settings) Level() (level logrus.Level, ok bool) {
	if s == nil || s.LogLevel == "" {
		return 0, false
	}
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return 0, false
	}
	return level, true
}

func (s *Settings) targets(storeName string) (Targets, bool) {
	if s == nil || s.Cascade == nil {
		return nil, false
	}
	targets, ok := s.Cascade[storeName]
	return targets, ok
}
