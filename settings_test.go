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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettings(t *testing.T) {
	s, err := LoadSettings(strings.NewReader(`
log_level: debug
disable_cycle_guard: true
cascade:
  authors: posts
  posts: [comments, post_type]
`))
	require.NoError(t, err)

	assert.True(t, s.DisableCycleGuard)
	assert.Equal(t, Targets{"posts"}, s.Cascade["authors"])
	assert.Equal(t, Targets{"comments", "post_type"}, s.Cascade["posts"])

	level, ok := s.Level()
	assert.True(t, ok)
	assert.Equal(t, logrus.DebugLevel, level)

	targets, ok := s.targets("posts")
	assert.True(t, ok)
	assert.Equal(t, Targets{"comments", "post_type"}, targets)

	_, ok = s.targets("comments")
	assert.False(t, ok)
}

func TestLoadEmptySettings(t *testing.T) {
	s, err := LoadSettings(strings.NewReader(""))
	require.NoError(t, err)

	_, ok := s.Level()
	assert.False(t, ok)
	assert.False(t, s.DisableCycleGuard)

	_, ok = s.targets("posts")
	assert.False(t, ok)
}

func TestLoadSettingsErrors(t *testing.T) {
	_, err := LoadSettings(strings.NewReader("unknown_key: 1\n"))
	assert.Error(t, err)

	_, err = LoadSettings(strings.NewReader("log_level: loud\n"))
	assert.Error(t, err)

	_, err = LoadSettings(strings.NewReader("cascade:\n  posts: ['']\n"))
	assert.Error(t, err)

	_, err = LoadSettings(strings.NewReader("cascade:\n  posts: {comments: true}\n"))
	assert.Error(t, err)
}

func TestReadSettingsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cascade.yml")
	require.NoError(t, os.WriteFile(path, []byte("cascade:\n  posts: comments\n"), 0o600))

	s, err := ReadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, Targets{"comments"}, s.Cascade["posts"])

	_, err = ReadSettingsFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestNilSettings(t *testing.T) {
	var s *Settings

	_, ok := s.Level()
	assert.False(t, ok)

	_, ok = s.targets("posts")
	assert.False(t, ok)
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(nil)
	assert.Nil(t, e.Logger)
	assert.Equal(t, Logger(), e.logger())
	assert.True(t, e.guarded())

	e = NewEngine(&Settings{LogLevel: "info", DisableCycleGuard: true})
	require.NotNil(t, e.Logger)
	assert.Equal(t, logrus.InfoLevel, e.Logger.(*logrus.Logger).GetLevel())
	assert.False(t, e.guarded())
}

func TestEngineTargets(t *testing.T) {
	rec := &fakeRecord{ID: 1}

	// fakeRecord declares nothing on its own.
	assert.Empty(t, DefaultEngine.Targets(nil, rec))

	e := NewEngine(&Settings{Cascade: map[string]Targets{"fakes": {"children"}}})
	assert.Equal(t, Targets{"children"}, e.Targets(nil, rec))
	assert.Equal(t, []string{"children"}, e.InvalidTargets(nil, rec))
}

func TestSetLogger(t *testing.T) {
	prev := Logger()
	defer SetLogger(prev)

	lg := logrus.New()
	SetLogger(lg)
	assert.Equal(t, lg, Logger())

	SetLogger(nil)
	require.NotNil(t, Logger())
	Logger().Info("discarded")
}
