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

package testsuite

import (
	"errors"
	"strings"

	"github.com/upper/cascade"
)

// Tables lists the tables (or collections) used by the suite.
var Tables = []string{
	"authors",
	"posts",
	"comments",
	"soft_delete_comments",
	"post_types",
	"authors__post_types",
	"labels",
	"authors__labels",
	"teams",
	"members",
	"nodes",
}

var engine = cascade.DefaultEngine

// Records stored in posts whose targets come from settings rather than
// from the record itself.
var settingsEngine = cascade.NewEngine(mustLoadSettings(`
cascade:
  posts: comments
`))

func mustLoadSettings(doc string) *cascade.Settings {
	settings, err := cascade.LoadSettings(strings.NewReader(doc))
	if err != nil {
		panic(err)
	}
	return settings
}

var ErrLocked = errors.New("comment is locked")

type Author struct {
	ID   int64  `db:"id,omitempty"`
	Name string `db:"name"`

	cascade.SoftDeletes
}

func (*Author) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("authors")
}

func (*Author) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"posts", "post_types", "labels"}
}

func (a *Author) Relations() cascade.Relations {
	return cascade.Relations{
		"posts": func() cascade.Relation {
			return cascade.HasMany(&Post{}, "author_id", a.ID)
		},
		"post_types": func() cascade.Relation {
			return cascade.BelongsToMany(&PostType{}, &AuthorPostType{}, "author_id", a.ID, "posttype_id")
		},
		"labels": func() cascade.Relation {
			return cascade.BelongsToMany(&Label{}, &AuthorLabel{}, "author_id", a.ID, "label_id")
		},
	}
}

func (a *Author) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, a)
}

func (a *Author) BeforeRestore(sess cascade.Session) error {
	return engine.BeforeRestore(sess, a)
}

type Post struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`

	cascade.SoftDeletes
}

func (*Post) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (*Post) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"comments", "post_type"}
}

func (p *Post) Relations() cascade.Relations {
	return cascade.Relations{
		"comments": func() cascade.Relation {
			return cascade.HasMany(&Comment{}, "post_id", p.ID)
		},
		"post_type": func() cascade.Relation {
			return cascade.HasOne(&PostType{}, "post_id", p.ID)
		},
	}
}

func (p *Post) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, p)
}

func (p *Post) BeforeRestore(sess cascade.Session) error {
	return engine.BeforeRestore(sess, p)
}

// ChildPost inherits the soft-delete behaviour of Post.
type ChildPost struct {
	Post
}

func (c *ChildPost) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, c)
}

type Comment struct {
	ID     int64  `db:"id,omitempty"`
	PostID int64  `db:"post_id"`
	Body   string `db:"body"`
}

func (*Comment) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("comments")
}

// LockedComment refuses to be deleted when its body is "locked".
type LockedComment struct {
	Comment
}

func (c *LockedComment) BeforeDelete(sess cascade.Session) error {
	if c.Body == "locked" {
		return ErrLocked
	}
	return nil
}

type SoftDeleteComment struct {
	ID     int64  `db:"id,omitempty"`
	PostID int64  `db:"post_id"`
	Body   string `db:"body"`

	cascade.SoftDeletes
}

func (*SoftDeleteComment) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("soft_delete_comments")
}

// SoftCommentPost is a post whose comments can be restored.
type SoftCommentPost struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`

	cascade.SoftDeletes
}

func (*SoftCommentPost) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (*SoftCommentPost) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"comments"}
}

func (p *SoftCommentPost) Relations() cascade.Relations {
	return cascade.Relations{
		"comments": func() cascade.Relation {
			return cascade.HasMany(&SoftDeleteComment{}, "post_id", p.ID)
		},
	}
}

func (p *SoftCommentPost) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, p)
}

func (p *SoftCommentPost) BeforeRestore(sess cascade.Session) error {
	return engine.BeforeRestore(sess, p)
}

type PostType struct {
	ID     int64  `db:"id,omitempty"`
	PostID int64  `db:"post_id"`
	Label  string `db:"label"`
}

func (*PostType) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("post_types")
}

type AuthorPostType struct {
	ID         int64 `db:"id,omitempty"`
	AuthorID   int64 `db:"author_id"`
	PostTypeID int64 `db:"posttype_id"`
}

func (*AuthorPostType) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("authors__post_types")
}

type Label struct {
	ID    int64  `db:"id,omitempty"`
	Label string `db:"label"`
}

func (*Label) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("labels")
}

// AuthorLabel is a link record that is soft deleted along with the author.
type AuthorLabel struct {
	ID       int64 `db:"id,omitempty"`
	AuthorID int64 `db:"author_id"`
	LabelID  int64 `db:"label_id"`

	cascade.SoftDeletes
}

func (*AuthorLabel) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("authors__labels")
}

type InvalidRelationshipPost struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`

	cascade.SoftDeletes
}

func (*InvalidRelationshipPost) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (*InvalidRelationshipPost) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"comments", "invalidRelationship", "anotherInvalidRelationship"}
}

func (p *InvalidRelationshipPost) Relations() cascade.Relations {
	return cascade.Relations{
		"comments": func() cascade.Relation {
			return cascade.HasMany(&Comment{}, "post_id", p.ID)
		},
		"invalidRelationship": func() cascade.Relation {
			return nil
		},
		"anotherInvalidRelationship": func() cascade.Relation {
			return nil
		},
	}
}

func (p *InvalidRelationshipPost) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, p)
}

type PostWithMissingRelationshipMethod struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`

	cascade.SoftDeletes
}

func (*PostWithMissingRelationshipMethod) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (*PostWithMissingRelationshipMethod) CascadeDeletes() cascade.Targets {
	targets, _ := cascade.ParseTargets("comments")
	return targets
}

func (p *PostWithMissingRelationshipMethod) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, p)
}

// PostWithStringCascade gets its targets from settings, where they are
// declared as a single string.
type PostWithStringCascade struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`

	cascade.SoftDeletes
}

func (*PostWithStringCascade) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (p *PostWithStringCascade) Relations() cascade.Relations {
	return cascade.Relations{
		"comments": func() cascade.Relation {
			return cascade.HasMany(&Comment{}, "post_id", p.ID)
		},
	}
}

func (p *PostWithStringCascade) BeforeDelete(sess cascade.Session) error {
	return settingsEngine.BeforeDelete(sess, p)
}

type NonSoftDeletingPost struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`
}

func (*NonSoftDeletingPost) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (*NonSoftDeletingPost) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"comments"}
}

func (p *NonSoftDeletingPost) Relations() cascade.Relations {
	return cascade.Relations{
		"comments": func() cascade.Relation {
			return cascade.HasMany(&Comment{}, "post_id", p.ID)
		},
	}
}

func (p *NonSoftDeletingPost) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, p)
}

// LockingPost cascades into comments that may refuse to be deleted.
type LockingPost struct {
	ID       int64  `db:"id,omitempty"`
	AuthorID int64  `db:"author_id"`
	Title    string `db:"title"`
	Body     string `db:"body"`

	cascade.SoftDeletes
}

func (*LockingPost) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("posts")
}

func (*LockingPost) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"comments"}
}

func (p *LockingPost) Relations() cascade.Relations {
	return cascade.Relations{
		"comments": func() cascade.Relation {
			return cascade.HasMany(&LockedComment{}, "post_id", p.ID)
		},
	}
}

func (p *LockingPost) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, p)
}

// Team and Member point at each other, deleting either one must terminate.
type Team struct {
	ID   int64  `db:"id,omitempty"`
	Name string `db:"name"`

	cascade.SoftDeletes
}

func (*Team) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("teams")
}

func (*Team) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"members"}
}

func (t *Team) Relations() cascade.Relations {
	return cascade.Relations{
		"members": func() cascade.Relation {
			return cascade.HasMany(&Member{}, "team_id", t.ID)
		},
	}
}

func (t *Team) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, t)
}

type Member struct {
	ID     int64  `db:"id,omitempty"`
	TeamID int64  `db:"team_id"`
	Name   string `db:"name"`

	cascade.SoftDeletes
}

func (*Member) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("members")
}

func (*Member) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"team"}
}

func (m *Member) Relations() cascade.Relations {
	return cascade.Relations{
		"team": func() cascade.Relation {
			return cascade.HasOne(&Team{}, "id", m.TeamID)
		},
	}
}

func (m *Member) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, m)
}

// Node is a self-referencing tree.
type Node struct {
	ID       int64  `db:"id,omitempty"`
	ParentID int64  `db:"parent_id"`
	Name     string `db:"name"`

	cascade.SoftDeletes
}

func (*Node) Store(sess cascade.Session) cascade.Store {
	return sess.Collection("nodes")
}

func (*Node) CascadeDeletes() cascade.Targets {
	return cascade.Targets{"children"}
}

func (n *Node) Relations() cascade.Relations {
	return cascade.Relations{
		"children": func() cascade.Relation {
			return cascade.HasMany(&Node{}, "parent_id", n.ID)
		},
	}
}

func (n *Node) BeforeDelete(sess cascade.Session) error {
	return engine.BeforeDelete(sess, n)
}

func (n *Node) BeforeRestore(sess cascade.Session) error {
	return engine.BeforeRestore(sess, n)
}
