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
	"fmt"

	detectrace "github.com/ipfs/go-detect-race"
	"github.com/upper/cascade"
)

type CascadeTestSuite struct {
	Suite
}

func (s *CascadeTestSuite) count(proto cascade.Record, cond cascade.Cond, withTrashed bool) int {
	records, err := s.Session().Find(proto, cond, withTrashed)
	s.Require().NoError(err)
	return len(records)
}

func (s *CascadeTestSuite) createPost(post cascade.Record) {
	err := s.Session().Insert(post)
	s.Require().NoError(err)
}

func (s *CascadeTestSuite) attachComments(postID int64) {
	sess := s.Session()
	for _, body := range []string{
		"This is the first test comment",
		"This is the second test comment",
		"This is the third test comment",
	} {
		err := sess.Insert(&Comment{PostID: postID, Body: body})
		s.Require().NoError(err)
	}
}

func (s *CascadeTestSuite) attachSoftComments(postID int64) []*SoftDeleteComment {
	sess := s.Session()
	comments := []*SoftDeleteComment{}
	for i := 1; i <= 3; i++ {
		comment := &SoftDeleteComment{PostID: postID, Body: fmt.Sprintf("Soft comment #%d", i)}
		err := sess.Insert(comment)
		s.Require().NoError(err)
		comments = append(comments, comment)
	}
	return comments
}

func (s *CascadeTestSuite) attachPostTypes(authorID int64) []*PostType {
	sess := s.Session()
	postTypes := []*PostType{}
	for _, label := range []string{"First Post Type", "Second Post Type"} {
		postType := &PostType{Label: label}
		s.Require().NoError(sess.Insert(postType))
		s.Require().NoError(sess.Insert(&AuthorPostType{AuthorID: authorID, PostTypeID: postType.ID}))
		postTypes = append(postTypes, postType)
	}
	return postTypes
}

func (s *CascadeTestSuite) attachPostsAndComments(authorID int64) []*Post {
	posts := []*Post{}
	for _, title := range []string{"First post", "Second post"} {
		post := &Post{AuthorID: authorID, Title: title, Body: "This is a test post"}
		s.createPost(post)
		s.attachComments(post.ID)
		posts = append(posts, post)
	}
	return posts
}

func (s *CascadeTestSuite) TestCascadesDeletesWhenDeletingAParentRecord() {
	sess := s.Session()

	post := &Post{
		Title: "How to cascade soft deletes",
		Body:  "This is how you cascade soft deletes",
	}
	s.createPost(post)
	s.attachComments(post.ID)

	s.Equal(3, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))

	err := sess.Delete(post)
	s.NoError(err)

	s.True(post.Trashed())
	s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
	s.Equal(0, s.count(&Post{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(1, s.count(&Post{}, cascade.Cond{"id": post.ID}, true))
}

func (s *CascadeTestSuite) TestCascadesDeletesEntriesFromPivotTable() {
	sess := s.Session()

	author := &Author{Name: "ManyToManyTestAuthor"}
	s.Require().NoError(sess.Insert(author))

	s.attachPostTypes(author.ID)
	s.Equal(2, s.count(&AuthorPostType{}, cascade.Cond{"author_id": author.ID}, false))

	err := sess.Delete(author)
	s.NoError(err)

	s.Equal(0, s.count(&AuthorPostType{}, cascade.Cond{"author_id": author.ID}, true))
	s.Equal(2, s.count(&PostType{}, cascade.Cond{}, false), "far records must be left alone")
}

func (s *CascadeTestSuite) TestCascadesDeletesWhenForceDeletingAParentRecord() {
	sess := s.Session()

	post := &Post{
		Title: "How to cascade soft deletes",
		Body:  "This is how you cascade soft deletes",
	}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.ForceDelete(post)
	s.NoError(err)

	s.False(post.ForceDeleting())
	s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
	s.Equal(0, s.count(&Post{}, cascade.Cond{"id": post.ID}, true))
}

func (s *CascadeTestSuite) TestRejectsRecordsWithoutSoftDeletes() {
	sess := s.Session()

	post := &NonSoftDeletingPost{
		Title: "Testing when you can use cascading deletes",
		Body:  "Ensure that you can only cascade deletes of records with soft deletes",
	}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.Delete(post)
	s.Error(err)
	s.True(errors.Is(err, cascade.ErrSoftDeleteNotSupported))
	s.EqualError(err, "testsuite.NonSoftDeletingPost does not implement cascade.SoftDeletes")

	s.Equal(1, s.count(&NonSoftDeletingPost{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(3, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
}

func (s *CascadeTestSuite) TestRejectsInvalidRelationships() {
	sess := s.Session()

	post := &InvalidRelationshipPost{
		Title: "Testing invalid cascade relationships",
		Body:  "Ensure you can only cascade through valid relationships",
	}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.Delete(post)
	s.Error(err)
	s.True(errors.Is(err, cascade.ErrInvalidRelationships))
	s.EqualError(err, "Relationships [invalidRelationship, anotherInvalidRelationship] must exist and return an object of type cascade.Relation")

	var relErr *cascade.InvalidRelationshipsError
	s.Require().True(errors.As(err, &relErr))
	s.Equal([]string{"invalidRelationship", "anotherInvalidRelationship"}, relErr.Relationships)
}

func (s *CascadeTestSuite) TestNoDeletesArePerformedWithInvalidRelationships() {
	sess := s.Session()

	post := &InvalidRelationshipPost{
		Title: "Testing deletes are not executed",
		Body:  "If an invalid relationship is encountered, no deletes should be performed",
	}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.Delete(post)
	s.Error(err)

	s.False(post.Trashed())
	s.Equal(1, s.count(&InvalidRelationshipPost{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(3, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
}

func (s *CascadeTestSuite) TestAcceptsASingleStringTarget() {
	sess := s.Session()

	post := &PostWithStringCascade{
		Title: "Testing you can use a string for a single relationship",
		Body:  "Targets may be declared as a single name",
	}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.Delete(post)
	s.NoError(err)

	s.Equal(0, s.count(&PostWithStringCascade{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(1, s.count(&PostWithStringCascade{}, cascade.Cond{"id": post.ID}, true))
	s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
}

func (s *CascadeTestSuite) TestMissingRelationship() {
	sess := s.Session()

	post := &PostWithMissingRelationshipMethod{
		Title: "Testing that missing relationships are accounted for",
		Body:  "Missing relationships are reported, not crashed on",
	}
	s.createPost(post)

	err := sess.Delete(post)
	s.Error(err)
	s.EqualError(err, "Relationship [comments] must exist and return an object of type cascade.Relation")

	s.Equal(1, s.count(&PostWithMissingRelationshipMethod{}, cascade.Cond{"id": post.ID}, false))
}

func (s *CascadeTestSuite) TestInheritedSoftDeletes() {
	sess := s.Session()

	post := &ChildPost{Post: Post{
		Title: "Testing child record inheriting soft deletes",
		Body:  "A record embedding another one inherits its soft deletes",
	}}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.Delete(post)
	s.NoError(err)

	s.Equal(0, s.count(&ChildPost{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(1, s.count(&ChildPost{}, cascade.Cond{"id": post.ID}, true))
	s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
}

func (s *CascadeTestSuite) TestGrandchildren() {
	sess := s.Session()

	author := &Author{Name: "Testing grandchildren are deleted"}
	s.Require().NoError(sess.Insert(author))

	posts := s.attachPostsAndComments(author.ID)

	err := sess.Delete(author)
	s.NoError(err)

	s.Equal(0, s.count(&Author{}, cascade.Cond{"id": author.ID}, false))
	s.Equal(1, s.count(&Author{}, cascade.Cond{"id": author.ID}, true))
	s.Equal(0, s.count(&Post{}, cascade.Cond{"author_id": author.ID}, false))
	s.Equal(2, s.count(&Post{}, cascade.Cond{"author_id": author.ID}, true))

	for _, post := range posts {
		s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
	}
}

func (s *CascadeTestSuite) TestHasOne() {
	sess := s.Session()

	post := &Post{
		Title: "Cascade a has one relationship",
		Body:  "This is how you cascade a has one relationship",
	}
	s.createPost(post)

	postType := &PostType{PostID: post.ID, Label: "Test"}
	s.Require().NoError(sess.Insert(postType))

	err := sess.Delete(post)
	s.NoError(err)

	s.Equal(0, s.count(&PostType{}, cascade.Cond{"id": postType.ID}, false))
}

func (s *CascadeTestSuite) TestRestoreKeepsPermanentlyRemovedChildren() {
	sess := s.Session()

	author := &Author{Name: "Testing restores"}
	s.Require().NoError(sess.Insert(author))

	posts := s.attachPostsAndComments(author.ID)

	s.Require().NoError(sess.Delete(author))
	s.Equal(0, s.count(&Post{}, cascade.Cond{"author_id": author.ID}, false))

	err := sess.Restore(author)
	s.NoError(err)

	s.False(author.Trashed())
	s.Equal(1, s.count(&Author{}, cascade.Cond{"id": author.ID}, false))
	s.Equal(2, s.count(&Post{}, cascade.Cond{"author_id": author.ID}, false))
	for _, post := range posts {
		s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
	}
}

func (s *CascadeTestSuite) TestRestoreSoftDeletableChildren() {
	sess := s.Session()

	post := &SoftCommentPost{Title: "Restorable", Body: "Comments come back"}
	s.createPost(post)
	s.attachSoftComments(post.ID)

	s.Require().NoError(sess.Delete(post))
	s.Equal(0, s.count(&SoftDeleteComment{}, cascade.Cond{"post_id": post.ID}, false))
	s.Equal(3, s.count(&SoftDeleteComment{}, cascade.Cond{"post_id": post.ID}, true))

	err := sess.Restore(post)
	s.NoError(err)

	s.Equal(1, s.count(&SoftCommentPost{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(3, s.count(&SoftDeleteComment{}, cascade.Cond{"post_id": post.ID}, false))
}

func (s *CascadeTestSuite) TestForceDeletedRecordsCannotBeRestored() {
	sess := s.Session()

	post := &SoftCommentPost{Title: "Gone", Body: "For good"}
	s.createPost(post)
	s.attachSoftComments(post.ID)

	s.Require().NoError(sess.ForceDelete(post))

	err := sess.Restore(post)
	s.NoError(err)

	s.Equal(0, s.count(&SoftCommentPost{}, cascade.Cond{"id": post.ID}, true))
	s.Equal(0, s.count(&SoftDeleteComment{}, cascade.Cond{"post_id": post.ID}, true))
}

func (s *CascadeTestSuite) TestForceDeletePurgesTrashedDescendants() {
	sess := s.Session()

	post := &SoftCommentPost{Title: "Purge", Body: "Trashed comments included"}
	s.createPost(post)
	comments := s.attachSoftComments(post.ID)

	s.Require().NoError(sess.Delete(comments[0]))
	s.Equal(2, s.count(&SoftDeleteComment{}, cascade.Cond{"post_id": post.ID}, false))

	err := sess.ForceDelete(post)
	s.NoError(err)

	s.Equal(0, s.count(&SoftDeleteComment{}, cascade.Cond{"post_id": post.ID}, true))
}

func (s *CascadeTestSuite) TestSoftDeletablePivotsAreRestored() {
	sess := s.Session()

	author := &Author{Name: "Labelled"}
	s.Require().NoError(sess.Insert(author))

	for _, name := range []string{"go", "sql"} {
		label := &Label{Label: name}
		s.Require().NoError(sess.Insert(label))
		s.Require().NoError(sess.Insert(&AuthorLabel{AuthorID: author.ID, LabelID: label.ID}))
	}

	s.Require().NoError(sess.Delete(author))
	s.Equal(0, s.count(&AuthorLabel{}, cascade.Cond{"author_id": author.ID}, false))
	s.Equal(2, s.count(&AuthorLabel{}, cascade.Cond{"author_id": author.ID}, true))
	s.Equal(2, s.count(&Label{}, cascade.Cond{}, false))

	err := sess.Restore(author)
	s.NoError(err)

	s.Equal(2, s.count(&AuthorLabel{}, cascade.Cond{"author_id": author.ID}, false))
}

func (s *CascadeTestSuite) TestCyclesTerminate() {
	sess := s.Session()

	team := &Team{Name: "Gophers"}
	s.Require().NoError(sess.Insert(team))
	for _, name := range []string{"Ann", "Bob"} {
		s.Require().NoError(sess.Insert(&Member{TeamID: team.ID, Name: name}))
	}

	err := sess.Delete(team)
	s.NoError(err)

	s.Equal(0, s.count(&Team{}, cascade.Cond{}, false))
	s.Equal(1, s.count(&Team{}, cascade.Cond{}, true))
	s.Equal(0, s.count(&Member{}, cascade.Cond{"team_id": team.ID}, false))
	s.Equal(2, s.count(&Member{}, cascade.Cond{"team_id": team.ID}, true))
}

func (s *CascadeTestSuite) TestCyclesTerminateOnForceDelete() {
	sess := s.Session()

	team := &Team{Name: "Gophers"}
	s.Require().NoError(sess.Insert(team))
	s.Require().NoError(sess.Insert(&Member{TeamID: team.ID, Name: "Ann"}))

	err := sess.ForceDelete(team)
	s.NoError(err)

	s.Equal(0, s.count(&Team{}, cascade.Cond{}, true))
	s.Equal(0, s.count(&Member{}, cascade.Cond{}, true))
}

func (s *CascadeTestSuite) TestDeepChain() {
	sess := s.Session()

	depth := 100
	if detectrace.WithRace() {
		depth = 20
	}

	root := &Node{Name: "node-0"}
	s.Require().NoError(sess.Insert(root))

	parent := root
	for i := 1; i < depth; i++ {
		node := &Node{ParentID: parent.ID, Name: fmt.Sprintf("node-%d", i)}
		s.Require().NoError(sess.Insert(node))
		parent = node
	}

	err := sess.Delete(root)
	s.NoError(err)

	s.Equal(0, s.count(&Node{}, cascade.Cond{}, false))
	s.Equal(depth, s.count(&Node{}, cascade.Cond{}, true))

	err = sess.Restore(root)
	s.NoError(err)

	s.Equal(depth, s.count(&Node{}, cascade.Cond{}, false))
}

func (s *CascadeTestSuite) TestHookErrorsPropagate() {
	sess := s.Session()

	post := &LockingPost{Title: "Locked", Body: "One comment refuses"}
	s.createPost(post)
	for _, body := range []string{"free", "locked"} {
		s.Require().NoError(sess.Insert(&Comment{PostID: post.ID, Body: body}))
	}

	err := sess.Delete(post)
	s.Error(err)
	s.True(errors.Is(err, ErrLocked))
	s.False(post.Trashed())
	s.Equal(1, s.count(&LockingPost{}, cascade.Cond{"id": post.ID}, false))
}

func (s *CascadeTestSuite) TestRollbackWithinTx() {
	if s.Adapter() == "mongo" {
		s.T().Skip("transactions are not supported by this adapter")
	}

	sess := s.Session()

	post := &LockingPost{Title: "Locked", Body: "One comment refuses"}
	s.createPost(post)
	for _, body := range []string{"free", "free", "locked"} {
		s.Require().NoError(sess.Insert(&Comment{PostID: post.ID, Body: body}))
	}

	err := sess.Tx(func(tx cascade.Session) error {
		return tx.Delete(post)
	})
	s.Error(err)
	s.True(errors.Is(err, ErrLocked))

	s.Equal(1, s.count(&LockingPost{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(3, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
}

func (s *CascadeTestSuite) TestDeleteWithinTx() {
	if s.Adapter() == "mongo" {
		s.T().Skip("transactions are not supported by this adapter")
	}

	sess := s.Session()

	post := &Post{Title: "Committed", Body: "Cascade inside a transaction"}
	s.createPost(post)
	s.attachComments(post.ID)

	err := sess.Tx(func(tx cascade.Session) error {
		return tx.Delete(post)
	})
	s.NoError(err)

	s.Equal(0, s.count(&Post{}, cascade.Cond{"id": post.ID}, false))
	s.Equal(0, s.count(&Comment{}, cascade.Cond{"post_id": post.ID}, false))
}
