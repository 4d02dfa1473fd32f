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

// Package cascade propagates soft deletes, force deletes and restores from a
// record to the records it declares as dependents.
//
// A record opts in by embedding SoftDeletes, listing the relations to follow
// in CascadeDeletes() and calling an Engine from its BeforeDelete hook:
//
//	type Author struct {
//		ID int64 `db:"id,omitempty"`
//		cascade.SoftDeletes
//	}
//
//	func (a *Author) CascadeDeletes() cascade.Targets {
//		return cascade.Targets{"posts"}
//	}
//
//	func (a *Author) Relations() cascade.Relations {
//		return cascade.Relations{
//			"posts": func() cascade.Relation {
//				return cascade.HasMany(&Post{}, "author_id", a.ID)
//			},
//		}
//	}
//
//	func (a *Author) BeforeDelete(sess cascade.Session) error {
//		return cascade.DefaultEngine.BeforeDelete(sess, a)
//	}
//
// Declared targets are validated before anything is modified. Related
// records are then deleted through the same session, so their own hooks run
// and the cascade continues down the graph.
package cascade

import (
	"github.com/sirupsen/logrus"
)

// DefaultEngine is an Engine with no settings. It logs to Logger().
var DefaultEngine = &Engine{}

// Engine runs cascades. The zero value is ready to use.
type Engine struct {
	// Settings, if not nil, overrides targets per store and tunes the engine.
	Settings *Settings

	// Logger receives one entry per cascade step. Defaults to Logger().
	Logger logrus.FieldLogger

	// Observer is notified of every cascade. Defaults to a no-op.
	Observer Observer
}

// NewEngine creates an engine configured by settings. If settings carry a
// log level the engine gets its own logger at that level.
func NewEngine(settings *Settings) *Engine {
	e := &Engine{Settings: settings}
	if level, ok := settings.Level(); ok {
		lg := logrus.New()
		lg.SetLevel(level)
		e.Logger = lg
	}
	return e
}

func (e *Engine) logger() logrus.FieldLogger {
	if e.Logger != nil {
		return e.Logger
	}
	return Logger()
}

func (e *Engine) observer() Observer {
	if e.Observer != nil {
		return e.Observer
	}
	return nopObserver{}
}

func (e *Engine) guarded() bool {
	return e.Settings == nil || !e.Settings.DisableCycleGuard
}

// BeforeDelete cascades the deletion of rec to its declared targets. It is
// meant to be called from the record's BeforeDelete hook, so it runs before
// rec itself is removed and an error aborts the deletion.
//
// Related records are soft deleted, or permanently removed if rec is being
// force deleted. For pivoted relations the pivot record is removed and the
// far record is left alone.
func (e *Engine) BeforeDelete(sess Session, rec Record) error {
	sd, ok := rec.(SoftDeletable)
	if !ok {
		return &SoftDeleteNotSupportedError{Type: TypeName(rec)}
	}
	op := OpDelete
	if sd.ForceDeleting() {
		op = OpForceDelete
	}
	return e.run(sess, rec, op)
}

// BeforeRestore cascades the restoration of rec to the soft-deleted records
// of its declared targets. Records that cannot be soft deleted, or whose store
// cannot, are ignored.
func (e *Engine) BeforeRestore(sess Session, rec Record) error {
	if !SupportsSoftDelete(rec) {
		return nil
	}
	if _, ok := rec.Store(sess).(SoftDeleteStore); !ok {
		return nil
	}
	return e.run(sess, rec, OpRestore)
}

func (e *Engine) run(sess Session, rec Record, op Op) (err error) {
	typeName := TypeName(rec)

	if invalid := e.InvalidTargets(sess, rec); len(invalid) > 0 {
		return &InvalidRelationshipsError{Type: typeName, Relationships: invalid}
	}

	ctx := sess.Context()
	w := walkFrom(ctx)
	if w == nil || w.op != op {
		w = newWalk(op)
		ctx = withWalk(ctx, w)
	}

	log := e.logger().WithFields(logrus.Fields{
		"walk": w.id,
		"op":   op.String(),
		"type": typeName,
	})

	if e.guarded() && !w.enter(recordKey(sess, rec)) {
		log.Debug("record already visited, skipping")
		return nil
	}

	ctx, done := e.observer().Begin(ctx, op, typeName)
	affected := 0
	defer func() {
		done(affected, err)
	}()
	sess = sess.WithContext(ctx)

	active, err := e.ActiveTargets(sess, rec, op == OpRestore)
	if err != nil {
		return err
	}

	relations := relationsOf(rec)
	for _, name := range active {
		rel, ok := resolve(relations, name)
		if !ok {
			continue
		}
		n, err := e.follow(sess, w, rel, op, log.WithField("relation", name))
		affected += n
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) follow(sess Session, w *walk, rel Relation, op Op, log logrus.FieldLogger) (int, error) {
	matches, err := rel.All(sess, op != OpDelete)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, m := range matches {
		target := m.Target()
		if target == nil {
			continue
		}
		if op == OpRestore && !restorable(m) {
			continue
		}
		if e.guarded() && w.seen(recordKey(sess, target)) {
			log.WithField("target", TypeName(target)).Debug("target already visited, skipping")
			continue
		}

		switch op {
		case OpDelete:
			err = sess.Delete(target)
		case OpForceDelete:
			err = sess.ForceDelete(target)
		case OpRestore:
			err = sess.Restore(target)
		}
		if err != nil {
			log.WithError(err).WithField("target", TypeName(target)).Debug("cascade failed")
			return n, err
		}
		if e.guarded() {
			w.enter(recordKey(sess, target))
		}
		n++
		log.WithField("target", TypeName(target)).Debug("cascaded")
	}
	return n, nil
}
