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
	"context"
	"errors"
	"reflect"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/upper/cascade"
	"github.com/upper/cascade/internal/mapper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const primaryKey = "id"

type store struct {
	ctx        context.Context
	collection *mongo.Collection
	counters   *mongo.Collection
}

func (s *store) Name() string {
	return s.collection.Name()
}

func (s *store) PrimaryKeys() []string {
	return []string{primaryKey}
}

// nextID assigns an identifier of the same kind as current.
func (s *store) nextID(current interface{}) (interface{}, error) {
	if reflect.ValueOf(current).Kind() == reflect.String {
		return uuid.NewString(), nil
	}

	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(
		s.ctx,
		bson.D{{Key: "_id", Value: s.Name()}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: int64(1)}}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return nil, err
	}
	return counter.Seq, nil
}

func (s *store) Insert(rec cascade.Record) error {
	current, err := mapper.Get(rec, primaryKey)
	if err != nil {
		return err
	}
	if mapper.IsZero(current) {
		id, err := s.nextID(current)
		if err != nil {
			return err
		}
		if err := mapper.Set(rec, primaryKey, id); err != nil {
			return err
		}
	}

	columns, values, err := mapper.Map(rec)
	if err != nil {
		return err
	}
	doc := make(bson.D, 0, len(columns))
	for i := range columns {
		doc = append(doc, bson.E{Key: columns[i], Value: values[i]})
	}

	_, err = s.collection.InsertOne(s.ctx, doc)
	return err
}

func (s *store) Find(proto cascade.Record, cond cascade.Cond, withTrashed bool) ([]cascade.Record, error) {
	cursor, err := s.collection.Find(
		s.ctx,
		filter(proto, cond, withTrashed),
		options.Find().SetSort(bson.D{{Key: primaryKey, Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(s.ctx)

	records := []cascade.Record{}
	for cursor.Next(s.ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		rec, err := decode(proto, doc)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *store) Exists(proto cascade.Record, cond cascade.Cond, withTrashed bool) (bool, error) {
	n, err := s.collection.CountDocuments(
		s.ctx,
		filter(proto, cond, withTrashed),
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *store) Delete(rec cascade.Record) error {
	cond, err := cascade.KeyCond(s, rec)
	if err != nil {
		return err
	}
	_, err = s.collection.DeleteOne(s.ctx, filter(nil, cond, true))
	return err
}

func (s *store) MarkDeleted(rec cascade.Record, at time.Time) error {
	return s.setDeletedAt(rec, at)
}

func (s *store) MarkRestored(rec cascade.Record) error {
	return s.setDeletedAt(rec, nil)
}

func (s *store) setDeletedAt(rec cascade.Record, value interface{}) error {
	cond, err := cascade.KeyCond(s, rec)
	if err != nil {
		return err
	}
	_, err = s.collection.UpdateOne(
		s.ctx,
		filter(nil, cond, true),
		bson.D{{Key: "$set", Value: bson.D{{Key: cascade.DeletedAtColumn, Value: value}}}},
	)
	return err
}

// filter turns cond into a query document. Keys are sorted so equal
// conditions produce equal documents. A nil value matches both null and
// missing fields.
func filter(proto cascade.Record, cond cascade.Cond, withTrashed bool) bson.D {
	keys := make([]string, 0, len(cond))
	for k := range cond {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys)+1)
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: cond[k]})
	}
	if !withTrashed && proto != nil && cascade.SupportsSoftDelete(proto) {
		doc = append(doc, bson.E{Key: cascade.DeletedAtColumn, Value: nil})
	}
	return doc
}

func decode(proto cascade.Record, doc bson.M) (cascade.Record, error) {
	rec := mapper.New(proto).(cascade.Record)
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			v = dt.Time().UTC()
		}
		if err := mapper.Set(rec, k, v); err != nil {
			if errors.Is(err, mapper.ErrNoSuchField) {
				continue
			}
			return nil, err
		}
	}
	return rec, nil
}

var _ cascade.SoftDeleteStore = &store{}
