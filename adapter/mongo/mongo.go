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

// Package mongo is the MongoDB adapter, on top of the official
// go.mongodb.org/mongo-driver.
//
// Records are stored as documents whose fields are the record's db columns,
// the primary key is always the "id" field. Integer keys are taken from
// sequences kept in the __counters collection, string keys are random UUIDs.
// Transactions are not supported.
package mongo

import (
	"context"
	"time"

	"github.com/upper/cascade"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Adapter holds the name of the mongodb adapter.
const Adapter = `mongo`

const countersCollection = `__counters`

var connTimeout = time.Second * 5

type mongoAdapter struct{}

func (mongoAdapter) Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	return Open(connURL)
}

func init() {
	cascade.RegisterAdapter(Adapter, &mongoAdapter{})
}

// Open connects to a MongoDB server.
func Open(connURL cascade.ConnectionURL) (cascade.Session, error) {
	b, err := connect(connURL)
	if err != nil {
		return nil, err
	}
	return cascade.NewSession(b), nil
}

type backend struct {
	client   *mongo.Client
	database *mongo.Database
}

func connect(connURL cascade.ConnectionURL) (*backend, error) {
	if connURL == nil {
		return nil, cascade.ErrMissingConnURL
	}
	conn, err := ParseURL(connURL.String())
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connURL.String()))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &backend{
		client:   client,
		database: client.Database(conn.Database),
	}, nil
}

func (b *backend) Name() string {
	return b.database.Name()
}

func (b *backend) Collection(ctx context.Context, name string) cascade.Store {
	return &store{
		ctx:        ctx,
		collection: b.database.Collection(name),
		counters:   b.database.Collection(countersCollection),
	}
}

func (b *backend) Tx(context.Context, func(cascade.Backend) error) error {
	return cascade.ErrNotSupportedByAdapter
}

func (b *backend) Close() error {
	return b.client.Disconnect(context.Background())
}

var _ cascade.Backend = &backend{}
