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

// Package tracing records cascades as OpenTelemetry spans. Every record a
// cascade starts from gets a span, nested cascades become child spans.
package tracing

import (
	"context"

	"github.com/upper/cascade"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/upper/cascade"

// Observer starts a span per cascade.
type Observer struct {
	tracer trace.Tracer
}

// NewObserver returns an Observer that creates spans from tp, or from the
// global provider if tp is nil.
func NewObserver(tp trace.TracerProvider) *Observer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Observer{tracer: tp.Tracer(instrumentationName)}
}

// Begin implements cascade.Observer.
func (o *Observer) Begin(ctx context.Context, op cascade.Op, typeName string) (context.Context, func(int, error)) {
	ctx, span := o.tracer.Start(ctx, "cascade."+op.String(),
		trace.WithAttributes(
			attribute.String("cascade.op", op.String()),
			attribute.String("cascade.type", typeName),
		),
	)
	return ctx, func(affected int, err error) {
		span.SetAttributes(attribute.Int("cascade.affected", affected))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

var _ cascade.Observer = &Observer{}
