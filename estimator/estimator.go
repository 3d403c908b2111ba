/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package estimator puts the distinct counting sketches behind one type.
//
// An Estimator is a closed set of variants: a linear counter, a KMV sketch, a
// HyperLogLog sketch with owned or borrowed registers, and a constant dummy. All of
// them observe items, report a count, merge with an estimator of the same variant
// and configuration, and round trip through a serde.ByteStream.
package estimator

import (
	"fmt"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/hll"
	"github.com/cardinality-go/sketches/kmv"
	"github.com/cardinality-go/sketches/linear"
	"github.com/cardinality-go/sketches/serde"
)

type Kind uint8

const (
	KindLinearCounter Kind = iota
	KindKMinValues
	KindHyperLogLog
	KindHyperLogLogExternal
	KindDummy
)

func (k Kind) String() string {
	switch k {
	case KindLinearCounter:
		return "LinearCounter"
	case KindKMinValues:
		return "KMinValues"
	case KindHyperLogLog:
		return "HyperLogLog"
	case KindHyperLogLogExternal:
		return "HyperLogLogExternal"
	case KindDummy:
		return "Dummy"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Estimator holds exactly one sketch, selected by kind.
// It is not safe for concurrent use.
type Estimator struct {
	kind   Kind
	linear *linear.Counter
	kmv    *kmv.Sketch
	hll    *hll.Sketch
	ext    *hll.ExternalSketch
	dummy  *Dummy
}

type estimatorOptions struct {
	hasher common.Hasher
}

type EstimatorOptionFunc func(*estimatorOptions)

// WithHasher sets the hasher of the underlying sketch. Dummy ignores it.
func WithHasher(h common.Hasher) EstimatorOptionFunc {
	return func(opts *estimatorOptions) {
		opts.hasher = h
	}
}

func newEstimatorOptions(opts []EstimatorOptionFunc) *estimatorOptions {
	options := &estimatorOptions{
		hasher: common.DefaultHasher(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// NewLinearCounter returns an estimator backed by a linear counter of numBits bits.
func NewLinearCounter(numBits uint64, opts ...EstimatorOptionFunc) (*Estimator, error) {
	options := newEstimatorOptions(opts)
	c, err := linear.NewCounter(numBits, linear.WithHasher(options.hasher))
	if err != nil {
		return nil, err
	}
	return &Estimator{kind: KindLinearCounter, linear: c}, nil
}

// NewKMinValues returns an estimator backed by a KMV sketch retaining k values.
func NewKMinValues(k uint64, opts ...EstimatorOptionFunc) (*Estimator, error) {
	options := newEstimatorOptions(opts)
	sk, err := kmv.NewSketch(k, kmv.WithHasher(options.hasher))
	if err != nil {
		return nil, err
	}
	return &Estimator{kind: KindKMinValues, kmv: sk}, nil
}

// NewHyperLogLog returns an estimator backed by a HyperLogLog sketch with
// 2^lgConfigK owned registers.
func NewHyperLogLog(lgConfigK int, opts ...EstimatorOptionFunc) (*Estimator, error) {
	options := newEstimatorOptions(opts)
	sk, err := hll.NewSketch(lgConfigK, hll.WithHasher(options.hasher))
	if err != nil {
		return nil, err
	}
	return &Estimator{kind: KindHyperLogLog, hll: sk}, nil
}

// NewHyperLogLogExternal returns an estimator writing through view. view is cleared.
func NewHyperLogLogExternal(view hll.RegisterView, opts ...EstimatorOptionFunc) (*Estimator, error) {
	options := newEstimatorOptions(opts)
	sk, err := hll.NewExternalSketch(view, hll.WithHasher(options.hasher))
	if err != nil {
		return nil, err
	}
	return &Estimator{kind: KindHyperLogLogExternal, ext: sk}, nil
}

// NewDummy returns an estimator whose count is always value.
func NewDummy(value uint64) *Estimator {
	return &Estimator{kind: KindDummy, dummy: NewDummySketch(value)}
}

// Decode reads an estimator of the given kind from s, taking the configuration from
// the stream. An external HyperLogLog gets freshly allocated registers; use
// DecodeExternal to place them in a view.
func Decode(kind Kind, s *serde.ByteStream, opts ...EstimatorOptionFunc) (*Estimator, error) {
	options := newEstimatorOptions(opts)
	switch kind {
	case KindLinearCounter:
		c, err := linear.Decode(s, linear.WithHasher(options.hasher))
		if err != nil {
			return nil, err
		}
		return &Estimator{kind: kind, linear: c}, nil
	case KindKMinValues:
		sk, err := kmv.Decode(s, kmv.WithHasher(options.hasher))
		if err != nil {
			return nil, err
		}
		return &Estimator{kind: kind, kmv: sk}, nil
	case KindHyperLogLog:
		sk, err := hll.Decode(s, hll.WithHasher(options.hasher))
		if err != nil {
			return nil, err
		}
		return &Estimator{kind: kind, hll: sk}, nil
	case KindHyperLogLogExternal:
		sk, err := hll.Decode(s)
		if err != nil {
			return nil, err
		}
		view, err := hll.NewRegisterView(sk.LgConfigK(), sk.Registers())
		if err != nil {
			return nil, err
		}
		ext, err := hll.AttachExternalSketch(view, hll.WithHasher(options.hasher))
		if err != nil {
			return nil, err
		}
		return &Estimator{kind: kind, ext: ext}, nil
	case KindDummy:
		d := NewDummySketch(0)
		if err := d.Deserialize(s); err != nil {
			return nil, err
		}
		return &Estimator{kind: kind, dummy: d}, nil
	default:
		return nil, fmt.Errorf("unknown estimator kind: %s", kind)
	}
}

// DecodeExternal reads an external HyperLogLog estimator from s into view.
func DecodeExternal(s *serde.ByteStream, view hll.RegisterView, opts ...EstimatorOptionFunc) (*Estimator, error) {
	options := newEstimatorOptions(opts)
	sk, err := hll.DecodeExternal(s, view, hll.WithHasher(options.hasher))
	if err != nil {
		return nil, err
	}
	return &Estimator{kind: KindHyperLogLogExternal, ext: sk}, nil
}

func (e *Estimator) Kind() Kind {
	return e.kind
}

// UpdateSlice observes one item.
func (e *Estimator) UpdateSlice(datum []byte) {
	switch e.kind {
	case KindLinearCounter:
		e.linear.UpdateSlice(datum)
	case KindKMinValues:
		e.kmv.UpdateSlice(datum)
	case KindHyperLogLog:
		e.hll.UpdateSlice(datum)
	case KindHyperLogLogExternal:
		e.ext.UpdateSlice(datum)
	}
}

// UpdateString observes one item. It hashes the same bytes as UpdateSlice([]byte(datum)).
func (e *Estimator) UpdateString(datum string) {
	switch e.kind {
	case KindLinearCounter:
		e.linear.UpdateString(datum)
	case KindKMinValues:
		e.kmv.UpdateString(datum)
	case KindHyperLogLog:
		e.hll.UpdateString(datum)
	case KindHyperLogLogExternal:
		e.ext.UpdateString(datum)
	}
}

// UpdateUInt64 observes the little endian bytes of datum.
func (e *Estimator) UpdateUInt64(datum uint64) {
	switch e.kind {
	case KindLinearCounter:
		e.linear.UpdateUInt64(datum)
	case KindKMinValues:
		e.kmv.UpdateUInt64(datum)
	case KindHyperLogLog:
		e.hll.UpdateUInt64(datum)
	case KindHyperLogLogExternal:
		e.ext.UpdateUInt64(datum)
	}
}

// Count returns the distinct count estimate. It is 0 for a fresh sketch.
func (e *Estimator) Count() uint64 {
	switch e.kind {
	case KindLinearCounter:
		return e.linear.Count()
	case KindKMinValues:
		return e.kmv.Count()
	case KindHyperLogLog:
		return e.hll.Count()
	case KindHyperLogLogExternal:
		return e.ext.Count()
	default:
		return e.dummy.Count()
	}
}

// Merge absorbs other into e. Both must be the same kind with the same configuration.
// other must not be used afterwards.
func (e *Estimator) Merge(other *Estimator) error {
	if e.kind != other.kind {
		return common.MismatchError("kind", e.kind, other.kind)
	}
	switch e.kind {
	case KindLinearCounter:
		return e.linear.Merge(other.linear)
	case KindKMinValues:
		return e.kmv.Merge(other.kmv)
	case KindHyperLogLog:
		return e.hll.Merge(other.hll)
	case KindHyperLogLogExternal:
		return e.ext.Merge(other.ext)
	default:
		e.dummy.Merge(other.dummy)
		return nil
	}
}

// Copy returns an independent clone. The clone of an external HyperLogLog owns
// freshly allocated registers.
func (e *Estimator) Copy() *Estimator {
	c := &Estimator{kind: e.kind}
	switch e.kind {
	case KindLinearCounter:
		c.linear = e.linear.Copy()
	case KindKMinValues:
		c.kmv = e.kmv.Copy()
	case KindHyperLogLog:
		c.hll = e.hll.Copy()
	case KindHyperLogLogExternal:
		c.ext = e.ext.Copy()
	default:
		c.dummy = e.dummy.Copy()
	}
	return c
}

// IsEmpty returns true if nothing was observed. A dummy is always empty.
func (e *Estimator) IsEmpty() bool {
	switch e.kind {
	case KindLinearCounter:
		return e.linear.IsEmpty()
	case KindKMinValues:
		return e.kmv.IsEmpty()
	case KindHyperLogLog:
		return e.hll.IsEmpty()
	case KindHyperLogLogExternal:
		return e.ext.IsEmpty()
	default:
		return true
	}
}

// Reset forgets every observation. The configuration is kept.
func (e *Estimator) Reset() {
	switch e.kind {
	case KindLinearCounter:
		e.linear.Reset()
	case KindKMinValues:
		e.kmv.Reset()
	case KindHyperLogLog:
		e.hll.Reset()
	case KindHyperLogLogExternal:
		e.ext.Reset()
	}
}

// SerializedSizeBytes returns the number of bytes Serialize writes.
func (e *Estimator) SerializedSizeBytes() int {
	switch e.kind {
	case KindLinearCounter:
		return e.linear.SerializedSizeBytes()
	case KindKMinValues:
		return e.kmv.SerializedSizeBytes()
	case KindHyperLogLog:
		return e.hll.SerializedSizeBytes()
	case KindHyperLogLogExternal:
		return e.ext.SerializedSizeBytes()
	default:
		return e.dummy.SerializedSizeBytes()
	}
}

// Serialize writes the configuration and state of e to s. The kind is not written.
func (e *Estimator) Serialize(s *serde.ByteStream) error {
	switch e.kind {
	case KindLinearCounter:
		return e.linear.Serialize(s)
	case KindKMinValues:
		return e.kmv.Serialize(s)
	case KindHyperLogLog:
		return e.hll.Serialize(s)
	case KindHyperLogLogExternal:
		return e.ext.Serialize(s)
	default:
		return e.dummy.Serialize(s)
	}
}

// Deserialize replaces the state of e with the one read from s. The serialized
// configuration must match e's.
func (e *Estimator) Deserialize(s *serde.ByteStream) error {
	switch e.kind {
	case KindLinearCounter:
		return e.linear.Deserialize(s)
	case KindKMinValues:
		return e.kmv.Deserialize(s)
	case KindHyperLogLog:
		return e.hll.Deserialize(s)
	case KindHyperLogLogExternal:
		return e.ext.Deserialize(s)
	default:
		return e.dummy.Deserialize(s)
	}
}

// Label names the variant and its configuration, e.g. "HyperLogLog(p=15)".
func (e *Estimator) Label() string {
	switch e.kind {
	case KindLinearCounter:
		return e.linear.String()
	case KindKMinValues:
		return e.kmv.String()
	case KindHyperLogLog:
		return e.hll.String()
	case KindHyperLogLogExternal:
		return e.ext.String()
	default:
		return e.dummy.String()
	}
}

func (e *Estimator) String() string {
	return e.Label()
}
