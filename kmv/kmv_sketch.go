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

// Package kmv implements the k minimum values (KMV) distinct counting sketch.
//
// The sketch retains the k smallest distinct 64-bit hashes it has seen. Below k
// distinct items the count is exact; from then on the k-th smallest hash, read as a
// fraction of the hash space, gives the density of the stream and the estimate
// k * 2^64 / max. The relative standard error is about 1/sqrt(k-2).
package kmv

import (
	"fmt"
	"strings"

	"github.com/google/btree"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/internal"
	"github.com/cardinality-go/sketches/serde"
)

const (
	// MinK is the smallest allowed capacity.
	MinK uint64 = 1
	// MaxK is the largest allowed capacity.
	MaxK uint64 = 1 << 26
	// DefaultK is 16384 retained values.
	DefaultK uint64 = 16 * 1024
)

// btree node degree
const treeDegree = 32

// Sketch retains the k smallest distinct hashes observed.
// It is not safe for concurrent use.
type Sketch struct {
	k        uint64
	hasher   common.Hasher
	retained *btree.BTreeG[uint64]
}

type sketchOptions struct {
	hasher common.Hasher
}

type SketchOptionFunc func(*sketchOptions)

// WithHasher sets the hasher used to turn items into retained values. Sketches built
// with different hashers cannot be merged.
func WithHasher(h common.Hasher) SketchOptionFunc {
	return func(opts *sketchOptions) {
		opts.hasher = h
	}
}

// NewSketch returns an empty sketch retaining at most k values.
func NewSketch(k uint64, opts ...SketchOptionFunc) (*Sketch, error) {
	options := &sketchOptions{
		hasher: common.DefaultHasher(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := checkK(k); err != nil {
		return nil, err
	}
	return &Sketch{
		k:        k,
		hasher:   options.hasher,
		retained: newRetainedSet(),
	}, nil
}

func newRetainedSet() *btree.BTreeG[uint64] {
	return btree.NewG(treeDegree, btree.Less[uint64]())
}

func checkK(k uint64) error {
	if k < MinK {
		return fmt.Errorf("k must be at least %d: %d", MinK, k)
	}
	if k > MaxK {
		return fmt.Errorf("k must not exceed %d: %d", MaxK, k)
	}
	return nil
}

// Decode reads a sketch from s, taking k from the stream.
func Decode(s *serde.ByteStream, opts ...SketchOptionFunc) (*Sketch, error) {
	k, err := s.ReadUInt64()
	if err != nil {
		return nil, common.TruncatedError(err)
	}
	if err := checkK(k); err != nil {
		return nil, common.InvalidStateError("%v", err)
	}
	sk, err := NewSketch(k, opts...)
	if err != nil {
		return nil, err
	}
	if err := sk.readRetained(s); err != nil {
		return nil, err
	}
	return sk, nil
}

// K returns the configured capacity.
func (sk *Sketch) K() uint64 {
	return sk.k
}

// Hasher returns the configured hasher.
func (sk *Sketch) Hasher() common.Hasher {
	return sk.hasher
}

// NumRetained returns the number of values currently retained, at most k.
func (sk *Sketch) NumRetained() uint64 {
	return uint64(sk.retained.Len())
}

// IsEmpty returns true if nothing was retained.
func (sk *Sketch) IsEmpty() bool {
	return sk.retained.Len() == 0
}

// IsEstimationMode returns true once k values are retained and Count is no longer exact.
func (sk *Sketch) IsEstimationMode() bool {
	return sk.NumRetained() >= sk.k
}

// UpdateSlice presents datum as a potential unique item.
func (sk *Sketch) UpdateSlice(datum []byte) {
	sk.updateHash(sk.hasher.Sum64(datum))
}

// UpdateString presents datum as a potential unique item.
func (sk *Sketch) UpdateString(datum string) {
	sk.updateHash(sk.hasher.Sum64String(datum))
}

// UpdateUInt64 presents the little endian bytes of datum as a potential unique item.
func (sk *Sketch) UpdateUInt64(datum uint64) {
	sk.updateHash(sk.hasher.Sum64UInt64(datum))
}

func (sk *Sketch) updateHash(hash uint64) {
	if uint64(sk.retained.Len()) < sk.k {
		sk.retained.ReplaceOrInsert(hash)
		return
	}
	maxRetained, _ := sk.retained.Max()
	if hash >= maxRetained || sk.retained.Has(hash) {
		return
	}
	sk.retained.DeleteMax()
	sk.retained.ReplaceOrInsert(hash)
}

// MaxRetained returns the largest retained value, or false when empty.
func (sk *Sketch) MaxRetained() (uint64, bool) {
	return sk.retained.Max()
}

// Estimate returns the exact retained count below k values and k * 2^64 / max
// retained value from then on.
func (sk *Sketch) Estimate() float64 {
	if !sk.IsEstimationMode() {
		return float64(sk.retained.Len())
	}
	maxRetained, _ := sk.retained.Max()
	return float64(sk.k) * internal.Two64 / float64(max(maxRetained, 1))
}

// Count returns Estimate rounded to the nearest integer.
func (sk *Sketch) Count() uint64 {
	if !sk.IsEstimationMode() {
		return sk.NumRetained()
	}
	return internal.EstimateToCount(sk.Estimate())
}

// Merge folds other's retained values into sk, keeping the k smallest of the union.
// Both sketches must share k and hasher.
func (sk *Sketch) Merge(other *Sketch) error {
	if sk.k != other.k {
		return common.MismatchError("k", sk.k, other.k)
	}
	if sk.hasher != other.hasher {
		return common.MismatchError("hasher", sk.hasher, other.hasher)
	}
	if sk == other {
		return nil
	}
	other.retained.Ascend(func(v uint64) bool {
		if uint64(sk.retained.Len()) >= sk.k {
			maxRetained, _ := sk.retained.Max()
			// ascending: nothing later in other can qualify
			if v >= maxRetained {
				return false
			}
		}
		sk.updateHash(v)
		return true
	})
	return nil
}

// Copy returns an independent clone of sk.
func (sk *Sketch) Copy() *Sketch {
	return &Sketch{
		k:        sk.k,
		hasher:   sk.hasher,
		retained: sk.retained.Clone(),
	}
}

// Reset drops all retained values.
func (sk *Sketch) Reset() {
	sk.retained.Clear(false)
}

// Values returns the retained values in ascending order.
func (sk *Sketch) Values() []uint64 {
	out := make([]uint64, 0, sk.retained.Len())
	sk.retained.Ascend(func(v uint64) bool {
		out = append(out, v)
		return true
	})
	return out
}

// SerializedSizeBytes returns the number of bytes Serialize writes.
func (sk *Sketch) SerializedSizeBytes() int {
	return (2 + sk.retained.Len()) * 8
}

// Serialize writes [k][n][n values ascending] to s.
func (sk *Sketch) Serialize(s *serde.ByteStream) error {
	if err := s.WriteUInt64(sk.k); err != nil {
		return err
	}
	if err := s.WriteUInt64(sk.NumRetained()); err != nil {
		return err
	}
	var err error
	sk.retained.Ascend(func(v uint64) bool {
		err = s.WriteUInt64(v)
		return err == nil
	})
	return err
}

// Deserialize replaces sk's retained values with those read from s. The serialized k
// must equal sk's k.
func (sk *Sketch) Deserialize(s *serde.ByteStream) error {
	k, err := s.ReadUInt64()
	if err != nil {
		return common.TruncatedError(err)
	}
	if k != sk.k {
		return common.MismatchError("k", sk.k, k)
	}
	return sk.readRetained(s)
}

func (sk *Sketch) readRetained(s *serde.ByteStream) error {
	n, err := s.ReadUInt64()
	if err != nil {
		return common.TruncatedError(err)
	}
	if n > sk.k {
		return common.InvalidStateError("%d retained values exceed k=%d", n, sk.k)
	}
	if n*8 > uint64(s.Remaining()) {
		return common.InvalidStateError("%d retained values need %d bytes, %d remain", n, n*8, s.Remaining())
	}
	retained := newRetainedSet()
	var prev uint64
	for i := uint64(0); i < n; i++ {
		v, err := s.ReadUInt64()
		if err != nil {
			return common.TruncatedError(err)
		}
		if i > 0 && v <= prev {
			return common.InvalidStateError("retained values not strictly ascending at index %d", i)
		}
		retained.ReplaceOrInsert(v)
		prev = v
	}
	sk.retained = retained
	return nil
}

// String returns the label of the sketch, e.g. "KMinValues(k=16384)".
func (sk *Sketch) String() string {
	return fmt.Sprintf("KMinValues(k=%d)", sk.k)
}

// Summary returns a human-readable multi-line description of the sketch state.
func (sk *Sketch) Summary() string {
	var result strings.Builder
	result.WriteString("### KMV sketch summary:\n")
	result.WriteString(fmt.Sprintf("   k                    : %d\n", sk.k))
	result.WriteString(fmt.Sprintf("   num retained         : %d\n", sk.NumRetained()))
	result.WriteString(fmt.Sprintf("   estimation mode      : %t\n", sk.IsEstimationMode()))
	result.WriteString(fmt.Sprintf("   estimate             : %f\n", sk.Estimate()))
	result.WriteString("### End sketch summary\n")
	return result.String()
}
