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

// Package linear implements linear probabilistic counting.
//
// Each distinct item sets one bit of a fixed-size bitset. The number of distinct items
// is recovered from the fraction of bits still unset, z, as -m*ln(z). The estimate is
// accurate while the bitset is far from saturated and degrades as z approaches 0.
package linear

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/internal"
	"github.com/cardinality-go/sketches/serde"
)

const (
	// MinBits is the smallest allowed bitset.
	MinBits uint64 = 1
	// MaxBits bounds the bitset so that its word count fits a serialized u64 frame
	// comfortably in memory.
	MaxBits uint64 = 1 << 40
	// DefaultBits is 128 KiB of bits.
	DefaultBits uint64 = 128 * 1024 * 8
)

// Counter is a linear probabilistic counter over a bitset of fixed size.
// It is not safe for concurrent use.
type Counter struct {
	numBits uint64
	hasher  common.Hasher
	bits    *bitset.BitSet
}

type counterOptions struct {
	hasher common.Hasher
}

type CounterOptionFunc func(*counterOptions)

// WithHasher sets the hasher used to map items to bit indices. Counters built with
// different hashers cannot be merged.
func WithHasher(h common.Hasher) CounterOptionFunc {
	return func(opts *counterOptions) {
		opts.hasher = h
	}
}

// NewCounter returns an empty counter of numBits bits.
func NewCounter(numBits uint64, opts ...CounterOptionFunc) (*Counter, error) {
	options := &counterOptions{
		hasher: common.DefaultHasher(),
	}
	for _, opt := range opts {
		opt(options)
	}
	if err := checkNumBits(numBits); err != nil {
		return nil, err
	}
	return &Counter{
		numBits: numBits,
		hasher:  options.hasher,
		bits:    bitset.New(uint(numBits)),
	}, nil
}

// Decode reads a counter from s, taking its size from the stream.
func Decode(s *serde.ByteStream, opts ...CounterOptionFunc) (*Counter, error) {
	numBits, err := s.ReadUInt64()
	if err != nil {
		return nil, common.TruncatedError(err)
	}
	if err := checkNumBits(numBits); err != nil {
		return nil, common.InvalidStateError("%v", err)
	}
	if need := internal.WordsForBits(numBits) * 8; uint64(s.Remaining()) < need {
		return nil, common.InvalidStateError("bitset of %d bits needs %d bytes, %d remain", numBits, need, s.Remaining())
	}
	c, err := NewCounter(numBits, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.readWords(s); err != nil {
		return nil, err
	}
	return c, nil
}

func checkNumBits(numBits uint64) error {
	if numBits < MinBits {
		return fmt.Errorf("number of bits must be at least %d: %d", MinBits, numBits)
	}
	if numBits > MaxBits {
		return fmt.Errorf("number of bits must not exceed %d: %d", MaxBits, numBits)
	}
	return nil
}

// NumBits returns the configured bitset size.
func (c *Counter) NumBits() uint64 {
	return c.numBits
}

// Hasher returns the configured hasher.
func (c *Counter) Hasher() common.Hasher {
	return c.hasher
}

// UpdateSlice presents datum as a potential unique item.
func (c *Counter) UpdateSlice(datum []byte) {
	c.updateHash(c.hasher.Sum64(datum))
}

// UpdateString presents datum as a potential unique item.
func (c *Counter) UpdateString(datum string) {
	c.updateHash(c.hasher.Sum64String(datum))
}

// UpdateUInt64 presents the little endian bytes of datum as a potential unique item.
func (c *Counter) UpdateUInt64(datum uint64) {
	c.updateHash(c.hasher.Sum64UInt64(datum))
}

func (c *Counter) updateHash(hash uint64) {
	c.bits.Set(uint(hash % c.numBits))
}

// BitsSet returns the number of bits currently set.
func (c *Counter) BitsSet() uint64 {
	return uint64(c.bits.Count())
}

// Saturation returns the fraction of bits set, from 0 to 1.
func (c *Counter) Saturation() float64 {
	return float64(c.BitsSet()) / float64(c.numBits)
}

// IsEmpty returns true if no bit is set.
func (c *Counter) IsEmpty() bool {
	return c.bits.None()
}

// Estimate returns -m*ln(z) where z is the fraction of unset bits. A fully
// saturated bitset carries no usable information and reports 0.
func (c *Counter) Estimate() float64 {
	unset := c.numBits - c.BitsSet()
	z := float64(unset) / float64(c.numBits)
	if z <= 0 {
		return 0
	}
	return -float64(c.numBits) * math.Log(z)
}

// Count returns Estimate rounded to the nearest integer.
func (c *Counter) Count() uint64 {
	return internal.EstimateToCount(c.Estimate())
}

// Merge ORs other's bits into c. Both counters must share size and hasher.
func (c *Counter) Merge(other *Counter) error {
	if err := c.checkCompatible(other); err != nil {
		return err
	}
	c.bits.InPlaceUnion(other.bits)
	return nil
}

func (c *Counter) checkCompatible(other *Counter) error {
	if c.numBits != other.numBits {
		return common.MismatchError("bits", c.numBits, other.numBits)
	}
	if c.hasher != other.hasher {
		return common.MismatchError("hasher", c.hasher, other.hasher)
	}
	return nil
}

// Copy returns an independent clone of c.
func (c *Counter) Copy() *Counter {
	return &Counter{
		numBits: c.numBits,
		hasher:  c.hasher,
		bits:    c.bits.Clone(),
	}
}

// Reset clears every bit.
func (c *Counter) Reset() {
	c.bits.ClearAll()
}

// SerializedSizeBytes returns the number of bytes Serialize writes.
func (c *Counter) SerializedSizeBytes() int {
	return int(1+internal.WordsForBits(c.numBits)) * 8
}

// Serialize writes [m][ceil(m/64) words] to s.
func (c *Counter) Serialize(s *serde.ByteStream) error {
	if err := s.WriteUInt64(c.numBits); err != nil {
		return err
	}
	for _, w := range c.words() {
		if err := s.WriteUInt64(w); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize replaces c's bits with the state read from s. The serialized size must
// equal c's size.
func (c *Counter) Deserialize(s *serde.ByteStream) error {
	numBits, err := s.ReadUInt64()
	if err != nil {
		return common.TruncatedError(err)
	}
	if numBits != c.numBits {
		return common.MismatchError("bits", c.numBits, numBits)
	}
	return c.readWords(s)
}

func (c *Counter) readWords(s *serde.ByteStream) error {
	numWords := internal.WordsForBits(c.numBits)
	words := make([]uint64, numWords)
	for i := range words {
		w, err := s.ReadUInt64()
		if err != nil {
			return common.TruncatedError(err)
		}
		words[i] = w
	}
	if tail := c.numBits % 64; tail != 0 {
		if words[numWords-1]>>tail != 0 {
			return common.InvalidStateError("bits set beyond bitset size %d", c.numBits)
		}
	}
	copy(c.words(), words)
	return nil
}

// words exposes the bitset's backing words; bitset.New(m) allocates exactly ceil(m/64).
func (c *Counter) words() []uint64 {
	return c.bits.Bytes()[:internal.WordsForBits(c.numBits)]
}

// String returns the label of the counter, e.g. "LinearCounter(bits=1048576)".
func (c *Counter) String() string {
	return fmt.Sprintf("LinearCounter(bits=%d)", c.numBits)
}
