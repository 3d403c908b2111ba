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

// Package hll implements the HyperLogLog distinct counting sketch.
//
// A sketch with precision lgConfigK keeps 2^lgConfigK one-byte registers. The low
// lgConfigK bits of an item's hash select a register, and the register keeps the
// largest rank (one plus the leading zeros of the remaining bits) it has been offered.
// The relative standard error is about 1.04/sqrt(2^lgConfigK).
//
// Sketch owns its registers. ExternalSketch runs the same algorithm over a RegisterView
// supplied by the caller, typically one of many carved from a RegisterArena.
package hll

import (
	"fmt"
	"strings"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/serde"
)

// Sketch is a HyperLogLog sketch that owns its registers.
// It is not safe for concurrent use.
type Sketch struct {
	hllArray
}

// NewSketch returns an empty sketch with 2^lgConfigK registers.
func NewSketch(lgConfigK int, opts ...SketchOptionFunc) (*Sketch, error) {
	lgK, err := checkLgK(lgConfigK)
	if err != nil {
		return nil, err
	}
	options := newSketchOptions(opts)
	return &Sketch{
		hllArray: hllArray{
			lgConfigK: lgK,
			hasher:    options.hasher,
			regs:      make([]uint8, 1<<lgK),
		},
	}, nil
}

// Decode reads a sketch from s, taking lgConfigK from the stream.
func Decode(s *serde.ByteStream, opts ...SketchOptionFunc) (*Sketch, error) {
	lgConfigK, err := readLgConfigK(s)
	if err != nil {
		return nil, err
	}
	sk, err := NewSketch(lgConfigK, opts...)
	if err != nil {
		return nil, err
	}
	if err := sk.readRegisters(s); err != nil {
		return nil, err
	}
	return sk, nil
}

// LgConfigK returns the precision, the log2 of the register count.
func (h *Sketch) LgConfigK() int {
	return h.lgConfigK
}

// Hasher returns the configured hasher.
func (h *Sketch) Hasher() common.Hasher {
	return h.hasher
}

// IsEmpty returns true if every register is still zero.
func (h *Sketch) IsEmpty() bool {
	return h.isEmpty()
}

// UpdateSlice presents datum as a potential unique item.
func (h *Sketch) UpdateSlice(datum []byte) {
	h.updateHash(h.hasher.Sum64(datum))
}

// UpdateString presents datum as a potential unique item.
func (h *Sketch) UpdateString(datum string) {
	h.updateHash(h.hasher.Sum64String(datum))
}

// UpdateUInt64 presents the little endian bytes of datum as a potential unique item.
func (h *Sketch) UpdateUInt64(datum uint64) {
	h.updateHash(h.hasher.Sum64UInt64(datum))
}

// Estimate returns the cardinality estimate.
func (h *Sketch) Estimate() float64 {
	return hllEstimate(h.regs)
}

// Count returns Estimate rounded to the nearest integer.
func (h *Sketch) Count() uint64 {
	return hllCount(h.regs)
}

// Merge sets every register of h to the maximum of itself and other's register.
func (h *Sketch) Merge(other *Sketch) error {
	return h.mergeRegisters(&other.hllArray)
}

// Copy returns an independent clone of h.
func (h *Sketch) Copy() *Sketch {
	regs := make([]uint8, len(h.regs))
	copy(regs, h.regs)
	return &Sketch{
		hllArray: hllArray{
			lgConfigK: h.lgConfigK,
			hasher:    h.hasher,
			regs:      regs,
		},
	}
}

// Reset zeroes all registers.
func (h *Sketch) Reset() {
	h.reset()
}

// Registers returns a copy of the register values.
func (h *Sketch) Registers() []uint8 {
	out := make([]uint8, len(h.regs))
	copy(out, h.regs)
	return out
}

// SerializedSizeBytes returns the number of bytes Serialize writes.
func (h *Sketch) SerializedSizeBytes() int {
	return h.serializedSizeBytes()
}

// Serialize writes [lgConfigK][2^lgConfigK registers] to s, one u64 each.
func (h *Sketch) Serialize(s *serde.ByteStream) error {
	return h.serialize(s)
}

// Deserialize replaces h's registers with those read from s. The serialized lgConfigK
// must equal h's.
func (h *Sketch) Deserialize(s *serde.ByteStream) error {
	return h.deserialize(s)
}

// String returns the label of the sketch, e.g. "HyperLogLog(p=15)".
func (h *Sketch) String() string {
	return fmt.Sprintf("HyperLogLog(p=%d)", h.lgConfigK)
}

// Summary returns a human-readable multi-line description of the sketch state.
func (h *Sketch) Summary() string {
	return summary(&h.hllArray, "HLL sketch")
}

func summary(h *hllArray, title string) string {
	var result strings.Builder
	result.WriteString(fmt.Sprintf("### %s summary:\n", title))
	result.WriteString(fmt.Sprintf("   Log Config K   : %d\n", h.lgConfigK))
	result.WriteString(fmt.Sprintf("   Hasher         : %s\n", h.hasher))
	result.WriteString(fmt.Sprintf("   Empty          : %t\n", h.isEmpty()))
	result.WriteString(fmt.Sprintf("   Zero registers : %d\n", h.numZeros()))
	result.WriteString(fmt.Sprintf("   Estimate       : %f\n", hllEstimate(h.regs)))
	result.WriteString(fmt.Sprintf("   RSE            : %f\n", RelativeStandardError(h.lgConfigK)))
	result.WriteString("### End sketch summary\n")
	return result.String()
}
