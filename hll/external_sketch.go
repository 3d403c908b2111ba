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

package hll

import (
	"fmt"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/serde"
)

// ExternalSketch is a HyperLogLog sketch whose registers live in a RegisterView.
// It writes through the view and never allocates or frees the memory behind it.
type ExternalSketch struct {
	hllArray
}

func newExternalSketch(view RegisterView, opts []SketchOptionFunc) (*ExternalSketch, error) {
	if view.regs == nil {
		return nil, fmt.Errorf("register view is not initialized")
	}
	options := newSketchOptions(opts)
	return &ExternalSketch{
		hllArray: hllArray{
			lgConfigK: view.lgConfigK,
			hasher:    options.hasher,
			regs:      view.regs,
		},
	}, nil
}

// NewExternalSketch clears view and returns an empty sketch over it.
func NewExternalSketch(view RegisterView, opts ...SketchOptionFunc) (*ExternalSketch, error) {
	sk, err := newExternalSketch(view, opts)
	if err != nil {
		return nil, err
	}
	sk.reset()
	return sk, nil
}

// AttachExternalSketch returns a sketch over view keeping the registers already there,
// e.g. a view restored from disk.
func AttachExternalSketch(view RegisterView, opts ...SketchOptionFunc) (*ExternalSketch, error) {
	sk, err := newExternalSketch(view, opts)
	if err != nil {
		return nil, err
	}
	limit := maxRank(sk.lgConfigK)
	for i, v := range sk.regs {
		if v > limit {
			return nil, common.InvalidStateError("register %d holds rank %d, max is %d", i, v, limit)
		}
	}
	return sk, nil
}

// DecodeExternal reads a sketch from s into view. The serialized lgConfigK must match
// the view's; view is only written once the whole array was read.
func DecodeExternal(s *serde.ByteStream, view RegisterView, opts ...SketchOptionFunc) (*ExternalSketch, error) {
	sk, err := newExternalSketch(view, opts)
	if err != nil {
		return nil, err
	}
	lgConfigK, err := readLgConfigK(s)
	if err != nil {
		return nil, err
	}
	if lgConfigK != sk.lgConfigK {
		return nil, common.MismatchError("lgConfigK", sk.lgConfigK, lgConfigK)
	}
	if err := sk.readRegisters(s); err != nil {
		return nil, err
	}
	return sk, nil
}

// View returns the view the sketch writes through.
func (h *ExternalSketch) View() RegisterView {
	return RegisterView{lgConfigK: h.lgConfigK, regs: h.regs}
}

// LgConfigK returns the precision, the log2 of the register count.
func (h *ExternalSketch) LgConfigK() int {
	return h.lgConfigK
}

// Hasher returns the configured hasher.
func (h *ExternalSketch) Hasher() common.Hasher {
	return h.hasher
}

// IsEmpty returns true if every register is still zero.
func (h *ExternalSketch) IsEmpty() bool {
	return h.isEmpty()
}

// UpdateSlice presents datum as a potential unique item.
func (h *ExternalSketch) UpdateSlice(datum []byte) {
	h.updateHash(h.hasher.Sum64(datum))
}

// UpdateString presents datum as a potential unique item.
func (h *ExternalSketch) UpdateString(datum string) {
	h.updateHash(h.hasher.Sum64String(datum))
}

// UpdateUInt64 presents the little endian bytes of datum as a potential unique item.
func (h *ExternalSketch) UpdateUInt64(datum uint64) {
	h.updateHash(h.hasher.Sum64UInt64(datum))
}

func (h *ExternalSketch) Estimate() float64 {
	return hllEstimate(h.regs)
}

func (h *ExternalSketch) Count() uint64 {
	return hllCount(h.regs)
}

// Merge sets every register of h to the maximum of itself and other's register.
func (h *ExternalSketch) Merge(other *ExternalSketch) error {
	return h.mergeRegisters(&other.hllArray)
}

// MergeSketch folds an owned sketch into h.
func (h *ExternalSketch) MergeSketch(other *Sketch) error {
	return h.mergeRegisters(&other.hllArray)
}

// Copy returns a clone of h over freshly allocated registers.
func (h *ExternalSketch) Copy() *ExternalSketch {
	regs := make([]uint8, len(h.regs))
	copy(regs, h.regs)
	return &ExternalSketch{
		hllArray: hllArray{
			lgConfigK: h.lgConfigK,
			hasher:    h.hasher,
			regs:      regs,
		},
	}
}

// CopyInto copies h's registers into view and returns a sketch over it.
func (h *ExternalSketch) CopyInto(view RegisterView) (*ExternalSketch, error) {
	if view.lgConfigK != h.lgConfigK {
		return nil, common.MismatchError("lgConfigK", h.lgConfigK, view.lgConfigK)
	}
	copy(view.regs, h.regs)
	return &ExternalSketch{
		hllArray: hllArray{
			lgConfigK: h.lgConfigK,
			hasher:    h.hasher,
			regs:      view.regs,
		},
	}, nil
}

// Reset zeroes all registers in the view.
func (h *ExternalSketch) Reset() {
	h.reset()
}

// SerializedSizeBytes returns the number of bytes Serialize writes.
func (h *ExternalSketch) SerializedSizeBytes() int {
	return h.serializedSizeBytes()
}

// Serialize writes the same layout as Sketch.Serialize, so either type can decode it.
func (h *ExternalSketch) Serialize(s *serde.ByteStream) error {
	return h.serialize(s)
}

func (h *ExternalSketch) Deserialize(s *serde.ByteStream) error {
	return h.deserialize(s)
}

// String returns the label of the sketch, e.g. "HyperLogLogExternal(p=15)".
func (h *ExternalSketch) String() string {
	return fmt.Sprintf("HyperLogLogExternal(p=%d)", h.lgConfigK)
}

func (h *ExternalSketch) Summary() string {
	return summary(&h.hllArray, "HLL external sketch")
}
