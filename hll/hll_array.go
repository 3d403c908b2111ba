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
	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/internal"
	"github.com/cardinality-go/sketches/serde"
)

// hllArray is the register state shared by the owned and the external sketch.
// regs always has exactly 1 << lgConfigK slots, one rank per byte.
type hllArray struct {
	lgConfigK int
	hasher    common.Hasher
	regs      []uint8
}

func (h *hllArray) slotNoMask() uint64 {
	return uint64(len(h.regs)) - 1
}

func (h *hllArray) updateHash(hash uint64) {
	slotNo := hash & h.slotNoMask()
	newValue := internal.RankOfSuffix(hash, uint8(h.lgConfigK))
	h.regs[slotNo] = max(h.regs[slotNo], newValue)
}

func (h *hllArray) isEmpty() bool {
	for _, v := range h.regs {
		if v != 0 {
			return false
		}
	}
	return true
}

func (h *hllArray) numZeros() int {
	n := 0
	for _, v := range h.regs {
		if v == 0 {
			n++
		}
	}
	return n
}

func (h *hllArray) checkCompatible(other *hllArray) error {
	if h.lgConfigK != other.lgConfigK {
		return common.MismatchError("lgConfigK", h.lgConfigK, other.lgConfigK)
	}
	if h.hasher != other.hasher {
		return common.MismatchError("hasher", h.hasher, other.hasher)
	}
	return nil
}

func (h *hllArray) mergeRegisters(other *hllArray) error {
	if err := h.checkCompatible(other); err != nil {
		return err
	}
	for i, v := range other.regs {
		h.regs[i] = max(h.regs[i], v)
	}
	return nil
}

func (h *hllArray) reset() {
	clear(h.regs)
}

func (h *hllArray) serializedSizeBytes() int {
	return (1 + len(h.regs)) * 8
}

func (h *hllArray) serialize(s *serde.ByteStream) error {
	if err := s.WriteUInt64(uint64(h.lgConfigK)); err != nil {
		return err
	}
	for _, v := range h.regs {
		if err := s.WriteUInt64(uint64(v)); err != nil {
			return err
		}
	}
	return nil
}

// deserialize reads a header that must match h.lgConfigK followed by the registers.
func (h *hllArray) deserialize(s *serde.ByteStream) error {
	lgK, err := s.ReadUInt64()
	if err != nil {
		return common.TruncatedError(err)
	}
	if lgK != uint64(h.lgConfigK) {
		return common.MismatchError("lgConfigK", h.lgConfigK, lgK)
	}
	return h.readRegisters(s)
}

// readRegisters replaces the registers only once all of them were read and validated.
func (h *hllArray) readRegisters(s *serde.ByteStream) error {
	tmp := make([]uint8, len(h.regs))
	limit := maxRank(h.lgConfigK)
	for i := range tmp {
		v, err := s.ReadUInt64()
		if err != nil {
			return common.TruncatedError(err)
		}
		if v > uint64(limit) {
			return common.InvalidStateError("register %d holds rank %d, max is %d", i, v, limit)
		}
		tmp[i] = uint8(v)
	}
	copy(h.regs, tmp)
	return nil
}

// readLgConfigK reads and validates the header of a serialized register array.
func readLgConfigK(s *serde.ByteStream) (int, error) {
	v, err := s.ReadUInt64()
	if err != nil {
		return 0, common.TruncatedError(err)
	}
	if v > MaxPrecision {
		return 0, common.InvalidStateError("log K out of range: %d", v)
	}
	lgConfigK, err := checkLgK(int(v))
	if err != nil {
		return 0, common.InvalidStateError("%v", err)
	}
	if need := (1 << lgConfigK) * 8; s.Remaining() < need {
		return 0, common.InvalidStateError("%d registers need %d bytes, %d remain", 1<<lgConfigK, need, s.Remaining())
	}
	return lgConfigK, nil
}
