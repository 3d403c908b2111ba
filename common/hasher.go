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

package common

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/twmb/murmur3"

	"github.com/cardinality-go/sketches/internal"
)

// HashKind selects the digest function a Hasher applies.
type HashKind uint8

const (
	// HashMurmur3 is MurmurHash3 x64 128, of which the low 64 bits are used.
	HashMurmur3 HashKind = iota
	// HashXXHash is XXH64.
	HashXXHash
)

// DefaultSeed is the seed used by DefaultHasher.
const DefaultSeed = internal.DEFAULT_UPDATE_SEED

func (k HashKind) String() string {
	switch k {
	case HashMurmur3:
		return "murmur3"
	case HashXXHash:
		return "xxhash"
	default:
		return fmt.Sprintf("HashKind(%d)", uint8(k))
	}
}

// Hasher maps byte strings to 64-bit digests. It holds no mutable state and may be
// shared by any number of sketches.
//
// Sketches can only be merged when they were built with equal Hashers.
type Hasher struct {
	kind HashKind
	seed uint64
}

// NewHasher returns a Hasher of the given kind and seed.
func NewHasher(kind HashKind, seed uint64) (Hasher, error) {
	if kind != HashMurmur3 && kind != HashXXHash {
		return Hasher{}, fmt.Errorf("unknown hash kind: %d", uint8(kind))
	}
	return Hasher{kind: kind, seed: seed}, nil
}

// DefaultHasher returns the murmur3 Hasher seeded with DefaultSeed.
func DefaultHasher() Hasher {
	return Hasher{kind: HashMurmur3, seed: DefaultSeed}
}

func (h Hasher) Kind() HashKind {
	return h.kind
}

func (h Hasher) Seed() uint64 {
	return h.seed
}

// Sum64 returns the digest of data.
func (h Hasher) Sum64(data []byte) uint64 {
	if h.kind == HashXXHash {
		if h.seed == 0 {
			return xxhash.Sum64(data)
		}
		d := xxhash.NewWithSeed(h.seed)
		d.Write(data)
		return d.Sum64()
	}
	lo, _ := murmur3.SeedSum128(h.seed, h.seed, data)
	return lo
}

// Sum64String returns the digest of the bytes of s.
func (h Hasher) Sum64String(s string) uint64 {
	// get a slice to the string data (avoiding a copy to heap)
	return h.Sum64(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// Sum64UInt64 returns the digest of the little endian encoding of v.
func (h Hasher) Sum64UInt64(v uint64) uint64 {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	return h.Sum64(scratch[:])
}

func (h Hasher) String() string {
	return fmt.Sprintf("%s/%d", h.kind, h.seed)
}
