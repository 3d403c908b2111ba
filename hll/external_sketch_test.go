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
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardinality-go/sketches/common"
)

func TestRegisterArena(t *testing.T) {
	t.Run("Views Do Not Overlap", func(t *testing.T) {
		arena, err := NewRegisterArena(4, 3)
		assert.NoError(t, err)
		assert.Equal(t, 3, arena.NumViews())
		assert.Equal(t, 4, arena.LgConfigK())
		assert.Equal(t, 48, len(arena.buf))

		for i := 0; i < 3; i++ {
			v, err := arena.View(i)
			assert.NoError(t, err)
			assert.Equal(t, 16, v.Len())
			assert.Equal(t, 4, v.LgConfigK())
			assert.Equal(t, 16, cap(v.regs))
			for j := range v.regs {
				v.regs[j] = uint8(i + 1)
			}
		}
		for i, b := range arena.buf {
			assert.Equal(t, uint8(i/16+1), b)
		}
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := NewRegisterArena(3, 1)
		assert.Error(t, err)
		_, err = NewRegisterArena(4, 0)
		assert.Error(t, err)

		arena, _ := NewRegisterArena(4, 2)
		_, err = arena.View(2)
		assert.Error(t, err)
		_, err = arena.View(-1)
		assert.Error(t, err)
	})
}

func TestRegisterView(t *testing.T) {
	buf := make([]uint8, 32)
	v, err := NewRegisterView(5, buf)
	assert.NoError(t, err)
	assert.Equal(t, 32, v.Len())

	_, err = NewRegisterView(5, buf[:31])
	assert.Error(t, err)
	_, err = NewRegisterView(2, buf[:4])
	assert.Error(t, err)

	_, err = NewExternalSketch(RegisterView{})
	assert.Error(t, err)
}

func TestExternalSketch(t *testing.T) {
	t.Run("Writes Through The View", func(t *testing.T) {
		arena, _ := NewRegisterArena(10, 2)
		v0, _ := arena.View(0)
		v1, _ := arena.View(1)
		a, err := NewExternalSketch(v0)
		assert.NoError(t, err)
		b, err := NewExternalSketch(v1)
		assert.NoError(t, err)
		assert.Equal(t, uint64(0), a.Count())
		assert.Equal(t, "HyperLogLogExternal(p=10)", a.String())

		owned, _ := NewSketch(10)
		for i := 0; i < 2000; i++ {
			a.UpdateString(strconv.Itoa(i))
			owned.UpdateString(strconv.Itoa(i))
		}
		assert.Equal(t, owned.Registers(), arena.buf[:1024])
		assert.Equal(t, owned.Count(), a.Count())
		assert.Equal(t, owned.Estimate(), a.Estimate())
		assert.True(t, b.IsEmpty())
		assert.Contains(t, a.Summary(), "HLL external sketch")
	})

	t.Run("New Clears Attach Keeps", func(t *testing.T) {
		buf := make([]uint8, 16)
		buf[3] = 7
		v, _ := NewRegisterView(4, buf)

		attached, err := AttachExternalSketch(v)
		assert.NoError(t, err)
		assert.False(t, attached.IsEmpty())
		assert.Equal(t, uint8(7), buf[3])

		fresh, err := NewExternalSketch(v)
		assert.NoError(t, err)
		assert.True(t, fresh.IsEmpty())
		assert.Equal(t, uint8(0), buf[3])

		buf[3] = 62
		_, err = AttachExternalSketch(v)
		assert.True(t, errors.Is(err, common.ErrInvalidState))
	})

	t.Run("Copy", func(t *testing.T) {
		arena, _ := NewRegisterArena(6, 2)
		v0, _ := arena.View(0)
		v1, _ := arena.View(1)
		a, _ := NewExternalSketch(v0)
		a.UpdateString("x")

		standalone := a.Copy()
		standalone.UpdateString("y")
		standalone.UpdateString("z")
		assert.NotEqual(t, a.View().regs, standalone.View().regs)

		into, err := a.CopyInto(v1)
		assert.NoError(t, err)
		assert.Equal(t, arena.buf[:64], arena.buf[64:])
		into.UpdateString("y")
		assert.Equal(t, uint64(1), a.Count())

		other, _ := NewRegisterArena(7, 1)
		wrong, _ := other.View(0)
		_, err = a.CopyInto(wrong)
		assert.True(t, errors.Is(err, common.ErrConfigurationMismatch))
	})

	t.Run("Merge", func(t *testing.T) {
		arena, _ := NewRegisterArena(12, 4)
		shards := make([]*ExternalSketch, 4)
		whole, _ := NewSketch(12)
		for i := range shards {
			v, _ := arena.View(i)
			shards[i], _ = NewExternalSketch(v)
		}
		for i := 0; i < 40_000; i++ {
			shards[i%4].UpdateUInt64(uint64(i))
			whole.UpdateUInt64(uint64(i))
		}
		for _, s := range shards[1:] {
			assert.NoError(t, shards[0].Merge(s))
		}
		assert.Equal(t, whole.Registers(), shards[0].View().regs)

		owned, _ := NewSketch(12)
		owned.UpdateUInt64(1 << 40)
		assert.NoError(t, shards[1].MergeSketch(owned))

		small, _ := NewRegisterArena(11, 1)
		v, _ := small.View(0)
		mismatched, _ := NewExternalSketch(v)
		assert.True(t, errors.Is(shards[0].Merge(mismatched), common.ErrConfigurationMismatch))
	})

	t.Run("Serialization", func(t *testing.T) {
		arena, _ := NewRegisterArena(8, 2)
		v0, _ := arena.View(0)
		v1, _ := arena.View(1)
		a, _ := NewExternalSketch(v0)
		for i := 0; i < 500; i++ {
			a.UpdateUInt64(uint64(i))
		}
		s := newStream(a.SerializedSizeBytes())
		assert.NoError(t, a.Serialize(s))
		s.Reset()

		b, err := DecodeExternal(s, v1)
		assert.NoError(t, err)
		assert.Equal(t, arena.buf[:256], arena.buf[256:])
		assert.Equal(t, a.Count(), b.Count())

		// owned and external sketches share a wire format
		s.Reset()
		owned, err := Decode(s)
		assert.NoError(t, err)
		assert.Equal(t, a.Count(), owned.Count())

		s.Reset()
		b.Reset()
		assert.NoError(t, b.Deserialize(s))
		assert.Equal(t, a.Count(), b.Count())

		s.Reset()
		small, _ := NewRegisterArena(7, 1)
		v, _ := small.View(0)
		_, err = DecodeExternal(s, v)
		assert.True(t, errors.Is(err, common.ErrConfigurationMismatch))
	})
}
