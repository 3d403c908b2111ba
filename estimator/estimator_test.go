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

package estimator

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/hll"
	"github.com/cardinality-go/sketches/serde"
)

func newStream(size int) *serde.ByteStream {
	s := serde.NewByteStream()
	for size > 0 {
		n := min(size, 20)
		s.AddStorage(make([]byte, n))
		size -= n
	}
	return s
}

// one fresh estimator per kind, in Kind order
func newEstimators(t *testing.T) []*Estimator {
	lc, err := NewLinearCounter(4096)
	assert.NoError(t, err)
	kv, err := NewKMinValues(1024)
	assert.NoError(t, err)
	hl, err := NewHyperLogLog(10)
	assert.NoError(t, err)
	arena, err := hll.NewRegisterArena(10, 1)
	assert.NoError(t, err)
	view, err := arena.View(0)
	assert.NoError(t, err)
	ext, err := NewHyperLogLogExternal(view)
	assert.NoError(t, err)
	return []*Estimator{lc, kv, hl, ext, NewDummy(0)}
}

func TestKind(t *testing.T) {
	assert.Equal(t, "LinearCounter", KindLinearCounter.String())
	assert.Equal(t, "KMinValues", KindKMinValues.String())
	assert.Equal(t, "HyperLogLog", KindHyperLogLog.String())
	assert.Equal(t, "HyperLogLogExternal", KindHyperLogLogExternal.String())
	assert.Equal(t, "Dummy", KindDummy.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestFreshEstimators(t *testing.T) {
	labels := []string{
		"LinearCounter(bits=4096)",
		"KMinValues(k=1024)",
		"HyperLogLog(p=10)",
		"HyperLogLogExternal(p=10)",
		"Dummy(value=0)",
	}
	for i, e := range newEstimators(t) {
		assert.Equal(t, Kind(i), e.Kind())
		assert.Equal(t, uint64(0), e.Count(), e.Label())
		assert.True(t, e.IsEmpty(), e.Label())
		assert.Equal(t, labels[i], e.Label())
		assert.Equal(t, labels[i], e.String())
	}
}

func TestInvalidConfiguration(t *testing.T) {
	_, err := NewLinearCounter(0)
	assert.Error(t, err)
	_, err = NewKMinValues(0)
	assert.Error(t, err)
	_, err = NewHyperLogLog(hll.MaxPrecision + 1)
	assert.Error(t, err)
	_, err = NewHyperLogLogExternal(hll.RegisterView{})
	assert.Error(t, err)
}

func TestUpdateAndCount(t *testing.T) {
	for _, e := range newEstimators(t)[:4] {
		for i := 0; i < 200; i++ {
			e.UpdateString(strconv.Itoa(i))
			e.UpdateSlice([]byte(strconv.Itoa(i)))
		}
		for i := 0; i < 100; i++ {
			e.UpdateUInt64(uint64(i))
		}
		assert.False(t, e.IsEmpty(), e.Label())
		assert.InDelta(t, 300, float64(e.Count()), 30, e.Label())

		e.Reset()
		assert.True(t, e.IsEmpty(), e.Label())
		assert.Equal(t, uint64(0), e.Count(), e.Label())
	}

	d := NewDummy(42)
	d.UpdateString("ignored")
	d.Reset()
	assert.Equal(t, uint64(42), d.Count())
}

func TestMerge(t *testing.T) {
	t.Run("Commutative", func(t *testing.T) {
		as := newEstimators(t)
		bs := newEstimators(t)
		for k := range as {
			for i := 0; i < 1000; i++ {
				as[k].UpdateString("a" + strconv.Itoa(i))
				bs[k].UpdateString("b" + strconv.Itoa(i))
			}
			ab := as[k].Copy()
			assert.NoError(t, ab.Merge(bs[k].Copy()))
			ba := bs[k].Copy()
			assert.NoError(t, ba.Merge(as[k].Copy()))
			assert.Equal(t, ab.Count(), ba.Count(), ab.Label())
		}
	})

	t.Run("Kind Mismatch", func(t *testing.T) {
		es := newEstimators(t)
		for i := range es {
			for j := range es {
				if i == j {
					continue
				}
				err := es[i].Merge(es[j])
				assert.True(t, errors.Is(err, common.ErrConfigurationMismatch))
			}
		}
	})

	t.Run("Configuration Mismatch", func(t *testing.T) {
		a, _ := NewHyperLogLog(10)
		b, _ := NewHyperLogLog(11)
		assert.True(t, errors.Is(a.Merge(b), common.ErrConfigurationMismatch))

		h, _ := common.NewHasher(common.HashXXHash, 3)
		c, _ := NewLinearCounter(4096)
		d, _ := NewLinearCounter(4096, WithHasher(h))
		assert.True(t, errors.Is(c.Merge(d), common.ErrConfigurationMismatch))
	})

	t.Run("Dummy Adopts Larger Constant", func(t *testing.T) {
		a := NewDummy(3)
		assert.NoError(t, a.Merge(NewDummy(7)))
		assert.Equal(t, uint64(7), a.Count())
		assert.NoError(t, a.Merge(NewDummy(5)))
		assert.Equal(t, uint64(7), a.Count())
	})
}

func TestCopyIsIndependent(t *testing.T) {
	for _, e := range newEstimators(t)[:4] {
		e.UpdateString("x")
		c := e.Copy()
		for i := 0; i < 500; i++ {
			c.UpdateUInt64(uint64(i))
		}
		assert.Equal(t, uint64(1), e.Count(), e.Label())
		assert.Equal(t, e.Kind(), c.Kind())
		assert.Equal(t, e.Label(), c.Label())
	}
}

func TestSerialization(t *testing.T) {
	t.Run("Round Trip", func(t *testing.T) {
		es := newEstimators(t)
		es[4] = NewDummy(17)
		for _, e := range es {
			for i := 0; i < 3000; i++ {
				e.UpdateUInt64(uint64(i))
			}
			s := newStream(e.SerializedSizeBytes())
			assert.NoError(t, e.Serialize(s))
			assert.Equal(t, e.SerializedSizeBytes(), s.Len())

			s.Reset()
			c := e.Copy()
			c.Reset()
			assert.NoError(t, c.Deserialize(s))
			assert.Equal(t, e.Count(), c.Count(), e.Label())

			s.Reset()
			d, err := Decode(e.Kind(), s)
			assert.NoError(t, err)
			assert.Equal(t, e.Count(), d.Count(), e.Label())
			assert.Equal(t, e.Label(), d.Label())

			// merging after a round trip matches merging before it
			other := e.Copy()
			other.Reset()
			for i := 3000; i < 4000; i++ {
				other.UpdateUInt64(uint64(i))
			}
			before := e.Copy()
			assert.NoError(t, before.Merge(other.Copy()))
			assert.NoError(t, d.Merge(other.Copy()))
			assert.Equal(t, before.Count(), d.Count(), e.Label())
		}
	})

	t.Run("Decode External Into View", func(t *testing.T) {
		e, _ := NewHyperLogLog(8)
		for i := 0; i < 100; i++ {
			e.UpdateUInt64(uint64(i))
		}
		s := newStream(e.SerializedSizeBytes())
		assert.NoError(t, e.Serialize(s))
		s.Reset()

		arena, _ := hll.NewRegisterArena(8, 1)
		view, _ := arena.View(0)
		x, err := DecodeExternal(s, view)
		assert.NoError(t, err)
		assert.Equal(t, KindHyperLogLogExternal, x.Kind())
		assert.Equal(t, e.Count(), x.Count())
	})

	t.Run("Storage Exhausted", func(t *testing.T) {
		for _, e := range newEstimators(t) {
			s := newStream(e.SerializedSizeBytes() - 8)
			assert.True(t, errors.Is(e.Serialize(s), serde.ErrStorageExhausted), e.Label())
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		for _, e := range newEstimators(t) {
			_, err := Decode(e.Kind(), serde.NewByteStream())
			assert.True(t, errors.Is(err, common.ErrInvalidState), e.Label())
			assert.True(t, errors.Is(err, serde.ErrReadPastEnd), e.Label())
		}
	})

	t.Run("Unknown Kind", func(t *testing.T) {
		_, err := Decode(Kind(42), serde.NewByteStream())
		assert.Error(t, err)
	})
}
