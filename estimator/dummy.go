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
	"fmt"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/serde"
)

// Dummy reports a fixed count and ignores every item. It is a baseline for
// benchmarks, not a sketch.
type Dummy struct {
	value uint64
}

func NewDummySketch(value uint64) *Dummy {
	return &Dummy{value: value}
}

func (d *Dummy) Count() uint64 {
	return d.value
}

// Merge adopts the larger of the two constants.
func (d *Dummy) Merge(other *Dummy) {
	d.value = max(d.value, other.value)
}

func (d *Dummy) Copy() *Dummy {
	return &Dummy{value: d.value}
}

func (d *Dummy) SerializedSizeBytes() int {
	return 8
}

// Serialize writes [value].
func (d *Dummy) Serialize(s *serde.ByteStream) error {
	return s.WriteUInt64(d.value)
}

func (d *Dummy) Deserialize(s *serde.ByteStream) error {
	v, err := s.ReadUInt64()
	if err != nil {
		return common.TruncatedError(err)
	}
	d.value = v
	return nil
}

func (d *Dummy) String() string {
	return fmt.Sprintf("Dummy(value=%d)", d.value)
}
