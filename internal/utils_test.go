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

package internal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvPow2(t *testing.T) {
	v, err := InvPow2(0)
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = InvPow2(3)
	assert.NoError(t, err)
	assert.Equal(t, 0.125, v)

	_, err = InvPow2(-1)
	assert.Error(t, err)
	_, err = InvPow2(1024)
	assert.Error(t, err)
}

func TestWordsForBits(t *testing.T) {
	assert.Equal(t, uint64(0), WordsForBits(0))
	assert.Equal(t, uint64(1), WordsForBits(1))
	assert.Equal(t, uint64(1), WordsForBits(64))
	assert.Equal(t, uint64(2), WordsForBits(65))
	assert.Equal(t, uint64(16384), WordsForBits(1<<20))
	assert.Equal(t, 3, CeilDiv(7, 3))
}

func TestTwo64(t *testing.T) {
	assert.Equal(t, 18446744073709551616.0, Two64)
}

func TestEstimateToCount(t *testing.T) {
	assert.Equal(t, uint64(0), EstimateToCount(0))
	assert.Equal(t, uint64(0), EstimateToCount(-3))
	assert.Equal(t, uint64(0), EstimateToCount(math.NaN()))
	assert.Equal(t, uint64(3), EstimateToCount(2.5))
	assert.Equal(t, uint64(2), EstimateToCount(2.49))
	assert.Equal(t, uint64(math.MaxUint64), EstimateToCount(math.Inf(1)))
	assert.Equal(t, uint64(math.MaxUint64), EstimateToCount(Two64*3))
}
