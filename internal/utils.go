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
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
)

const (
	DEFAULT_UPDATE_SEED = uint64(9001)
)

// Two64 is 2^64 as a float64.
const Two64 = float64(1<<32) * float64(1<<32)

// InvPow2 returns 2^(-e).
func InvPow2(e int) (float64, error) {
	if (e | 1024 - e - 1) < 0 {
		return 0, fmt.Errorf("e cannot be negative or greater than 1023: %d", e)
	}
	return math.Float64frombits((1023 - uint64(e)) << 52), nil
}

// CeilDiv returns ceil(n / d) for positive d.
func CeilDiv[T constraints.Integer](n, d T) T {
	return (n + d - 1) / d
}

// WordsForBits returns the number of 64-bit words needed to hold numBits bits.
func WordsForBits(numBits uint64) uint64 {
	return CeilDiv(numBits, 64)
}

// EstimateToCount rounds a non-negative estimate to the nearest integer, saturating at
// math.MaxUint64 and mapping NaN and negative values to 0.
func EstimateToCount(estimate float64) uint64 {
	if !(estimate > 0) {
		return 0
	}
	if estimate >= Two64 {
		return math.MaxUint64
	}
	return uint64(math.Round(estimate))
}
