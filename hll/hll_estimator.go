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
	"math"

	"github.com/cardinality-go/sketches/internal"
)

func hllCount(regs []uint8) uint64 {
	return internal.EstimateToCount(hllEstimate(regs))
}

// hllEstimate is the classic HyperLogLog estimator with the small range (linear
// counting) and large range corrections.
func hllEstimate(regs []uint8) float64 {
	m := float64(len(regs))
	sum := 0.0
	numZeros := 0
	for _, v := range regs {
		sum += invPow2Table[v]
		if v == 0 {
			numZeros++
		}
	}
	rawEst := getHllRawEstimate(len(regs), sum)

	if rawEst <= 2.5*m {
		if numZeros > 0 {
			return getHllBitMapEstimate(m, numZeros)
		}
		return rawEst
	}
	if rawEst > largeRangeThreshold && rawEst < two32 {
		return -two32 * math.Log(1.0-rawEst/two32)
	}
	return rawEst
}

// getHllBitMapEstimate is linear counting over the empty registers.
func getHllBitMapEstimate(m float64, numZeros int) float64 {
	return m * math.Log(m/float64(numZeros))
}

// getHllRawEstimate is the (non-HIP) estimator.
// configK is 1 << lgConfigK and kxqSum is the sum of 2^-register over all registers.
func getHllRawEstimate(configK int, kxqSum float64) float64 {
	var correctionFactor float64
	switch configK {
	case 16:
		correctionFactor = 0.673
	case 32:
		correctionFactor = 0.697
	case 64:
		correctionFactor = 0.709
	default:
		correctionFactor = 0.7213 / (1.0 + (1.079 / float64(configK)))
	}
	k := float64(configK)
	return (correctionFactor * k * k) / kxqSum
}
