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
	"math"

	"github.com/cardinality-go/sketches/common"
	"github.com/cardinality-go/sketches/internal"
)

const (
	// MinPrecision is the smallest allowed log2 of the register count.
	MinPrecision = 4
	// MaxPrecision is the largest allowed log2 of the register count.
	MaxPrecision = 18
	// DefaultPrecision gives 32768 registers.
	DefaultPrecision = 15
)

var (
	two32 = math.Exp2(32)
	// above this raw estimate the 32-bit hash-space correction applies
	largeRangeThreshold = two32 / 30
	// invPow2Table[r] = 2^-r for every rank a register can hold
	invPow2Table = newInvPow2Table()

	hllRSEFactor = math.Sqrt((3.0 * math.Log(2.0)) - 1.0) //1.03896
)

func newInvPow2Table() [66]float64 {
	var table [66]float64
	for r := range table {
		v, err := internal.InvPow2(r)
		if err != nil {
			panic(err)
		}
		table[r] = v
	}
	return table
}

// checkLgK checks the given lgK and returns it if it is valid and return an error otherwise.
func checkLgK(lgK int) (int, error) {
	if lgK >= MinPrecision && lgK <= MaxPrecision {
		return lgK, nil
	}
	return 0, fmt.Errorf("log K must be between %d and %d, inclusive: %d", MinPrecision, MaxPrecision, lgK)
}

// maxRank is the largest value a register can hold for the given lgConfigK.
func maxRank(lgConfigK int) uint8 {
	return uint8(64 - lgConfigK + 1)
}

// RelativeStandardError returns 1.04/sqrt(2^lgConfigK), the expected relative error
// of the estimate.
func RelativeStandardError(lgConfigK int) float64 {
	return hllRSEFactor / math.Sqrt(float64(uint64(1)<<lgConfigK))
}

type sketchOptions struct {
	hasher common.Hasher
}

type SketchOptionFunc func(*sketchOptions)

// WithHasher sets the hasher items are passed through. Sketches built with different
// hashers cannot be merged.
func WithHasher(h common.Hasher) SketchOptionFunc {
	return func(opts *sketchOptions) {
		opts.hasher = h
	}
}

func newSketchOptions(opts []SketchOptionFunc) *sketchOptions {
	options := &sketchOptions{
		hasher: common.DefaultHasher(),
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
