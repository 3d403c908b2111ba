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
)

// RegisterView borrows 2^lgConfigK register bytes owned by someone else.
// The zero value is not usable.
type RegisterView struct {
	lgConfigK int
	regs      []uint8
}

// NewRegisterView wraps buf, which must be exactly 2^lgConfigK bytes long.
// buf is neither copied nor cleared.
func NewRegisterView(lgConfigK int, buf []uint8) (RegisterView, error) {
	lgK, err := checkLgK(lgConfigK)
	if err != nil {
		return RegisterView{}, err
	}
	if len(buf) != 1<<lgK {
		return RegisterView{}, fmt.Errorf("register buffer must hold %d bytes: %d", 1<<lgK, len(buf))
	}
	return RegisterView{
		lgConfigK: lgK,
		regs:      buf[:len(buf):len(buf)],
	}, nil
}

// LgConfigK returns the precision of the view.
func (v RegisterView) LgConfigK() int {
	return v.lgConfigK
}

// Len returns the number of registers.
func (v RegisterView) Len() int {
	return len(v.regs)
}

// RegisterArena is one allocation carved into equally sized register views.
type RegisterArena struct {
	lgConfigK int
	n         int
	buf       []uint8
}

// NewRegisterArena allocates room for n views of 2^lgConfigK registers each.
func NewRegisterArena(lgConfigK int, n int) (*RegisterArena, error) {
	lgK, err := checkLgK(lgConfigK)
	if err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("arena must hold at least one view: %d", n)
	}
	return &RegisterArena{
		lgConfigK: lgK,
		n:         n,
		buf:       make([]uint8, n<<lgK),
	}, nil
}

// NumViews returns the number of views in the arena.
func (a *RegisterArena) NumViews() int {
	return a.n
}

// LgConfigK returns the precision of every view in the arena.
func (a *RegisterArena) LgConfigK() int {
	return a.lgConfigK
}

// View returns the i-th view. Views never overlap.
func (a *RegisterArena) View(i int) (RegisterView, error) {
	if i < 0 || i >= a.n {
		return RegisterView{}, fmt.Errorf("view index out of range [0, %d): %d", a.n, i)
	}
	size := 1 << a.lgConfigK
	lo, hi := i*size, (i+1)*size
	return RegisterView{
		lgConfigK: a.lgConfigK,
		regs:      a.buf[lo:hi:hi],
	}, nil
}
