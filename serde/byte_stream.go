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

// Package serde provides ByteStream, the segmented byte stream sketches serialize
// themselves into.
//
// A ByteStream is backed by any number of separately supplied fixed-size buffers.
// Values are written and read as little endian 64-bit words and may straddle buffer
// boundaries; callers never see where one buffer ends and the next begins.
package serde

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrStorageExhausted is returned by a write that does not fit in the remaining capacity.
	ErrStorageExhausted = errors.New("storage exhausted")
	// ErrReadPastEnd is returned by a read beyond the written data.
	ErrReadPastEnd = errors.New("read past end")
)

const wordBytes = 8

// ByteStream is a logical read/write stream over an ordered list of owned buffers.
// It is not safe for concurrent use.
type ByteStream struct {
	segments [][]byte
	capacity int

	// cursor
	segment int
	offset  int
	pos     int

	// high-water mark of written bytes
	written int

	scratch [wordBytes]byte
}

// NewByteStream returns an empty stream. Storage must be added with AddStorage
// before anything can be written.
func NewByteStream() *ByteStream {
	return &ByteStream{}
}

// NewByteStreamFromBytes returns a stream positioned at the first byte whose
// buffers are the given segments, all of which count as already written. It is
// used to read back state that was persisted with Bytes or by a previous stream.
func NewByteStreamFromBytes(segments ...[]byte) *ByteStream {
	s := &ByteStream{}
	for _, seg := range segments {
		s.AddStorage(seg)
	}
	s.written = s.capacity
	return s
}

// AddStorage appends buf to the stream, growing its capacity by len(buf). The
// stream takes ownership of buf until Release is called.
func (s *ByteStream) AddStorage(buf []byte) {
	if len(buf) == 0 {
		return
	}
	s.segments = append(s.segments, buf)
	s.capacity += len(buf)
}

// Capacity returns the total size of all buffers.
func (s *ByteStream) Capacity() int {
	return s.capacity
}

// Len returns the number of bytes written so far.
func (s *ByteStream) Len() int {
	return s.written
}

// Remaining returns the number of written bytes between the cursor and the end of
// the data.
func (s *ByteStream) Remaining() int {
	return max(s.written-s.pos, 0)
}

// Position returns the cursor as an absolute byte offset.
func (s *ByteStream) Position() int {
	return s.pos
}

// NumSegments returns the number of buffers backing the stream.
func (s *ByteStream) NumSegments() int {
	return len(s.segments)
}

// Reset rewinds the cursor to the first byte. Buffer contents are left untouched,
// so a sequence of writes followed by Reset can be read back in the same order.
func (s *ByteStream) Reset() {
	s.segment = 0
	s.offset = 0
	s.pos = 0
}

// WriteUInt64 writes v at the cursor. Nothing is written when fewer than eight bytes
// of capacity remain.
func (s *ByteStream) WriteUInt64(v uint64) error {
	if s.capacity-s.pos < wordBytes {
		return fmt.Errorf("%w: %d of %d bytes used", ErrStorageExhausted, s.pos, s.capacity)
	}
	s.skipExhausted()
	seg := s.segments[s.segment]
	if len(seg)-s.offset >= wordBytes {
		binary.LittleEndian.PutUint64(seg[s.offset:], v)
		s.advance(wordBytes)
	} else {
		binary.LittleEndian.PutUint64(s.scratch[:], v)
		s.copyOut(s.scratch[:])
	}
	if s.pos > s.written {
		s.written = s.pos
	}
	return nil
}

// ReadUInt64 reads the next word at the cursor.
func (s *ByteStream) ReadUInt64() (uint64, error) {
	if s.written-s.pos < wordBytes {
		return 0, fmt.Errorf("%w: %d of %d bytes read", ErrReadPastEnd, s.pos, s.written)
	}
	s.skipExhausted()
	seg := s.segments[s.segment]
	if len(seg)-s.offset >= wordBytes {
		v := binary.LittleEndian.Uint64(seg[s.offset:])
		s.advance(wordBytes)
		return v, nil
	}
	s.copyIn(s.scratch[:])
	return binary.LittleEndian.Uint64(s.scratch[:]), nil
}

// Bytes returns a copy of the written data as one contiguous slice.
func (s *ByteStream) Bytes() []byte {
	out := make([]byte, 0, s.written)
	remaining := s.written
	for _, seg := range s.segments {
		if remaining == 0 {
			break
		}
		n := min(len(seg), remaining)
		out = append(out, seg[:n]...)
		remaining -= n
	}
	return out
}

// Release relinquishes all buffers. The stream is empty afterwards and may be given
// new storage.
func (s *ByteStream) Release() {
	clear(s.segments)
	s.segments = nil
	s.capacity = 0
	s.written = 0
	s.Reset()
}

// skipExhausted moves the cursor onto the next segment when the current one is used up.
func (s *ByteStream) skipExhausted() {
	for s.offset == len(s.segments[s.segment]) {
		s.segment++
		s.offset = 0
	}
}

func (s *ByteStream) advance(n int) {
	s.offset += n
	s.pos += n
}

// copyOut writes src byte by byte across segment boundaries; the caller has checked capacity.
func (s *ByteStream) copyOut(src []byte) {
	for len(src) > 0 {
		s.skipExhausted()
		n := copy(s.segments[s.segment][s.offset:], src)
		src = src[n:]
		s.advance(n)
	}
}

// copyIn fills dst across segment boundaries; the caller has checked availability.
func (s *ByteStream) copyIn(dst []byte) {
	for len(dst) > 0 {
		s.skipExhausted()
		n := copy(dst, s.segments[s.segment][s.offset:])
		dst = dst[n:]
		s.advance(n)
	}
}
