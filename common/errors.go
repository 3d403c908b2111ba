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

// Package common holds the pieces shared by every sketch family: the Hasher that
// turns items into 64-bit digests and the error kinds sketches report.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigurationMismatch is returned when two sketches of different variant or
	// configuration are merged, or when serialized state carries a configuration that
	// differs from the receiving sketch.
	ErrConfigurationMismatch = errors.New("configuration mismatch")

	// ErrInvalidState is returned when serialized state is malformed or truncated.
	ErrInvalidState = errors.New("invalid state")
)

// MismatchError wraps ErrConfigurationMismatch with the parameter that differs.
func MismatchError(param string, have, got any) error {
	return fmt.Errorf("%w: %s %v vs %v", ErrConfigurationMismatch, param, have, got)
}

// InvalidStateError wraps ErrInvalidState with a formatted reason.
func InvalidStateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// TruncatedError marks a failed read during deserialization as ErrInvalidState while
// keeping the underlying stream error reachable through errors.Is.
func TruncatedError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidState, err)
}
