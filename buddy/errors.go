/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package buddy

import "github.com/pkg/errors"

// Errors returned by Allocator. They are wrapped with context,
// use errors.Is to match them.
var (
	// ErrOutOfMemory is returned when no free block is large enough for a request.
	ErrOutOfMemory = errors.New("buddy: out of memory")

	// ErrDuplicateLabel is returned when allocating with a label that is still live.
	ErrDuplicateLabel = errors.New("buddy: duplicate label")

	// ErrUnknownLabel is returned when deallocating a label that is not live.
	ErrUnknownLabel = errors.New("buddy: unknown label")

	// ErrInvalidSize is returned for a zero-sized request.
	ErrInvalidSize = errors.New("buddy: invalid size")

	// ErrInconsistent means the label index points at an address with no allocation.
	ErrInconsistent = errors.New("buddy: inconsistent allocation table")

	// ErrInvalidTotalSize is returned by New when the region is not a power of two
	// or is smaller than the minimum block size.
	ErrInvalidTotalSize = errors.New("buddy: invalid total size")
)
