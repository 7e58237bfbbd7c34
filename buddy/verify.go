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

import (
	"sort"

	"github.com/pkg/errors"
)

type span struct {
	addr, size uint64
}

// Verify checks the tables against their invariants and returns the first violation:
//   - allocated and free blocks tile [0, TotalSize) with no gap or overlap
//   - every block address is a multiple of its size
//   - no free block has its buddy free at the same size
//   - labels map one to one onto allocations
func (a *Allocator) Verify() error {
	spans := make([]span, 0, len(a.allocs)+a.maxBlockOrder+1)
	for addr, alloc := range a.allocs {
		size := a.blockSize(alloc.order)
		if addr&(size-1) != 0 {
			return errors.Errorf("allocated block %d is not aligned to %d", addr, size)
		}
		spans = append(spans, span{addr: addr, size: size})
	}

	var err error
	for order := 0; order <= a.maxBlockOrder; order++ {
		size := a.blockSize(order)
		a.free.each(order, func(addr uint64) {
			if err != nil {
				return
			}
			if addr&(size-1) != 0 {
				err = errors.Errorf("free block %d is not aligned to %d", addr, size)
				return
			}
			if order < a.maxBlockOrder && a.free.contains(order, addr^size) {
				err = errors.Errorf("free buddies %d and %d of size %d are not merged", addr, addr^size, size)
				return
			}
			spans = append(spans, span{addr: addr, size: size})
		})
		if err != nil {
			return err
		}
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].addr < spans[j].addr })
	var next uint64
	for _, s := range spans {
		if s.addr != next {
			return errors.Errorf("block at %d does not start at expected offset %d", s.addr, next)
		}
		next = s.addr + s.size
	}
	if next != a.totalSize {
		return errors.Errorf("blocks cover %d of %d", next, a.totalSize)
	}

	if len(a.labels) != len(a.allocs) {
		return errors.Errorf("%d labels for %d allocations", len(a.labels), len(a.allocs))
	}
	for label, addr := range a.labels {
		alloc, ok := a.allocs[addr]
		if !ok || alloc.label != label {
			return errors.Errorf("label %q does not own the allocation at %d", label, addr)
		}
	}
	return nil
}
