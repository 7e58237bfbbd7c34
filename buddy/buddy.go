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

// Package buddy implements a buddy-system allocator over an abstract address range.
//
// The region [0, TotalSize) is managed as power-of-two blocks. Allocate splits
// the smallest sufficient free block in halves until it matches the rounded
// request, Deallocate merges a released block with its buddy (address XOR size)
// for as long as the buddy is free. Allocations are keyed by a caller label.
package buddy

import (
	"math/bits"
	"sort"

	"github.com/bytedance/gopkg/util/logger"
	"github.com/pkg/errors"
)

// Option configures an Allocator.
type Option struct {
	// MinBlockSize is the smallest block the allocator splits down to.
	// It must be a power of two. Requests below it are rounded up to it.
	MinBlockSize uint64
}

// DefaultOption returns the default values of Option.
func DefaultOption() *Option {
	return &Option{MinBlockSize: 1}
}

// Block is an allocated entry.
type Block struct {
	Address   uint64
	Requested uint64
	Size      uint64
	Label     string
}

// FreeBlock is an entry of the free table.
type FreeBlock struct {
	Size    uint64
	Address uint64
}

// Layout is a point-in-time copy of the allocator tables.
// Allocated is sorted by address, Free by size and then address.
type Layout struct {
	Allocated []Block
	Free      []FreeBlock
}

type allocation struct {
	requested uint64
	order     int
	label     string
}

// Allocator is a buddy allocator. It is not safe for concurrent use,
// see SyncAllocator.
type Allocator struct {
	totalSize uint64

	// free holds the free block addresses per order.
	free *freeTable

	// allocs maps a block address to its allocation.
	allocs map[uint64]allocation

	// labels maps a caller label to a block address.
	labels map[string]uint64

	// minBlockSize is the minimum block size.
	minBlockSize uint64
	// minBlockShift is log2(minBlockSize).
	minBlockShift int
	// maxBlockOrder is log2(totalSize) - log2(minBlockSize).
	maxBlockOrder int
}

// New creates an allocator over [0, totalSize) with the default options.
// totalSize must be a power of two.
func New(totalSize uint64) (*Allocator, error) {
	return NewWithOption(totalSize, DefaultOption())
}

// NewWithOption creates an allocator with custom options. A nil opt means DefaultOption.
func NewWithOption(totalSize uint64, opt *Option) (*Allocator, error) {
	if opt == nil {
		opt = DefaultOption()
	}
	minBlock := opt.MinBlockSize
	if minBlock == 0 {
		minBlock = 1
	}
	if !isPowerOfTwo(minBlock) {
		return nil, errors.Errorf("minBlockSize must be a power of two, got %d", minBlock)
	}
	if !isPowerOfTwo(totalSize) {
		return nil, errors.Wrapf(ErrInvalidTotalSize, "%d is not a power of two", totalSize)
	}
	if totalSize < minBlock {
		return nil, errors.Wrapf(ErrInvalidTotalSize, "%d is smaller than minBlockSize %d", totalSize, minBlock)
	}

	minShift := bits.TrailingZeros64(minBlock)
	maxOrder := bits.TrailingZeros64(totalSize) - minShift

	a := &Allocator{
		totalSize:     totalSize,
		minBlockSize:  minBlock,
		minBlockShift: minShift,
		maxBlockOrder: maxOrder,
		free:          newFreeTable(maxOrder),
	}
	a.Reset()
	return a, nil
}

// TotalSize returns the size of the managed region.
func (a *Allocator) TotalSize() uint64 {
	return a.totalSize
}

// MinBlockSize returns the smallest block size the allocator hands out.
func (a *Allocator) MinBlockSize() uint64 {
	return a.minBlockSize
}

// Allocate reserves a block of at least size units under label and returns its address.
// The block size is size rounded up to a power of two (and to MinBlockSize).
// On failure the allocator is left unchanged.
func (a *Allocator) Allocate(size uint64, label string) (uint64, error) {
	if size == 0 {
		return 0, errors.Wrapf(ErrInvalidSize, "allocate %q", label)
	}
	if _, ok := a.labels[label]; ok {
		return 0, errors.Wrapf(ErrDuplicateLabel, "label %q", label)
	}
	order := a.getOrderForSize(size)
	if order > a.maxBlockOrder {
		return 0, errors.Wrapf(ErrOutOfMemory, "size %d exceeds region size %d", size, a.totalSize)
	}

	// Find the smallest order with a free block
	foundOrder := -1
	for o := order; o <= a.maxBlockOrder; o++ {
		if a.free.len(o) > 0 {
			foundOrder = o
			break
		}
	}
	if foundOrder == -1 {
		return 0, errors.Wrapf(ErrOutOfMemory, "no free block of size %d", a.blockSize(order))
	}

	addr, _ := a.free.pop(foundOrder)

	// Split until we reach required order.
	// The lower half keeps the address, the upper half goes to the free table.
	for foundOrder > order {
		foundOrder--
		a.pushFree(foundOrder, addr+a.blockSize(foundOrder))
	}

	a.allocs[addr] = allocation{requested: size, order: order, label: label}
	a.labels[label] = addr
	return addr, nil
}

// Deallocate releases the block held by label and merges it with its free buddies.
func (a *Allocator) Deallocate(label string) error {
	addr, ok := a.labels[label]
	if !ok {
		return errors.Wrapf(ErrUnknownLabel, "label %q", label)
	}
	delete(a.labels, label)

	alloc, ok := a.allocs[addr]
	if !ok {
		return errors.Wrapf(ErrInconsistent, "label %q points at %d", label, addr)
	}
	delete(a.allocs, addr)

	order := alloc.order
	for order < a.maxBlockOrder {
		blockSize := a.blockSize(order)
		buddy := addr ^ blockSize
		if !a.free.remove(order, buddy) {
			break
		}
		addr &^= blockSize // the lower of the two buddies
		order++
	}
	a.pushFree(order, addr)
	return nil
}

// Fragmentation returns the internal fragmentation (block size minus requested
// size, summed over allocations) and the external fragmentation (total free bytes).
func (a *Allocator) Fragmentation() (internal, external uint64) {
	for _, alloc := range a.allocs {
		internal += a.blockSize(alloc.order) - alloc.requested
	}
	return internal, a.Available()
}

// Available returns the total size of free blocks.
func (a *Allocator) Available() uint64 {
	var total uint64
	for order := 0; order <= a.maxBlockOrder; order++ {
		total += uint64(a.free.len(order)) * a.blockSize(order)
	}
	return total
}

// Snapshot copies the current allocated and free blocks.
func (a *Allocator) Snapshot() Layout {
	l := Layout{Allocated: make([]Block, 0, len(a.allocs))}
	for addr, alloc := range a.allocs {
		l.Allocated = append(l.Allocated, a.block(addr, alloc))
	}
	sort.Slice(l.Allocated, func(i, j int) bool {
		return l.Allocated[i].Address < l.Allocated[j].Address
	})
	for order := 0; order <= a.maxBlockOrder; order++ {
		size := a.blockSize(order)
		a.free.each(order, func(addr uint64) {
			l.Free = append(l.Free, FreeBlock{Size: size, Address: addr})
		})
	}
	sort.Slice(l.Free, func(i, j int) bool {
		if l.Free[i].Size != l.Free[j].Size {
			return l.Free[i].Size < l.Free[j].Size
		}
		return l.Free[i].Address < l.Free[j].Address
	})
	return l
}

// Labels returns the live labels in sorted order.
func (a *Allocator) Labels() []string {
	labels := make([]string, 0, len(a.labels))
	for label := range a.labels {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Lookup returns the block held by label.
func (a *Allocator) Lookup(label string) (Block, bool) {
	addr, ok := a.labels[label]
	if !ok {
		return Block{}, false
	}
	alloc, ok := a.allocs[addr]
	if !ok {
		return Block{}, false
	}
	return a.block(addr, alloc), true
}

// Reset clears all allocations and returns the allocator to its initial state.
func (a *Allocator) Reset() {
	a.free.reset()
	a.free.push(a.maxBlockOrder, 0)
	a.allocs = make(map[uint64]allocation)
	a.labels = make(map[string]uint64)
}

func (a *Allocator) block(addr uint64, alloc allocation) Block {
	return Block{
		Address:   addr,
		Requested: alloc.requested,
		Size:      a.blockSize(alloc.order),
		Label:     alloc.label,
	}
}

// pushFree inserts a free block. The XOR buddy identity only holds for
// addresses aligned to their block size, so a misaligned insert is a bug.
func (a *Allocator) pushFree(order int, addr uint64) {
	size := a.blockSize(order)
	if addr&(size-1) != 0 {
		logger.Errorf("buddy: misaligned free block addr=%d size=%d", addr, size)
		panic("buddy: misaligned free block")
	}
	if !a.free.push(order, addr) {
		logger.Errorf("buddy: free block inserted twice addr=%d size=%d", addr, size)
		panic("buddy: double insert into free table")
	}
}

func (a *Allocator) blockSize(order int) uint64 {
	return a.minBlockSize << order
}

// getOrderForSize calculates the smallest order that can fit the given size.
// It uses bits.Len64 to find the smallest power of two that satisfies the request.
func (a *Allocator) getOrderForSize(size uint64) int {
	if size <= a.minBlockSize {
		return 0
	}
	return bits.Len64(size-1) - a.minBlockShift
}

// NextPowerOfTwo returns the smallest power of two >= n, or 0 if it overflows uint64.
func NextPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	shift := bits.Len64(n - 1)
	if shift >= 64 {
		return 0
	}
	return 1 << shift
}

func isPowerOfTwo(n uint64) bool {
	return n != 0 && n&(n-1) == 0
}
