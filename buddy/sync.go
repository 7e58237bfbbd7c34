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

import "sync"

// SyncAllocator guards one Allocator with a single mutex.
// Every operation holds the lock for its whole duration, so allocate and
// deallocate never interleave on the same instance.
type SyncAllocator struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSync wraps a.
func NewSync(a *Allocator) *SyncAllocator {
	return &SyncAllocator{a: a}
}

// Allocate runs Allocator.Allocate under the lock.
func (s *SyncAllocator) Allocate(size uint64, label string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Allocate(size, label)
}

// Deallocate runs Allocator.Deallocate under the lock.
func (s *SyncAllocator) Deallocate(label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Deallocate(label)
}

// Fragmentation returns the internal and external fragmentation.
func (s *SyncAllocator) Fragmentation() (internal, external uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Fragmentation()
}

// Snapshot copies the tables under the lock.
func (s *SyncAllocator) Snapshot() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Snapshot()
}

// Labels returns the live labels in sorted order.
func (s *SyncAllocator) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Labels()
}

// Lookup returns the block held by label.
func (s *SyncAllocator) Lookup(label string) (Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Lookup(label)
}

// Available returns the total size of free blocks.
func (s *SyncAllocator) Available() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Available()
}

// TotalSize returns the size of the managed region. It never changes.
func (s *SyncAllocator) TotalSize() uint64 {
	return s.a.TotalSize()
}

// MinBlockSize returns the smallest block size handed out. It never changes.
func (s *SyncAllocator) MinBlockSize() uint64 {
	return s.a.MinBlockSize()
}

// Reset drops every allocation.
func (s *SyncAllocator) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Verify runs Allocator.Verify under the lock.
func (s *SyncAllocator) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Verify()
}
