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
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncAllocatorParallel(t *testing.T) {
	s := NewSync(newTestAllocator(t, 1<<20))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				label := strconv.Itoa(g) + "/" + strconv.Itoa(i)
				if _, err := s.Allocate(uint64(i%256+1), label); err != nil {
					continue
				}
				if i%2 == 0 {
					assert.NoError(t, s.Deallocate(label))
				}
			}
		}(g)
	}
	wg.Wait()
	require.NoError(t, s.Verify())

	for _, label := range s.Labels() {
		require.NoError(t, s.Deallocate(label))
	}
	internal, external := s.Fragmentation()
	assert.Zero(t, internal)
	assert.Equal(t, uint64(1<<20), external)
	assert.Equal(t, []FreeBlock{{Size: 1 << 20, Address: 0}}, s.Snapshot().Free)

	_, err := s.Allocate(10, "x")
	require.NoError(t, err)
	s.Reset()
	assert.Empty(t, s.Labels())
}

func TestSyncAllocatorQueries(t *testing.T) {
	s := NewSync(newTestAllocator(t, 64))
	assert.Equal(t, uint64(64), s.TotalSize())
	assert.Equal(t, uint64(1), s.MinBlockSize())

	addr, err := s.Allocate(5, "a")
	require.NoError(t, err)
	blk, ok := s.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, Block{Address: addr, Requested: 5, Size: 8, Label: "a"}, blk)
	assert.Equal(t, uint64(56), s.Available())

	_, ok = s.Lookup("b")
	assert.False(t, ok)
}
