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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFreeTable(t *testing.T) {
	ft := newFreeTable(3)
	ft.reset()

	for _, addr := range []uint64{48, 16, 32} {
		assert.True(t, ft.push(2, addr))
	}
	assert.False(t, ft.push(2, 16))
	assert.Equal(t, 3, ft.len(2))
	assert.Zero(t, ft.len(0))

	var got []uint64
	ft.each(2, func(addr uint64) { got = append(got, addr) })
	assert.Equal(t, []uint64{48, 16, 32}, got)

	assert.True(t, ft.contains(2, 32))
	assert.True(t, ft.remove(2, 32))
	assert.False(t, ft.remove(2, 32))

	addr, ok := ft.pop(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(48), addr)
	// a re-pushed address goes to the back
	assert.True(t, ft.push(2, 48))
	addr, ok = ft.pop(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(16), addr)
	addr, ok = ft.pop(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(48), addr)
	_, ok = ft.pop(2)
	assert.False(t, ok)

	ft.push(1, 8)
	ft.reset()
	assert.Zero(t, ft.len(1))
}
