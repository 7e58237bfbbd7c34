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

import "github.com/bytedance/gopkg/collection/skipset"

// freeTable holds the free block addresses of every order.
// lists[0] is for minBlockSize blocks, lists[len-1] for the whole region.
// Addresses inside one order leave in the order they came in:
// pop returns the block that has been free the longest.
type freeTable struct {
	lists []freeList
	// seq numbers every push, it only grows until reset.
	seq uint64
}

type freeList struct {
	// seqs is the ordered set of push sequence numbers.
	seqs *skipset.Uint64Set
	// addrs maps a sequence number to its address, index the reverse.
	addrs map[uint64]uint64
	index map[uint64]uint64
}

// newFreeTable creates an empty table, call reset before use.
func newFreeTable(maxOrder int) *freeTable {
	return &freeTable{lists: make([]freeList, maxOrder+1)}
}

// push appends addr to the order. It returns false if addr is already there.
func (t *freeTable) push(order int, addr uint64) bool {
	l := &t.lists[order]
	if _, ok := l.index[addr]; ok {
		return false
	}
	t.seq++
	l.seqs.Add(t.seq)
	l.addrs[t.seq] = addr
	l.index[addr] = t.seq
	return true
}

// pop removes and returns the earliest pushed address of the order.
func (t *freeTable) pop(order int) (uint64, bool) {
	l := &t.lists[order]
	var (
		seq   uint64
		found bool
	)
	l.seqs.Range(func(v uint64) bool {
		seq, found = v, true
		return false
	})
	if !found {
		return 0, false
	}
	addr := l.addrs[seq]
	l.seqs.Remove(seq)
	delete(l.addrs, seq)
	delete(l.index, addr)
	return addr, true
}

func (t *freeTable) remove(order int, addr uint64) bool {
	l := &t.lists[order]
	seq, ok := l.index[addr]
	if !ok {
		return false
	}
	l.seqs.Remove(seq)
	delete(l.addrs, seq)
	delete(l.index, addr)
	return true
}

func (t *freeTable) contains(order int, addr uint64) bool {
	_, ok := t.lists[order].index[addr]
	return ok
}

func (t *freeTable) len(order int) int {
	return len(t.lists[order].index)
}

// each calls f for every free address of the order in push order.
func (t *freeTable) each(order int, f func(addr uint64)) {
	l := &t.lists[order]
	l.seqs.Range(func(seq uint64) bool {
		f(l.addrs[seq])
		return true
	})
}

func (t *freeTable) reset() {
	for i := range t.lists {
		t.lists[i] = freeList{
			seqs:  skipset.NewUint64(),
			addrs: make(map[uint64]uint64),
			index: make(map[uint64]uint64),
		}
	}
	t.seq = 0
}
