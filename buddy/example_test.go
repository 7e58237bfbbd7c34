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

import "fmt"

func Example() {
	const mb = 1 << 20
	a, _ := New(16 * mb)

	addrA, _ := a.Allocate(5*mb, "A") // rounded up to an 8MB block
	addrB, _ := a.Allocate(3*mb, "B") // rounded up to a 4MB block
	fmt.Printf("A at %dMB, B at %dMB\n", addrA/mb, addrB/mb)

	internal, external := a.Fragmentation()
	fmt.Printf("internal=%dMB external=%dMB\n", internal/mb, external/mb)

	_ = a.Deallocate("A")
	_ = a.Deallocate("B")
	for _, fb := range a.Snapshot().Free {
		fmt.Printf("free %dMB at %d\n", fb.Size/mb, fb.Address/mb)
	}

	// Output:
	// A at 0MB, B at 8MB
	// internal=4MB external=4MB
	// free 16MB at 0
}
