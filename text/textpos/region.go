// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package textpos

import "fmt"

// Range is a half-open byte offset range [Start, End) within the source text.
type Range struct {
	Start int
	End   int
}

// Len returns the number of bytes in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// IsEmpty returns true if the range does not contain any bytes.
func (r Range) IsEmpty() bool {
	return r.End <= r.Start
}

// Contains returns true if the range contains the given offset.
func (r Range) Contains(off int) bool {
	return off >= r.Start && off < r.End
}

// Overlaps returns true if the two ranges share at least one byte.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}
