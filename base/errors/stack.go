// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package errors

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Debug is whether to include the call stack in error strings.
var Debug = false

// callerInfo returns the call stack as "file:line func" strings,
// skipping the given number of frames (see [runtime.Callers]).
// Unwinding stops at package runtime or testing.
func callerInfo(skip int) []string {
	callers := make([]uintptr, 10)
	n := runtime.Callers(skip, callers)
	if n == 0 {
		return nil
	}
	frames := runtime.CallersFrames(callers[:n])
	var res []string
	for {
		frame, more := frames.Next()
		if strings.Contains(frame.File, "runtime/") || strings.Contains(frame.File, "testing/") {
			break
		}
		fn := frame.Function
		if i := strings.LastIndexByte(fn, '/'); i >= 0 {
			fn = fn[i+1:]
		}
		res = append(res, fmt.Sprintf("%s:%d %s", filepath.Base(frame.File), frame.Line, fn))
		if !more {
			break
		}
	}
	return res
}
