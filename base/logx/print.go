// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logx

import (
	"fmt"
	"log/slog"
)

// Print is equivalent to [fmt.Print], gated by [UserLevel].
func Print(level slog.Level, a ...any) (n int, err error) {
	if UserLevel > level {
		return 0, nil
	}
	return fmt.Print(a...)
}

// PrintlnDebug prints its arguments at [slog.LevelDebug].
func PrintlnDebug(a ...any) (n int, err error) {
	return Println(slog.LevelDebug, a...)
}

// PrintlnInfo prints its arguments at [slog.LevelInfo].
func PrintlnInfo(a ...any) (n int, err error) {
	return Println(slog.LevelInfo, a...)
}

// PrintlnWarn prints its arguments at [slog.LevelWarn].
func PrintlnWarn(a ...any) (n int, err error) {
	return Println(slog.LevelWarn, a...)
}

// Println is equivalent to [fmt.Println], gated by [UserLevel].
func Println(level slog.Level, a ...any) (n int, err error) {
	if UserLevel > level {
		return 0, nil
	}
	return fmt.Println(a...)
}

// Printf is equivalent to [fmt.Printf], gated by [UserLevel].
func Printf(level slog.Level, format string, a ...any) (n int, err error) {
	if UserLevel > level {
		return 0, nil
	}
	return fmt.Printf(format, a...)
}
