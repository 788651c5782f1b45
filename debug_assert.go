package main

import "fmt"

// assertf panics with a formatted message when cond is false. Call sites
// guard it with debugAssertions so release builds pay nothing.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
