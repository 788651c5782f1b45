//go:build !gfxdebug

package main

const debugAssertions = false
