//go:build gfxdebug

package main

const debugAssertions = true

func init() {
	compiledFeatures = append(compiledFeatures, "gfxdebug:assertions")
}
