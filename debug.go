//go:build !watchpagerdebug

package watchpager

const debugAssertions = false
