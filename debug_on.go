//go:build watchpagerdebug

package watchpager

// Build with -tags watchpagerdebug to turn misuse diagnostics into panics.
const debugAssertions = true
