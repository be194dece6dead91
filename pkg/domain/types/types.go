package types

// Version is overwritten at build time via -ldflags
var Version = "v0.0.0"

// DefaultStatusContext is the prefix used for commit status contexts
// reported back to GitHub (e.g. "drover/test-3.9").
const DefaultStatusContext = "drover"
