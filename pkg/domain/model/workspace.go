package model

// Workspace is the result of materializing a clean checkout for one job
type Workspace struct {
	TempDir string   // Path of the temporary directory holding the checkout
	Root    string   // Path of the source tree root inside TempDir
	Files   []string // List of extracted files
	Size    int64    // Total size in bytes
}
