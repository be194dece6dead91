package model

// CoverageReport describes a produced coverage file to be uploaded to the
// coverage aggregation service
type CoverageReport struct {
	Path    string // Absolute path of the report file in the workspace
	Commit  string // Commit SHA the coverage belongs to
	Branch  string // Branch name
	Job     string // Job name, forwarded as the upload name
	Verbose bool   // Emit verbose diagnostics during upload
}
