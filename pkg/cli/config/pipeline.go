package config

import "github.com/urfave/cli/v3"

// Pipeline holds pipeline definition configuration
type Pipeline struct {
	Path        string
	MaxParallel int64
}

// Flags returns CLI flags for pipeline configuration
func (c *Pipeline) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "pipeline",
			Aliases:     []string{"p"},
			Usage:       "Path to the pipeline definition YAML",
			Value:       "drover.yml",
			Destination: &c.Path,
			Sources:     cli.EnvVars("DROVER_PIPELINE"),
		},
		&cli.Int64Flag{
			Name:        "max-parallel",
			Usage:       "Maximum number of jobs of one run executed concurrently",
			Value:       4,
			Destination: &c.MaxParallel,
			Sources:     cli.EnvVars("DROVER_MAX_PARALLEL"),
		},
	}
}
