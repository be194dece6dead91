package config

import "github.com/urfave/cli/v3"

// Codecov holds coverage upload configuration
type Codecov struct {
	Token   string
	BaseURL string
}

// Flags returns CLI flags for Codecov configuration
func (c *Codecov) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "codecov-token",
			Usage:       "Codecov upload token (empty disables upload)",
			Destination: &c.Token,
			Sources:     cli.EnvVars("CODECOV_TOKEN", "DROVER_CODECOV_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "codecov-url",
			Usage:       "Codecov endpoint (self-hosted installations)",
			Destination: &c.BaseURL,
			Sources:     cli.EnvVars("DROVER_CODECOV_URL"),
		},
	}
}

// Enabled reports whether coverage upload is configured
func (c *Codecov) Enabled() bool {
	return c.Token != ""
}
