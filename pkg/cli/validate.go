package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/m-mizutani/drover/pkg/cli/config"
	"github.com/m-mizutani/drover/pkg/pipeline"
)

func cmdValidate() *cli.Command {
	var pipelineCfg config.Pipeline

	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a pipeline definition and print its expansion",
		Flags: pipelineCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			p, err := pipeline.Load(pipelineCfg.Path)
			if err != nil {
				return err
			}

			ok := color.New(color.FgGreen)
			ok.Printf("pipeline %q is valid\n", p.Name)

			fmt.Printf("  on: %s of %s\n",
				strings.Join(p.On.Events, ", "),
				strings.Join(p.On.Branches, ", "),
			)
			for _, spec := range pipeline.Expand(p) {
				if spec.IsLint() {
					fmt.Printf("  job %s (python %s): %d lint targets\n", spec.Name, spec.Python, len(spec.Lint))
					for _, t := range spec.Lint {
						fmt.Printf("    %s (minimum score %.1f)\n", t.Path, t.FailUnder)
					}
					continue
				}
				fmt.Printf("  job %s (python %s): %d install steps, test %q\n",
					spec.Name, spec.Python, len(spec.Install), spec.Test)
			}
			return nil
		},
	}
}
