package runner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// pylint closes its report with "Your code has been rated at 8.73/10"
var lintScoreRe = regexp.MustCompile(`rated at (-?[0-9]+(?:\.[0-9]+)?)/10`)

// ParseLintScore extracts the 0-10 quality score from the lint tool's
// report output
func ParseLintScore(output string) (float64, error) {
	m := lintScoreRe.FindStringSubmatch(output)
	if m == nil {
		return 0, goerr.New("no lint score found in output")
	}
	score, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to parse lint score", goerr.V("match", m[1]))
	}
	return score, nil
}

// lintCommand builds a single lint invocation for a target. Thresholds are
// enforced by drover from the parsed score, not by the tool's own
// fail-under flag, so that every target runs regardless of earlier results.
func lintCommand(t model.LintTarget) string {
	parts := []string{"pylint"}
	if len(t.Disable) > 0 {
		parts = append(parts, "--disable="+strings.Join(t.Disable, ","))
	}
	parts = append(parts, t.Path)
	return strings.Join(parts, " ")
}
