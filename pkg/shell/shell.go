// Package shell provides an interactive prompt for classifying and
// sampling equations without running the server.
package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/vjranagit/graphcalc/pkg/equation"
	"github.com/vjranagit/graphcalc/pkg/types"
)

// ShellCtxt is the state shared by the commands of one session
type ShellCtxt struct {
	Options    equation.Options
	JSONOutput bool
	// Last is the most recently plotted series
	Last *types.Series
}

// NewShellCtxt creates a session with the given sampling defaults
func NewShellCtxt(opts equation.Options, jsonOutput bool) *ShellCtxt {
	return &ShellCtxt{Options: opts.WithDefaults(), JSONOutput: jsonOutput}
}

// New builds a shell with every command registered
func New(ctx *ShellCtxt) *ishell.Shell {
	sh := ishell.New()
	sh.SetPrompt("[graphcalc]> ")

	sh.AddCmd(classifyCmd(ctx))
	sh.AddCmd(sampleCmd(ctx))
	sh.AddCmd(plotCmd(ctx))
	sh.AddCmd(pointsCmd(ctx))
	sh.AddCmd(domainCmd(ctx))
	sh.AddCmd(stepCmd(ctx))
	sh.AddCmd(familiesCmd(ctx))

	return sh
}

var errMissingEquation = errors.New("missing equation")

// joinArgs rebuilds an equation the shell split on whitespace
func joinArgs(args []string) (string, error) {
	raw := strings.TrimSpace(strings.Join(args, " "))
	if raw == "" {
		return "", errMissingEquation
	}
	return raw, nil
}

func parseFamily(name string) (types.Family, error) {
	for _, r := range equation.Rules {
		if string(r.Family) == strings.ToLower(name) {
			return r.Family, nil
		}
	}
	return "", fmt.Errorf("unknown family %q", name)
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// formatSeries renders a series as a summary line, or as JSON
func formatSeries(series types.Series, asJSON bool) (string, error) {
	if asJSON {
		out, err := json.MarshalIndent(series, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	defined := 0
	for _, p := range series.Points {
		if p.Y != nil {
			defined++
		}
	}
	return fmt.Sprintf("%s  %s  %d points (%d defined)", series.Family, series.Equation, len(series.Points), defined), nil
}

// formatPoints renders one "x<TAB>y" line per point
func formatPoints(points []types.Point) string {
	var b strings.Builder
	for _, p := range points {
		y := "undefined"
		if p.Y != nil {
			y = strconv.FormatFloat(*p.Y, 'g', 6, 64)
		}
		fmt.Fprintf(&b, "%s\t%s\n", strconv.FormatFloat(p.X, 'g', 6, 64), y)
	}
	return b.String()
}
