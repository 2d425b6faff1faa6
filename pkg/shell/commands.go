package shell

import (
	"errors"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/vjranagit/graphcalc/pkg/equation"
	"github.com/vjranagit/graphcalc/pkg/types"
)

func classify(args []string) (string, error) {
	raw, err := joinArgs(args)
	if err != nil {
		return "", err
	}
	if _, err := equation.Parse(raw); err != nil {
		return "", err
	}
	return string(equation.Classify(raw)), nil
}

func classifyCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "classify",
		Help: "print the family of an equation",
		Func: func(c *ishell.Context) {
			out, err := classify(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
}

func sample(ctx *ShellCtxt, args []string) (types.Series, error) {
	if len(args) < 2 {
		return types.Series{}, errors.New("usage: sample <family> <equation>")
	}
	family, err := parseFamily(args[0])
	if err != nil {
		return types.Series{}, err
	}
	raw, err := joinArgs(args[1:])
	if err != nil {
		return types.Series{}, err
	}
	series := equation.Sample(family, raw, ctx.Options)
	ctx.Last = &series
	return series, nil
}

func sampleCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "sample",
		Help: "sample an equation as a given family",
		Func: func(c *ishell.Context) {
			series, err := sample(ctx, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			out, err := formatSeries(series, ctx.JSONOutput)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
}

func plot(ctx *ShellCtxt, args []string) (types.Series, error) {
	raw, err := joinArgs(args)
	if err != nil {
		return types.Series{}, err
	}
	series, err := equation.Plot(types.Submission{Equation: raw}, ctx.Options)
	if err != nil {
		return types.Series{}, err
	}
	ctx.Last = &series
	return series, nil
}

func plotCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "plot",
		Help: "classify and sample an equation",
		Func: func(c *ishell.Context) {
			series, err := plot(ctx, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			out, err := formatSeries(series, ctx.JSONOutput)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(out)
		},
	}
}

func pointsCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "points",
		Help: "print the points of the last plotted series",
		Func: func(c *ishell.Context) {
			if ctx.Last == nil {
				c.Err(errors.New("nothing plotted yet"))
				return
			}
			c.Print(formatPoints(ctx.Last.Points))
		},
	}
}

func setDomain(ctx *ShellCtxt, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: domain <min> <max>")
	}
	lo, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	hi, err := parseFloat(args[1])
	if err != nil {
		return err
	}
	opts := ctx.Options
	opts.Domain = types.Range{Min: lo, Max: hi}
	if err := opts.Validate(); err != nil {
		return err
	}
	ctx.Options = opts
	return nil
}

func domainCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "domain",
		Help: "set the x range swept for function families",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Printf("[%g, %g]\n", ctx.Options.Domain.Min, ctx.Options.Domain.Max)
				return
			}
			if err := setDomain(ctx, c.Args); err != nil {
				c.Err(err)
			}
		},
	}
}

func setStep(ctx *ShellCtxt, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: step <x step>")
	}
	step, err := parseFloat(args[0])
	if err != nil {
		return err
	}
	if step <= 0 {
		return equation.ErrInvalidSweep
	}
	opts := ctx.Options
	opts.Step = step
	if err := opts.Validate(); err != nil {
		return err
	}
	ctx.Options = opts
	return nil
}

func stepCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "step",
		Help: "set the x increment",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Printf("%g\n", ctx.Options.Step)
				return
			}
			if err := setStep(ctx, c.Args); err != nil {
				c.Err(err)
			}
		},
	}
}

func families() string {
	names := make([]string, len(equation.Rules))
	for i, r := range equation.Rules {
		names[i] = string(r.Family)
	}
	return strings.Join(names, "\n")
}

func familiesCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "families",
		Help: "list families in classification order",
		Func: func(c *ishell.Context) {
			c.Println(families())
		},
	}
}
