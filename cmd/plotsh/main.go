package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/vjranagit/graphcalc/internal/config"
	"github.com/vjranagit/graphcalc/internal/log"
	"github.com/vjranagit/graphcalc/pkg/shell"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: plotsh [-config file] [-json] [command [args...]]

Without a command an interactive prompt is started. Commands:
  classify <equation>           print the family of an equation
  plot <equation>               classify and sample an equation
  sample <family> <equation>    sample an equation as the given family
  points                        print the points of the last series
  domain [min max]              show or set the x range
  step [x step]                 show or set the x increment
  families                      list families in classification order
`)
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "", "optional YAML configuration file")
	jsonOutput := flag.Bool("json", false, "print series as JSON")
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := shell.NewShellCtxt(cfg.ToRenderConfig().Options, *jsonOutput)
	sh := shell.New(ctx)

	if flag.NArg() > 0 {
		if err := sh.Process(flag.Args()...); err != nil {
			log.Error.Println(err)
			os.Exit(1)
		}
		return
	}

	sh.Println("graphcalc shell, type help for commands")
	sh.Run()
}
