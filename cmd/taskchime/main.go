package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskchime/internal/app"
	"taskchime/internal/runner"
)

const usage = `taskchime - task-completion notifier

Usage:
  taskchime [-config FILE] [-task LABEL] run [--] <command> [args...]
  taskchime [-config FILE] serve
  taskchime [-config FILE] test
`

func main() {
	var (
		cfgPath string
		task    string
	)
	flag.StringVar(&cfgPath, "config", "./taskchime.yaml", "path to config file (yaml or json)")
	flag.StringVar(&task, "task", "", "task label used in notification titles")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	mode := args[0]
	rest := args[1:]
	if len(rest) > 0 && rest[0] == "--" {
		rest = rest[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	// os.Exit skips defers, so shutdown is explicit.
	code := 0
	switch mode {
	case "run":
		if len(rest) == 0 {
			fmt.Fprintln(os.Stderr, "run: missing command")
			code = 2
			break
		}
		code = a.Run(ctx, runner.Spec{
			Task:    task,
			Command: rest[0],
			Args:    rest[1:],
		})
	case "serve":
		if err := a.Serve(ctx); err != nil {
			fmt.Println("fatal serve:", err)
			code = 1
		}
	case "test":
		a.Test()
	default:
		flag.Usage()
		code = 2
	}

	a.Close()
	os.Exit(code)
}
