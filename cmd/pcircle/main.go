// Command pcircle drives distributed tree-walk, copy, and checksum-verify
// jobs on top of the work-stealing, token-ring-terminated driver in
// internal/circle.
package main

import (
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "pcircle",
		Usage: "distributed parallel file copy, walk, and verify",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "verbosity", Value: 3, Usage: "log verbosity: 0=crit 1=error 2=warn 3=info 4=debug 5=trace"},
		},
		Before: func(c *cli.Context) error {
			setLogLevel(c.Int("verbosity"))
			return nil
		},
		Commands: []*cli.Command{
			cpCommand(),
			walkCommand(),
			verifyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Crit("pcircle: fatal error", "err", err)
	}
}

// setLogLevel mirrors geth's own --verbosity convention: an integer
// 0 (crit) through 5 (trace) fed into a glog-style handler.
func setLogLevel(verbosity int) {
	var lvl log.Level
	switch {
	case verbosity <= 0:
		lvl = log.LevelCrit
	case verbosity == 1:
		lvl = log.LevelError
	case verbosity == 2:
		lvl = log.LevelWarn
	case verbosity == 3:
		lvl = log.LevelInfo
	case verbosity == 4:
		lvl = log.LevelDebug
	default:
		lvl = log.LevelTrace
	}
	glogger := log.NewGlogHandler(log.NewTerminalHandler(os.Stderr, false))
	glogger.Verbosity(lvl)
	log.SetDefault(log.NewLogger(glogger))
}
