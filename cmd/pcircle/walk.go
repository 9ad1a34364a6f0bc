package main

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/report"
	pcircletask "github.com/vikramkhatri/pcircle/internal/task"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

func walkCommand() *cli.Command {
	return &cli.Command{
		Name:      "walk",
		Usage:     "recursively enumerate a tree and report file and directory counts",
		ArgsUsage: "ROOT",
		Flags:     clusterFlags(),
		Action:    runWalk,
	}
}

func runWalk(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("pcircle walk: expected ROOT argument")
	}
	root := c.Args().Get(0)
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("pcircle walk: %w", err)
	}

	var files, dirs int64
	var totalBytes int64

	build := func(rank, size int) circle.Task[wire.Item] {
		return &pcircletask.WalkTask{
			Root: root,
			OnFile: func(path string, size int64) {
				atomic.AddInt64(&files, 1)
				atomic.AddInt64(&totalBytes, size)
			},
			OnDir: func(path string) { atomic.AddInt64(&dirs, 1) },
		}
	}

	opts := jobOptionsFromContext(c)
	stats, _, err := runJob(opts, build)
	if err != nil {
		return err
	}
	for _, s := range stats {
		if s.Status != circle.StatusTerminated.String() {
			return fmt.Errorf("pcircle walk: rank %d reported %s", s.Rank, s.Status)
		}
	}
	fmt.Printf("%d files, %d directories, %s total\n", files, dirs, report.ByteCount(totalBytes))
	return nil
}
