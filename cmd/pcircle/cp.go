package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/report"
	pcircletask "github.com/vikramkhatri/pcircle/internal/task"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

func cpCommand() *cli.Command {
	return &cli.Command{
		Name:      "cp",
		Usage:     "recursively copy a source tree to a destination, splitting work across peers",
		ArgsUsage: "SRC DEST",
		Flags: append(clusterFlags(),
			&cli.IntFlag{Name: "chunk-size", Value: pcircletask.DefaultChunkSize, Usage: "bytes per copy work item for large files"},
			&cli.BoolFlag{Name: "checksum", Usage: "record a per-chunk digest ledger while copying"},
			&cli.IntFlag{Name: "fd-cache", Value: 32, Usage: "open file descriptors to keep cached per peer"},
		),
		Action: runCp,
	}
}

func runCp(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("pcircle cp: expected SRC and DEST arguments")
	}
	src, dest := c.Args().Get(0), c.Args().Get(1)

	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("pcircle cp: source path: %w", err)
	}
	if err := preflightDest(src, dest, srcInfo.IsDir()); err != nil {
		return err
	}

	opts := jobOptionsFromContext(c)
	chunkSize := int64(c.Int("chunk-size"))
	checksum := c.Bool("checksum")
	fdCache := c.Int("fd-cache")

	build := func(rank, size int) circle.Task[wire.Item] {
		t := pcircletask.NewCopyTask(src, dest, srcInfo.IsDir(), fdCache, checksum)
		t.ChunkSize = chunkSize
		return t
	}

	stats, tasks, err := runJob(opts, build)
	printSummary(stats, tasks)
	return err
}

// preflightDest rejects copies into a destination nested inside the
// source tree, and refuses to overwrite a non-directory destination
// with a directory source.
func preflightDest(src, dest string, srcIsDir bool) error {
	if srcIsDir {
		if fi, err := os.Stat(dest); err == nil && !fi.IsDir() {
			return fmt.Errorf("pcircle cp: destination %q exists and is not a directory", dest)
		}
	}
	if pcircletask.IsWithin(src, dest) {
		return fmt.Errorf("pcircle cp: destination %q is inside source %q", dest, src)
	}
	return nil
}

func printSummary(stats []PeerStat, tasks []circle.Task[wire.Item]) {
	rows := make([]report.PeerStat, len(stats))
	for i, s := range stats {
		bytes := int64(0)
		if i < len(tasks) {
			if ct, ok := tasks[i].(*pcircletask.CopyTask); ok {
				bytes = ct.BytesCopied()
			}
		}
		rows[i] = report.PeerStat{
			Rank: s.Rank, Processed: s.Processed, Bytes: bytes,
			Requests: s.Requests, Status: s.Status,
		}
	}
	report.WriteSummary(os.Stdout, rows)
}

func clusterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "local", Usage: "simulate this many peers in-process instead of dialing a cluster"},
		&cli.IntFlag{Name: "rank", Usage: "this process's rank, for a real distributed run"},
		&cli.StringFlag{Name: "config", Usage: "TOML file listing the cluster's host:port per rank"},
		&cli.DurationFlag{Name: "dial-timeout", Value: 5 * time.Second},
		&cli.StringFlag{Name: "checkpoint-dir", Usage: "directory to write periodic checkpoints into"},
		&cli.StringFlag{Name: "job-id", Usage: "resume an earlier job's checkpoints by reusing its ID"},
		&cli.DurationFlag{Name: "checkpoint-interval", Usage: "how often to checkpoint; 0 disables checkpointing"},
	}
}

func jobOptionsFromContext(c *cli.Context) jobOptions {
	return jobOptions{
		local:              c.Int("local"),
		rank:               c.Int("rank"),
		configPath:         c.String("config"),
		dialTimeout:        c.Duration("dial-timeout"),
		checkpointDir:      c.String("checkpoint-dir"),
		jobID:              c.String("job-id"),
		checkpointInterval: c.Duration("checkpoint-interval"),
	}
}
