package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/vikramkhatri/pcircle/internal/circle"
	pcircletask "github.com/vikramkhatri/pcircle/internal/task"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "compare a copied tree against its source and report mismatches",
		ArgsUsage: "SRC DEST",
		Flags: append(clusterFlags(),
			&cli.StringFlag{Name: "checksum-algo", Value: string(pcircletask.AlgoXXHash), Usage: "xxhash or sha256"},
		),
		Action: runVerify,
	}
}

func runVerify(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("pcircle verify: expected SRC and DEST arguments")
	}
	src, dest := c.Args().Get(0), c.Args().Get(1)
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("pcircle verify: source path: %w", err)
	}

	algo := pcircletask.Algo(c.String("checksum-algo"))
	build := func(rank, size int) circle.Task[wire.Item] {
		return pcircletask.NewVerifyTask(src, dest, srcInfo.IsDir(), algo)
	}

	opts := jobOptionsFromContext(c)
	stats, tasks, err := runJob(opts, build)
	if err != nil {
		return err
	}

	var mismatches []pcircletask.Mismatch
	var checked int
	for _, t := range tasks {
		vt, ok := t.(*pcircletask.VerifyTask)
		if !ok {
			continue
		}
		mismatches = append(mismatches, vt.Mismatches()...)
		checked += vt.Checked()
	}

	for _, m := range mismatches {
		switch {
		case m.SrcMissing:
			fmt.Printf("MISSING SRC  %s\n", m.Path)
		case m.DestMissing:
			fmt.Printf("MISSING DEST %s\n", m.Path)
		default:
			fmt.Printf("MISMATCH     %s (%s != %s)\n", m.Path, m.SrcDigest, m.DestDigest)
		}
	}
	fmt.Printf("%d files checked, %d mismatches\n", checked, len(mismatches))

	for _, s := range stats {
		if s.Status != circle.StatusTerminated.String() {
			return fmt.Errorf("pcircle verify: rank %d reported %s", s.Rank, s.Status)
		}
	}
	if len(mismatches) > 0 {
		return fmt.Errorf("pcircle verify: %d mismatches found", len(mismatches))
	}
	return nil
}
