package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"

	"github.com/vikramkhatri/pcircle/internal/checkpoint"
	"github.com/vikramkhatri/pcircle/internal/circle"
	"github.com/vikramkhatri/pcircle/internal/circle/transport"
	pcircletask "github.com/vikramkhatri/pcircle/internal/task"
	"github.com/vikramkhatri/pcircle/internal/wire"
)

// jobOptions collects the flags every subcommand shares: how the job is
// launched (a local simulation versus a real TCP cluster) and how it
// checkpoints.
type jobOptions struct {
	local              int
	rank               int
	configPath         string
	dialTimeout        time.Duration
	checkpointDir      string
	jobID              string
	checkpointInterval time.Duration
}

// taskBuilder constructs the Task a single rank runs, given its rank and
// the cluster size. Each rank gets its own Task instance (they hold
// per-peer state like fd caches).
type taskBuilder func(rank, size int) circle.Task[wire.Item]

func runJob(opts jobOptions, build taskBuilder) ([]PeerStat, []circle.Task[wire.Item], error) {
	if opts.jobID == "" {
		opts.jobID = uuid.NewString()
	}
	if opts.local > 0 {
		return runLocal(opts, build)
	}
	return runDistributed(opts, build)
}

// PeerStat is what the CLI collects from a finished Peer for the final
// report table.
type PeerStat struct {
	Rank      int
	Processed int
	Bytes     int64
	Requests  int
	Status    string
}

// newPeer builds a Peer for rank, wiring in a checkpoint sink whenever
// opts.checkpointDir is set. If a checkpoint from an earlier run of this
// job ID already exists for rank, it is loaded and restored before
// Begin ever runs. The returned sink is nil unless checkpointing is
// configured at all, so callers can use it to remove the checkpoint
// file once the job finishes.
func newPeer(rank int, tr transport.Transport, t circle.Task[wire.Item], opts jobOptions) (*circle.Peer[wire.Item], *checkpoint.FileSink, error) {
	var peerOpts []circle.Option[wire.Item]
	var sink *checkpoint.FileSink
	if opts.checkpointDir != "" {
		sink = checkpoint.NewFileSink(opts.checkpointDir, opts.jobID)
		if opts.checkpointInterval > 0 {
			peerOpts = append(peerOpts, circle.WithCheckpoint[wire.Item](sink, opts.checkpointInterval))
		}
	}

	p := circle.NewPeer[wire.Item](tr, pcircletask.ItemCodec{}, t, peerOpts...)

	if sink != nil {
		data, err := sink.Load(rank)
		switch {
		case err == nil:
			if err := p.Restore(data); err != nil {
				return nil, nil, fmt.Errorf("pcircle: restoring checkpoint for rank %d: %w", rank, err)
			}
			log.Info("resumed from checkpoint", "rank", rank, "job", opts.jobID)
		case os.IsNotExist(err):
			// No prior checkpoint for this rank under this job ID; start fresh.
		default:
			return nil, nil, fmt.Errorf("pcircle: loading checkpoint for rank %d: %w", rank, err)
		}
	}
	return p, sink, nil
}

// runLocal simulates the whole cluster in one process using the
// in-memory transport, one goroutine per rank. This is the everyday way
// to exercise a job on a single machine without a hosts file.
func runLocal(opts jobOptions, build taskBuilder) ([]PeerStat, []circle.Task[wire.Item], error) {
	trs := transport.NewMemNetwork(opts.local)
	peers := make([]*circle.Peer[wire.Item], opts.local)
	tasks := make([]circle.Task[wire.Item], opts.local)
	sinks := make([]*checkpoint.FileSink, opts.local)
	for i, tr := range trs {
		tasks[i] = build(i, opts.local)
		p, sink, err := newPeer(i, tr, tasks[i], opts)
		if err != nil {
			return nil, tasks, err
		}
		peers[i] = p
		sinks[i] = sink
	}

	cancel := installSignalAbort(peers)
	defer cancel()

	stats := make([]PeerStat, opts.local)
	errs := make([]error, opts.local)
	var wg sync.WaitGroup
	wg.Add(opts.local)
	for i, p := range peers {
		i, p := i, p
		go func() {
			defer wg.Done()
			status, err := p.Begin()
			stats[i] = PeerStat{Rank: i, Processed: p.Processed(), Requests: p.Granted(), Status: status.String()}
			errs[i] = err
			if err == nil && status == circle.StatusTerminated && sinks[i] != nil {
				if rmErr := sinks[i].Remove(i); rmErr != nil {
					log.Warn("failed to remove checkpoint after completion", "rank", i, "err", rmErr)
				}
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return stats, tasks, err
		}
	}
	return stats, tasks, nil
}

// runDistributed runs exactly this process's rank against a TCP mesh
// described by the cluster config's host list.
func runDistributed(opts jobOptions, build taskBuilder) ([]PeerStat, []circle.Task[wire.Item], error) {
	cfg, err := loadClusterConfig(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("pcircle: loading cluster config: %w", err)
	}
	tr, err := transport.DialTCPNetwork(opts.rank, cfg.Hosts, opts.dialTimeout)
	if err != nil {
		return nil, nil, fmt.Errorf("pcircle: dialing cluster: %w", err)
	}
	defer tr.Close()

	t := build(opts.rank, len(cfg.Hosts))
	p, sink, err := newPeer(opts.rank, tr, t, opts)
	if err != nil {
		return nil, []circle.Task[wire.Item]{t}, err
	}
	cancel := installSignalAbort([]*circle.Peer[wire.Item]{p})
	defer cancel()

	status, err := p.Begin()
	if err == nil && status == circle.StatusTerminated && sink != nil {
		if rmErr := sink.Remove(opts.rank); rmErr != nil {
			log.Warn("failed to remove checkpoint after completion", "rank", opts.rank, "err", rmErr)
		}
	}
	stats := []PeerStat{{Rank: opts.rank, Processed: p.Processed(), Requests: p.Granted(), Status: status.String()}}
	return stats, []circle.Task[wire.Item]{t}, err
}

// installSignalAbort calls Abort on every peer the first time SIGINT
// arrives, so an interrupted run checkpoints and unwinds cooperatively
// instead of losing in-flight work.
func installSignalAbort(peers []*circle.Peer[wire.Item]) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	done := make(chan struct{})
	go func() {
		select {
		case <-ch:
			log.Warn("interrupt received, aborting cooperatively")
			for _, p := range peers {
				p.Abort()
			}
		case <-done:
		}
	}()
	return func() { close(done); signal.Stop(ch) }
}
