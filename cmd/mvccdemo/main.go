// Command mvccdemo drives a small concurrent workload against a mvcc.List
// and reports the final size: N workers each doing K iterations of
// insert-head, insert-tail, remove-head should net +1 element per
// iteration.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ngaut/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sulabhM/concurrent"
)

type config struct {
	workers    int
	iterations int
	hazardCap  int
	verbose    bool
}

func main() {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "mvccdemo",
		Short: "Run a concurrent MVCC list workload and report its final size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cfg)
		},
	}
	root.Flags().IntVar(&cfg.workers, "workers", 8, "number of concurrent worker goroutines")
	root.Flags().IntVar(&cfg.iterations, "iterations", 1000, "iterations per worker")
	root.Flags().IntVar(&cfg.hazardCap, "hazard-capacity", 32, "hazard registry participant capacity")
	root.Flags().BoolVar(&cfg.verbose, "verbose", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config) error {
	if cfg.verbose {
		log.SetLevelByString("debug")
	} else {
		log.SetLevelByString("info")
	}

	list := mvcc.NewList[int](mvcc.WithHazardCapacity[int](cfg.hazardCap))

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < cfg.workers; w++ {
		w := w
		g.Go(func() error {
			return worker(ctx, list, w, cfg.iterations)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	want := cfg.workers * cfg.iterations
	got := list.Size()
	log.Infof("workers=%d iterations=%d want_size=%d got_size=%d", cfg.workers, cfg.iterations, want, got)
	if got != want {
		return fmt.Errorf("size mismatch: want %d, got %d", want, got)
	}

	drained := 0
	for {
		if _, ok := list.RemoveHead(); !ok {
			break
		}
		drained++
	}
	log.Infof("drained %d elements, final size=%d", drained, list.Size())
	return nil
}

func worker(ctx context.Context, list *mvcc.List[int], id, iterations int) error {
	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		list.InsertHead(id*iterations + i)
		list.InsertTail(id*iterations + i)
		if _, ok := list.RemoveHead(); !ok {
			log.Warnf("worker %d: unexpected empty list at iteration %d", id, i)
		}
	}
	return nil
}
