// Command hpart is the thin CLI shell spec.md §1 places out of scope
// for the partitioner core: it only calls the public ABI of
// pkg/context and contains no partitioning logic itself, matching the
// teacher's own minimal main.go (flag-free there only because the
// OSM input path and cell target were hardcoded; here exposed as
// flags via the standard library's flag package).
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/context"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgrio"
)

func main() {
	var (
		hgrPath    = flag.String("hgr", "", "path to the input hypergraph (.hgr)")
		configPath = flag.String("config", "", "path to an INI-like config file (optional)")
		k          = flag.Int("k", 2, "number of blocks")
		epsilon    = flag.Float64("epsilon", 0.03, "allowed imbalance")
		seed       = flag.Uint64("seed", 1, "random seed")
		threads    = flag.Int("threads", 1, "thread pool size")
		outPath    = flag.String("out", "", "path to write the resulting .part file (optional)")
		verbose    = flag.Bool("verbose", false, "log progress")
	)
	flag.Parse()

	if err := run(*hgrPath, *configPath, *outPath, *k, *epsilon, *seed, *threads, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "hpart:", err)
		os.Exit(1)
	}
}

func run(hgrPath, configPath, outPath string, k int, epsilon float64, seed uint64, threads int, verbose bool) error {
	if hgrPath == "" {
		return fmt.Errorf("missing -hgr")
	}

	ctx, err := context.New()
	if err != nil {
		return err
	}
	defer ctx.Close()

	if configPath != "" {
		if err := ctx.ConfigureFromFile(configPath); err != nil {
			return err
		}
	}
	ctx.InitializeThreadPool(threads, true)

	hg, err := ctx.ReadHypergraphFromFile(hgrPath)
	if err != nil {
		return err
	}

	res, err := ctx.Partition(hg, k, epsilon, seed, verbose)
	if err != nil {
		return err
	}

	fmt.Printf("objective=%d balanced=%v imbalance=%d\n", res.Objective, res.Balanced, res.Imbalance)

	if outPath != "" {
		if err := hgrio.WritePartitionToFile(outPath, hg); err != nil {
			return err
		}
	}
	return nil
}
