package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"

	"github.com/sbl8/conway/core"
	"github.com/sbl8/conway/harness"
	conway_runtime "github.com/sbl8/conway/runtime"
)

func main() {
	defaults := harness.DefaultProfileOptions()
	var (
		size    = flag.Int("size", defaults.Shape.W, "Grid side length in cells")
		iter    = flag.Int("iter", defaults.Iterations, "Number of timed generations")
		warmup  = flag.Int("warmup", defaults.Warmup, "Number of untimed warmup generations")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of device worker goroutines")
		dtype   = flag.String("dtype", "uint8", "Cell type: uint8 or int32")
		seed    = flag.Int64("seed", defaults.Seed, "Random seed for the initial grid")
		verbose = flag.Bool("verbose", false, "Print device statistics")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("lifeperf - Conway step kernel profiler v1.0.0")
		fmt.Printf("Built with Go %s\n", runtime.Version())
		return
	}

	cellType, err := core.ParseDType(*dtype)
	if err != nil {
		log.Fatalf("Invalid -dtype: %v", err)
	}

	dev, err := conway_runtime.NewDevice(&conway_runtime.Options{
		Workers:     *workers,
		StreamDepth: conway_runtime.DefaultOptions().StreamDepth,
		EnableStats: *verbose,
	})
	if err != nil {
		log.Fatalf("Failed to create device: %v", err)
	}
	defer dev.Close()

	opts := harness.ProfileOptions{
		Shape:      core.Shape{H: *size, W: *size},
		DType:      cellType,
		Warmup:     *warmup,
		Iterations: *iter,
		Seed:       *seed,
	}

	fmt.Printf("Conway Step Kernel Profile\n")
	fmt.Printf("==========================\n")
	fmt.Printf("Go Version: %s\n", runtime.Version())
	fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Workers: %d\n", dev.Workers())
	fmt.Printf("Grid: %s %s\n", opts.Shape, opts.DType)
	fmt.Printf("Warmup: %d, Iterations: %d\n", opts.Warmup, opts.Iterations)
	fmt.Printf("\n")

	report, err := harness.Profile(dev, opts)
	if err != nil {
		log.Fatalf("Profile failed: %v", err)
	}

	fmt.Printf("Elapsed:        %v\n", report.Elapsed)
	fmt.Printf("FPS:            %.2f\n", report.FPS)
	fmt.Printf("Cell updates/s: %.2f M\n", report.CellsPerSecond/1e6)
	fmt.Printf("Population:     %d\n", report.Population)

	if *verbose {
		stats := dev.Stats()
		fmt.Printf("\nDevice Statistics\n")
		fmt.Printf("-----------------\n")
		fmt.Printf("Dispatches:      %d\n", stats.Dispatches)
		fmt.Printf("Cells updated:   %d\n", stats.CellsUpdated)
		fmt.Printf("Average latency: %v\n", stats.AverageLatency)
		fmt.Printf("Faults:          %d\n", stats.Faults)
	}
}
