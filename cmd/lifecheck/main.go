package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/sbl8/conway/core"
	"github.com/sbl8/conway/harness"
	conway_runtime "github.com/sbl8/conway/runtime"
)

func main() {
	defaults := harness.DefaultValidateOptions()
	var (
		size    = flag.Int("size", defaults.Shape.W, "Grid side length in cells")
		seed    = flag.Int64("seed", defaults.Seed, "Random seed for the input grid")
		gens    = flag.Int("gens", defaults.Generations, "Number of generations to compare")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of device worker goroutines")
		dtype   = flag.String("dtype", defaults.DType.String(), "Cell type: uint8 or int32")
		version = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("lifecheck - Conway step kernel validator v1.0.0")
		fmt.Printf("Built with Go %s\n", runtime.Version())
		return
	}

	cellType, err := core.ParseDType(*dtype)
	if err != nil {
		log.Fatalf("Invalid -dtype: %v", err)
	}

	dev, err := conway_runtime.NewDevice(&conway_runtime.Options{Workers: *workers})
	if err != nil {
		log.Fatalf("Failed to create device: %v", err)
	}
	defer dev.Close()

	report, err := harness.Validate(dev, harness.ValidateOptions{
		Shape:       core.Shape{H: *size, W: *size},
		DType:       cellType,
		Seed:        *seed,
		Generations: *gens,
	})
	if err != nil {
		log.Fatalf("Validation failed to run: %v", err)
	}

	if report.Match() {
		fmt.Printf("Results match (%s %s, %d generation(s))\n", report.Input.Shape, cellType, *gens)
		return
	}

	fmt.Printf("Results mismatch in %d cell(s)\n", report.Mismatches)
	fmt.Printf("Device XOR reference:\n%s", report.Diff)
	os.Exit(1)
}
