package main

import (
	"flag"
	"fmt"
	"log"
	"runtime"
	"time"

	"github.com/sbl8/conway/core"
	"github.com/sbl8/conway/display"
	"github.com/sbl8/conway/pattern"
	conway_runtime "github.com/sbl8/conway/runtime"
)

func main() {
	runtime.LockOSThread()

	var (
		size     = flag.Int("size", 256, "Grid side length in cells")
		file     = flag.String("file", "", "Pattern file (.cells or .rle); random grid when empty")
		seed     = flag.Int64("seed", 1, "Random seed when no pattern file is given")
		scale    = flag.Int("scale", 3, "Pixels per cell")
		workers  = flag.Int("workers", runtime.NumCPU(), "Number of device worker goroutines")
		interval = flag.Duration("interval", 30*time.Millisecond, "Minimum time between frames")
		version  = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *version {
		fmt.Println("lifeshow - Conway animation v1.0.0")
		fmt.Printf("Built with Go %s\n", runtime.Version())
		return
	}

	shape := core.Shape{H: *size, W: *size}
	initial, err := loadInitial(*file, shape, *seed)
	if err != nil {
		log.Fatalf("Failed to load initial state: %v", err)
	}

	dev, err := conway_runtime.NewDevice(&conway_runtime.Options{Workers: *workers})
	if err != nil {
		log.Fatalf("Failed to create device: %v", err)
	}
	defer dev.Close()

	buf, err := conway_runtime.NewDoubleBuffer(dev, shape, core.Uint8)
	if err != nil {
		log.Fatalf("Failed to allocate grids: %v", err)
	}
	defer buf.Free()
	if err := buf.Load(initial); err != nil {
		log.Fatalf("Failed to upload initial state: %v", err)
	}

	win, err := display.NewWindow("Game of Life", shape, *scale)
	if err != nil {
		log.Fatalf("Failed to open window: %v", err)
	}
	defer win.Destroy()

	if err := animate(win, buf, *interval); err != nil {
		log.Printf("Animation stopped: %v", err)
	}
}

// loadInitial returns a random grid, or the pattern file centred in an
// empty grid.
func loadInitial(path string, shape core.Shape, seed int64) (*core.Matrix, error) {
	if path == "" {
		return pattern.Random(shape, seed), nil
	}
	p, err := pattern.Load(path)
	if err != nil {
		return nil, err
	}
	return pattern.Center(p, shape)
}

// animate renders the initial state, then steps synchronously once per
// frame and renders the grid each step wrote, until the window is closed.
func animate(win *display.Window, buf *conway_runtime.DoubleBuffer, interval time.Duration) error {
	frame := buf.Current().ReadToHost()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	paused := false
	for {
		if err := win.Render(frame); err != nil {
			return err
		}
		state := ""
		if paused {
			state = " (paused)"
		}
		win.SetTitle(fmt.Sprintf("Game of Life - generation %d, population %d%s",
			buf.Generation(), frame.Population(), state))

		<-ticker.C

		step := !paused
		for _, key := range win.Poll() {
			switch key {
			case 'q':
				return nil
			case 'p':
				paused = !paused
				step = !paused
			case ' ':
				if paused {
					step = true
				}
			}
		}
		if !step {
			continue
		}

		written := buf.Next()
		if err := buf.Step(nil); err != nil {
			return err
		}
		if err := written.CopyToHost(frame); err != nil {
			return err
		}
	}
}
