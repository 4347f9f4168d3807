// Package display renders host cell matrices in an SDL2 window.
//
// The window owns one streaming ARGB8888 texture the size of the grid and
// stretches it by an integer scale. Keyboard input is reported as runes in
// the same vocabulary the animation loop acts on:
//
//	'q'  quit (also Escape and closing the window)
//	'p'  toggle pause
//	' '  single step while paused
//
// SDL requires all calls to come from the thread that initialised it, so
// callers lock the main goroutine to its OS thread before NewWindow.
package display

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/sbl8/conway/core"
)

// Window is an SDL window showing one grid.
type Window struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	texture  *sdl.Texture
	shape    core.Shape
	pixels   []byte
}

// NewWindow opens a window for grids of the given shape, each cell drawn
// as a scale x scale square.
func NewWindow(title string, shape core.Shape, scale int) (*Window, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidShape, shape)
	}
	if scale < 1 {
		scale = 1
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl init: %w", err)
	}

	w := &Window{shape: shape, pixels: make([]byte, shape.Cells()*bytesPerPixel)}
	var err error
	w.window, err = sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(shape.W*scale), int32(shape.H*scale), sdl.WINDOW_SHOWN)
	if err != nil {
		w.Destroy()
		return nil, fmt.Errorf("create window: %w", err)
	}
	w.renderer, err = sdl.CreateRenderer(w.window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		w.Destroy()
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	w.texture, err = w.renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888, sdl.TEXTUREACCESS_STREAMING,
		int32(shape.W), int32(shape.H))
	if err != nil {
		w.Destroy()
		return nil, fmt.Errorf("create texture: %w", err)
	}
	return w, nil
}

// Render draws m, which must have the window's shape.
func (w *Window) Render(m *core.Matrix) error {
	if err := fillPixels(w.pixels, m, w.shape); err != nil {
		return err
	}
	if err := w.texture.Update(nil, w.pixels, w.shape.W*bytesPerPixel); err != nil {
		return fmt.Errorf("update texture: %w", err)
	}
	if err := w.renderer.Clear(); err != nil {
		return err
	}
	if err := w.renderer.Copy(w.texture, nil, nil); err != nil {
		return err
	}
	w.renderer.Present()
	return nil
}

// SetTitle replaces the window title, used for the generation counter.
func (w *Window) SetTitle(title string) {
	w.window.SetTitle(title)
}

// Poll drains pending SDL events and returns the recognised key presses
// in arrival order.
func (w *Window) Poll() []rune {
	var keys []rune
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			keys = append(keys, 'q')
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			switch e.Keysym.Sym {
			case sdl.K_q, sdl.K_ESCAPE:
				keys = append(keys, 'q')
			case sdl.K_p:
				keys = append(keys, 'p')
			case sdl.K_SPACE:
				keys = append(keys, ' ')
			}
		}
	}
	return keys
}

// Destroy releases the SDL resources and shuts SDL down.
func (w *Window) Destroy() {
	if w.texture != nil {
		_ = w.texture.Destroy()
		w.texture = nil
	}
	if w.renderer != nil {
		_ = w.renderer.Destroy()
		w.renderer = nil
	}
	if w.window != nil {
		_ = w.window.Destroy()
		w.window = nil
	}
	sdl.Quit()
}
