// Package input turns SDL2 events into per-frame viewer input state.
package input

import (
	"github.com/veandco/go-sdl2/sdl"
)

// Click is a mouse button press at a window position.
type Click struct {
	X, Y   int
	Button uint8
}

// Input tracks held keys, mouse motion and clicks between Update calls.
type Input struct {
	held    map[sdl.Scancode]bool
	pressed map[sdl.Scancode]bool

	dragX, dragY float32
	wheel        float32
	dragging     bool
	clicks       []Click

	resized       bool
	width, height int
}

// New creates an input handler.
func New() *Input {
	return &Input{
		held:    make(map[sdl.Scancode]bool),
		pressed: make(map[sdl.Scancode]bool),
	}
}

// Update polls pending SDL events. It returns true when the user asked to quit.
func (i *Input) Update() bool {
	clear(i.pressed)
	i.dragX, i.dragY, i.wheel = 0, 0, 0
	i.clicks = i.clicks[:0]
	i.resized = false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return true

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_RESIZED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				i.resized = true
				i.width, i.height = int(e.Data1), int(e.Data2)
			}

		case *sdl.KeyboardEvent:
			code := e.Keysym.Scancode
			if e.Type == sdl.KEYDOWN {
				if !i.held[code] {
					i.pressed[code] = true
				}
				i.held[code] = true
			} else if e.Type == sdl.KEYUP {
				delete(i.held, code)
			}

		case *sdl.MouseMotionEvent:
			if i.dragging {
				i.dragX += float32(e.XRel)
				i.dragY += float32(e.YRel)
			}

		case *sdl.MouseButtonEvent:
			switch {
			case e.Button == sdl.BUTTON_MIDDLE:
				i.dragging = e.Type == sdl.MOUSEBUTTONDOWN
			case e.Type == sdl.MOUSEBUTTONDOWN:
				i.clicks = append(i.clicks, Click{X: int(e.X), Y: int(e.Y), Button: e.Button})
			}

		case *sdl.MouseWheelEvent:
			i.wheel += float32(e.Y)
		}
	}

	return false
}

// Held reports whether a key is currently down.
func (i *Input) Held(code sdl.Scancode) bool {
	return i.held[code]
}

// Pressed reports whether a key went down during the last Update.
func (i *Input) Pressed(code sdl.Scancode) bool {
	return i.pressed[code]
}

// Drag returns the middle-button mouse motion of the last Update.
func (i *Input) Drag() (dx, dy float32) {
	return i.dragX, i.dragY
}

// Wheel returns the scroll amount of the last Update.
func (i *Input) Wheel() float32 {
	return i.wheel
}

// Clicks returns the left and right clicks of the last Update.
func (i *Input) Clicks() []Click {
	return i.clicks
}

// Resized reports a window size change during the last Update.
func (i *Input) Resized() (width, height int, ok bool) {
	return i.width, i.height, i.resized
}
