package registry

// Color is an RGBA color with components in 0..1, matching the render
// collaborator's expectations.
type Color [4]float32

// Side is the team a player or team actor belongs to.
type Side uint8

const (
	SideOrange Side = iota
	SideBlue
)

func (s Side) String() string {
	if s == SideOrange {
		return "orange"
	}
	return "blue"
}

// ColorUnassigned is the color of a player whose team is not yet known,
// and of the ball.
var ColorUnassigned = Color{0.5, 0.0, 0.5, 1.0}

// ColorField is the background color viewers draw the arena with.
var ColorField = Color{0.0, 153.0 / 256.0, 51.0 / 256.0, 1.0}

// orangePalette and bluePalette are the fixed per-side player palettes.
var orangePalette = [4]Color{
	{245.0 / 256.0, 146.0 / 256.0, 0.0, 1.0},
	{224.0 / 256.0, 81.0 / 256.0, 0.0, 1.0},
	{250.0 / 256.0, 40.0 / 256.0, 13.0 / 256.0, 1.0},
	{1.0, 0.0, 0.0, 1.0},
}

var bluePalette = [4]Color{
	{0.0, 45.0 / 256.0, 245.0 / 256.0, 1.0},
	{68.0 / 256.0, 11.0 / 256.0, 222.0 / 256.0, 1.0},
	{0.0, 141.0 / 256.0, 224.0 / 256.0, 1.0},
	{0.0, 0.0, 1.0, 1.0},
}

// paletteAllocator hands out palette slots per side. Sides with more
// simultaneous players than the palette holds wrap around and reuse
// colors rather than failing the frame.
type paletteAllocator struct {
	allocated [2]int
}

// Next returns the next unused color for the side and advances the
// counter.
func (a *paletteAllocator) Next(s Side) Color {
	palette := &orangePalette
	if s == SideBlue {
		palette = &bluePalette
	}
	c := palette[a.allocated[s]%len(palette)]
	a.allocated[s]++
	return c
}

// Allocated reports how many colors have been handed out for the side.
func (a *paletteAllocator) Allocated(s Side) int {
	return a.allocated[s]
}
