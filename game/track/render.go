package track

import "strings"

const emptyGlyph = '·'

type glyphPair struct {
	light, heavy rune
}

// glyphs maps an unordered side pair to box-drawing characters; the heavy
// variant marks the start tile.
var glyphs = map[[2]Direction]glyphPair{
	{Up, Down}:    {'│', '┃'},
	{Left, Right}: {'─', '━'},
	{Up, Right}:   {'└', '┗'},
	{Up, Left}:    {'┘', '┛'},
	{Down, Right}: {'┌', '┏'},
	{Down, Left}:  {'┐', '┓'},
}

// Glyph returns the box-drawing character for a tile
func Glyph(t Tile, start bool) rune {
	g, ok := glyphs[[2]Direction{t.From, t.To}]
	if !ok {
		g, ok = glyphs[[2]Direction{t.To, t.From}]
	}
	if !ok {
		return '?'
	}
	if start {
		return g.heavy
	}
	return g.light
}

// Render draws the grid's bounding box as text rows, one rune per cell
func Render(g *Grid) []string {
	min, max, ok := g.Bounds()
	if !ok {
		return []string{}
	}
	start, hasStart := g.Start()

	rows := make([]string, 0, max.Y-min.Y+1)
	for y := min.Y; y <= max.Y; y++ {
		var b strings.Builder
		for x := min.X; x <= max.X; x++ {
			t, ok := g.Tile(x, y)
			if !ok {
				b.WriteRune(emptyGlyph)
				continue
			}
			b.WriteRune(Glyph(t, hasStart && start == t.Coord()))
		}
		rows = append(rows, b.String())
	}
	return rows
}
