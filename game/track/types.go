package track

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Direction names one of the four sides of a grid cell
type Direction string

const (
	Up    Direction = "UP"
	Down  Direction = "DOWN"
	Left  Direction = "LEFT"
	Right Direction = "RIGHT"

	// NoDirection marks an absent value in partial updates
	NoDirection Direction = ""

	DefaultFrom = Left
	DefaultTo   = Right
)

var (
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrInvalidCoord      = errors.New("invalid coordinate key")
	ErrMalformedDocument = errors.New("malformed track document")
)

// Directions lists the four directions in scan order.
var Directions = [4]Direction{Up, Down, Left, Right}

var opposites = map[Direction]Direction{
	Up:    Down,
	Down:  Up,
	Left:  Right,
	Right: Left,
}

var deltas = map[Direction]Coord{
	Up:    {X: 0, Y: -1},
	Down:  {X: 0, Y: 1},
	Left:  {X: -1, Y: 0},
	Right: {X: 1, Y: 0},
}

// Valid reports whether d is one of the four directions
func (d Direction) Valid() bool {
	_, ok := opposites[d]
	return ok
}

// Opposite returns the direction pointing the other way
func (d Direction) Opposite() (Direction, error) {
	o, ok := opposites[d]
	if !ok {
		return NoDirection, fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
	}
	return o, nil
}

// Delta returns the unit vector for d
func (d Direction) Delta() (dx, dy int, err error) {
	v, ok := deltas[d]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDirection, string(d))
	}
	return v.X, v.Y, nil
}

// opposite is the unchecked form used where d is already known to be valid.
func (d Direction) opposite() Direction {
	return opposites[d]
}

// ParseDirection accepts a direction name in any letter case
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return NoDirection, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
	return d, nil
}

// Coord identifies a grid cell. Negative values are allowed; the canvas is unbounded.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Key returns the canonical "x,y" form used in persisted documents
func (c Coord) Key() string {
	return strconv.Itoa(c.X) + "," + strconv.Itoa(c.Y)
}

func (c Coord) String() string {
	return c.Key()
}

// Step returns the neighboring coordinate in direction d. Invalid directions return c unchanged.
func (c Coord) Step(d Direction) Coord {
	v := deltas[d]
	return Coord{X: c.X + v.X, Y: c.Y + v.Y}
}

// ParseCoord parses a canonical "x,y" key
func ParseCoord(key string) (Coord, error) {
	xs, ys, ok := strings.Cut(key, ",")
	if !ok {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoord, key)
	}
	x, err := strconv.Atoi(xs)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoord, key)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return Coord{}, fmt.Errorf("%w: %q", ErrInvalidCoord, key)
	}
	return Coord{X: x, Y: y}, nil
}

// Tile is a placed road cell. From and To are the two sides the road connects through;
// they carry no notion of travel direction and are always distinct.
type Tile struct {
	X    int       `json:"x"`
	Y    int       `json:"y"`
	From Direction `json:"from"`
	To   Direction `json:"to"`
}

// NewTile creates a tile at (x, y). Absent directions default to LEFT and RIGHT;
// a to equal to from is replaced by the opposite of from.
func NewTile(x, y int, from, to Direction) (*Tile, error) {
	if from == NoDirection {
		from = DefaultFrom
	}
	if to == NoDirection {
		to = DefaultTo
	}
	if !from.Valid() {
		return nil, fmt.Errorf("tile %d,%d from: %w: %q", x, y, ErrInvalidDirection, string(from))
	}
	if !to.Valid() {
		return nil, fmt.Errorf("tile %d,%d to: %w: %q", x, y, ErrInvalidDirection, string(to))
	}
	if to == from {
		to = from.opposite()
	}
	return &Tile{X: x, Y: y, From: from, To: to}, nil
}

// Coord returns the tile's position
func (t *Tile) Coord() Coord {
	return Coord{X: t.X, Y: t.Y}
}

// UpdateDirections applies a partial update; NoDirection leaves a side untouched.
// Whenever the update would make both sides equal, the side that was not
// supplied (or To, when both were) is forced to the opposite of the supplied one.
func (t *Tile) UpdateDirections(from, to Direction) error {
	if from != NoDirection && !from.Valid() {
		return fmt.Errorf("update from: %w: %q", ErrInvalidDirection, string(from))
	}
	if to != NoDirection && !to.Valid() {
		return fmt.Errorf("update to: %w: %q", ErrInvalidDirection, string(to))
	}

	switch {
	case from == NoDirection && to == NoDirection:
		return nil
	case from != NoDirection && to != NoDirection:
		t.From = from
		if from == to {
			t.To = from.opposite()
		} else {
			t.To = to
		}
	case from != NoDirection:
		t.From = from
		if t.To == from {
			t.To = from.opposite()
		}
	default:
		t.To = to
		if t.From == to {
			t.From = to.opposite()
		}
	}
	return nil
}

// Connects reports whether one of the tile's sides is d
func (t *Tile) Connects(d Direction) bool {
	return t.From == d || t.To == d
}
