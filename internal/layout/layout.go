// Package layout loads starting piece configurations from YAML.
package layout

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/park285/Cheese-Checkers/internal/checkers"
	yaml "gopkg.in/yaml.v3"
)

// File is the on-disk layout document.
//
//	pieces:
//	  - {id: 1, color: black, row: 0, col: 1}
type File struct {
	Name   string      `yaml:"name,omitempty"`
	Pieces []PieceSpec `yaml:"pieces"`
}

type PieceSpec struct {
	ID    int    `yaml:"id"`
	Color string `yaml:"color"`
	Row   int    `yaml:"row"`
	Col   int    `yaml:"col"`
}

// Layout is a validated pair of starting sets.
type Layout struct {
	Name   string
	Black  checkers.PieceSet
	Orange checkers.PieceSet
}

// Standard returns the built-in opening.
func Standard() *Layout {
	black, orange := checkers.StandardLayout()
	return &Layout{Name: "standard", Black: black, Orange: orange}
}

// Load reads a layout from path. An empty path yields Standard().
func Load(path string) (*Layout, error) {
	if strings.TrimSpace(path) == "" {
		return Standard(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return l, nil
}

// Parse decodes and validates a YAML layout.
// Pieces keep file order within their color.
func Parse(raw []byte) (*Layout, error) {
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if len(f.Pieces) == 0 {
		return nil, fmt.Errorf("%w: no pieces", checkers.ErrInvalidLayout)
	}
	l := &Layout{Name: strings.TrimSpace(f.Name)}
	if l.Name == "" {
		l.Name = "custom"
	}
	for _, ps := range f.Pieces {
		c, ok := checkers.ParseColor(ps.Color)
		if !ok {
			return nil, fmt.Errorf("%w: piece %d has unknown color %q", checkers.ErrInvalidLayout, ps.ID, ps.Color)
		}
		p := checkers.Piece{ID: ps.ID, Color: c, Position: checkers.Position{Row: ps.Row, Col: ps.Col}}
		if c == checkers.Black {
			l.Black = append(l.Black, p)
		} else {
			l.Orange = append(l.Orange, p)
		}
	}
	if err := checkers.ValidateLayout(l.Black, l.Orange); err != nil {
		return nil, err
	}
	return l, nil
}

// Marshal encodes a layout back to YAML, ordered by piece id.
func Marshal(l *Layout) ([]byte, error) {
	if l == nil {
		return nil, fmt.Errorf("nil layout")
	}
	f := File{Name: l.Name}
	for _, set := range []checkers.PieceSet{l.Black, l.Orange} {
		for _, p := range set {
			f.Pieces = append(f.Pieces, PieceSpec{ID: p.ID, Color: string(p.Color), Row: p.Position.Row, Col: p.Position.Col})
		}
	}
	sort.Slice(f.Pieces, func(i, j int) bool { return f.Pieces[i].ID < f.Pieces[j].ID })
	return yaml.Marshal(&f)
}

// Controller builds a fresh controller over a copy of the layout.
func (l *Layout) Controller(opts ...checkers.Option) (*checkers.Controller, error) {
	return checkers.NewController(l.Black.Clone(), l.Orange.Clone(), opts...)
}

// State is the Idle game state for this layout.
func (l *Layout) State() checkers.GameState {
	return checkers.GameState{
		BlackPieces:  l.Black.Clone(),
		OrangePieces: l.Orange.Clone(),
		ValidMoves:   []checkers.Position{},
	}
}
