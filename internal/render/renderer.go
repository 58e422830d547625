package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"github.com/park285/Cheese-Checkers/internal/checkers"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	minSquareSize     = 16
	defaultSquareSize = 64
	outlineWidth      = 3
)

var (
	lightSquare   = color.RGBA{240, 217, 181, 255}
	darkSquare    = color.RGBA{120, 80, 50, 255}
	frameColor    = color.RGBA{40, 28, 20, 255}
	labelColor    = color.RGBA{230, 220, 200, 255}
	selectedColor = color.RGBA{255, 255, 0, 255}
	validMoveFill = color.NRGBA{R: 0, G: 255, B: 0, A: 128}
)

// Renderer draws a GameState as a PNG: board, pieces, selection outline and valid-move overlays.
type Renderer struct {
	squareSize int
	margin     int
}

func NewRenderer(squareSize int) *Renderer {
	if squareSize < minSquareSize {
		squareSize = defaultSquareSize
	}
	return &Renderer{squareSize: squareSize, margin: squareSize / 2}
}

// Size is the full image size in pixels.
func (r *Renderer) Size() (int, int) {
	side := r.squareSize*checkers.BoardSize + r.margin*2
	return side, side
}

// SquareAt maps image pixel coordinates to a board square.
func (r *Renderer) SquareAt(x, y int) (checkers.Position, bool) {
	x -= r.margin
	y -= r.margin
	if x < 0 || y < 0 {
		return checkers.Position{}, false
	}
	pos := checkers.Position{Row: y / r.squareSize, Col: x / r.squareSize}
	return pos, pos.InBounds()
}

// SquareRect is the pixel rectangle of a board square.
func (r *Renderer) SquareRect(pos checkers.Position) image.Rectangle {
	x := r.margin + pos.Col*r.squareSize
	y := r.margin + pos.Row*r.squareSize
	return image.Rect(x, y, x+r.squareSize, y+r.squareSize)
}

func (r *Renderer) RenderPNG(ctx context.Context, st checkers.GameState) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	w, h := r.Size()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, draw.Src)

	r.drawSquares(img)
	r.drawLabels(img)
	if err := r.drawPieces(img, st); err != nil {
		return nil, err
	}
	r.drawValidMoves(img, st.ValidMoves)
	if id, ok := st.Selected(); ok {
		if p, found := st.FindPiece(id); found {
			r.drawOutline(img, p.Position, selectedColor)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawSquares(dst draw.Image) {
	for row := 0; row < checkers.BoardSize; row++ {
		for col := 0; col < checkers.BoardSize; col++ {
			clr := lightSquare
			if (row+col)%2 == 1 {
				clr = darkSquare
			}
			rect := r.SquareRect(checkers.Position{Row: row, Col: col})
			draw.Draw(dst, rect, image.NewUniform(clr), image.Point{}, draw.Src)
		}
	}
}

// drawPieces paints black first, then orange, each set in its own order.
func (r *Renderer) drawPieces(dst draw.Image, st checkers.GameState) error {
	size := r.squareSize * 68 / 100
	inset := (r.squareSize - size) / 2
	for _, set := range []checkers.PieceSet{st.BlackPieces, st.OrangePieces} {
		for _, p := range set {
			if !p.Position.InBounds() {
				continue
			}
			pieceImg, err := renderPieceImage(p.Color, size)
			if err != nil {
				return err
			}
			sq := r.SquareRect(p.Position)
			at := image.Rect(sq.Min.X+inset, sq.Min.Y+inset, sq.Min.X+inset+size, sq.Min.Y+inset+size)
			draw.Draw(dst, at, pieceImg, image.Point{}, draw.Over)
		}
	}
	return nil
}

func (r *Renderer) drawValidMoves(dst draw.Image, moves []checkers.Position) {
	fill := image.NewUniform(validMoveFill)
	for _, mv := range moves {
		if !mv.InBounds() {
			continue
		}
		draw.Draw(dst, r.SquareRect(mv), fill, image.Point{}, draw.Over)
	}
}

func (r *Renderer) drawOutline(dst draw.Image, pos checkers.Position, clr color.Color) {
	rect := r.SquareRect(pos)
	src := image.NewUniform(clr)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+outlineWidth),
		image.Rect(rect.Min.X, rect.Max.Y-outlineWidth, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+outlineWidth, rect.Max.Y),
		image.Rect(rect.Max.X-outlineWidth, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e, src, image.Point{}, draw.Src)
	}
}

// drawLabels writes row indexes down the left margin and column indexes along the top.
func (r *Renderer) drawLabels(dst draw.Image) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Src: image.NewUniform(labelColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	for i := 0; i < checkers.BoardSize; i++ {
		text := strconv.Itoa(i)
		width := drawer.MeasureString(text).Round()

		sq := r.SquareRect(checkers.Position{Row: i, Col: 0})
		drawer.Dot = fixed.P((r.margin-width)/2, sq.Min.Y+(r.squareSize+ascent)/2)
		drawer.DrawString(text)

		sq = r.SquareRect(checkers.Position{Row: 0, Col: i})
		drawer.Dot = fixed.P(sq.Min.X+(r.squareSize-width)/2, (r.margin+ascent)/2)
		drawer.DrawString(text)
	}
}
