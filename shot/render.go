package shot

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// classColors maps terrain classes to debug-render colors.
var classColors = map[TerrainClass]color.RGBA{
	ClassUnknown:     {90, 110, 60, 255},
	ClassOutOfBounds: {40, 40, 40, 255},
	ClassWater:       {70, 130, 200, 255},
	ClassHazard:      {190, 80, 60, 255},
	ClassBunker:      {230, 210, 150, 255},
	ClassGreen:       {110, 200, 110, 255},
	ClassFairway:     {120, 180, 90, 255},
	ClassRecovery:    {130, 100, 70, 255},
	ClassRough:       {90, 130, 60, 255},
	ClassTee:         {150, 200, 160, 255},
}

// RenderMask renders the classified mask with the start point, the pin and
// the ranked candidates into an RGBA image. Diagnostic output only; nothing
// in the evaluation path depends on it.
func RenderMask(mask *MaskBuffer, start, pin GeoPoint, candidates []Candidate) (*image.RGBA, error) {
	if err := mask.Validate(); err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, mask.Width, mask.Height))
	for py := 0; py < mask.Height; py++ {
		for px := 0; px < mask.Width; px++ {
			c := TerrainClass(mask.Pix[(py*mask.Width+px)*4])
			col, ok := classColors[c]
			if !ok {
				col = classColors[ClassRough]
			}
			img.SetRGBA(px, py, col)
		}
	}

	sx, sy := mask.pixelAt(start)
	px, py := mask.pixelAt(pin)
	drawLine(img, sx, sy, px, py, color.RGBA{255, 255, 255, 120})
	drawSquare(img, sx, sy, 4, color.RGBA{255, 255, 255, 255})
	drawCross(img, px, py, 5, color.RGBA{255, 215, 0, 255})

	for i, cand := range candidates {
		cx, cy := mask.pixelAt(cand.Position)
		drawSquare(img, cx, cy, 3, color.RGBA{220, 40, 220, 255})
		drawText(img, cx+5, cy+4, fmt.Sprintf("%d", i+1), color.RGBA{255, 255, 255, 255})
	}
	return img, nil
}

// SaveMaskPNG renders the mask and writes it as a PNG file.
func SaveMaskPNG(path string, mask *MaskBuffer, start, pin GeoPoint, candidates []Candidate) error {
	img, err := RenderMask(mask, start, pin, candidates)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	return png.Encode(f, img)
}

// drawSquare draws a filled square centered at (x, y).
func drawSquare(img *image.RGBA, x, y, half int, c color.RGBA) {
	for dy := -half; dy <= half; dy++ {
		for dx := -half; dx <= half; dx++ {
			img.SetRGBA(x+dx, y+dy, c)
		}
	}
}

// drawLine draws a straight line between two pixels.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	steps := max(abs(x1-x0), abs(y1-y0))
	if steps == 0 {
		img.SetRGBA(x0, y0, c)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := x0 + int(math.Round(t*float64(x1-x0)))
		y := y0 + int(math.Round(t*float64(y1-y0)))
		img.SetRGBA(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// drawCross draws a plus-shaped marker centered at (x, y).
func drawCross(img *image.RGBA, x, y, arm int, c color.RGBA) {
	for d := -arm; d <= arm; d++ {
		img.SetRGBA(x+d, y, c)
		img.SetRGBA(x, y+d, c)
	}
}

// drawText renders text onto an image at the specified position.
func drawText(img *image.RGBA, x, y int, text string, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
