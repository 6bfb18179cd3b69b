package shot

import (
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"
)

// MaskBuffer is a rasterized terrain classification covering a geographic
// bounding box. Pixels are stored as 4 bytes each (RGBA layout) with the
// terrain class id in channel 0. The buffer is produced by an external
// course-feature rasterizer and is read-only for the engine; the paint
// helpers below exist for tests and tooling.
type MaskBuffer struct {
	Width  int
	Height int
	Bounds orb.Bound
	Pix    []byte
}

// NewMaskBuffer allocates a mask of the given pixel size and bounding box,
// filled with the given class. Alpha is set to 255 so the buffer round-trips
// through image encoders.
func NewMaskBuffer(width, height int, bounds orb.Bound, fill TerrainClass) (*MaskBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("mask size must be positive, got %dx%d", width, height)
	}
	if !(bounds.Left() < bounds.Right()) || !(bounds.Bottom() < bounds.Top()) {
		return nil, fmt.Errorf("mask bounds are degenerate: %v", bounds)
	}
	m := &MaskBuffer{
		Width:  width,
		Height: height,
		Bounds: bounds,
		Pix:    make([]byte, width*height*4),
	}
	m.Fill(fill)
	return m, nil
}

// Validate reports whether the buffer is usable for classification.
func (m *MaskBuffer) Validate() error {
	if m == nil || m.Width <= 0 || m.Height <= 0 || len(m.Pix) != m.Width*m.Height*4 {
		return ErrEmptyMask
	}
	return nil
}

// Classify maps a geographic point to its terrain class in O(1). Points
// outside the bounding box clamp to the nearest edge pixel, so the lookup is
// total for any finite coordinates. Class id 0 (no feature painted) reads as
// rough: unpainted terrain defaults to rough by domain assumption. Bytes
// beyond the defined class range also read as rough rather than leaking an
// undefined value into scoring.
func (m *MaskBuffer) Classify(p GeoPoint) TerrainClass {
	px, py := m.pixelAt(p)
	c := TerrainClass(m.Pix[(py*m.Width+px)*4])
	if c == ClassUnknown || !c.Valid() {
		return ClassRough
	}
	return c
}

// pixelAt projects a geographic point into clamped pixel coordinates.
func (m *MaskBuffer) pixelAt(p GeoPoint) (int, int) {
	b := m.Bounds
	px := int(math.Floor((p.Lon - b.Left()) / (b.Right() - b.Left()) * float64(m.Width)))
	py := int(math.Floor((b.Top() - p.Lat) / (b.Top() - b.Bottom()) * float64(m.Height)))
	if px < 0 {
		px = 0
	} else if px >= m.Width {
		px = m.Width - 1
	}
	if py < 0 {
		py = 0
	} else if py >= m.Height {
		py = m.Height - 1
	}
	return px, py
}

// PixelCenter returns the geographic position of a pixel's center.
func (m *MaskBuffer) PixelCenter(px, py int) GeoPoint {
	b := m.Bounds
	return GeoPoint{
		Lat: b.Top() - (float64(py)+0.5)/float64(m.Height)*(b.Top()-b.Bottom()),
		Lon: b.Left() + (float64(px)+0.5)/float64(m.Width)*(b.Right()-b.Left()),
	}
}

// SetClass writes a class id to a single pixel. Out-of-range pixels are
// ignored.
func (m *MaskBuffer) SetClass(px, py int, c TerrainClass) {
	if px < 0 || px >= m.Width || py < 0 || py >= m.Height {
		return
	}
	m.Pix[(py*m.Width+px)*4] = byte(c)
}

// Fill paints every pixel with the given class.
func (m *MaskBuffer) Fill(c TerrainClass) {
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i] = byte(c)
		m.Pix[i+3] = 255
	}
}

// PaintDisc paints all pixels whose center lies within radiusMeters of the
// given point.
func (m *MaskBuffer) PaintDisc(center GeoPoint, radiusMeters float64, c TerrainClass) {
	for py := 0; py < m.Height; py++ {
		for px := 0; px < m.Width; px++ {
			if DistanceMeters(m.PixelCenter(px, py), center) <= radiusMeters {
				m.SetClass(px, py, c)
			}
		}
	}
}

// MaskFromImage builds a mask from a rasterizer-produced image, reading the
// red channel as the class id. The bounding box must be supplied by the
// producer alongside the image.
func MaskFromImage(img image.Image, bounds orb.Bound) (*MaskBuffer, error) {
	r := img.Bounds()
	m, err := NewMaskBuffer(r.Dx(), r.Dy(), bounds, ClassUnknown)
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			red, _, _, _ := img.At(r.Min.X+x, r.Min.Y+y).RGBA()
			m.SetClass(x, y, TerrainClass(red>>8))
		}
	}
	return m, nil
}
