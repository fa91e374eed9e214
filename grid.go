package psf

import "math"

// PixelGrid maps continuous frame coordinates onto integer pixels.
// XExtent and YExtent give the coordinate values of the outer frame
// edges; Width and Height are the pixel counts. With the reference
// extent convention (-0.5, W-0.5) a coordinate of 0.0 lands on the
// centre of pixel 0.
type PixelGrid struct {
	XExtent, YExtent [2]float64
	Width, Height    int
}

// PixelSize returns the extent-unit width and height of one pixel.
func (g PixelGrid) PixelSize() (px, py float64) {
	px = (g.XExtent[1] - g.XExtent[0]) / float64(g.Width)
	py = (g.YExtent[1] - g.YExtent[0]) / float64(g.Height)
	return px, py
}

// ToPixel converts frame coordinates to continuous pixel units, where
// pixel i spans [i, i+1).
func (g PixelGrid) ToPixel(x, y float64) (u, v float64) {
	px, py := g.PixelSize()
	return (x - g.XExtent[0]) / px, (y - g.YExtent[0]) / py
}

// Locate returns the integer pixel containing (x, y). The result may
// lie outside the frame; callers clip as needed.
func (g PixelGrid) Locate(x, y float64) (ix, iy int) {
	u, v := g.ToPixel(x, y)
	return int(math.Floor(u)), int(math.Floor(v))
}

// Contains reports whether pixel (ix, iy) lies inside the frame.
func (g PixelGrid) Contains(ix, iy int) bool {
	return ix >= 0 && ix < g.Width && iy >= 0 && iy < g.Height
}

// roiPlacement fixes an ROI of size w*h around (x, y): (px0, py0) is
// the frame pixel of the ROI origin, (xc, yc) the emitter offset from
// the ROI origin pixel centre in pixel units.
func (g PixelGrid) roiPlacement(x, y float64, w, h int) (px0, py0 int, xc, yc float64) {
	u, v := g.ToPixel(x, y)
	px0 = int(math.Floor(u)) - w/2
	py0 = int(math.Floor(v)) - h/2
	xc = u - 0.5 - float64(px0)
	yc = v - 0.5 - float64(py0)
	return px0, py0, xc, yc
}
