package viz

import (
	"math"

	"github.com/san-kum/helixflock/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Camera is a perspective look-at camera.
type Camera struct {
	Position dynamo.Vec3
	Target   dynamo.Vec3
	Up       dynamo.Vec3
	FOV      float64
	Near     float64
	Zoom     float64
}

// NewCamera returns the default view of the scene: above and in front of the
// particles, looking at the middle of the helix.
func NewCamera() *Camera {
	return &Camera{
		Position: dynamo.Vec3{X: 10, Y: 12, Z: 35},
		Target:   dynamo.Vec3{Y: 10},
		Up:       dynamo.Vec3{Y: 1},
		FOV:      75 * math.Pi / 180,
		Near:     0.1,
		Zoom:     1,
	}
}

// Orbit rotates the camera around the target's vertical axis.
func (c *Camera) Orbit(angle float64) {
	rel := r3.Sub(c.Position, c.Target)
	c.Position = r3.Add(c.Target, r3.Rotate(rel, angle, c.Up))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// basis returns the right, up and forward unit vectors of the view.
func (c *Camera) basis() (right, up, fwd dynamo.Vec3) {
	fwd = dynamo.Normalize(r3.Sub(c.Target, c.Position))
	right = dynamo.Normalize(r3.Cross(fwd, c.Up))
	up = r3.Cross(right, fwd)
	return right, up, fwd
}

// Project maps a world point to a pixel on a w x h surface. It returns the
// pixel, the distance along the view direction and whether the pixel is in
// front of the camera and on screen.
func (c *Camera) Project(p dynamo.Vec3, w, h int) (int, int, float64, bool) {
	right, up, fwd := c.basis()
	rel := r3.Sub(p, c.Position)
	depth := r3.Dot(rel, fwd)
	if !(depth > c.Near) {
		return 0, 0, depth, false
	}

	f := c.Zoom / math.Tan(c.FOV/2)
	scale := float64(min(w, h)) / 2
	x := r3.Dot(rel, right) * f / depth
	y := r3.Dot(rel, up) * f / depth
	if math.IsNaN(x) || math.IsNaN(y) || math.Abs(x) > 1e6 || math.Abs(y) > 1e6 {
		return 0, 0, depth, false
	}

	sx := int(math.Round(float64(w)/2 + x*scale))
	sy := int(math.Round(float64(h)/2 - y*scale))
	return sx, sy, depth, sx >= 0 && sx < w && sy >= 0 && sy < h
}

// ProjectedRadius returns the on-screen radius of a sphere of radius r at
// the given depth.
func (c *Camera) ProjectedRadius(r, depth float64, w, h int) float64 {
	if !(depth > c.Near) {
		return 0
	}
	return r * c.Zoom / math.Tan(c.FOV/2) / depth * float64(min(w, h)) / 2
}
