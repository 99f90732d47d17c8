package viz

import (
	"math"

	"github.com/san-kum/helixflock/internal/dynamo"
)

// Scene options for Render.
type Scene struct {
	ShowFields bool
	ShowFloor  bool
}

// Render draws particles as dots and active fields as projected circles.
func Render(c *Canvas, cam *Camera, pos []dynamo.Vec3, fields []dynamo.ForceField, sc Scene) {
	w, h := c.Dots()
	c.Clear()

	if sc.ShowFloor {
		drawFloor(c, cam, w, h)
	}
	if sc.ShowFields {
		for _, f := range fields {
			if !f.Active() {
				continue
			}
			x, y, depth, ok := cam.Project(f.Position, w, h)
			if !ok {
				continue
			}
			r := cam.ProjectedRadius(f.Range, depth, w, h)
			c.Circle(x, y, int(math.Round(math.Min(r, float64(max(w, h))))))
		}
	}
	for _, p := range pos {
		if x, y, _, ok := cam.Project(p, w, h); ok {
			c.Set(x, y)
		}
	}
}

// drawFloor draws a grid on the y=0 plane.
func drawFloor(c *Canvas, cam *Camera, w, h int) {
	const extent, step = 20, 5
	for v := -extent; v <= extent; v += step {
		line(c, cam, dynamo.Vec3{X: float64(v), Z: -extent}, dynamo.Vec3{X: float64(v), Z: extent}, w, h)
		line(c, cam, dynamo.Vec3{X: -extent, Z: float64(v)}, dynamo.Vec3{X: extent, Z: float64(v)}, w, h)
	}
}

func line(c *Canvas, cam *Camera, a, b dynamo.Vec3, w, h int) {
	x0, y0, d0, _ := cam.Project(a, w, h)
	x1, y1, d1, _ := cam.Project(b, w, h)
	if d0 <= cam.Near || d1 <= cam.Near {
		return
	}
	if absInt(x0-x1) > 4*w || absInt(y0-y1) > 4*h {
		return
	}
	c.Line(x0, y0, x1, y1)
}
