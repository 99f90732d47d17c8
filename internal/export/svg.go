package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/viz"
)

const (
	background    = "#0a0a0a"
	particleColor = "#00ccff"
	fieldColor    = "#ff00ff"
	trailColor    = "#00ff88"
)

func header(sb *strings.Builder, w, h int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, w, h, w, h, background)
}

type projected struct {
	x, y  int
	depth float64
}

// FrameToSVG renders particles through cam as circles drawn far to near, with
// nearer particles larger. Active fields are drawn as outlined circles.
func FrameToSVG(pos []dynamo.Vec3, fields []dynamo.ForceField, cam *viz.Camera, w, h int) string {
	var sb strings.Builder
	header(&sb, w, h)

	fmt.Fprintf(&sb, "<g fill=\"none\" stroke=\"%s\" stroke-opacity=\"0.5\">\n", fieldColor)
	for _, f := range fields {
		if !f.Active() {
			continue
		}
		x, y, depth, ok := cam.Project(f.Position, w, h)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"%.1f\"/>\n", x, y, cam.ProjectedRadius(f.Range, depth, w, h))
	}
	sb.WriteString("</g>\n")

	pts := make([]projected, 0, len(pos))
	for _, p := range pos {
		if x, y, depth, ok := cam.Project(p, w, h); ok {
			pts = append(pts, projected{x, y, depth})
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].depth > pts[j].depth })

	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", particleColor)
	for _, p := range pts {
		r := math.Max(0.5, cam.ProjectedRadius(0.15, p.depth, w, h))
		fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"%.2f\"/>\n", p.x, p.y, r)
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrailsToSVG draws each trail as a projected polyline. Points that fall
// behind the camera break the line.
func TrailsToSVG(trails [][]dynamo.Vec3, cam *viz.Camera, w, h int) string {
	var sb strings.Builder
	header(&sb, w, h)
	fmt.Fprintf(&sb, "<g fill=\"none\" stroke=\"%s\" stroke-width=\"1\">\n", trailColor)

	for _, trail := range trails {
		var seg []string
		flush := func() {
			if len(seg) > 1 {
				fmt.Fprintf(&sb, "<polyline points=\"%s\"/>\n", strings.Join(seg, " "))
			}
			seg = seg[:0]
		}
		for _, p := range trail {
			x, y, depth, _ := cam.Project(p, w, h)
			if depth <= cam.Near {
				flush()
				continue
			}
			seg = append(seg, fmt.Sprintf("%d,%d", x, y))
		}
		flush()
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG with one circle per dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.Dots()
	w, h := int(float64(dw)*scale), int(float64(dh)*scale)

	var sb strings.Builder
	header(&sb, w, h)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", particleColor)
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.IsSet(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					float64(x)*scale+scale/2, float64(y)*scale+scale/2, scale*0.4)
			}
		}
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// TrailRecorder collects the positions of the first n particles each frame.
type TrailRecorder struct {
	Trails [][]dynamo.Vec3
}

func NewTrailRecorder(n int) *TrailRecorder {
	return &TrailRecorder{Trails: make([][]dynamo.Vec3, n)}
}

func (r *TrailRecorder) OnFrame(f dynamo.Frame) {
	for i := range r.Trails {
		if i < len(f.Positions) {
			r.Trails[i] = append(r.Trails[i], f.Positions[i])
		}
	}
}
