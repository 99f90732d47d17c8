package analysis

import (
	"strings"

	"github.com/san-kum/helixflock/internal/dynamo"
)

// Plane selects which two coordinates a projection plots.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneZY
)

// ParsePlane accepts xy, xz or zy.
func ParsePlane(s string) (Plane, error) {
	switch strings.ToLower(s) {
	case "xy":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "zy":
		return PlaneZY, nil
	}
	return 0, &dynamo.ConfigError{Field: "plane", Value: s, Reason: "want xy, xz or zy"}
}

func (p Plane) String() string {
	switch p {
	case PlaneXZ:
		return "xz"
	case PlaneZY:
		return "zy"
	default:
		return "xy"
	}
}

func (p Plane) project(v dynamo.Vec3) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X, v.Z
	case PlaneZY:
		return v.Z, v.Y
	default:
		return v.X, v.Y
	}
}

// ProjectionToASCII plots positions on plane with 10% padding and draws the
// axes where they cross the visible area.
func ProjectionToASCII(positions []dynamo.Vec3, plane Plane, width, height int) string {
	if width < 2 || height < 2 {
		return ""
	}
	pts := make([]dynamo.Vec3, 0, len(positions))
	for _, p := range positions {
		if dynamo.Finite(p) {
			pts = append(pts, p)
		}
	}
	if len(pts) == 0 {
		return ""
	}

	minX, minY := plane.project(pts[0])
	maxX, maxY := minX, minY
	for _, p := range pts {
		x, y := plane.project(p)
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range pts {
		x, y := plane.project(p)
		col := int((x - minX) / rangeX * float64(width-1))
		row := height - 1 - int((y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
