package analysis

import (
	"strings"

	"github.com/san-kum/helixflock/internal/dynamo"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns |X_k|^2/n for the one-sided spectrum of series after
// removing its mean.
func PowerSpectrum(series []float64) []float64 {
	n := len(series)
	if n == 0 {
		return nil
	}
	mean := stat.Mean(series, nil)
	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	coeff := fourier.NewFFT(n).Coefficients(nil, centered)
	out := make([]float64, len(coeff))
	for i, c := range coeff {
		out[i] = (real(c)*real(c) + imag(c)*imag(c)) / float64(n)
	}
	return out
}

// DominantFrequency returns the frequency in cycles per unit time of the
// strongest non-constant component of a series sampled every dt.
func DominantFrequency(series []float64, dt float64) float64 {
	if len(series) < 2 || dt <= 0 {
		return 0
	}
	power := PowerSpectrum(series)
	best := 1
	for k := 2; k < len(power); k++ {
		if power[k] > power[best] {
			best = k
		}
	}
	if power[best] == 0 {
		return 0
	}
	return fourier.NewFFT(len(series)).Freq(best) / dt
}

// Track collects one coordinate of a particle over a run.
type Track struct {
	Particle int
	Axis     func(dynamo.Vec3) float64
	Samples  []float64
}

func (t *Track) OnFrame(f dynamo.Frame) {
	if t.Particle < len(f.Positions) {
		t.Samples = append(t.Samples, t.Axis(f.Positions[t.Particle]))
	}
}

func AxisX(v dynamo.Vec3) float64 { return v.X }
func AxisY(v dynamo.Vec3) float64 { return v.Y }
func AxisZ(v dynamo.Vec3) float64 { return v.Z }

// ParseAxis accepts x, y or z.
func ParseAxis(s string) (func(dynamo.Vec3) float64, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	case "z":
		return AxisZ, nil
	}
	return nil, &dynamo.ConfigError{Field: "axis", Value: s, Reason: "want x, y or z"}
}
