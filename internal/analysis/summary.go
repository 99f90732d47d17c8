package analysis

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/san-kum/helixflock/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// Summary describes one frame of a particle set.
type Summary struct {
	Count    int         `json:"count"`
	Centroid dynamo.Vec3 `json:"centroid"`
	// Spread is the RMS distance from the centroid.
	Spread float64 `json:"spread"`
	// Polarization is the length of the mean unit heading, in [0,1].
	Polarization float64 `json:"polarization"`
	MeanSpeed    float64 `json:"mean_speed"`
	SpeedStdDev  float64 `json:"speed_stddev"`
	MedianSpeed  float64 `json:"median_speed"`
	P95Speed     float64 `json:"p95_speed"`
	MaxSpeed     float64 `json:"max_speed"`
	MinY         float64 `json:"min_y"`
	MaxY         float64 `json:"max_y"`
}

type plainSummary Summary

// MarshalJSON writes the centroid as [x, y, z].
func (s Summary) MarshalJSON() ([]byte, error) {
	c := s.Centroid
	return json.Marshal(struct {
		plainSummary
		Centroid [3]float64 `json:"centroid"`
	}{plainSummary(s), [3]float64{c.X, c.Y, c.Z}})
}

func (s *Summary) UnmarshalJSON(data []byte) error {
	aux := struct {
		*plainSummary
		Centroid [3]float64 `json:"centroid"`
	}{plainSummary: (*plainSummary)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Centroid = dynamo.Vec3{X: aux.Centroid[0], Y: aux.Centroid[1], Z: aux.Centroid[2]}
	return nil
}

func Summarize(pos, vel []dynamo.Vec3) Summary {
	s := Summary{Count: len(pos)}
	if len(pos) == 0 {
		return s
	}

	xs := make([]float64, len(pos))
	ys := make([]float64, len(pos))
	zs := make([]float64, len(pos))
	for i, p := range pos {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	s.Centroid = dynamo.Vec3{X: stat.Mean(xs, nil), Y: stat.Mean(ys, nil), Z: stat.Mean(zs, nil)}

	s.MinY, s.MaxY = math.Inf(1), math.Inf(-1)
	sq := 0.0
	for _, p := range pos {
		d := dynamo.Distance(p, s.Centroid)
		sq += d * d
		s.MinY = math.Min(s.MinY, p.Y)
		s.MaxY = math.Max(s.MaxY, p.Y)
	}
	s.Spread = math.Sqrt(sq / float64(len(pos)))

	if len(vel) == 0 {
		return s
	}

	speeds := make([]float64, len(vel))
	var heading dynamo.Vec3
	moving := 0
	for i, v := range vel {
		speeds[i] = dynamo.Length(v)
		if speeds[i] > 0 {
			heading = r3.Add(heading, dynamo.Normalize(v))
			moving++
		}
	}
	if moving > 0 {
		s.Polarization = dynamo.Length(heading) / float64(moving)
	}

	if len(speeds) > 1 {
		s.MeanSpeed, s.SpeedStdDev = stat.MeanStdDev(speeds, nil)
	} else {
		s.MeanSpeed = speeds[0]
	}
	sort.Float64s(speeds)
	s.MedianSpeed = stat.Quantile(0.5, stat.Empirical, speeds, nil)
	s.P95Speed = stat.Quantile(0.95, stat.Empirical, speeds, nil)
	s.MaxSpeed = speeds[len(speeds)-1]
	return s
}
