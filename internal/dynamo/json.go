package dynamo

import "encoding/json"

// JSON uses the same snake_case names and [x, y, z] vectors as the YAML
// config.

type paramsJSON struct {
	SeparationDistance   float64    `json:"separation_distance"`
	AlignmentDistance    float64    `json:"alignment_distance"`
	CohesionDistance     float64    `json:"cohesion_distance"`
	MaxForce             float64    `json:"max_force"`
	MaxSpeed             float64    `json:"max_speed"`
	UpwardBias           [3]float64 `json:"upward_bias"`
	VerticalSpeed        float64    `json:"vertical_speed"`
	BaseRadius           float64    `json:"base_radius"`
	FrameRateIndependent bool       `json:"frame_rate_independent"`
	ReferenceFPS         float64    `json:"reference_fps"`
	MaxFrameScale        float64    `json:"max_frame_scale"`
}

func (p Params) MarshalJSON() ([]byte, error) {
	return json.Marshal(paramsJSON{
		SeparationDistance:   p.SeparationDistance,
		AlignmentDistance:    p.AlignmentDistance,
		CohesionDistance:     p.CohesionDistance,
		MaxForce:             p.MaxForce,
		MaxSpeed:             p.MaxSpeed,
		UpwardBias:           array(p.UpwardBias),
		VerticalSpeed:        p.VerticalSpeed,
		BaseRadius:           p.BaseRadius,
		FrameRateIndependent: p.FrameRateIndependent,
		ReferenceFPS:         p.ReferenceFPS,
		MaxFrameScale:        p.MaxFrameScale,
	})
}

func (p *Params) UnmarshalJSON(data []byte) error {
	var j paramsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*p = Params{
		SeparationDistance:   j.SeparationDistance,
		AlignmentDistance:    j.AlignmentDistance,
		CohesionDistance:     j.CohesionDistance,
		MaxForce:             j.MaxForce,
		MaxSpeed:             j.MaxSpeed,
		UpwardBias:           vector(j.UpwardBias),
		VerticalSpeed:        j.VerticalSpeed,
		BaseRadius:           j.BaseRadius,
		FrameRateIndependent: j.FrameRateIndependent,
		ReferenceFPS:         j.ReferenceFPS,
		MaxFrameScale:        j.MaxFrameScale,
	}
	return nil
}

type fieldJSON struct {
	Position [3]float64 `json:"position"`
	Strength float64    `json:"strength"`
	Range    float64    `json:"range"`
}

func (f ForceField) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{Position: array(f.Position), Strength: f.Strength, Range: f.Range})
}

func (f *ForceField) UnmarshalJSON(data []byte) error {
	var j fieldJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*f = ForceField{Position: vector(j.Position), Strength: j.Strength, Range: j.Range}
	return nil
}

func array(v Vec3) [3]float64  { return [3]float64{v.X, v.Y, v.Z} }
func vector(a [3]float64) Vec3 { return Vec3{X: a[0], Y: a[1], Z: a[2]} }
