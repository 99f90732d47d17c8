package metrics

import (
	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/field"
)

// Perturbed reports the fraction of particles inside at least one active
// field on the most recent frame.
type Perturbed struct {
	fraction float64
}

func NewPerturbed() *Perturbed { return &Perturbed{} }

func (p *Perturbed) Name() string { return "perturbed" }

func (p *Perturbed) Observe(f dynamo.Frame) {
	if len(f.Positions) == 0 {
		p.fraction = 0
		return
	}
	p.fraction = float64(field.CountPerturbed(f.Positions, f.Fields)) / float64(len(f.Positions))
}

func (p *Perturbed) Value() float64 { return p.fraction }
func (p *Perturbed) Reset()         { p.fraction = 0 }
