package metrics

import (
	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/physics"
)

// Crowding averages the number of particle pairs closer than radius per
// frame. With the separation distance as radius it measures how well
// separation keeps the flock apart.
type Crowding struct {
	radius  float64
	sum     float64
	samples int
}

func NewCrowding(radius float64) *Crowding {
	return &Crowding{radius: radius}
}

func (c *Crowding) Name() string { return "crowding" }

func (c *Crowding) Observe(f dynamo.Frame) {
	c.sum += float64(len(physics.Pairs(f.Positions, c.radius)))
	c.samples++
}

func (c *Crowding) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Crowding) Reset() {
	c.sum = 0
	c.samples = 0
}
