package sim

import (
	"math/rand"
	"time"
)

// Clock owns simulated time. It only ever moves forward, by a uniform random
// number of minutes per step, and has nothing to do with wall-clock time.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at the given simulated instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves simulated time forward by a uniform random number of minutes
// in [minMinutes, maxMinutes] and returns the new time.
func (c *Clock) Advance(rng *rand.Rand, minMinutes, maxMinutes int) time.Time {
	step := minMinutes
	if maxMinutes > minMinutes {
		step += rng.Intn(maxMinutes - minMinutes + 1)
	}
	c.now = c.now.Add(time.Duration(step) * time.Minute)
	return c.now
}
