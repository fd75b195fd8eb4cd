package movement

// Tuned steering constants (§4.4, §6). These must be reproduced exactly;
// they are not derived from anything and must never drift independently
// per-build.
const (
	entityMass = 1.0
	maxForce   = 0.75

	separationScale        = 0.6
	separationNeighbRadius = 30.0
	separationBufferDist   = 0.0

	arrivalScale         = 0.5
	arriveSlowingRadius  = 10.0

	cohesionScale            = 0.15
	cohesionNeighbourRadius  = 50.0

	alignNeighbourRadius = 10.0

	adjacencySepDist = 5.0

	waitTicks  = 60
	velHistLen = 14

	epsilon = 1.0 / 1024.0

	// vpref fallback thresholds (§4.4 priority cascade step 2).
	vprefDegenerateThreshold = 0.01 * maxForce
)
