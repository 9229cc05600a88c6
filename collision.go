package impulse

import (
	"github.com/akmonengine/impulse/actor"
	"github.com/akmonengine/impulse/constraint"
)

// BroadPhase rebuilds the grid from the bodies and returns the candidate pairs
func BroadPhase(spatialGrid *SpatialGrid, bodies []*actor.RigidBody) []Pair {
	spatialGrid.Build(bodies)

	return spatialGrid.FindPairs(bodies)
}

// filterConnected drops, in place, the pairs joined by a constraint that disables
// collisions between its bodies
func filterConnected(pairs []Pair, constraints []constraint.Constraint) []Pair {
	if len(constraints) == 0 {
		return pairs
	}

	excluded := make(map[pairKey]struct{})
	for _, c := range constraints {
		if c.CollideConnected() {
			continue
		}
		bodyA, bodyB := c.Bodies()
		excluded[makePairKey(bodyA, bodyB)] = struct{}{}
	}
	if len(excluded) == 0 {
		return pairs
	}

	n := 0
	for _, pair := range pairs {
		if _, ok := excluded[makePairKey(pair.BodyA, pair.BodyB)]; ok {
			continue
		}
		pairs[n] = pair
		n++
	}
	clear(pairs[n:])

	return pairs[:n]
}
