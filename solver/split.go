package solver

import (
	"slices"

	"github.com/akmonengine/impulse/actor"
)

// SplitSolver splits the bodies into islands, groups of bodies connected by equations,
// and solves each island on its own with a sub-solver. Static bodies never join two islands.
type SplitSolver struct {
	equationList

	Iterations int
	Tolerance  float64
	Subsolver  *GSSolver

	nodes   []islandNode
	index   map[*actor.RigidBody]int
	queue   []int
	islandB []*actor.RigidBody
	islandE []int
	seenEq  []bool
}

type islandNode struct {
	body      *actor.RigidBody
	neighbors []int
	equations []int
	visited   bool
}

func NewSplitSolver(subsolver *GSSolver) *SplitSolver {
	return &SplitSolver{
		Iterations: DefaultIterations,
		Tolerance:  DefaultTolerance,
		Subsolver:  subsolver,
		index:      make(map[*actor.RigidBody]int),
	}
}

// Solve returns the number of islands solved
func (s *SplitSolver) Solve(dt float64, bodies []*actor.RigidBody) int {
	s.buildGraph(bodies)

	s.Subsolver.Iterations = s.Iterations
	s.Subsolver.Tolerance = s.Tolerance

	islands := 0
	for root := range s.nodes {
		if s.nodes[root].visited || s.nodes[root].body.BodyType == actor.BodyTypeStatic {
			continue
		}

		s.collectIsland(root)

		// Ordre d'insertion, pour un résultat déterministe
		slices.Sort(s.islandE)
		for _, eqIndex := range s.islandE {
			s.Subsolver.AddEquation(s.equations[eqIndex])
		}
		s.Subsolver.Solve(dt, s.islandB)
		s.Subsolver.RemoveAllEquations()

		islands++
	}

	return islands
}

func (s *SplitSolver) buildGraph(bodies []*actor.RigidBody) {
	clear(s.index)
	s.nodes = resize(s.nodes, len(bodies))
	for i, body := range bodies {
		s.nodes[i] = islandNode{
			body:      body,
			neighbors: s.nodes[i].neighbors[:0],
			equations: s.nodes[i].equations[:0],
		}
		s.index[body] = i
	}

	for k, eq := range s.equations {
		base := eq.Base()
		i, okA := s.index[base.BodyA]
		j, okB := s.index[base.BodyB]
		if okA {
			s.nodes[i].equations = append(s.nodes[i].equations, k)
		}
		if okB {
			s.nodes[j].equations = append(s.nodes[j].equations, k)
		}
		if okA && okB {
			s.nodes[i].neighbors = append(s.nodes[i].neighbors, j)
			s.nodes[j].neighbors = append(s.nodes[j].neighbors, i)
		}
	}

	s.seenEq = resize(s.seenEq, len(s.equations))
	clear(s.seenEq)
}

// collectIsland walks the graph breadth first from root, skipping static bodies
func (s *SplitSolver) collectIsland(root int) {
	s.islandB = s.islandB[:0]
	s.islandE = s.islandE[:0]
	s.queue = append(s.queue[:0], root)
	s.visit(root)

	for len(s.queue) > 0 {
		node := s.queue[0]
		s.queue = s.queue[1:]

		for _, neighbor := range s.nodes[node].neighbors {
			n := &s.nodes[neighbor]
			if n.visited || n.body.BodyType == actor.BodyTypeStatic {
				continue
			}
			s.visit(neighbor)
			s.queue = append(s.queue, neighbor)
		}
	}
}

func (s *SplitSolver) visit(i int) {
	node := &s.nodes[i]
	node.visited = true
	s.islandB = append(s.islandB, node.body)

	for _, eqIndex := range node.equations {
		if !s.seenEq[eqIndex] {
			s.seenEq[eqIndex] = true
			s.islandE = append(s.islandE, eqIndex)
		}
	}
}

var (
	_ Solver = (*GSSolver)(nil)
	_ Solver = (*SplitSolver)(nil)
)
