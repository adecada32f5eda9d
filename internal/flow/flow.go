// Package flow expands declarative traffic demand into concrete,
// time-stamped spawn schedules. Every random draw comes from a generator
// seeded by (scenario seed, variant name), never from process-wide state, so
// variants are independent of each other and of compilation order.
package flow

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/scenc/scenc/internal/model"
	"github.com/scenc/scenc/internal/network"
	"github.com/scenc/scenc/pkg/scenario"
)

// maxRouteSampleAttempts bounds random-route sampling on sparse networks.
const maxRouteSampleAttempts = 100

// Instantiator compiles traffic variants against one network.
type Instantiator struct {
	net   *network.Network
	graph *edgeGraph
	seed  int64
}

// NewInstantiator creates an instantiator for one compilation call.
func NewInstantiator(net *network.Network, seed int64) *Instantiator {
	return &Instantiator{
		net:   net,
		graph: newEdgeGraph(net),
		seed:  seed,
	}
}

// variantSeed derives the generator seed for one named variant. Hashing the
// variant name into the scenario seed keeps schedules reproducible per seed
// while decoupling variants from each other.
func (in *Instantiator) variantSeed(name string) int64 {
	return int64(xxhash.Sum64String(fmt.Sprintf("%d/%s", in.seed, name)))
}

// Traffic compiles one named variant into its spawn schedule.
func (in *Instantiator) Traffic(name string, t scenario.Traffic) (model.Traffic, error) {
	rng := rand.New(rand.NewSource(in.variantSeed(name)))
	sampler := &routeSampler{graph: in.graph, edges: in.net.DrivableEdges(), rng: rng}

	out := model.Traffic{Name: name}
	types := make(map[string]scenario.TrafficActor)
	for fi, fl := range t.Flows {
		begin, endEdge, err := fl.Route.EdgePair(sampler)
		if err != nil {
			return model.Traffic{}, fmt.Errorf("flow %d route: %w", fi, err)
		}
		if _, err := in.net.Edge(begin); err != nil {
			return model.Traffic{}, fmt.Errorf("flow %d route: %w", fi, err)
		}
		if _, err := in.net.Edge(endEdge); err != nil {
			return model.Traffic{}, fmt.Errorf("flow %d route: %w", fi, err)
		}

		departs := departTimes(fl, rng)
		for i, depart := range departs {
			actor := pickActor(fl.Actors, rng)
			types[actor.Name] = actor
			out.Spawns = append(out.Spawns, model.Spawn{
				ID:         fmt.Sprintf("%s-%d-%d", name, fi, i),
				Depart:     depart,
				Actor:      actor.Name,
				RouteEdges: []string{begin, endEdge},
			})
		}
	}

	sort.SliceStable(out.Spawns, func(i, j int) bool {
		return out.Spawns[i].Depart < out.Spawns[j].Depart
	})
	for _, actor := range types {
		out.Types = append(out.Types, actor)
	}
	sort.Slice(out.Types, func(i, j int) bool { return out.Types[i].Name < out.Types[j].Name })
	return out, nil
}

// departTimes builds the spawn instants for one flow. Regular spacing
// places spawns every 3600/rate seconds; random spacing draws exponential
// inter-arrival gaps around that mean, matching the declared rate in
// expectation while individual gaps vary.
func departTimes(fl scenario.Flow, rng *rand.Rand) []float64 {
	begin, end := fl.Window()
	mean := 3600.0 / fl.Rate

	if !fl.RandomlySpaced {
		// Exactly floor(window * rate / 3600) spawns; deriving each depart
		// from its index keeps float accumulation from adding an extra one.
		n := int((end - begin) * fl.Rate / 3600.0)
		departs := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			departs = append(departs, begin+float64(i)*mean)
		}
		return departs
	}
	var departs []float64
	for t := begin + rng.ExpFloat64()*mean; t < end; t += rng.ExpFloat64() * mean {
		departs = append(departs, t)
	}
	return departs
}

// pickActor draws an actor from the weighted set. Weights are normalized by
// walking the cumulative sum in declaration order, which also breaks weight
// ties deterministically.
func pickActor(actors []scenario.ActorWeight, rng *rand.Rand) scenario.TrafficActor {
	var total float64
	for _, aw := range actors {
		total += aw.Weight
	}
	draw := rng.Float64() * total
	var cum float64
	for _, aw := range actors {
		cum += aw.Weight
		if draw < cum {
			return aw.Actor
		}
	}
	return actors[len(actors)-1].Actor
}

// routeSampler draws structurally valid begin/end edge pairs: distinct
// drivable edges with the end reachable from the begin.
type routeSampler struct {
	graph *edgeGraph
	edges []string
	rng   *rand.Rand
}

// SampleEdgePair implements scenario.RouteSampler.
func (s *routeSampler) SampleEdgePair() (string, string, error) {
	if len(s.edges) < 2 {
		return "", "", fmt.Errorf("network has %d drivable edges, need at least 2 for a random route", len(s.edges))
	}
	for attempt := 0; attempt < maxRouteSampleAttempts; attempt++ {
		begin := s.edges[s.rng.Intn(len(s.edges))]
		end := s.edges[s.rng.Intn(len(s.edges))]
		if begin == end {
			continue
		}
		if s.graph.reachable(begin, end) {
			return begin, end, nil
		}
	}
	return "", "", fmt.Errorf("no connected edge pair found after %d draws", maxRouteSampleAttempts)
}
