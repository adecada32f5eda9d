package scenario

import (
	"encoding/json"
	"fmt"
)

// TrafficActor is a vehicle profile emitted as a vehicle type in the route
// files. Zero-valued fields fall back to the defaults of NewTrafficActor.
type TrafficActor struct {
	Name     string  `json:"name"`
	Length   float64 `json:"length,omitempty"`
	Width    float64 `json:"width,omitempty"`
	MaxSpeed float64 `json:"maxSpeed,omitempty"`
	Accel    float64 `json:"accel,omitempty"`
	Decel    float64 `json:"decel,omitempty"`
	Sigma    float64 `json:"sigma,omitempty"`
	MinGap   float64 `json:"minGap,omitempty"`
}

// NewTrafficActor returns an actor profile with passenger-car defaults.
func NewTrafficActor(name string) TrafficActor {
	return TrafficActor{
		Name:     name,
		Length:   5.0,
		Width:    1.8,
		MaxSpeed: 55.5,
		Accel:    2.6,
		Decel:    4.5,
		Sigma:    0.5,
		MinGap:   2.5,
	}
}

// ActorWeight pairs an actor profile with its relative selection weight.
// Weights need not sum to 1; the instantiator normalizes them at selection
// time. Declaration order breaks ties, so actors are an ordered list rather
// than a map.
type ActorWeight struct {
	Actor  TrafficActor `json:"actor"`
	Weight float64      `json:"weight"`
}

// RouteSampler draws a structurally valid begin/end edge pair from the
// network. It is implemented by the traffic instantiator.
type RouteSampler interface {
	SampleEdgePair() (begin, end string, err error)
}

// FlowRoute is the route variant of a flow: either a fixed edge pair or a
// request to sample one per instantiation.
type FlowRoute interface {
	// EdgePair yields the begin/end edges for one instantiation of the flow.
	EdgePair(s RouteSampler) (begin, end string, err error)
}

// FixedRoute is a declared begin/end edge pair.
type FixedRoute struct {
	BeginEdge string `json:"begin"`
	EndEdge   string `json:"end"`
}

// EdgePair implements FlowRoute.
func (r FixedRoute) EdgePair(RouteSampler) (string, string, error) {
	if r.BeginEdge == "" || r.EndEdge == "" {
		return "", "", fmt.Errorf("fixed route has empty edge reference")
	}
	return r.BeginEdge, r.EndEdge, nil
}

// RandomRoute asks for endpoints sampled from the network at instantiation
// time, reproducible under the scenario seed.
type RandomRoute struct{}

// EdgePair implements FlowRoute.
func (RandomRoute) EdgePair(s RouteSampler) (string, string, error) {
	return s.SampleEdgePair()
}

// Flow declares repeated vehicle spawns along a route at a given rate over
// the [Begin, End) window, in seconds.
type Flow struct {
	Route FlowRoute

	// Rate is in vehicles per hour.
	Rate float64

	Begin float64
	End   float64

	// RandomlySpaced draws exponentially jittered inter-arrival gaps instead
	// of a fixed interval.
	RandomlySpaced bool

	Actors []ActorWeight
}

// DefaultFlowEnd is the spawn horizon used when a flow leaves End unset.
const DefaultFlowEnd = 3600.0

// Validate checks structural well-formedness.
func (f Flow) Validate() error {
	if f.Route == nil {
		return fmt.Errorf("flow has no route")
	}
	if f.Rate <= 0 {
		return fmt.Errorf("flow rate %f must be positive", f.Rate)
	}
	if f.Begin < 0 {
		return fmt.Errorf("flow begin %f is negative", f.Begin)
	}
	if f.End != 0 && f.End <= f.Begin {
		return fmt.Errorf("flow window [%f, %f) is empty", f.Begin, f.End)
	}
	if len(f.Actors) == 0 {
		return fmt.Errorf("flow has no actors to spawn")
	}
	for _, aw := range f.Actors {
		if aw.Actor.Name == "" {
			return fmt.Errorf("flow actor has empty name")
		}
		if aw.Weight <= 0 {
			return fmt.Errorf("flow actor %q has non-positive weight %f", aw.Actor.Name, aw.Weight)
		}
	}
	return nil
}

// Window returns the effective spawn window, applying the default horizon.
func (f Flow) Window() (begin, end float64) {
	begin, end = f.Begin, f.End
	if end == 0 {
		end = DefaultFlowEnd
	}
	return begin, end
}

// flowJSON is the wire form of Flow. The route is tagged: {"random": true}
// or {"begin": ..., "end": ...}.
type flowJSON struct {
	Route          json.RawMessage `json:"route"`
	Rate           float64         `json:"rate"`
	Begin          float64         `json:"begin,omitempty"`
	End            float64         `json:"end,omitempty"`
	RandomlySpaced bool            `json:"randomlySpaced,omitempty"`
	Actors         []ActorWeight   `json:"actors"`
}

type flowRouteJSON struct {
	Random bool   `json:"random,omitempty"`
	Begin  string `json:"begin,omitempty"`
	End    string `json:"end,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (f Flow) MarshalJSON() ([]byte, error) {
	var route any
	switch r := f.Route.(type) {
	case RandomRoute:
		route = flowRouteJSON{Random: true}
	case FixedRoute:
		route = flowRouteJSON{Begin: r.BeginEdge, End: r.EndEdge}
	default:
		return nil, fmt.Errorf("unknown flow route variant %T", f.Route)
	}
	raw, err := json.Marshal(route)
	if err != nil {
		return nil, err
	}
	return json.Marshal(flowJSON{
		Route:          raw,
		Rate:           f.Rate,
		Begin:          f.Begin,
		End:            f.End,
		RandomlySpaced: f.RandomlySpaced,
		Actors:         f.Actors,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flow) UnmarshalJSON(data []byte) error {
	var w flowJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var route flowRouteJSON
	if len(w.Route) > 0 {
		if err := json.Unmarshal(w.Route, &route); err != nil {
			return fmt.Errorf("flow route: %w", err)
		}
	}
	switch {
	case route.Random:
		f.Route = RandomRoute{}
	case route.Begin != "" || route.End != "":
		f.Route = FixedRoute{BeginEdge: route.Begin, EndEdge: route.End}
	default:
		return fmt.Errorf("flow route must be random or a begin/end edge pair")
	}
	f.Rate = w.Rate
	f.Begin = w.Begin
	f.End = w.End
	f.RandomlySpaced = w.RandomlySpaced
	f.Actors = w.Actors
	return nil
}

// Traffic is one named background-traffic variant: a set of flows.
type Traffic struct {
	Flows []Flow `json:"flows"`
}

// Validate checks all flows.
func (t Traffic) Validate() error {
	for i, fl := range t.Flows {
		if err := fl.Validate(); err != nil {
			return fmt.Errorf("flow %d: %w", i, err)
		}
	}
	return nil
}
