package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
	"unicode/utf8"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gopkg.in/yaml.v3"
)

//go:embed default_network.yaml
var defaultPreset []byte

// NodeID is an intersection id in a preset. It is written either as a number or as a
// single character, which stands for its code point ("a" is 97).
type NodeID domain.IntersectionID

func ParseNodeID(s string) (NodeID, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseUint(s, 10, 32); err == nil {
		return NodeID(v), nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return NodeID(r), nil
	}
	return 0, fmt.Errorf("parse node id %q: want a number or a single character", s)
}

func (n *NodeID) UnmarshalYAML(node *yaml.Node) error {
	id, err := ParseNodeID(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*n = id
	return nil
}

// RoadRef is a road written as "<a>-<b>" with NodeID endpoints.
type RoadRef domain.RoadID

func ParseRoadRef(s string) (RoadRef, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return RoadRef{}, fmt.Errorf("parse road %q: expected <a>-<b>", s)
	}
	na, err := ParseNodeID(a)
	if err != nil {
		return RoadRef{}, fmt.Errorf("parse road %q: %w", s, err)
	}
	nb, err := ParseNodeID(b)
	if err != nil {
		return RoadRef{}, fmt.Errorf("parse road %q: %w", s, err)
	}
	return RoadRef{A: domain.IntersectionID(na), B: domain.IntersectionID(nb)}, nil
}

func (r *RoadRef) UnmarshalYAML(node *yaml.Node) error {
	ref, err := ParseRoadRef(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*r = ref
	return nil
}

type IntersectionSpec struct {
	ID          NodeID   `yaml:"id"`
	X           float64  `yaml:"x"`
	Y           float64  `yaml:"y"`
	SpawnWeight *float64 `yaml:"spawn_weight"`
}

type RoadSpec struct {
	A      NodeID  `yaml:"a"`
	B      NodeID  `yaml:"b"`
	Length float64 `yaml:"length"`
}

type SignalSpec struct {
	Bank  int `yaml:"bank"`
	Index int `yaml:"index"`
}

type RouteSpec struct {
	To      NodeID            `yaml:"to"`
	Signals map[string]string `yaml:"signals"`
}

type DecisionPointSpec struct {
	Road   RoadRef     `yaml:"road"`
	At     NodeID      `yaml:"at"`
	Routes []RouteSpec `yaml:"routes"`
}

// Preset is a network description: topology, signal table and decision points.
type Preset struct {
	Name           string                `yaml:"name"`
	Intersections  []IntersectionSpec    `yaml:"intersections"`
	Roads          []RoadSpec            `yaml:"roads"`
	Signals        map[string]SignalSpec `yaml:"signals"`
	DecisionPoints []DecisionPointSpec   `yaml:"decision_points"`
}

// LoadPreset reads a preset file, or the bundled preset when path is empty.
func LoadPreset(path string) (*Preset, error) {
	data := defaultPreset
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load preset: read %q: %w", path, err)
		}
		data = b
	}

	p, err := ParsePreset(data)
	if err != nil {
		return nil, fmt.Errorf("load preset: %w", err)
	}
	return p, nil
}

// ParsePreset decodes and validates a preset. A network split into several
// components is accepted with a warning.
func ParsePreset(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse preset: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parse preset %q: %w", p.Name, err)
	}

	if comps := p.Components(); len(comps) > 1 {
		log.Printf("op=preset.validate preset=%s warn=network has %d disconnected components", p.Name, len(comps))
	}
	return &p, nil
}

func (p *Preset) Validate() error {
	if len(p.Intersections) == 0 {
		return errors.New("no intersections")
	}

	nodes := make(map[NodeID]struct{}, len(p.Intersections))
	for _, in := range p.Intersections {
		if _, dup := nodes[in.ID]; dup {
			return fmt.Errorf("duplicate intersection %d", in.ID)
		}
		if in.SpawnWeight != nil && *in.SpawnWeight < 0 {
			return fmt.Errorf("intersection %d: negative spawn weight", in.ID)
		}
		nodes[in.ID] = struct{}{}
	}

	roads := make(map[RoadRef]struct{}, len(p.Roads))
	for _, r := range p.Roads {
		ref := RoadRef{A: domain.IntersectionID(r.A), B: domain.IntersectionID(r.B)}
		if _, ok := nodes[r.A]; !ok {
			return fmt.Errorf("road %d-%d: unknown intersection %d", r.A, r.B, r.A)
		}
		if _, ok := nodes[r.B]; !ok {
			return fmt.Errorf("road %d-%d: unknown intersection %d", r.A, r.B, r.B)
		}
		if r.A == r.B {
			return fmt.Errorf("road %d-%d: endpoints must differ", r.A, r.B)
		}
		if _, dup := roads[ref]; dup {
			return fmt.Errorf("duplicate road %d-%d", r.A, r.B)
		}
		roads[ref] = struct{}{}
	}

	for i, dp := range p.DecisionPoints {
		if _, ok := roads[dp.Road]; !ok {
			return fmt.Errorf("decision point #%d: unknown road %d-%d", i+1, dp.Road.A, dp.Road.B)
		}
		if _, ok := nodes[dp.At]; !ok {
			return fmt.Errorf("decision point #%d: unknown intersection %d", i+1, dp.At)
		}
		for _, route := range dp.Routes {
			if _, ok := nodes[route.To]; !ok {
				return fmt.Errorf("decision point #%d: unknown destination %d", i+1, route.To)
			}
			for roadStr, signal := range route.Signals {
				ref, err := ParseRoadRef(roadStr)
				if err != nil {
					return fmt.Errorf("decision point #%d: %w", i+1, err)
				}
				if _, ok := roads[ref]; !ok {
					return fmt.Errorf("decision point #%d: unknown road %s", i+1, roadStr)
				}
				if _, ok := p.Signals[signal]; !ok {
					return fmt.Errorf("decision point #%d: unknown signal %s", i+1, signal)
				}
			}
		}
	}

	return nil
}

// Components returns the connected components of the road graph, each sorted by id.
func (p *Preset) Components() [][]domain.IntersectionID {
	g := simple.NewUndirectedGraph()
	for _, in := range p.Intersections {
		if g.Node(int64(in.ID)) == nil {
			g.AddNode(simple.Node(int64(in.ID)))
		}
	}
	for _, r := range p.Roads {
		if r.A == r.B {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(int64(r.A)), simple.Node(int64(r.B))))
	}

	var out [][]domain.IntersectionID
	for _, comp := range topo.ConnectedComponents(g) {
		ids := make([]domain.IntersectionID, 0, len(comp))
		for _, n := range comp {
			ids = append(ids, domain.IntersectionID(n.ID()))
		}
		slices.Sort(ids)
		out = append(out, ids)
	}
	slices.SortFunc(out, func(a, b []domain.IntersectionID) int { return int(a[0]) - int(b[0]) })
	return out
}

// Topology converts the preset into repository records. Intersections without a
// spawn weight get weight 1.
func (p *Preset) Topology() *ports.Topology {
	t := &ports.Topology{}
	for _, in := range p.Intersections {
		w := 1.0
		if in.SpawnWeight != nil {
			w = *in.SpawnWeight
		}
		t.Intersections = append(t.Intersections, ports.IntersectionRecord{
			ID:          domain.IntersectionID(in.ID),
			X:           in.X,
			Y:           in.Y,
			SpawnWeight: w,
		})
	}
	for _, r := range p.Roads {
		t.Roads = append(t.Roads, ports.RoadRecord{
			A:      domain.IntersectionID(r.A),
			B:      domain.IntersectionID(r.B),
			Length: r.Length,
		})
	}
	return t
}

// SignalEntries returns the signal table entries keyed by signal name.
func (p *Preset) SignalEntries() map[string]ports.SignalAddress {
	out := make(map[string]ports.SignalAddress, len(p.Signals))
	for name, s := range p.Signals {
		out[name] = ports.SignalAddress{Bank: s.Bank, Index: s.Index}
	}
	return out
}

// Decisions converts the decision points of the preset. Roads were checked by Validate.
func (p *Preset) Decisions() []domain.DecisionPoint {
	out := make([]domain.DecisionPoint, 0, len(p.DecisionPoints))
	for _, dp := range p.DecisionPoints {
		point := domain.DecisionPoint{
			Road:         domain.RoadID(dp.Road),
			Intersection: domain.IntersectionID(dp.At),
		}
		for _, route := range dp.Routes {
			signals := make(map[domain.RoadID]string, len(route.Signals))
			for roadStr, name := range route.Signals {
				ref, err := ParseRoadRef(roadStr)
				if err != nil {
					continue
				}
				signals[domain.RoadID(ref)] = name
			}
			point.Routes = append(point.Routes, domain.SignalRoute{
				Destination: domain.IntersectionID(route.To),
				Signals:     signals,
			})
		}
		out = append(out, point)
	}
	return out
}
