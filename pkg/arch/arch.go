// Package arch maintains the architecture graph: named nodes and labeled
// edges between them, persisted to a flat JSON file.
package arch

import (
	"strings"

	"github.com/lexlapax/atlas/pkg/errors"
	"github.com/lexlapax/atlas/pkg/fsjson"
	"github.com/lexlapax/atlas/pkg/log"
)

// NodeType categorizes an architecture node.
type NodeType string

const (
	NodeTypeService NodeType = "service"
	NodeTypeAPI     NodeType = "api"
	NodeTypeModel   NodeType = "model"
	NodeTypeOther   NodeType = "other"
)

// ParseNodeType converts a string to a NodeType. Unknown values map to
// NodeTypeOther so free-form CLI input never fails.
func ParseNodeType(s string) NodeType {
	switch NodeType(strings.ToLower(strings.TrimSpace(s))) {
	case NodeTypeService:
		return NodeTypeService
	case NodeTypeAPI:
		return NodeTypeAPI
	case NodeTypeModel:
		return NodeTypeModel
	default:
		return NodeTypeOther
	}
}

// Node is a component in the architecture graph. Name is the unique key.
type Node struct {
	Name        string   `json:"name"`
	Type        NodeType `json:"type"`
	Description string   `json:"description"`
}

// Edge is a labeled relationship between two nodes. Both endpoints must
// name existing nodes.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is a point-in-time snapshot of the architecture.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// HasNode reports whether a node with the given name exists.
func (g *Graph) HasNode(name string) bool {
	for _, node := range g.Nodes {
		if node.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() Graph {
	clone := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(clone.Nodes, g.Nodes)
	copy(clone.Edges, g.Edges)
	return clone
}

// Describe renders the graph as human-readable lines.
func (g *Graph) Describe() string {
	lines := []string{"Architecture Nodes:"}
	for _, node := range g.Nodes {
		lines = append(lines, "- "+node.Name+" ("+string(node.Type)+"): "+node.Description)
	}
	if len(g.Nodes) == 0 {
		lines = append(lines, "- (no nodes registered yet)")
	}
	lines = append(lines, "Architecture Edges:")
	for _, edge := range g.Edges {
		lines = append(lines, "- "+edge.Source+" -> "+edge.Target+" ("+edge.Label+")")
	}
	if len(g.Edges) == 0 {
		lines = append(lines, "- (no edges registered yet)")
	}
	return strings.Join(lines, "\n")
}

// validate checks referential integrity: unique node names and edges whose
// endpoints both exist.
func (g *Graph) validate() error {
	seen := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if seen[node.Name] {
			return errors.Wrap(errors.ErrIntegrity, "duplicate node name %q", node.Name)
		}
		seen[node.Name] = true
	}
	for _, edge := range g.Edges {
		if !seen[edge.Source] || !seen[edge.Target] {
			return errors.Wrap(errors.ErrIntegrity,
				"edge %q -> %q references an unknown node", edge.Source, edge.Target)
		}
	}
	return nil
}

// Store persists an architecture graph to a JSON file. Every mutation is
// written through immediately.
type Store struct {
	path  string
	graph Graph
}

// NewStore loads (or initializes) the graph at path. A malformed file or a
// graph with dangling edges fails fast.
func NewStore(path string) (*Store, error) {
	store := &Store{path: path}

	found, err := fsjson.Read(path, &store.graph)
	if err != nil {
		return nil, err
	}
	if found {
		if err := store.graph.validate(); err != nil {
			return nil, errors.Wrap(err, "architecture file %s", path)
		}
		log.Debug("Loaded architecture graph", "path", path,
			"nodes", len(store.graph.Nodes), "edges", len(store.graph.Edges))
	}

	return store, nil
}

// AddNode adds a node to the graph and persists it. Node names are unique.
func (s *Store) AddNode(name string, nodeType NodeType, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Wrap(errors.ErrInvalidInput, "node name cannot be empty")
	}
	if s.graph.HasNode(name) {
		return errors.Wrap(errors.ErrInvalidInput, "node %q already exists", name)
	}

	s.graph.Nodes = append(s.graph.Nodes, Node{
		Name:        name,
		Type:        nodeType,
		Description: strings.TrimSpace(description),
	})

	if err := s.persist(); err != nil {
		s.graph.Nodes = s.graph.Nodes[:len(s.graph.Nodes)-1]
		return err
	}
	return nil
}

// AddEdge adds a labeled edge and persists it. Both endpoints must already
// exist as nodes; dangling edges are rejected rather than silently dropped.
func (s *Store) AddEdge(source, target, label string) error {
	source = strings.TrimSpace(source)
	target = strings.TrimSpace(target)
	if source == "" || target == "" {
		return errors.Wrap(errors.ErrInvalidInput, "edge endpoints cannot be empty")
	}
	if !s.graph.HasNode(source) || !s.graph.HasNode(target) {
		return errors.Wrap(errors.ErrIntegrity,
			"edge %q -> %q references an unknown node", source, target)
	}

	s.graph.Edges = append(s.graph.Edges, Edge{
		Source: source,
		Target: target,
		Label:  strings.TrimSpace(label),
	})

	if err := s.persist(); err != nil {
		s.graph.Edges = s.graph.Edges[:len(s.graph.Edges)-1]
		return err
	}
	return nil
}

// Snapshot returns a copy of the current graph.
func (s *Store) Snapshot() Graph {
	return s.graph.Clone()
}

// Describe renders the current graph.
func (s *Store) Describe() string {
	return s.graph.Describe()
}

func (s *Store) persist() error {
	return fsjson.Write(s.path, &s.graph)
}
