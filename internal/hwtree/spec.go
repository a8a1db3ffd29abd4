// internal/hwtree/spec.go
package hwtree

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// NodeSpec is the serialized (YAML) form of one description node.
//
// Boolean hardware properties follow the presence-only convention: setting
// the key to true declares the property, false or absent omits it.
type NodeSpec struct {
	Name         string     `yaml:"name"`
	Compatible   string     `yaml:"compatible"`
	Reg          *uint32    `yaml:"reg"`
	Status       string     `yaml:"status"`
	HostNotify   bool       `yaml:"host-notify"`
	WakeupSource bool       `yaml:"wakeup-source"`
	Children     []NodeSpec `yaml:"children"`
}

// ParseSpec decodes a YAML description tree.
func ParseSpec(data []byte) (*NodeSpec, error) {
	var spec NodeSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("hwtree: parse: %w", err)
	}
	return &spec, nil
}

// LoadSpec reads and decodes a YAML description tree from a file.
func LoadSpec(path string) (*NodeSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSpec(data)
}

// ValidateSpec checks declarative correctness of a description tree.
// It performs validation only and MUST NOT mutate the spec.
func ValidateSpec(spec *NodeSpec) error {
	return validateNode(spec, "")
}

func validateNode(s *NodeSpec, path string) error {
	if s.Name == "" {
		return fmt.Errorf("hwtree: node under %q: name required", path)
	}
	path += "/" + s.Name

	switch s.Status {
	case "", "okay", "ok", "disabled":
	default:
		return fmt.Errorf("hwtree: node %q: invalid status %q", path, s.Status)
	}

	seen := map[string]struct{}{}
	for i := range s.Children {
		c := &s.Children[i]
		if _, dup := seen[c.Name]; dup && c.Name != "" {
			return fmt.Errorf("hwtree: node %q: duplicate child name %q", path, c.Name)
		}
		seen[c.Name] = struct{}{}

		if err := validateNode(c, path); err != nil {
			return err
		}
	}
	return nil
}

// Props converts the spec's declared properties into the node property map.
func (s *NodeSpec) Props() map[string]any {
	props := map[string]any{}
	if s.Compatible != "" {
		props["compatible"] = s.Compatible
	}
	if s.Reg != nil {
		props["reg"] = *s.Reg
	}
	if s.Status != "" {
		props["status"] = s.Status
	}
	if s.HostNotify {
		props["host-notify"] = true
	}
	if s.WakeupSource {
		props["wakeup-source"] = true
	}
	return props
}

// Build constructs a live tree from a validated spec. Build does not fire
// change events; the result is the tree's initial state.
func Build(spec *NodeSpec) *Tree {
	t := NewTree(spec.Name, spec.Props())
	buildChildren(t, t.root, spec)
	return t
}

func buildChildren(t *Tree, parent *Node, spec *NodeSpec) {
	for i := range spec.Children {
		cs := &spec.Children[i]
		child := t.newNode(cs.Name, cs.Props())

		child.mu.Lock()
		child.parent = parent
		child.mu.Unlock()

		parent.mu.Lock()
		parent.children = append(parent.children, child)
		parent.mu.Unlock()

		buildChildren(t, child, cs)
	}
}
