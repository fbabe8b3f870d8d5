package main

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	rderrors "github.com/vango-dev/realdom/internal/errors"
	"github.com/vango-dev/realdom/pkg/vdom"
)

//go:embed scenes/demo.yaml
var demoScene []byte

// Scene is a node tree to mount plus the patch steps to apply to it.
type Scene struct {
	Root  SceneNode   `json:"root" yaml:"root"`
	Steps []SceneStep `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// SceneNode is an element (Tag set) or a text node (Text set).
type SceneNode struct {
	HID      string         `json:"hid,omitempty" yaml:"hid,omitempty"`
	Tag      string         `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text     *string        `json:"text,omitempty" yaml:"text,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty" yaml:"attrs,omitempty"`
	On       []string       `json:"on,omitempty" yaml:"on,omitempty"`
	Children []SceneNode    `json:"children,omitempty" yaml:"children,omitempty"`
}

// SceneStep is a batch of patches applied before one settle.
type SceneStep struct {
	Name       string       `json:"name" yaml:"name"`
	PatchSpecs []ScenePatch `json:"patches" yaml:"patches"`
}

// ScenePatch mirrors vdom.Patch with a named op.
type ScenePatch struct {
	Op     string     `json:"op" yaml:"op"`
	HID    string     `json:"hid" yaml:"hid"`
	Key    string     `json:"key,omitempty" yaml:"key,omitempty"`
	Value  string     `json:"value,omitempty" yaml:"value,omitempty"`
	Index  int        `json:"index,omitempty" yaml:"index,omitempty"`
	Parent string     `json:"parent,omitempty" yaml:"parent,omitempty"`
	Node   *SceneNode `json:"node,omitempty" yaml:"node,omitempty"`
}

// loadScene reads a scene file, or the built-in demo scene when path is
// empty.
func loadScene(path string) (*Scene, error) {
	data, name := demoScene, "demo.yaml"
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, rderrors.New("E140").WithSubjects(path).Wrap(err)
		}
		name = filepath.Base(path)
	}
	return parseScene(data, name)
}

func parseScene(data []byte, name string) (*Scene, error) {
	var s Scene
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &s)
	default:
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, rderrors.New("E140").WithSubjects(name).
			WithDetailf("Failed to parse %s: %v", name, err)
	}
	if err := s.Root.validate("root"); err != nil {
		return nil, err.WithSubjects(name)
	}
	for i, step := range s.Steps {
		for j, p := range step.PatchSpecs {
			if _, ok := vdom.ParsePatchOp(p.Op); !ok {
				return nil, rderrors.New("E140").WithSubjects(name).
					WithDetailf("steps[%d].patches[%d]: unknown op %q", i, j, p.Op)
			}
			if p.Node != nil {
				if err := p.Node.validate("node"); err != nil {
					return nil, err.WithSubjects(name)
				}
			}
		}
	}
	return &s, nil
}

func (n *SceneNode) validate(path string) *rderrors.Error {
	switch {
	case n.Tag != "" && n.Text != nil:
		return rderrors.New("E140").WithDetailf("%s: a node has either a tag or text, not both", path)
	case n.Tag == "" && n.Text == nil:
		return rderrors.New("E140").WithDetailf("%s: a node needs a tag or text", path)
	case n.Text != nil && (len(n.Children) > 0 || len(n.Attrs) > 0 || len(n.On) > 0):
		return rderrors.New("E140").WithDetailf("%s: text nodes have no attributes, listeners or children", path)
	}
	for i := range n.Children {
		if err := n.Children[i].validate(path + "." + n.Tag); err != nil {
			return err
		}
	}
	return nil
}

// VNode converts n into a virtual node.
func (n *SceneNode) VNode() *vdom.VNode {
	if n.Text != nil {
		v := vdom.Text(*n.Text)
		v.HID = n.HID
		return v
	}
	v := &vdom.VNode{
		Kind:  vdom.KindElement,
		Tag:   n.Tag,
		Props: make(vdom.Props, len(n.Attrs)+len(n.On)),
		HID:   n.HID,
	}
	for k, val := range n.Attrs {
		v.Props[k] = val
	}
	for _, e := range n.On {
		v.Props["on"+e] = nil
	}
	for i := range n.Children {
		v.Children = append(v.Children, n.Children[i].VNode())
	}
	return v
}

// Patches converts the step into vdom patches.
func (s SceneStep) Patches() []vdom.Patch {
	out := make([]vdom.Patch, 0, len(s.PatchSpecs))
	for _, p := range s.PatchSpecs {
		op, _ := vdom.ParsePatchOp(p.Op)
		vp := vdom.Patch{
			Op:       op,
			HID:      p.HID,
			Key:      p.Key,
			Value:    p.Value,
			Index:    p.Index,
			ParentID: p.Parent,
		}
		if p.Node != nil {
			vp.Node = p.Node.VNode()
		}
		out = append(out, vp)
	}
	return out
}
