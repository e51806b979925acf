// Package yamlspec loads model documents written in YAML, the primary
// front-end format. Parsing works on the yaml.v3 node tree rather than
// through struct decoding, so source positions, parameter order, and the
// exact literal spellings survive into the model.
package yamlspec

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/geoffroypeeters/modelfactory/internal/ctxlog"
	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Loader reads YAML model documents into the format-agnostic model.
type Loader struct{}

// NewLoader creates a YAML loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads and parses one YAML model document.
func (l *Loader) Load(ctx context.Context, path string) (*modelspec.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading YAML model document.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model document: %w", err)
	}
	return Parse(data, path)
}

// Parse parses a YAML model document. The filename only labels the
// positions carried in the result and its errors.
func Parse(data []byte, filename string) (*modelspec.Model, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &modelspec.Error{Kind: modelspec.ErrSchema, Pos: modelspec.Pos{File: filename}, Msg: err.Error()}
	}

	p := &parser{file: filename}
	model, err := p.model(&doc)
	if err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return model, nil
}

type parser struct {
	file string
}

func (p *parser) pos(n *yaml.Node) modelspec.Pos {
	return modelspec.Pos{File: p.file, Line: n.Line, Column: n.Column}
}

// resolve follows alias nodes to their anchor.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// pair is one key/value entry of a mapping node, in document order.
type pair struct {
	key *yaml.Node
	val *yaml.Node
}

func (p *parser) mappingPairs(n *yaml.Node, where string) ([]pair, error) {
	if n.Kind != yaml.MappingNode {
		return nil, modelspec.Schemaf(p.pos(n), "%s must be a mapping", where)
	}
	pairs := make([]pair, 0, len(n.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i < len(n.Content); i += 2 {
		key := resolve(n.Content[i])
		if key.ShortTag() != "!!str" {
			return nil, modelspec.Schemaf(p.pos(key), "%s keys must be strings", where)
		}
		if seen[key.Value] {
			return nil, modelspec.Schemaf(p.pos(key), "duplicate key %q in %s", key.Value, where)
		}
		seen[key.Value] = true
		pairs = append(pairs, pair{key: key, val: resolve(n.Content[i+1])})
	}
	return pairs, nil
}

func (p *parser) model(doc *yaml.Node) (*modelspec.Model, error) {
	root := resolve(doc)
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, modelspec.Schemaf(modelspec.Pos{File: p.file}, "empty document")
		}
		root = resolve(root.Content[0])
	}
	if root.Kind == 0 {
		return nil, modelspec.Schemaf(modelspec.Pos{File: p.file}, "empty document")
	}

	top, err := p.mappingPairs(root, "the document")
	if err != nil {
		return nil, err
	}
	var modelNode *yaml.Node
	for _, kv := range top {
		switch kv.key.Value {
		case "model":
			modelNode = kv.val
		default:
			return nil, modelspec.Schemaf(p.pos(kv.key), "unknown top-level key %q", kv.key.Value)
		}
	}
	if modelNode == nil {
		return nil, modelspec.Schemaf(p.pos(root), `the document has no "model" mapping`)
	}

	m := &modelspec.Model{Pos: p.pos(modelNode)}
	fields, err := p.mappingPairs(modelNode, "model")
	if err != nil {
		return nil, err
	}
	var seq *yaml.Node
	for _, kv := range fields {
		switch kv.key.Value {
		case "name":
			if kv.val.ShortTag() != "!!str" {
				return nil, modelspec.Schemaf(p.pos(kv.val), "name must be a string")
			}
			m.Name = kv.val.Value
		case "input_shape":
			shape, err := p.intSeq(kv.val, "input_shape")
			if err != nil {
				return nil, err
			}
			m.InputShape = shape
		case "sequential_l":
			seq = kv.val
		default:
			return nil, modelspec.Schemaf(p.pos(kv.key), "unknown key %q in model", kv.key.Value)
		}
	}
	if seq == nil {
		return nil, modelspec.Schemaf(p.pos(modelNode), `model %q has no "sequential_l" list`, m.Name)
	}
	if seq.Kind != yaml.SequenceNode {
		return nil, modelspec.Schemaf(p.pos(seq), "sequential_l must be a list of blocks")
	}
	for _, bn := range seq.Content {
		b, err := p.block(resolve(bn))
		if err != nil {
			return nil, err
		}
		m.Blocks = append(m.Blocks, b)
	}
	return m, nil
}

func (p *parser) block(n *yaml.Node) (*modelspec.Block, error) {
	fields, err := p.mappingPairs(n, "a block")
	if err != nil {
		return nil, err
	}
	var compSeq *yaml.Node
	for _, kv := range fields {
		switch kv.key.Value {
		case "component_l":
			compSeq = kv.val
		default:
			return nil, modelspec.Schemaf(p.pos(kv.key), "unknown key %q in block", kv.key.Value)
		}
	}
	if compSeq == nil {
		return nil, modelspec.Schemaf(p.pos(n), `a block must carry a "component_l" list`)
	}
	if compSeq.Kind != yaml.SequenceNode {
		return nil, modelspec.Schemaf(p.pos(compSeq), "component_l must be a list of components")
	}

	b := &modelspec.Block{}
	for _, cn := range compSeq.Content {
		c, err := p.component(resolve(cn))
		if err != nil {
			return nil, err
		}
		b.Components = append(b.Components, c)
	}
	return b, nil
}

// component parses one component: either a single [type, params] pair, the
// common shorthand, or a list of such pairs.
func (p *parser) component(n *yaml.Node) (*modelspec.Component, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, modelspec.Schemaf(p.pos(n), "a component must be a layer pair or a list of layer pairs")
	}
	if isLayerPair(n) {
		l, err := p.layer(n)
		if err != nil {
			return nil, err
		}
		return &modelspec.Component{Layers: []*modelspec.LayerDecl{l}}, nil
	}

	c := &modelspec.Component{}
	for _, ln := range n.Content {
		l, err := p.layer(resolve(ln))
		if err != nil {
			return nil, err
		}
		c.Layers = append(c.Layers, l)
	}
	return c, nil
}

// isLayerPair distinguishes the singleton shorthand [Type, params] from a
// list of layer pairs: a two-element sequence opening with a string can
// only be a layer pair, since layer pairs themselves open with a sequence.
func isLayerPair(n *yaml.Node) bool {
	if len(n.Content) != 2 {
		return false
	}
	return resolve(n.Content[0]).ShortTag() == "!!str"
}

func (p *parser) layer(n *yaml.Node) (*modelspec.LayerDecl, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		got := "a " + kindName(n)
		if n.Kind == yaml.SequenceNode {
			got = fmt.Sprintf("%d element(s)", len(n.Content))
		}
		return nil, modelspec.Schemaf(p.pos(n), "a layer declaration must be a [type, params] pair, got %s", got)
	}
	typeNode := resolve(n.Content[0])
	if typeNode.ShortTag() != "!!str" {
		return nil, modelspec.Schemaf(p.pos(typeNode), "a layer type must be a string")
	}
	params, err := p.params(resolve(n.Content[1]))
	if err != nil {
		return nil, err
	}
	return &modelspec.LayerDecl{Type: typeNode.Value, Params: params, Pos: p.pos(typeNode)}, nil
}

func (p *parser) params(n *yaml.Node) (modelspec.Params, error) {
	switch n.Kind {
	case yaml.MappingNode:
		pairs, err := p.mappingPairs(n, "layer parameters")
		if err != nil {
			return modelspec.Params{}, err
		}
		out := modelspec.Params{}
		for _, kv := range pairs {
			v, err := p.value(kv.val, kv.key.Value)
			if err != nil {
				return modelspec.Params{}, err
			}
			out.Fields = append(out.Fields, modelspec.Field{Name: kv.key.Value, Value: v})
		}
		return out, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return modelspec.Params{}, nil
		}
		v, err := p.scalarValue(n)
		if err != nil {
			return modelspec.Params{}, err
		}
		return modelspec.Params{Scalar: &v}, nil
	default:
		return modelspec.Params{}, modelspec.Schemaf(p.pos(n), "layer parameters must be a mapping or a single scalar")
	}
}

func (p *parser) value(n *yaml.Node, name string) (modelspec.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		v, err := p.scalarValue(n)
		if err != nil {
			return modelspec.Value{}, err
		}
		return v, nil
	case yaml.SequenceNode:
		ints := make([]int, 0, len(n.Content))
		for _, en := range n.Content {
			e := resolve(en)
			if e.ShortTag() != "!!int" {
				return modelspec.Value{}, modelspec.Schemaf(p.pos(e), "parameter %q: list elements must be integers", name)
			}
			var i int
			if err := e.Decode(&i); err != nil {
				return modelspec.Value{}, modelspec.Schemaf(p.pos(e), "parameter %q: %v", name, err)
			}
			ints = append(ints, i)
		}
		return modelspec.IntsVal(ints...), nil
	default:
		return modelspec.Value{}, modelspec.Schemaf(p.pos(n), "parameter %q must be a scalar or a list of integers", name)
	}
}

func (p *parser) scalarValue(n *yaml.Node) (modelspec.Value, error) {
	switch n.ShortTag() {
	case "!!int":
		var i int
		if err := n.Decode(&i); err != nil {
			return modelspec.Value{}, modelspec.Schemaf(p.pos(n), "bad integer literal %q", n.Value)
		}
		v := modelspec.IntVal(i)
		v.Raw = n.Value
		return v, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return modelspec.Value{}, modelspec.Schemaf(p.pos(n), "bad float literal %q", n.Value)
		}
		v := modelspec.FloatVal(f)
		v.Raw = n.Value
		return v, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return modelspec.Value{}, modelspec.Schemaf(p.pos(n), "bad boolean literal %q", n.Value)
		}
		return modelspec.BoolVal(b), nil
	case "!!str":
		return modelspec.StrVal(n.Value), nil
	case "!!null":
		return modelspec.Value{}, modelspec.Schemaf(p.pos(n), "null is not a valid parameter value")
	default:
		return modelspec.Value{}, modelspec.Schemaf(p.pos(n), "unsupported value tag %s", n.ShortTag())
	}
}

func (p *parser) intSeq(n *yaml.Node, what string) (shapes.Shape, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, modelspec.Schemaf(p.pos(n), "%s must be a list of integers", what)
	}
	out := make(shapes.Shape, 0, len(n.Content))
	for _, en := range n.Content {
		e := resolve(en)
		if e.ShortTag() != "!!int" {
			return nil, modelspec.Schemaf(p.pos(e), "%s elements must be integers", what)
		}
		var i int
		if err := e.Decode(&i); err != nil {
			return nil, modelspec.Schemaf(p.pos(e), "%s: %v", what, err)
		}
		out = append(out, i)
	}
	return out, nil
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "list"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "node"
	}
}
