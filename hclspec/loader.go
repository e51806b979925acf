// Package hclspec loads model documents written in HCL. It is an
// alternative front-end producing the same format-agnostic model as
// yamlspec; a YAML document and an HCL document declaring the same
// architecture load into equal models.
package hclspec

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/geoffroypeeters/modelfactory/internal/ctxlog"
	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Loader reads HCL model documents into the format-agnostic model.
type Loader struct{}

// NewLoader creates an HCL loader.
func NewLoader() *Loader { return &Loader{} }

// Load reads and parses one HCL model document.
func (l *Loader) Load(ctx context.Context, path string) (*modelspec.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading HCL model document.", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model document: %w", err)
	}
	return Parse(data, path)
}

// Parse parses an HCL model document. The filename only labels the
// positions carried in the result and its errors.
func Parse(src []byte, filename string) (*modelspec.Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, schemaDiag(diags)
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, modelspec.Schemaf(modelspec.Pos{File: filename}, "unsupported HCL body")
	}

	p := &parser{file: filename, src: src}
	model, err := p.model(body)
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
	src  []byte
}

func rangePos(r hcl.Range) modelspec.Pos {
	return modelspec.Pos{File: r.Filename, Line: r.Start.Line, Column: r.Start.Column}
}

func schemaDiag(diags hcl.Diagnostics) error {
	d := diags[0]
	var pos modelspec.Pos
	if d.Subject != nil {
		pos = rangePos(*d.Subject)
	}
	msg := d.Summary
	if d.Detail != "" {
		msg += ": " + d.Detail
	}
	return modelspec.Schemaf(pos, "%s", msg)
}

// sortedAttrs returns a body's attributes in source order; hclsyntax hands
// them out as a map.
func sortedAttrs(attrs hclsyntax.Attributes) []*hclsyntax.Attribute {
	out := make([]*hclsyntax.Attribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SrcRange.Start.Byte < out[j].SrcRange.Start.Byte
	})
	return out
}

func (p *parser) model(body *hclsyntax.Body) (*modelspec.Model, error) {
	if len(body.Attributes) > 0 {
		attr := sortedAttrs(body.Attributes)[0]
		return nil, modelspec.Schemaf(rangePos(attr.SrcRange), "unexpected top-level attribute %q", attr.Name)
	}

	var mb *hclsyntax.Block
	for _, blk := range body.Blocks {
		if blk.Type != "model" {
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "unknown top-level block type %q", blk.Type)
		}
		if mb != nil {
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "a document holds exactly one model block")
		}
		mb = blk
	}
	if mb == nil {
		return nil, modelspec.Schemaf(modelspec.Pos{File: p.file}, "the document has no model block")
	}
	if len(mb.Labels) != 1 {
		return nil, modelspec.Schemaf(rangePos(mb.TypeRange), "a model block takes exactly one label, its name")
	}

	m := &modelspec.Model{Name: mb.Labels[0], Pos: rangePos(mb.TypeRange)}

	for _, attr := range sortedAttrs(mb.Body.Attributes) {
		switch attr.Name {
		case "input_shape":
			v, err := p.value(attr.Expr, "input_shape")
			if err != nil {
				return nil, err
			}
			if v.Kind != modelspec.IntListKind {
				return nil, modelspec.Schemaf(rangePos(attr.SrcRange), "input_shape must be a list of integers")
			}
			m.InputShape = shapes.Shape(v.Ints)
		default:
			return nil, modelspec.Schemaf(rangePos(attr.SrcRange), "unknown attribute %q in model %q", attr.Name, m.Name)
		}
	}

	for _, blk := range mb.Body.Blocks {
		if blk.Type != "block" {
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "unknown block type %q in model %q", blk.Type, m.Name)
		}
		if len(blk.Labels) != 0 {
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "a block takes no labels")
		}
		b, err := p.block(blk.Body)
		if err != nil {
			return nil, err
		}
		m.Blocks = append(m.Blocks, b)
	}
	return m, nil
}

// block parses one block body: a mix of bare layer blocks, each a
// singleton component, and component blocks grouping several layers, in
// source order.
func (p *parser) block(body *hclsyntax.Body) (*modelspec.Block, error) {
	if len(body.Attributes) > 0 {
		attr := sortedAttrs(body.Attributes)[0]
		return nil, modelspec.Schemaf(rangePos(attr.SrcRange), "unexpected attribute %q in block", attr.Name)
	}

	b := &modelspec.Block{}
	for _, blk := range body.Blocks {
		switch blk.Type {
		case "layer":
			l, err := p.layer(blk)
			if err != nil {
				return nil, err
			}
			b.Components = append(b.Components, &modelspec.Component{Layers: []*modelspec.LayerDecl{l}})
		case "component":
			if len(blk.Labels) != 0 {
				return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "a component takes no labels")
			}
			c, err := p.component(blk.Body)
			if err != nil {
				return nil, err
			}
			b.Components = append(b.Components, c)
		default:
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "unknown block type %q in block", blk.Type)
		}
	}
	return b, nil
}

func (p *parser) component(body *hclsyntax.Body) (*modelspec.Component, error) {
	if len(body.Attributes) > 0 {
		attr := sortedAttrs(body.Attributes)[0]
		return nil, modelspec.Schemaf(rangePos(attr.SrcRange), "unexpected attribute %q in component", attr.Name)
	}

	c := &modelspec.Component{}
	for _, blk := range body.Blocks {
		if blk.Type != "layer" {
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "unknown block type %q in component", blk.Type)
		}
		l, err := p.layer(blk)
		if err != nil {
			return nil, err
		}
		c.Layers = append(c.Layers, l)
	}
	return c, nil
}

// layer parses one layer block. The first label is the layer type; a
// second label is the scalar shorthand, e.g. layer "Activation" "ReLU" {}.
func (p *parser) layer(blk *hclsyntax.Block) (*modelspec.LayerDecl, error) {
	if len(blk.Labels) < 1 || len(blk.Labels) > 2 {
		return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "a layer block takes its type and an optional scalar value as labels")
	}

	decl := &modelspec.LayerDecl{Type: blk.Labels[0], Pos: rangePos(blk.LabelRanges[0])}

	if len(blk.Labels) == 2 {
		if len(blk.Body.Attributes) > 0 || len(blk.Body.Blocks) > 0 {
			return nil, modelspec.Schemaf(rangePos(blk.TypeRange), "a scalar layer takes an empty body")
		}
		v := modelspec.StrVal(blk.Labels[1])
		decl.Params = modelspec.Params{Scalar: &v}
		return decl, nil
	}

	if len(blk.Body.Blocks) > 0 {
		return nil, modelspec.Schemaf(rangePos(blk.Body.Blocks[0].TypeRange), "a layer body holds only parameters")
	}
	for _, attr := range sortedAttrs(blk.Body.Attributes) {
		v, err := p.value(attr.Expr, attr.Name)
		if err != nil {
			return nil, err
		}
		decl.Params.Fields = append(decl.Params.Fields, modelspec.Field{Name: attr.Name, Value: v})
	}
	return decl, nil
}

func (p *parser) value(expr hclsyntax.Expression, name string) (modelspec.Value, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return modelspec.Value{}, schemaDiag(diags)
	}

	pos := rangePos(expr.Range())
	if val.IsNull() {
		return modelspec.Value{}, modelspec.Schemaf(pos, "parameter %q is null", name)
	}
	ty := val.Type()
	switch {
	case ty == cty.Number:
		return p.number(val, expr.Range()), nil
	case ty == cty.String:
		return modelspec.StrVal(val.AsString()), nil
	case ty == cty.Bool:
		return modelspec.BoolVal(val.True()), nil
	case ty.IsTupleType() || ty.IsListType():
		return p.intList(val, name, pos)
	default:
		return modelspec.Value{}, modelspec.Schemaf(pos, "parameter %q has unsupported type %s", name, ty.FriendlyName())
	}
}

// number converts a cty number. HCL does not distinguish int from float
// literals, so the source spelling decides: 0.0 stays a float even though
// it is integral. Computed values fall back to their arithmetic kind.
func (p *parser) number(val cty.Value, rng hcl.Range) modelspec.Value {
	text, isLiteral := literalText(p.src, rng)
	bf := val.AsBigFloat()
	if i, acc := bf.Int64(); acc == big.Exact {
		if !isLiteral || !strings.ContainsAny(text, ".eE") {
			v := modelspec.IntVal(int(i))
			v.Raw = text
			return v
		}
	}
	f, _ := bf.Float64()
	v := modelspec.FloatVal(f)
	v.Raw = text
	return v
}

// literalText returns the source text of a range when it spells a plain
// number literal.
func literalText(src []byte, rng hcl.Range) (string, bool) {
	if rng.Start.Byte < 0 || rng.End.Byte > len(src) || rng.Start.Byte >= rng.End.Byte {
		return "", false
	}
	text := string(src[rng.Start.Byte:rng.End.Byte])
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return "", false
	}
	return text, true
}

func (p *parser) intList(val cty.Value, name string, pos modelspec.Pos) (modelspec.Value, error) {
	ints := make([]int, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		if ev.IsNull() || ev.Type() != cty.Number {
			return modelspec.Value{}, modelspec.Schemaf(pos, "parameter %q: list elements must be integers", name)
		}
		i, acc := ev.AsBigFloat().Int64()
		if acc != big.Exact {
			return modelspec.Value{}, modelspec.Schemaf(pos, "parameter %q: list elements must be integers", name)
		}
		ints = append(ints, int(i))
	}
	return modelspec.IntsVal(ints...), nil
}
