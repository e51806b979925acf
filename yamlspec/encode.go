package yamlspec

import (
	"fmt"
	"strings"

	"github.com/geoffroypeeters/modelfactory/modelspec"
)

// Encode renders a model in the canonical document layout: two-space
// indentation, flow-style layer pairs, parameters in declaration order
// with their original literal spellings. Parsing the result yields a
// model equal to the input, and a document already in canonical form
// encodes back byte for byte, comments aside.
func Encode(m *modelspec.Model) []byte {
	var b strings.Builder
	b.WriteString("model:\n")
	fmt.Fprintf(&b, "  name: %s\n", m.Name)
	if m.InputShape.Known() {
		fmt.Fprintf(&b, "  input_shape: %s\n", modelspec.IntsVal(m.InputShape...))
	}
	b.WriteString("  sequential_l:\n")
	for _, blk := range m.Blocks {
		b.WriteString("    - component_l:\n")
		for _, comp := range blk.Components {
			if len(comp.Layers) == 1 {
				fmt.Fprintf(&b, "        - %s\n", layerPair(comp.Layers[0]))
				continue
			}
			for i, l := range comp.Layers {
				if i == 0 {
					fmt.Fprintf(&b, "        - - %s\n", layerPair(l))
				} else {
					fmt.Fprintf(&b, "          - %s\n", layerPair(l))
				}
			}
		}
	}
	return []byte(b.String())
}

// layerPair renders one [type, params] pair in flow style.
func layerPair(l *modelspec.LayerDecl) string {
	return fmt.Sprintf("[%s, %s]", l.Type, paramsString(l.Params))
}

func paramsString(p modelspec.Params) string {
	if p.IsScalar() {
		return p.Scalar.String()
	}
	if len(p.Fields) == 0 {
		return "{}"
	}
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
