package modelspec

// Validate performs the structural checks shared by every front-end: the
// model must carry a name and at least one block, no block or component may
// be empty, every layer needs a type, and a declared input shape must be
// positive.
func (m *Model) Validate() error {
	if m.Name == "" {
		return Schemaf(m.Pos, "model name is empty")
	}
	if len(m.Blocks) == 0 {
		return Schemaf(m.Pos, "model %q declares no blocks", m.Name)
	}
	for bi, b := range m.Blocks {
		if len(b.Components) == 0 {
			return Schemaf(m.Pos, "block %d is empty", bi+1)
		}
		for ci, c := range b.Components {
			if len(c.Layers) == 0 {
				return Schemaf(m.Pos, "block %d, component %d is empty", bi+1, ci+1)
			}
			for li, l := range c.Layers {
				if l.Type == "" {
					return Schemaf(l.Pos, "block %d, component %d, layer %d has an empty type", bi+1, ci+1, li+1)
				}
			}
		}
	}
	if err := m.InputShape.Validate(); err != nil {
		return Schemaf(m.Pos, "input_shape: %v", err)
	}
	return nil
}
