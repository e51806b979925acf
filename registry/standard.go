package registry

import (
	"fmt"
	"strings"

	"github.com/geoffroypeeters/modelfactory/modelspec"
	"github.com/geoffroypeeters/modelfactory/nn"
	"github.com/geoffroypeeters/modelfactory/shapes"
)

// Standard returns a registry with every built-in layer type registered.
// Shapes follow the (N, C, ...) layout: dimension 0 is the batch axis,
// dimension 1 the channel axis, except where a layer documents otherwise.
func Standard() *Registry {
	r := New()
	registerNorm(r)
	registerConv(r)
	registerPool(r)
	registerPointwise(r)
	registerReshape(r)
	registerDense(r)
	registerReduce(r)
	return r
}

// Accepted kind sets, shared across definitions.
var (
	intKind    = []modelspec.ValueKind{modelspec.IntKind}
	intOrList  = []modelspec.ValueKind{modelspec.IntKind, modelspec.IntListKind}
	floatOrInt = []modelspec.ValueKind{modelspec.FloatKind, modelspec.IntKind}
	boolKind   = []modelspec.ValueKind{modelspec.BoolKind}
	strKind    = []modelspec.ValueKind{modelspec.StringKind}
	listKind   = []modelspec.ValueKind{modelspec.IntListKind}
)

// channelDim infers from the channel axis of an (N, C, ...) input.
func channelDim(in shapes.Shape) (modelspec.Value, error) {
	if in.Rank() < 2 {
		return modelspec.Value{}, shapeErrf("cannot infer a channel count from %s", in)
	}
	return modelspec.IntVal(in[1]), nil
}

// lastDim infers from the trailing feature axis.
func lastDim(in shapes.Shape) (modelspec.Value, error) {
	if in.Rank() < 2 {
		return modelspec.Value{}, shapeErrf("cannot infer a feature count from %s", in)
	}
	return modelspec.IntVal(in[in.Rank()-1]), nil
}

// trailingDims infers every axis after the batch dimension.
func trailingDims(in shapes.Shape) (modelspec.Value, error) {
	if in.Rank() < 2 {
		return modelspec.Value{}, shapeErrf("cannot infer trailing dimensions from %s", in)
	}
	return modelspec.IntsVal(in[1:]...), nil
}

// positive requires an int or every list element to be at least 1.
func positive(name string) func(modelspec.Value) error {
	return func(v modelspec.Value) error {
		switch v.Kind {
		case modelspec.IntKind:
			if v.Int < 1 {
				return paramErrf("parameter %q must be positive, got %s", name, v)
			}
		case modelspec.IntListKind:
			for _, n := range v.Ints {
				if n < 1 {
					return paramErrf("parameter %q must be positive, got %s", name, v)
				}
			}
		}
		return nil
	}
}

// spatialPair requires a positive int or a positive two-element list.
func spatialPair(name string) func(modelspec.Value) error {
	check := positive(name)
	return func(v modelspec.Value) error {
		if v.Kind == modelspec.IntListKind && len(v.Ints) != 2 {
			return paramErrf("parameter %q must be an int or a two-element list, got %s", name, v)
		}
		return check(v)
	}
}

// axis requires a non-negative dimension index.
func axis(name string) func(modelspec.Value) error {
	return func(v modelspec.Value) error {
		if v.Int < 0 {
			return paramErrf("parameter %q must be a non-negative dimension index, got %s", name, v)
		}
		return nil
	}
}

func pairStr(p [2]int) string { return fmt.Sprintf("(%d, %d)", p[0], p[1]) }

func registerNorm(r *Registry) {
	r.Register(&LayerDef{
		Type:        "LayerNorm",
		Description: "layer normalization over the trailing dimensions",
		Params: []*ParamSpec{
			{Name: "normalized_shape", Kinds: intOrList, Required: true, Infer: trailingDims, Check: positive("normalized_shape")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			norm := shapes.Shape(args.Ints("normalized_shape"))
			if in.Known() {
				if norm.Rank() >= in.Rank() || !shapes.Shape(in[in.Rank()-norm.Rank():]).Equal(norm) {
					return nil, nil, shapeErrf("normalized_shape %s does not match the trailing dimensions of %s", norm, in)
				}
			}
			return &nn.LayerNorm{NormalizedShape: norm}, in.Clone(), nil
		},
	})

	r.Register(&LayerDef{
		Type:        "BatchNorm1d",
		Description: "batch normalization over the trailing feature axis",
		Params: []*ParamSpec{
			{Name: "num_features", Kinds: intKind, Required: true, Infer: lastDim, Check: positive("num_features")},
			{Name: "affine", Kinds: boolKind, Default: valPtr(modelspec.BoolVal(true))},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			nf := args.Int("num_features")
			layer := &nn.BatchNorm1d{NumFeatures: nf, Affine: args.Bool("affine")}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 2 && in.Rank() != 3 {
				return nil, nil, shapeErrf("BatchNorm1d expects a rank-2 or rank-3 input, got %s", in)
			}
			if got := in[in.Rank()-1]; got != nf {
				return nil, nil, shapeErrf("num_features is %d but the incoming shape %s has %d features", nf, in, got)
			}
			return layer, in.Clone(), nil
		},
	})

	r.Register(&LayerDef{
		Type:        "BatchNorm1dT",
		Description: "batch normalization for (N, T, C) inputs with channels last",
		Params: []*ParamSpec{
			{Name: "num_features", Kinds: intKind, Required: true, Infer: lastDim, Check: positive("num_features")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			nf := args.Int("num_features")
			layer := &nn.BatchNorm1dT{NumFeatures: nf}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 3 {
				return nil, nil, shapeErrf("BatchNorm1dT expects a rank-3 (N, T, C) input, got %s", in)
			}
			if got := in[2]; got != nf {
				return nil, nil, shapeErrf("num_features is %d but the incoming shape %s has %d channels", nf, in, got)
			}
			return layer, in.Clone(), nil
		},
	})

	r.Register(&LayerDef{
		Type:        "BatchNorm2d",
		Description: "batch normalization over the channel axis of (N, C, H, W) inputs",
		Params: []*ParamSpec{
			{Name: "num_features", Kinds: intKind, Required: true, Infer: channelDim, Check: positive("num_features")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			nf := args.Int("num_features")
			layer := &nn.BatchNorm2d{NumFeatures: nf}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 4 {
				return nil, nil, shapeErrf("BatchNorm2d expects a rank-4 (N, C, H, W) input, got %s", in)
			}
			if in[1] != nf {
				return nil, nil, shapeErrf("num_features is %d but the incoming shape %s carries %d channels", nf, in, in[1])
			}
			return layer, in.Clone(), nil
		},
	})
}

func registerConv(r *Registry) {
	r.Register(&LayerDef{
		Type:        "Conv1d",
		Description: "temporal convolution over (N, C, L) inputs",
		Params: []*ParamSpec{
			{Name: "in_channels", Kinds: intKind, Required: true, Infer: channelDim, Check: positive("in_channels")},
			{Name: "out_channels", Kinds: intKind, Required: true, Check: positive("out_channels")},
			{Name: "kernel_size", Kinds: intKind, Required: true, Check: positive("kernel_size")},
			{Name: "stride", Kinds: intKind, Required: true, Check: positive("stride")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			inC, outC := args.Int("in_channels"), args.Int("out_channels")
			k, s := args.Int("kernel_size"), args.Int("stride")
			layer := &nn.Conv1d{InChannels: inC, OutChannels: outC, KernelSize: k, Stride: s}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 3 {
				return nil, nil, shapeErrf("Conv1d expects a rank-3 (N, C, L) input, got %s", in)
			}
			if in[1] != inC {
				return nil, nil, shapeErrf("in_channels is %d but the incoming shape %s carries %d channels", inC, in, in[1])
			}
			length := shapes.ConvOut(in[2], k, s)
			if length < 1 {
				return nil, nil, shapeErrf("kernel_size %d with stride %d does not fit input length %d", k, s, in[2])
			}
			return layer, shapes.Shape{in[0], outC, length}, nil
		},
	})

	r.Register(&LayerDef{
		Type:        "Conv2d",
		Description: "2-D convolution over (N, C, H, W) inputs",
		Params: []*ParamSpec{
			{Name: "in_channels", Kinds: intKind, Required: true, Infer: channelDim, Check: positive("in_channels")},
			{Name: "out_channels", Kinds: intKind, Required: true, Check: positive("out_channels")},
			{Name: "kernel_size", Kinds: intOrList, Required: true, Check: spatialPair("kernel_size")},
			{Name: "stride", Kinds: intOrList, Required: true, Check: spatialPair("stride")},
			{Name: "padding", Kinds: strKind, Default: valPtr(modelspec.StrVal("valid")), Check: paddingMode},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			inC, outC := args.Int("in_channels"), args.Int("out_channels")
			k, s := args.Pair("kernel_size"), args.Pair("stride")
			pad := args.Str("padding")
			if pad == "same" && (s[0] != 1 || s[1] != 1) {
				return nil, nil, paramErrf("padding %q requires stride 1, got %s", pad, pairStr(s))
			}
			layer := &nn.Conv2d{InChannels: inC, OutChannels: outC, KernelSize: k, Stride: s, Padding: pad}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 4 {
				return nil, nil, shapeErrf("Conv2d expects a rank-4 (N, C, H, W) input, got %s", in)
			}
			if in[1] != inC {
				return nil, nil, shapeErrf("in_channels is %d but the incoming shape %s carries %d channels", inC, in, in[1])
			}
			if pad == "same" {
				return layer, shapes.Shape{in[0], outC, in[2], in[3]}, nil
			}
			h, w := shapes.ConvOut(in[2], k[0], s[0]), shapes.ConvOut(in[3], k[1], s[1])
			if h < 1 || w < 1 {
				return nil, nil, shapeErrf("kernel_size %s with stride %s does not fit input %s", pairStr(k), pairStr(s), in)
			}
			return layer, shapes.Shape{in[0], outC, h, w}, nil
		},
	})

	r.Register(&LayerDef{
		Type:        "ConvTranspose2d",
		Description: "2-D transposed convolution, upsampling by the stride",
		Params: []*ParamSpec{
			{Name: "in_channels", Kinds: intKind, Required: true, Infer: channelDim, Check: positive("in_channels")},
			{Name: "out_channels", Kinds: intKind, Required: true, Check: positive("out_channels")},
			{Name: "kernel_size", Kinds: intOrList, Required: true, Check: spatialPair("kernel_size")},
			{Name: "stride", Kinds: intOrList, Required: true, Check: spatialPair("stride")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			inC, outC := args.Int("in_channels"), args.Int("out_channels")
			k, s := args.Pair("kernel_size"), args.Pair("stride")
			layer := &nn.ConvTranspose2d{InChannels: inC, OutChannels: outC, KernelSize: k, Stride: s}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 4 {
				return nil, nil, shapeErrf("ConvTranspose2d expects a rank-4 (N, C, H, W) input, got %s", in)
			}
			if in[1] != inC {
				return nil, nil, shapeErrf("in_channels is %d but the incoming shape %s carries %d channels", inC, in, in[1])
			}
			return layer, shapes.Shape{in[0], outC, in[2] * s[0], in[3] * s[1]}, nil
		},
	})
}

// paddingMode accepts the two convolution padding modes.
func paddingMode(v modelspec.Value) error {
	if v.Str != "valid" && v.Str != "same" {
		return paramErrf(`parameter "padding" must be "valid" or "same", got %q`, v.Str)
	}
	return nil
}

func registerPool(r *Registry) {
	r.Register(&LayerDef{
		Type:        "MaxPool1d",
		Description: "temporal max pooling over (N, C, L) inputs",
		Params: []*ParamSpec{
			{Name: "kernel_size", Kinds: intKind, Required: true, Check: positive("kernel_size")},
			{Name: "stride", Kinds: intKind, Check: positive("stride")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			k := args.Int("kernel_size")
			// The stride follows the kernel when not declared.
			s := k
			if args.Has("stride") {
				s = args.Int("stride")
			}
			layer := &nn.MaxPool1d{KernelSize: k, Stride: s}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 3 {
				return nil, nil, shapeErrf("MaxPool1d expects a rank-3 (N, C, L) input, got %s", in)
			}
			length := shapes.ConvOut(in[2], k, s)
			if length < 1 {
				return nil, nil, shapeErrf("kernel_size %d with stride %d does not fit input length %d", k, s, in[2])
			}
			return layer, shapes.Shape{in[0], in[1], length}, nil
		},
	})

	r.Register(&LayerDef{
		Type:        "MaxPool2d",
		Description: "2-D max pooling over (N, C, H, W) inputs",
		Params: []*ParamSpec{
			{Name: "kernel_size", Kinds: intOrList, Required: true, Check: spatialPair("kernel_size")},
			{Name: "stride", Kinds: intOrList, Check: spatialPair("stride")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			k := args.Pair("kernel_size")
			s := k
			if args.Has("stride") {
				s = args.Pair("stride")
			}
			layer := &nn.MaxPool2d{KernelSize: k, Stride: s}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() != 4 {
				return nil, nil, shapeErrf("MaxPool2d expects a rank-4 (N, C, H, W) input, got %s", in)
			}
			h, w := shapes.ConvOut(in[2], k[0], s[0]), shapes.ConvOut(in[3], k[1], s[1])
			if h < 1 || w < 1 {
				return nil, nil, shapeErrf("kernel_size %s with stride %s does not fit input %s", pairStr(k), pairStr(s), in)
			}
			return layer, shapes.Shape{in[0], in[1], h, w}, nil
		},
	})
}

func registerPointwise(r *Registry) {
	r.Register(&LayerDef{
		Type:        "Activation",
		Description: "named elementwise nonlinearity",
		Scalar: &ParamSpec{
			Name:     "activation",
			Kinds:    strKind,
			Required: true,
			Check: func(v modelspec.Value) error {
				if !nn.IsActivationName(v.Str) {
					return paramErrf("%q is not a supported activation (supported: %s)", v.Str, strings.Join(nn.ActivationNames, ", "))
				}
				return nil
			},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			return &nn.Activation{Name: args.Str("activation")}, in.Clone(), nil
		},
	})

	r.Register(&LayerDef{
		Type:        "Dropout",
		Description: "stochastic zeroing at rate p",
		Params: []*ParamSpec{
			{Name: "p", Kinds: floatOrInt, Required: true, Check: unitInterval},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			return &nn.Dropout{P: args.Float("p")}, in.Clone(), nil
		},
	})

	r.Register(&LayerDef{
		Type:        "AbsLayer",
		Description: "elementwise absolute value",
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			return &nn.Abs{}, in.Clone(), nil
		},
	})
}

// unitInterval accepts a rate in [0, 1].
func unitInterval(v modelspec.Value) error {
	f := v.Float
	if v.Kind == modelspec.IntKind {
		f = float64(v.Int)
	}
	if f < 0 || f > 1 {
		return paramErrf(`parameter "p" must be in [0, 1], got %s`, v)
	}
	return nil
}

func registerReshape(r *Registry) {
	r.Register(&LayerDef{
		Type:        "Squeeze",
		Description: "removes a dimension of size 1",
		Params: []*ParamSpec{
			{Name: "dim", Kinds: intKind, Required: true, Check: axis("dim")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			dim := args.Int("dim")
			layer := &nn.Squeeze{Dim: dim}
			if !in.Known() {
				return layer, nil, nil
			}
			if dim >= in.Rank() {
				return nil, nil, shapeErrf("dim %d out of range for the rank-%d input %s", dim, in.Rank(), in)
			}
			if in[dim] != 1 {
				return nil, nil, shapeErrf("cannot squeeze dimension %d of %s: size %d is not 1", dim, in, in[dim])
			}
			out := make(shapes.Shape, 0, in.Rank()-1)
			out = append(out, in[:dim]...)
			out = append(out, in[dim+1:]...)
			return layer, out, nil
		},
	})

	r.Register(&LayerDef{
		Type:        "Permute",
		Description: "reorders dimensions",
		Params: []*ParamSpec{
			{Name: "shape", Kinds: listKind, Required: true, Check: isPermutation},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			order := args.Ints("shape")
			layer := &nn.Permute{Order: order}
			if !in.Known() {
				return layer, nil, nil
			}
			if len(order) != in.Rank() {
				return nil, nil, shapeErrf("permutation %v has %d entries but the input %s has rank %d", order, len(order), in, in.Rank())
			}
			out := make(shapes.Shape, len(order))
			for i, from := range order {
				out[i] = in[from]
			}
			return layer, out, nil
		},
	})

	r.Register(&LayerDef{
		Type:        "Flatten",
		Description: "collapses the trailing dimensions into one",
		Params: []*ParamSpec{
			{Name: "start_dim", Kinds: intKind, Default: valPtr(modelspec.IntVal(1)), Check: axis("start_dim")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			start := args.Int("start_dim")
			layer := &nn.Flatten{StartDim: start}
			if !in.Known() {
				return layer, nil, nil
			}
			if start >= in.Rank() {
				return nil, nil, shapeErrf("start_dim %d out of range for the rank-%d input %s", start, in.Rank(), in)
			}
			flat := 1
			for _, d := range in[start:] {
				flat *= d
			}
			out := append(in[:start].Clone(), flat)
			return layer, out, nil
		},
	})
}

// isPermutation requires the list to reorder exactly the indices 0..n-1.
func isPermutation(v modelspec.Value) error {
	seen := make([]bool, len(v.Ints))
	for _, idx := range v.Ints {
		if idx < 0 || idx >= len(v.Ints) || seen[idx] {
			return paramErrf(`parameter "shape" must be a permutation of 0..%d, got %s`, len(v.Ints)-1, v)
		}
		seen[idx] = true
	}
	return nil
}

func registerDense(r *Registry) {
	r.Register(&LayerDef{
		Type:        "Linear",
		Description: "affine projection of the trailing feature axis",
		Params: []*ParamSpec{
			{Name: "in_features", Kinds: intKind, Required: true, Infer: lastDim, Check: positive("in_features")},
			{Name: "out_features", Kinds: intKind, Required: true, Check: positive("out_features")},
		},
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			inF, outF := args.Int("in_features"), args.Int("out_features")
			layer := &nn.Linear{InFeatures: inF, OutFeatures: outF}
			if !in.Known() {
				return layer, nil, nil
			}
			if in.Rank() < 2 {
				return nil, nil, shapeErrf("Linear expects at least a rank-2 input, got %s", in)
			}
			if got := in[in.Rank()-1]; got != inF {
				return nil, nil, shapeErrf("in_features is %d but the incoming shape %s has %d features", inF, in, got)
			}
			out := in.Clone()
			out[len(out)-1] = outF
			return layer, out, nil
		},
	})
}

func registerReduce(r *Registry) {
	reduceParams := func() []*ParamSpec {
		return []*ParamSpec{
			{Name: "dim", Kinds: intKind, Required: true, Check: axis("dim")},
			{Name: "keepdim", Kinds: boolKind, Default: valPtr(modelspec.BoolVal(false))},
		}
	}

	reduceShape := func(args *Args, in shapes.Shape) (shapes.Shape, error) {
		if !in.Known() {
			return nil, nil
		}
		dim := args.Int("dim")
		if dim >= in.Rank() {
			return nil, shapeErrf("dim %d out of range for the rank-%d input %s", dim, in.Rank(), in)
		}
		if args.Bool("keepdim") {
			out := in.Clone()
			out[dim] = 1
			return out, nil
		}
		out := make(shapes.Shape, 0, in.Rank()-1)
		out = append(out, in[:dim]...)
		out = append(out, in[dim+1:]...)
		return out, nil
	}

	r.Register(&LayerDef{
		Type:        "Mean",
		Description: "averages along one axis",
		Params:      reduceParams(),
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			out, err := reduceShape(args, in)
			if err != nil {
				return nil, nil, err
			}
			return &nn.Mean{Dim: args.Int("dim"), KeepDim: args.Bool("keepdim")}, out, nil
		},
	})

	r.Register(&LayerDef{
		Type:        "Max",
		Description: "takes the maximum along one axis",
		Params:      reduceParams(),
		Build: func(args *Args, in shapes.Shape) (nn.Layer, shapes.Shape, error) {
			out, err := reduceShape(args, in)
			if err != nil {
				return nil, nil, err
			}
			return &nn.Max{Dim: args.Int("dim"), KeepDim: args.Bool("keepdim")}, out, nil
		},
	})
}

func valPtr(v modelspec.Value) *modelspec.Value { return &v }
