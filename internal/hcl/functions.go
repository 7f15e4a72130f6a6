package hcl

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// numberVal wraps a float result. cty numbers cannot hold NaN, so a NaN is
// reported as an error naming the function.
func numberVal(name string, v float64) (cty.Value, error) {
	if math.IsNaN(v) {
		return cty.UnknownVal(cty.Number), fmt.Errorf("%s: result is not a number", name)
	}
	return cty.NumberFloatVal(v), nil
}

func unary(name, desc string, f func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params:      []function.Parameter{{Name: "x", Type: cty.Number}},
		Type:        function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			x, _ := args[0].AsBigFloat().Float64()
			return numberVal(name, f(x))
		},
	})
}

var powFunction = function.New(&function.Spec{
	Description: "Returns x raised to the power y.",
	Params: []function.Parameter{
		{Name: "x", Type: cty.Number},
		{Name: "y", Type: cty.Number},
	},
	Type: function.StaticReturnType(cty.Number),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		x, _ := args[0].AsBigFloat().Float64()
		y, _ := args[1].AsBigFloat().Float64()
		return numberVal("pow", math.Pow(x, y))
	},
})

// functions is the table available to every scenario expression.
var functions = map[string]function.Function{
	"abs":    stdlib.AbsoluteFunc,
	"ceil":   stdlib.CeilFunc,
	"floor":  stdlib.FloorFunc,
	"max":    stdlib.MaxFunc,
	"min":    stdlib.MinFunc,
	"signum": stdlib.SignumFunc,

	"pow":  powFunction,
	"exp":  unary("exp", "Returns e raised to the power x.", math.Exp),
	"log":  unary("log", "Returns the natural logarithm of x.", math.Log),
	"sqrt": unary("sqrt", "Returns the square root of x.", math.Sqrt),
	"sin":  unary("sin", "Returns the sine of x.", math.Sin),
	"cos":  unary("cos", "Returns the cosine of x.", math.Cos),
	"tan":  unary("tan", "Returns the tangent of x.", math.Tan),
	"atan": unary("atan", "Returns the arctangent of x.", math.Atan),
	"sinh": unary("sinh", "Returns the hyperbolic sine of x.", math.Sinh),
	"cosh": unary("cosh", "Returns the hyperbolic cosine of x.", math.Cosh),
	"tanh": unary("tanh", "Returns the hyperbolic tangent of x.", math.Tanh),
}
