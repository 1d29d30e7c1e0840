package formula

import (
	"fmt"
	"math"
)

// Value is the result of evaluating a stack or any part of one. Scalars
// broadcast against arrays.
type Value struct {
	Scalar bool
	Data   []float64 // len(Data) == 1 when Scalar is set.
}

// ScalarValue returns a Value holding a single broadcastable number.
func ScalarValue(x float64) Value { return Value{true, []float64{x}} }

// ArrayValue returns a Value wrapping xs. xs is not copied.
func ArrayValue(xs []float64) Value { return Value{false, xs} }

// Len returns the number of elements that an operation on v produces.
func (v Value) Len() int { return len(v.Data) }

func (v Value) at(i int) float64 {
	if v.Scalar {
		return v.Data[0]
	}
	return v.Data[i]
}

// Resolver supplies the arrays that variables refer to.
type Resolver interface {
	Resolve(name string) ([]float64, error)
}

// ResolverFunc allows ordinary functions to be used as Resolvers.
type ResolverFunc func(name string) ([]float64, error)

func (f ResolverFunc) Resolve(name string) ([]float64, error) { return f(name) }

// ShapeError is returned when two arrays of different lengths are combined.
type ShapeError struct {
	Op         string
	Left, Right int
}

func (err *ShapeError) Error() string {
	return fmt.Sprintf(
		"Cannot apply '%s' to arrays of lengths %d and %d.",
		err.Op, err.Left, err.Right,
	)
}

type function struct {
	arity int
	f     func(args []float64) float64
}

func unary(f func(float64) float64) function {
	return function{1, func(args []float64) float64 { return f(args[0]) }}
}

func binary(f func(float64, float64) float64) function {
	return function{2, func(args []float64) float64 { return f(args[0], args[1]) }}
}

func sgn(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

var functions = map[string]function{
	"sqrt":  unary(math.Sqrt),
	"abs":   unary(math.Abs),
	"exp":   unary(math.Exp),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"sin":   unary(math.Sin),
	"cos":   unary(math.Cos),
	"tan":   unary(math.Tan),
	"asin":  unary(math.Asin),
	"acos":  unary(math.Acos),
	"atan":  unary(math.Atan),
	"sinh":  unary(math.Sinh),
	"cosh":  unary(math.Cosh),
	"tanh":  unary(math.Tanh),
	"trunc": unary(math.Trunc),
	"round": unary(math.Round),
	"sgn":   unary(sgn),
	"atan2": binary(math.Atan2),
	"pow":   binary(math.Pow),
	"min":   binary(math.Min),
	"max":   binary(math.Max),
}

var binaryOps = map[string]func(x, y float64) float64{
	"+": func(x, y float64) float64 { return x + y },
	"-": func(x, y float64) float64 { return x - y },
	"*": func(x, y float64) float64 { return x * y },
	"/": func(x, y float64) float64 { return x / y },
	"^": math.Pow,
}

// Evaluate runs stack against the variables supplied by res. The stack is
// only read, never written to. Each variable is resolved at most once per
// call.
func Evaluate(stack Stack, res Resolver) (Value, error) {
	vals := make([]Value, 0, len(stack))
	cache := map[string][]float64{}

	for _, tok := range stack {
		switch tok.Op {
		case Number:
			vals = append(vals, ScalarValue(tok.Value))

		case Variable:
			xs, ok := cache[tok.Text]
			if !ok {
				var err error
				if xs, err = res.Resolve(tok.Text); err != nil {
					return Value{}, err
				}
				cache[tok.Text] = xs
			}
			vals = append(vals, ArrayValue(xs))

		case Negate:
			if len(vals) < 1 {
				return Value{}, underflow(stack, tok)
			}
			x := vals[len(vals)-1]
			vals[len(vals)-1] = apply(
				func(args []float64) float64 { return -args[0] }, x,
			)

		case Binary:
			op, ok := binaryOps[tok.Text]
			if !ok {
				return Value{}, fmt.Errorf(
					"%w: unknown operator '%s'", ErrMalformed, tok.Text,
				)
			}
			if len(vals) < 2 {
				return Value{}, underflow(stack, tok)
			}
			x, y := vals[len(vals)-2], vals[len(vals)-1]
			if err := checkShapes(tok.Text, x, y); err != nil {
				return Value{}, err
			}
			vals = vals[:len(vals)-2]
			vals = append(vals, apply(
				func(args []float64) float64 { return op(args[0], args[1]) },
				x, y,
			))

		case Call:
			fn, ok := functions[tok.Text]
			if !ok || fn.arity != tok.Args {
				return Value{}, fmt.Errorf(
					"%w: unknown function '%s' with %d argument(s)",
					ErrMalformed, tok.Text, tok.Args,
				)
			}
			if len(vals) < fn.arity {
				return Value{}, underflow(stack, tok)
			}
			args := vals[len(vals)-fn.arity:]
			for i := 1; i < len(args); i++ {
				if err := checkShapes(tok.Text, args[0], args[i]); err != nil {
					return Value{}, err
				}
			}
			out := apply(fn.f, args...)
			vals = append(vals[:len(vals)-fn.arity], out)

		default:
			return Value{}, fmt.Errorf(
				"%w: unrecognized instruction %d", ErrMalformed, tok.Op,
			)
		}
	}

	if len(vals) != 1 {
		return Value{}, fmt.Errorf(
			"%w: stack '%s' leaves %d values", ErrMalformed, stack, len(vals),
		)
	}

	// A lone variable is still the resolver's slice.
	if out := vals[0]; stack[len(stack)-1].Op == Variable {
		return ArrayValue(append([]float64{}, out.Data...)), nil
	}
	return vals[0], nil
}

func underflow(stack Stack, tok Token) error {
	return fmt.Errorf(
		"%w: not enough operands for '%s' in stack '%s'",
		ErrMalformed, tok, stack,
	)
}

func checkShapes(op string, x, y Value) error {
	if x.Scalar || y.Scalar || x.Len() == y.Len() {
		return nil
	}
	return &ShapeError{op, x.Len(), y.Len()}
}

// apply evaluates f elementwise over args, which must already have
// compatible shapes. A new slice is always allocated, so resolved arrays
// are never modified.
func apply(f func(args []float64) float64, args ...Value) Value {
	n, scalar := 1, true
	for _, arg := range args {
		if !arg.Scalar {
			n, scalar = arg.Len(), false
			break
		}
	}

	out := make([]float64, n)
	buf := make([]float64, len(args))
	for i := range out {
		for j := range args {
			buf[j] = args[j].at(i)
		}
		out[i] = f(buf)
	}
	return Value{scalar, out}
}
