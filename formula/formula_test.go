package formula

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vars map[string][]float64

func (v vars) Resolve(name string) ([]float64, error) {
	xs, ok := v[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownVariable, name)
	}
	return xs, nil
}

func eval(t *testing.T, formula string, v vars) Value {
	stack, err := Parse(formula)
	require.NoError(t, err, formula)
	val, err := Evaluate(stack, v)
	require.NoError(t, err, formula)
	return val
}

func TestParsePostfix(t *testing.T) {
	table := []struct {
		formula, postfix string
	}{
		{"1 + 2 * 3", "1 2 3 * +"},
		{"(1 + 2) * 3", "1 2 + 3 *"},
		{"2^3^2", "2 3 2 ^ ^"},
		{"2**3", "2 3 ^"},
		{"-x^2", "x 2 ^ neg"},
		{"2^-1", "2 1 neg ^"},
		{"a - b - c", "a b - c -"},
		{"sqrt(vx^2+vy^2)", "vx 2 ^ vy 2 ^ + sqrt/1"},
		{"atan2(y, x)", "y x atan2/2"},
		{"2*PI*r", "2 PI * r *"},
		{"1.5e3 + e", "1500 e +"},
		{"+x", "x"},
	}

	for _, test := range table {
		stack, err := Parse(test.formula)
		require.NoError(t, err, test.formula)
		assert.Equal(t, test.postfix, stack.String(), test.formula)
	}
}

func TestParseErrors(t *testing.T) {
	bad := []string{
		"", "   ", "1 +", "(x", "x)", "sqrt(x", "foo(x)", "atan2(x)",
		"x $ y", "1.2.3", "* 2", "sqrt()", "x y",
	}

	for _, formula := range bad {
		_, err := Parse(formula)
		require.Error(t, err, formula)
		assert.True(t, errors.Is(err, ErrMalformed), formula)

		var synErr *SyntaxError
		assert.True(t, errors.As(err, &synErr), formula)
	}
}

func TestEvaluateSpeed(t *testing.T) {
	val := eval(t, "sqrt(vx^2+vy^2+vz^2)", vars{
		"vx": {3, 1}, "vy": {4, 0}, "vz": {0, 0},
	})
	assert.False(t, val.Scalar)
	assert.Equal(t, []float64{5, 1}, val.Data)
}

func TestEvaluateScalar(t *testing.T) {
	val := eval(t, "-2^2 + 10/4", nil)
	assert.True(t, val.Scalar)
	assert.InDelta(t, -1.5, val.Data[0], 1e-12)

	val = eval(t, "cos(PI)", nil)
	assert.InDelta(t, -1.0, val.Data[0], 1e-12)
}

func TestEvaluateBroadcast(t *testing.T) {
	val := eval(t, "0.5 * m * max(u, 1)", vars{
		"m": {2, 4, 6}, "u": {0, 2, 3},
	})
	assert.Equal(t, []float64{1, 4, 9}, val.Data)
}

func TestEvaluateDoesNotModify(t *testing.T) {
	x := []float64{1, 2, 3}
	stack, err := Parse("-x")
	require.NoError(t, err)
	template := stack.Clone()

	val, err := Evaluate(stack, vars{"x": x})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2, -3}, val.Data)
	assert.Equal(t, []float64{1, 2, 3}, x)
	assert.Equal(t, template, stack)
}

func TestEvaluateLoneVariableCopies(t *testing.T) {
	x := []float64{1, 2, 3}
	val := eval(t, "x", vars{"x": x})
	assert.Equal(t, x, val.Data)

	val.Data[0] = 100
	assert.Equal(t, []float64{1, 2, 3}, x)
}

func TestEvaluateResolvesOnce(t *testing.T) {
	calls := 0
	res := ResolverFunc(func(name string) ([]float64, error) {
		calls++
		return []float64{2}, nil
	})
	stack, err := Parse("x*x + x")
	require.NoError(t, err)
	val, err := Evaluate(stack, res)
	require.NoError(t, err)
	assert.Equal(t, []float64{6}, val.Data)
	assert.Equal(t, 1, calls)
}

func TestEvaluateErrors(t *testing.T) {
	stack, err := Parse("x + y")
	require.NoError(t, err)

	_, err = Evaluate(stack, vars{"x": {1}})
	assert.True(t, errors.Is(err, ErrUnknownVariable))

	_, err = Evaluate(stack, vars{"x": {1, 2}, "y": {1, 2, 3}})
	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, 2, shapeErr.Left)
	assert.Equal(t, 3, shapeErr.Right)

	unbalanced := Stack{{Op: Number, Value: 1}, {Op: Number, Value: 2}}
	_, err = Evaluate(unbalanced, nil)
	assert.True(t, errors.Is(err, ErrMalformed))

	underflow := Stack{{Op: Number, Value: 1}, {Op: Binary, Text: "+"}}
	_, err = Evaluate(underflow, nil)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestVariables(t *testing.T) {
	stack, err := Parse("sqrt(x^2 + y^2) / x + PI")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, stack.Variables())
}

func TestFunctions(t *testing.T) {
	val := eval(t, "sgn(x) + abs(x)", vars{"x": {-3, 0, 2}})
	assert.Equal(t, []float64{2, 0, 3}, val.Data)

	val = eval(t, "log10(1000) + exp(0) + pow(2, 3)", nil)
	assert.InDelta(t, 12.0, val.Data[0], 1e-12)

	val = eval(t, "atan2(1, 1)", nil)
	assert.InDelta(t, math.Pi/4, val.Data[0], 1e-12)
}
