package equation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjranagit/graphcalc/pkg/types"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want types.Family
	}{
		{"y = 2x + 1", types.Linear},
		{"y = -3x - 7", types.Linear},
		{"y = 5", types.Linear},
		{"y = 2x^2 + 1", types.Quadratic},
		{"y = (x+1)(x-1)", types.Quadratic},
		{"y = x^3 - 2x + 1", types.Polynomial},
		{"y = 2^x", types.Exponential},
		{"y = e^x", types.Exponential},
		{"y = 3exp(-x)", types.Exponential},
		{"y = log(x)", types.Logarithmic},
		{"y = ln(x + 1) - 2", types.Logarithmic},
		{"y = sin(x)", types.Trigonometric},
		{"y = 3cos(2x)", types.Trigonometric},
		{"x^2 + y^2 = 25", types.ConicSection},
		{"4x^2 - 9y^2 = 36", types.ConicSection},
		{"x^2/9 + y^2/4 = 1", types.ConicSection},
		{"y = 1/x", types.Rational},
		{"y = (x + 1)/(x - 2)", types.Rational},
		{"y = x^-1", types.Rational},
		{"(x-1)^2 + (y+2)^2 = 9", types.Circle},
		{"(x+3)^2 + y^2 = 4", types.Circle},
		{"y = sqrt(x)", types.Radical},
		{"y = x^0.5 + 1", types.Radical},
		{"banana", types.Unrecognized},
		{"", types.Unrecognized},
		{"y = abs(x)", types.Unrecognized},
		{"x = 5", types.Unrecognized},
		{"y = x + y", types.Unrecognized},
		{"(x-1)^2 + (y+2)^2 = -9", types.Unrecognized},
		{"x^2 + x^2 = 4", types.Unrecognized},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestClassifyHugeDegree(t *testing.T) {
	// nested powers whose degree would overflow an int
	raw := "y = " + strings.Repeat("(", 11) + "x" + strings.Repeat(")^64", 11)
	assert.Equal(t, types.Unrecognized, Classify(raw))
	assert.Equal(t, types.Polynomial, Classify("y = x^64"))
}

func TestClassifyLinearIntegers(t *testing.T) {
	for m := -5; m <= 5; m++ {
		for b := -5; b <= 5; b++ {
			in := fmt.Sprintf("y = %dx + %d", m, b)
			assert.Equal(t, types.Linear, Classify(in), in)
		}
	}
}

// Overlapping families resolve to the earliest rule.
func TestClassifyFirstMatchWins(t *testing.T) {
	tests := []struct {
		in   string
		want types.Family
	}{
		{"y = 2x^2 + 1", types.Quadratic},
		{"y = e^x * sin(x)", types.Exponential},
		{"y = ln(x) * cos(x)", types.Logarithmic},
		{"y = sin(x) / x", types.Trigonometric},
		{"y = 1 / sqrt(x)", types.Rational},
		{"x^2 + y^2 = 25", types.ConicSection},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			eq, err := Parse(tc.in)
			require.NoError(t, err)

			var matched []types.Family
			for _, r := range Rules {
				if r.Match(eq) {
					matched = append(matched, r.Family)
				}
			}
			require.GreaterOrEqual(t, len(matched), 2, "expected overlapping families")
			assert.Equal(t, tc.want, matched[0])
			assert.Equal(t, tc.want, Classify(tc.in))
		})
	}
}

func TestRulesOrder(t *testing.T) {
	want := []types.Family{
		types.Linear, types.Quadratic, types.Polynomial, types.Exponential,
		types.Logarithmic, types.Trigonometric, types.ConicSection,
		types.Rational, types.Circle, types.Radical,
	}
	got := make([]types.Family, len(Rules))
	for i, r := range Rules {
		got[i] = r.Family
	}
	assert.Equal(t, want, got)
}

func TestClassifyDeterministic(t *testing.T) {
	first := Classify("y = 2x^2 + 1")
	for i := 0; i < 100; i++ {
		require.Equal(t, first, Classify("y = 2x^2 + 1"))
	}
}

func TestValidate(t *testing.T) {
	assert.Equal(t, types.Validation{Valid: true, Family: types.Trigonometric}, Validate("y = tan(x)"))
	assert.Equal(t, types.Validation{Valid: false}, Validate("banana"))
}

func TestAnalyze(t *testing.T) {
	eq, family, err := Analyze("y = 2x + 1")
	require.NoError(t, err)
	assert.Equal(t, types.Linear, family)
	assert.Equal(t, "y = 2*x + 1", eq.String())

	_, family, err = Analyze("y = abs(x)")
	require.NoError(t, err)
	assert.Equal(t, types.Unrecognized, family)

	_, family, err = Analyze("y = (")
	assert.Error(t, err)
	assert.Equal(t, types.Unrecognized, family)
}
