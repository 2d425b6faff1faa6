// Package equation parses, classifies and samples the equations accepted
// by the graphing calculator.
//
// A single grammar backs both classification and evaluation: anything
// Classify accepts, Sample can evaluate.
package equation

import (
	"github.com/vjranagit/graphcalc/pkg/types"
)

// Rule pairs a family with the predicate that recognizes it
type Rule struct {
	Family types.Family
	Match  func(eq *Equation) bool
}

// Rules is the canonical classification order. Families overlap (every
// linear equation is also a polynomial); the first matching rule wins.
var Rules = []Rule{
	{types.Linear, polynomialOf(func(d int) bool { return d <= 1 })},
	{types.Quadratic, polynomialOf(func(d int) bool { return d == 2 })},
	{types.Polynomial, polynomialOf(func(int) bool { return true })},
	{types.Exponential, functionWith(func(f Expr) bool {
		return callsKind(f, kindExponential) || hasVariableExponent(f)
	})},
	{types.Logarithmic, functionWith(func(f Expr) bool { return callsKind(f, kindLogarithmic) })},
	{types.Trigonometric, functionWith(func(f Expr) bool { return callsKind(f, kindTrigonometric) })},
	{types.ConicSection, func(eq *Equation) bool {
		_, ok := conicOf(eq)
		return ok
	}},
	{types.Rational, functionWith(hasVariableDenominator)},
	{types.Circle, func(eq *Equation) bool {
		_, ok := circleOf(eq)
		return ok
	}},
	{types.Radical, functionWith(func(f Expr) bool {
		return callsKind(f, kindRadical) || hasFractionalPower(f)
	})},
}

func functionWith(pred func(Expr) bool) func(*Equation) bool {
	return func(eq *Equation) bool {
		f, ok := functionForm(eq)
		return ok && pred(f)
	}
}

func polynomialOf(degree func(int) bool) func(*Equation) bool {
	return functionWith(func(f Expr) bool {
		d, ok := Degree(f, "x")
		return ok && degree(d)
	})
}

// ClassifyEquation returns the family of an already parsed equation.
func ClassifyEquation(eq *Equation) types.Family {
	for _, r := range Rules {
		if r.Match(eq) {
			return r.Family
		}
	}
	return types.Unrecognized
}

// Classify returns the family of raw, or Unrecognized when raw does not
// parse or matches no rule. It never fails.
func Classify(raw string) types.Family {
	_, family, err := Analyze(raw)
	if err != nil {
		return types.Unrecognized
	}
	return family
}

// Analyze parses and classifies raw. The error is a *ParseError when raw
// is not well formed; a well formed equation in no family yields
// Unrecognized and no error.
func Analyze(raw string) (*Equation, types.Family, error) {
	eq, err := Parse(raw)
	if err != nil {
		return nil, types.Unrecognized, err
	}
	return eq, ClassifyEquation(eq), nil
}

// Validate reports whether raw is an accepted equation.
func Validate(raw string) types.Validation {
	family := Classify(raw)
	if !family.Recognized() {
		return types.Validation{Valid: false}
	}
	return types.Validation{Valid: true, Family: family}
}
