package equation

import "math"

// maxDegree bounds integer exponents treated as polynomial powers
const maxDegree = 64

// DependsOn reports whether e references the named variable.
func DependsOn(e Expr, name string) bool {
	found := false
	walk(e, func(n Expr) bool {
		if v, ok := n.(*Var); ok && v.Name == name {
			found = true
		}
		return !found
	})
	return found
}

// FreeVars returns the variable names referenced by e.
func FreeVars(e Expr) map[string]struct{} {
	out := make(map[string]struct{})
	walk(e, func(n Expr) bool {
		if v, ok := n.(*Var); ok {
			out[v.Name] = struct{}{}
		}
		return true
	})
	return out
}

// walk visits e depth first until visit returns false.
func walk(e Expr, visit func(Expr) bool) bool {
	if !visit(e) {
		return false
	}
	switch n := e.(type) {
	case *Neg:
		return walk(n.X, visit)
	case *Binary:
		return walk(n.L, visit) && walk(n.R, visit)
	case *Call:
		return walk(n.Arg, visit)
	}
	return true
}

func containsNode(e Expr, pred func(Expr) bool) bool {
	found := false
	walk(e, func(n Expr) bool {
		if pred(n) {
			found = true
		}
		return !found
	})
	return found
}

// isConstant reports whether e has no free variables.
func isConstant(e Expr) bool {
	return !DependsOn(e, "x") && !DependsOn(e, "y")
}

// constValue evaluates a constant subtree.
func constValue(e Expr) (float64, bool) {
	if !isConstant(e) {
		return 0, false
	}
	v := e.Eval(Vars{})
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func isNonNegInt(v float64) bool {
	return v >= 0 && v <= maxDegree && v == math.Trunc(v)
}

// Degree returns the polynomial degree of e in name, or false when e is
// not a polynomial in name. Cancellation is not detected: x^2 - x^2
// reports degree 2.
func Degree(e Expr, name string) (int, bool) {
	switch n := e.(type) {
	case *Num, *Const:
		return 0, true
	case *Var:
		if n.Name == name {
			return 1, true
		}
		return 0, false
	case *Neg:
		return Degree(n.X, name)
	case *Call:
		if isConstant(n.Arg) {
			return 0, true
		}
		return 0, false
	case *Binary:
		switch n.Op {
		case '+', '-':
			l, ok := Degree(n.L, name)
			if !ok {
				return 0, false
			}
			r, ok := Degree(n.R, name)
			if !ok {
				return 0, false
			}
			if l > r {
				return l, true
			}
			return r, true
		case '*':
			l, ok := Degree(n.L, name)
			if !ok {
				return 0, false
			}
			r, ok := Degree(n.R, name)
			if !ok {
				return 0, false
			}
			if l+r > maxDegree {
				return 0, false
			}
			return l + r, true
		case '/':
			if !isConstant(n.R) {
				return 0, false
			}
			return Degree(n.L, name)
		case '^':
			base, ok := Degree(n.L, name)
			if !ok {
				return 0, false
			}
			if base == 0 && isConstant(n.R) {
				return 0, true
			}
			exp, ok := constValue(n.R)
			if !ok || !isNonNegInt(exp) {
				return 0, false
			}
			if base*int(exp) > maxDegree {
				return 0, false
			}
			return base * int(exp), true
		}
	}
	return 0, false
}

func callsKind(e Expr, kind fnKind) bool {
	return containsNode(e, func(n Expr) bool {
		c, ok := n.(*Call)
		return ok && functions[c.Fn].kind == kind
	})
}

// hasVariableExponent finds b^f(x).
func hasVariableExponent(e Expr) bool {
	return containsNode(e, func(n Expr) bool {
		b, ok := n.(*Binary)
		return ok && b.Op == '^' && DependsOn(b.R, "x")
	})
}

// hasVariableDenominator finds g/f(x) or f(x)^-n.
func hasVariableDenominator(e Expr) bool {
	return containsNode(e, func(n Expr) bool {
		b, ok := n.(*Binary)
		if !ok {
			return false
		}
		switch b.Op {
		case '/':
			return DependsOn(b.R, "x")
		case '^':
			v, ok := constValue(b.R)
			return ok && v < 0 && DependsOn(b.L, "x")
		}
		return false
	})
}

// hasFractionalPower finds f(x)^(p/q) with a non-integer exponent.
func hasFractionalPower(e Expr) bool {
	return containsNode(e, func(n Expr) bool {
		b, ok := n.(*Binary)
		if !ok || b.Op != '^' || !DependsOn(b.L, "x") {
			return false
		}
		v, ok := constValue(b.R)
		return ok && v != math.Trunc(v)
	})
}
