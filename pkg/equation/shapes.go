package equation

import "math"

// Conic holds the coefficients of a·x^2 + b·y^2 = c
type Conic struct {
	A, B, C float64
}

// CircleShape is (x-h)^2 + (y-k)^2 = r^2
type CircleShape struct {
	H, K, R float64
}

// term is a summand with its sign folded in
type term struct {
	sign float64
	expr Expr
}

// flattenSum splits e into signed summands.
func flattenSum(e Expr, sign float64, out []term) []term {
	switch n := e.(type) {
	case *Binary:
		switch n.Op {
		case '+':
			out = flattenSum(n.L, sign, out)
			return flattenSum(n.R, sign, out)
		case '-':
			out = flattenSum(n.L, sign, out)
			return flattenSum(n.R, -sign, out)
		}
	case *Neg:
		return flattenSum(n.X, -sign, out)
	}
	return append(out, term{sign: sign, expr: e})
}

// functionForm returns f when eq is y = f(x).
func functionForm(eq *Equation) (Expr, bool) {
	v, ok := eq.LHS.(*Var)
	if !ok || v.Name != "y" {
		return nil, false
	}
	for name := range FreeVars(eq.RHS) {
		if name != "x" {
			return nil, false
		}
	}
	return eq.RHS, true
}

// scaledSquare matches k·v^2, v^2·k, v^2/k and v^2 for a bare variable v.
func scaledSquare(e Expr) (coef float64, name string, ok bool) {
	switch n := e.(type) {
	case *Binary:
		switch n.Op {
		case '^':
			v, isVar := n.L.(*Var)
			exp, isConst := constValue(n.R)
			if isVar && isConst && exp == 2 {
				return 1, v.Name, true
			}
		case '*':
			if k, isConst := constValue(n.L); isConst {
				if c, name, ok := scaledSquare(n.R); ok {
					return k * c, name, true
				}
			}
			if k, isConst := constValue(n.R); isConst {
				if c, name, ok := scaledSquare(n.L); ok {
					return k * c, name, true
				}
			}
		case '/':
			if k, isConst := constValue(n.R); isConst && k != 0 {
				if c, name, ok := scaledSquare(n.L); ok {
					return c / k, name, true
				}
			}
		}
	case *Neg:
		if c, name, ok := scaledSquare(n.X); ok {
			return -c, name, true
		}
	}
	return 0, "", false
}

// conicOf matches a·x^2 ± b·y^2 = c.
func conicOf(eq *Equation) (Conic, bool) {
	c, ok := constValue(eq.RHS)
	if !ok {
		return Conic{}, false
	}
	var conic Conic
	var seenX, seenY bool
	for _, t := range flattenSum(eq.LHS, 1, nil) {
		coef, name, ok := scaledSquare(t.expr)
		if !ok {
			return Conic{}, false
		}
		switch {
		case name == "x" && !seenX:
			conic.A, seenX = t.sign*coef, true
		case name == "y" && !seenY:
			conic.B, seenY = t.sign*coef, true
		default:
			return Conic{}, false
		}
	}
	if !seenX || !seenY || conic.A == 0 || conic.B == 0 {
		return Conic{}, false
	}
	conic.C = c
	return conic, true
}

// shiftedVar matches v, v+k, v-k and k+v, returning the centre offset.
func shiftedVar(e Expr) (center float64, name string, ok bool) {
	switch n := e.(type) {
	case *Var:
		return 0, n.Name, true
	case *Binary:
		if n.Op != '+' && n.Op != '-' {
			return 0, "", false
		}
		if v, isVar := n.L.(*Var); isVar {
			k, isConst := constValue(n.R)
			if !isConst {
				return 0, "", false
			}
			if n.Op == '+' {
				return -k, v.Name, true
			}
			return k, v.Name, true
		}
		if v, isVar := n.R.(*Var); isVar && n.Op == '+' {
			k, isConst := constValue(n.L)
			if !isConst {
				return 0, "", false
			}
			return -k, v.Name, true
		}
	}
	return 0, "", false
}

// circleOf matches (x±h)^2 + (y±k)^2 = r^2.
func circleOf(eq *Equation) (CircleShape, bool) {
	rr, ok := constValue(eq.RHS)
	if !ok || rr <= 0 {
		return CircleShape{}, false
	}
	terms := flattenSum(eq.LHS, 1, nil)
	if len(terms) != 2 {
		return CircleShape{}, false
	}
	shape := CircleShape{R: math.Sqrt(rr)}
	var seenX, seenY bool
	for _, t := range terms {
		sq, isPow := t.expr.(*Binary)
		if t.sign < 0 || !isPow || sq.Op != '^' {
			return CircleShape{}, false
		}
		if exp, isConst := constValue(sq.R); !isConst || exp != 2 {
			return CircleShape{}, false
		}
		center, name, ok := shiftedVar(sq.L)
		if !ok {
			return CircleShape{}, false
		}
		switch {
		case name == "x" && !seenX:
			shape.H, seenX = center, true
		case name == "y" && !seenY:
			shape.K, seenY = center, true
		default:
			return CircleShape{}, false
		}
	}
	return shape, seenX && seenY
}
