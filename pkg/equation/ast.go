package equation

import (
	"math"
	"strconv"
)

// Vars binds the free variables of an expression
type Vars struct {
	X float64
	Y float64
}

// Expr is a node of a parsed expression
type Expr interface {
	// Eval evaluates the node. Undefined results surface as NaN or ±Inf.
	Eval(v Vars) float64
	String() string
	prec() int
}

const (
	precSum = iota + 1
	precProduct
	precUnary
	precPower
	precAtom
)

// Num is a numeric literal
type Num struct{ Value float64 }

func (n *Num) Eval(Vars) float64 { return n.Value }
func (n *Num) String() string    { return strconv.FormatFloat(n.Value, 'g', -1, 64) }
func (n *Num) prec() int         { return precAtom }

// Const is a named mathematical constant such as pi
type Const struct {
	Name  string
	Value float64
}

func (c *Const) Eval(Vars) float64 { return c.Value }
func (c *Const) String() string    { return c.Name }
func (c *Const) prec() int         { return precAtom }

// Var is a reference to x or y
type Var struct{ Name string }

func (v *Var) Eval(vars Vars) float64 {
	if v.Name == "y" {
		return vars.Y
	}
	return vars.X
}
func (v *Var) String() string { return v.Name }
func (v *Var) prec() int      { return precAtom }

// Neg is unary minus
type Neg struct{ X Expr }

func (n *Neg) Eval(v Vars) float64 { return -n.X.Eval(v) }
func (n *Neg) String() string      { return "-" + wrap(n.X, n.X.prec() < precUnary) }
func (n *Neg) prec() int           { return precUnary }

// Binary is an infix operation: one of + - * / ^
type Binary struct {
	Op   byte
	L, R Expr
}

func (b *Binary) Eval(v Vars) float64 {
	l, r := b.L.Eval(v), b.R.Eval(v)
	switch b.Op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	case '^':
		return math.Pow(l, r)
	}
	return math.NaN()
}

func (b *Binary) String() string {
	p := b.prec()
	var left, right string
	if b.Op == '^' {
		left = wrap(b.L, b.L.prec() <= p)
		right = wrap(b.R, b.R.prec() < p)
		return left + "^" + right
	}
	left = wrap(b.L, b.L.prec() < p)
	right = wrap(b.R, b.R.prec() < p || (b.R.prec() == p && (b.Op == '-' || b.Op == '/')))
	op := " " + string(b.Op) + " "
	if b.Op == '*' || b.Op == '/' {
		op = string(b.Op)
	}
	return left + op + right
}

func (b *Binary) prec() int {
	switch b.Op {
	case '+', '-':
		return precSum
	case '*', '/':
		return precProduct
	}
	return precPower
}

// Call applies a named function to a single argument
type Call struct {
	Fn  string
	Arg Expr
}

func (c *Call) Eval(v Vars) float64 {
	f, ok := functions[c.Fn]
	if !ok {
		return math.NaN()
	}
	return f.eval(c.Arg.Eval(v))
}
func (c *Call) String() string { return c.Fn + "(" + c.Arg.String() + ")" }
func (c *Call) prec() int      { return precAtom }

func wrap(e Expr, paren bool) string {
	if paren {
		return "(" + e.String() + ")"
	}
	return e.String()
}

type fnKind int

const (
	kindAlgebraic fnKind = iota
	kindExponential
	kindLogarithmic
	kindTrigonometric
	kindRadical
)

type function struct {
	kind fnKind
	eval func(float64) float64
}

var functions = map[string]function{
	"sin":   {kindTrigonometric, math.Sin},
	"cos":   {kindTrigonometric, math.Cos},
	"tan":   {kindTrigonometric, math.Tan},
	"sec":   {kindTrigonometric, func(x float64) float64 { return 1 / math.Cos(x) }},
	"csc":   {kindTrigonometric, func(x float64) float64 { return 1 / math.Sin(x) }},
	"cot":   {kindTrigonometric, func(x float64) float64 { return 1 / math.Tan(x) }},
	"asin":  {kindTrigonometric, math.Asin},
	"acos":  {kindTrigonometric, math.Acos},
	"atan":  {kindTrigonometric, math.Atan},
	"sinh":  {kindTrigonometric, math.Sinh},
	"cosh":  {kindTrigonometric, math.Cosh},
	"tanh":  {kindTrigonometric, math.Tanh},
	"exp":   {kindExponential, math.Exp},
	"ln":    {kindLogarithmic, math.Log},
	"log":   {kindLogarithmic, math.Log},
	"log10": {kindLogarithmic, math.Log10},
	"log2":  {kindLogarithmic, math.Log2},
	"sqrt":  {kindRadical, math.Sqrt},
	"cbrt":  {kindRadical, math.Cbrt},
	"abs":   {kindAlgebraic, math.Abs},
}

var constants = map[string]float64{
	"pi": math.Pi,
	"π":  math.Pi,
	"e":  math.E,
}

// Equation is a parsed "lhs = rhs"
type Equation struct {
	LHS Expr
	RHS Expr
}

func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}
