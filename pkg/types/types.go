package types

import "time"

// Family tags the shape of an equation
type Family string

const (
	Linear        Family = "linear"
	Quadratic     Family = "quadratic"
	Polynomial    Family = "polynomial"
	Exponential   Family = "exponential"
	Logarithmic   Family = "logarithmic"
	Trigonometric Family = "trigonometric"
	ConicSection  Family = "conic_section"
	Rational      Family = "rational"
	Circle        Family = "circle"
	Radical       Family = "radical"
	Unrecognized  Family = "unrecognized"
)

// Recognized reports whether f is one of the plottable families
func (f Family) Recognized() bool {
	return f != Unrecognized && f != ""
}

// Submission is a user-entered equation with its stroke style
type Submission struct {
	Equation  string `json:"equation"`
	Color     string `json:"color"`
	Thickness int    `json:"thickness"`
}

// Point is a single plotted coordinate. Y is nil where the curve is
// undefined at X.
type Point struct {
	X float64  `json:"x"`
	Y *float64 `json:"y"`
}

// Series is the sampled rendition of one submission
type Series struct {
	Family    Family  `json:"family"`
	Equation  string  `json:"equation"`
	Color     string  `json:"color"`
	Thickness int     `json:"thickness"`
	Points    []Point `json:"points"`
}

// Range is a closed interval of the sweep variable
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Valid reports whether the range is non-empty
func (r Range) Valid() bool {
	return r.Min < r.Max
}

// Validation is the outcome of classifying a raw equation
type Validation struct {
	Valid  bool   `json:"valid"`
	Family Family `json:"family,omitempty"`
}

// User is a registered account
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AxisRange bounds one plot axis
type AxisRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// AxisSettings holds both plot axes
type AxisSettings struct {
	XAxis AxisRange `json:"x_axis"`
	YAxis AxisRange `json:"y_axis"`
}

// Settings are per-user display preferences
type Settings struct {
	Theme        string       `json:"theme"`
	GridLines    bool         `json:"grid_lines"`
	AxisSettings AxisSettings `json:"axis_settings"`
}

// DefaultSettings returns the settings a user sees before saving any
func DefaultSettings() Settings {
	return Settings{
		Theme:     "light",
		GridLines: true,
		AxisSettings: AxisSettings{
			XAxis: AxisRange{Min: -10, Max: 10},
			YAxis: AxisRange{Min: -10, Max: 10},
		},
	}
}

// StoredEquation is a validated submission persisted by the service
type StoredEquation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Equation  string    `json:"equation"`
	Color     string    `json:"color"`
	Thickness int       `json:"thickness"`
	Family    Family    `json:"family"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Graph is a named collection of equations owned by a user
type Graph struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"owner_id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Equations   []StoredEquation `json:"equations"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
