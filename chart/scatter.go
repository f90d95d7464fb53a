// Package chart builds the illustrative 3D scatter shown under the form. It
// is presentational only and never feeds the classifier.
package chart

import "firetype/ml"

const (
	Title     = "3D Fire Feature Distribution"
	InputType = "Input"
	opacity   = 0.8
)

// Point is one row of the scatter.
type Point struct {
	Brightness float64 `json:"brightness"`
	BrightT31  float64 `json:"bright_t31"`
	FRP        float64 `json:"frp"`
	FireType   string  `json:"fire_type"`
}

var referencePoints = []Point{
	{Brightness: 300, BrightT31: 290, FRP: 10, FireType: "Vegetation"},
	{Brightness: 310, BrightT31: 295, FRP: 20, FireType: "Offshore"},
	{Brightness: 290, BrightT31: 285, FRP: 15, FireType: "Other"},
	{Brightness: 305, BrightT31: 288, FRP: 12, FireType: "Vegetation"},
}

// Plotly's default qualitative palette and 3D marker symbols, assigned by
// category in first-seen order.
var (
	palette = []string{"#636efa", "#EF553B", "#00cc96", "#ab63fa", "#FFA15A", "#19d3f3"}
	symbols = []string{"circle", "diamond", "square", "x", "cross", "circle-open"}
)

// ReferencePoints returns a copy of the fixed sample rows.
func ReferencePoints() []Point {
	return append([]Point(nil), referencePoints...)
}

// Points returns the reference rows followed by the current input.
func Points(input ml.FeatureVector) []Point {
	return append(ReferencePoints(), Point{
		Brightness: input.Brightness,
		BrightT31:  input.BrightT31,
		FRP:        input.FRP,
		FireType:   InputType,
	})
}

type Marker struct {
	Color   string  `json:"color"`
	Symbol  string  `json:"symbol"`
	Opacity float64 `json:"opacity"`
}

// Trace is a Plotly scatter3d trace.
type Trace struct {
	Type   string    `json:"type"`
	Mode   string    `json:"mode"`
	Name   string    `json:"name"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Z      []float64 `json:"z"`
	Marker Marker    `json:"marker"`
}

type Axis struct {
	Title string `json:"title"`
}

type Scene struct {
	XAxis Axis `json:"xaxis"`
	YAxis Axis `json:"yaxis"`
	ZAxis Axis `json:"zaxis"`
}

type Layout struct {
	Title string `json:"title"`
	Scene Scene `json:"scene"`
}

// Figure serialises to the {data, layout} pair Plotly.newPlot expects.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Scatter3D groups the points by fire type, one trace per category.
func Scatter3D(input ml.FeatureVector) Figure {
	points := Points(input)
	traces := make([]Trace, 0, 4)
	index := make(map[string]int)
	for _, p := range points {
		i, ok := index[p.FireType]
		if !ok {
			n := len(traces)
			traces = append(traces, Trace{
				Type: "scatter3d",
				Mode: "markers",
				Name: p.FireType,
				Marker: Marker{
					Color:   palette[n%len(palette)],
					Symbol:  symbols[n%len(symbols)],
					Opacity: opacity,
				},
			})
			i = n
			index[p.FireType] = i
		}
		traces[i].X = append(traces[i].X, p.Brightness)
		traces[i].Y = append(traces[i].Y, p.BrightT31)
		traces[i].Z = append(traces[i].Z, p.FRP)
	}
	return Figure{
		Data: traces,
		Layout: Layout{
			Title: Title,
			Scene: Scene{
				XAxis: Axis{Title: "brightness"},
				YAxis: Axis{Title: "bright_t31"},
				ZAxis: Axis{Title: "frp"},
			},
		},
	}
}
