package rank

// Inputs are the four components of a lead's composite score, each in 0..1.
type Inputs struct {
	Confidence    float64
	ProjectWeight float64
	Recency       float64
	Trust         float64
}

// Scorer turns score inputs into a composite score. Implementations must be
// monotonic non-decreasing in every input.
type Scorer interface {
	Score(in Inputs) float64
}
