package geometry

// Ball-likeness bounds for an approximated contour.
const (
	MinVertices = 8     // exclusive
	MinArea     = 260   // exclusive, pixels²
	MaxArea     = 20000 // exclusive, pixels²
)

// Candidate summarizes one contour after polygon approximation.
type Candidate struct {
	Index    int // position in the contour list
	Vertices int
	Area     float64
}

// Qualifies reports whether c is round enough and of plausible size.
func (c Candidate) Qualifies() bool {
	return c.Vertices > MinVertices && c.Area > MinArea && c.Area < MaxArea
}

// Better reports whether c beats best: more vertices first, then larger
// area. Ties keep best.
func (c Candidate) Better(best Candidate) bool {
	if c.Vertices != best.Vertices {
		return c.Vertices > best.Vertices
	}
	return c.Area > best.Area
}

// Best returns the best qualifying candidate, or false if none qualify.
func Best(cands []Candidate) (Candidate, bool) {
	var (
		best  Candidate
		found bool
	)
	for _, c := range cands {
		if !c.Qualifies() {
			continue
		}
		if !found || c.Better(best) {
			best, found = c, true
		}
	}
	return best, found
}
