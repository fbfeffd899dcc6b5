package models

// CandidateKind distinguishes the two halves of an itinerary item.
type CandidateKind string

const (
	CandidateFood  CandidateKind = "food"
	CandidatePlace CandidateKind = "place"
)

// Candidate is a single food or place record eligible for recommendation.
// Candidates are immutable once loaded; a new planning run reloads them.
type Candidate struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Description string  `json:"description,omitempty"`
	Rating      float64 `json:"rating"`
	ImageRef    string  `json:"image_ref,omitempty"`
	Keywords    string  `json:"keywords,omitempty"`
	Price       string  `json:"price,omitempty"`
	Address     string  `json:"address,omitempty"`
	Phone       string  `json:"phone,omitempty"`
	Link        string  `json:"link,omitempty"`
	Timeslot    string  `json:"timeslot,omitempty"`
}

// Table is a normalized, filtered candidate table produced by the loader.
type Table struct {
	Kind CandidateKind `json:"kind"`
	Rows []Candidate   `json:"rows"`
}

// Empty reports whether the table has no usable rows. An empty table is a
// valid loader result; downstream code degrades to a "no matches" answer.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// RankedCandidate carries the cluster tier and standardized rating the
// ranker attaches to each row. Derived per invocation, never persisted.
type RankedCandidate struct {
	Candidate
	Cluster     int     `json:"cluster"`
	RatingScore float64 `json:"rating_score"`
}

// RankedTable is a candidate table with cluster assignments attached.
type RankedTable struct {
	Kind CandidateKind     `json:"kind"`
	Rows []RankedCandidate `json:"rows"`
	// SeparationScore is a diagnostics-only clustering quality signal.
	// A low score never fails the ranking.
	SeparationScore float64 `json:"separation_score"`
}

// PlanResult is the planner output: the trip-wide recommendation pool plus
// the assembled day-by-day itinerary used by the persistence path.
type PlanResult struct {
	Province  string      `json:"province"`
	TopFood   []Candidate `json:"top_food"`
	TopPlaces []Candidate `json:"top_places"`
	Days      []Day       `json:"days"`
	// NoMatches carries a descriptive signal when the location filter
	// matched nothing on either side. Not a hard failure.
	NoMatches string `json:"no_matches,omitempty"`
}
