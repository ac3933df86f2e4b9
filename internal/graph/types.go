package graph

// Mode selects how activity durations are estimated.
type Mode string

const (
	// ModeCPM uses a single fixed duration per activity.
	ModeCPM Mode = "CPM"
	// ModePERT uses three-point (optimistic / most likely / pessimistic) estimates.
	ModePERT Mode = "PERT"
)

// ParseMode maps a diagram type to a Mode. Only "PERT" selects three-point
// estimation; every other value means fixed durations.
func ParseMode(diagramType string) Mode {
	if diagramType == string(ModePERT) {
		return ModePERT
	}
	return ModeCPM
}

// Activity is a single node of the activity network.
type Activity struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Predecessors []string `json:"predecessors"`
	Successors   []string `json:"successors"` // derived by Build

	Duration    float64 `json:"duration,omitempty"`
	Optimistic  float64 `json:"optimistic,omitempty"`
	MostLikely  float64 `json:"mostLikely,omitempty"`
	Pessimistic float64 `json:"pessimistic,omitempty"`

	ExpectedTime float64 `json:"expectedTime"`
	Variance     float64 `json:"variance"`

	ES         float64 `json:"es"` // earliest start
	EF         float64 `json:"ef"` // earliest finish
	LS         float64 `json:"ls"` // latest start
	LF         float64 `json:"lf"` // latest finish
	Slack      float64 `json:"slack"`
	IsCritical bool    `json:"isCritical"`
}

// Network is the normalized activity set plus its derived adjacency.
type Network struct {
	Mode       Mode
	Activities map[string]*Activity
	Order      []string // ids in input order
	Roots      []string // activities with no predecessors
	Leaves     []string // activities with no successors
}

// Get returns the activity with the given id, or nil.
func (n *Network) Get(id string) *Activity {
	return n.Activities[id]
}

// Len returns the number of activities.
func (n *Network) Len() int {
	return len(n.Order)
}
