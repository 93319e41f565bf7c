package models

// ResultsState is what the results view should render.
type ResultsState string

const (
	ResultsLoading ResultsState = "loading"
	ResultsOK      ResultsState = "ok"
	ResultsEmpty   ResultsState = "empty"
	ResultsError   ResultsState = "error"
)

const (
	MessageNoServices = "no services available"
	MessageLoadFailed = "failed to load"
)

// ResultsView is the renderable outcome of one search request.
type ResultsView struct {
	State   ResultsState `json:"state"`
	Message string       `json:"message,omitempty"`
	Gigs    []Gig        `json:"gigs"`
}

// NewResultsView maps a fetch outcome to view state. An empty result set is
// a normal outcome, not an error.
func NewResultsView(gigs []Gig, err error) ResultsView {
	if err != nil {
		return ResultsView{State: ResultsError, Message: MessageLoadFailed, Gigs: []Gig{}}
	}
	if len(gigs) == 0 {
		return ResultsView{State: ResultsEmpty, Message: MessageNoServices, Gigs: []Gig{}}
	}
	return ResultsView{State: ResultsOK, Gigs: gigs}
}
