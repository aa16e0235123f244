package guide

// Status is the request lifecycle state exposed to the presentation layer.
// Sending and streaming go up together on dispatch and come down together
// when the request settles; there is no separate "awaiting first fragment" state.
type Status struct {
	IsSendingMessage bool `json:"isSendingMessage"`
	IsStreaming      bool `json:"isStreaming"`
	IsLoading        bool `json:"isLoading"`
}

// Idle reports whether no request or tile fetch is in progress.
func (s Status) Idle() bool {
	return !s.IsSendingMessage && !s.IsStreaming && !s.IsLoading
}

// Counters accumulate anomalies that are absorbed instead of surfaced.
type Counters struct {
	Requests         int `json:"requests"`
	FailedRequests   int `json:"failedRequests"`
	MalformedFrames  int `json:"malformedFrames"`
	DroppedFragments int `json:"droppedFragments"`
	AppliedFragments int `json:"appliedFragments"`
}
