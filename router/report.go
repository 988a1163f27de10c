package router

// Report is the pool snapshot served on /metrics and /recheck.
type Report struct {
	// ResponseTimes maps node URL to the last probe time in microseconds,
	// for alive and syncing nodes.
	ResponseTimes map[string]int64 `json:"response_times"`
	AliveNodes    []string         `json:"alive_nodes"`
	SyncingNodes  []string         `json:"syncing_nodes"`
	DeadNodes     []string         `json:"dead_nodes"`
	PrimaryNode   string           `json:"primary_node"`
	// RecheckTime is how long a forced recheck took in microseconds.
	// Only set by the /recheck and /add_nodes handlers.
	RecheckTime int64 `json:"recheck_time,omitempty"`
}

// MakeReport snapshots the pool state.
func (r *Router) MakeReport() *Report {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report := &Report{
		ResponseTimes: make(map[string]int64, len(r.alive)+len(r.syncing)),
		AliveNodes:    make([]string, 0, len(r.alive)),
		SyncingNodes:  make([]string, 0, len(r.syncing)),
		DeadNodes:     make([]string, 0, len(r.dead)),
	}

	for _, n := range r.alive {
		report.AliveNodes = append(report.AliveNodes, n.URL)
		report.ResponseTimes[n.URL] = n.Health().RespTime.Microseconds()
	}
	for _, n := range r.syncing {
		report.SyncingNodes = append(report.SyncingNodes, n.URL)
		report.ResponseTimes[n.URL] = n.Health().RespTime.Microseconds()
	}
	for _, n := range r.dead {
		report.DeadNodes = append(report.DeadNodes, n.URL)
	}
	if r.primary != nil {
		report.PrimaryNode = r.primary.URL
	}

	return report
}

// Counts returns the alive and dead node counts for the status endpoint.
func (r *Router) Counts() (alive, dead int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.alive), len(r.dead)
}
