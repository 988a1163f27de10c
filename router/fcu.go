package router

import (
	"context"
	"errors"

	"github.com/kbukum/executionbackup/engine"
)

// Reasons the consensus aggregation has to stall the consensus client.
var (
	errNoResponses = errors.New("router: no responses from alive nodes")
	errNoMajority  = errors.New("router: no majority among responses")
	errNodeInvalid = errors.New("router: a minority response is INVALID")
)

// fcuMajority returns the most frequent status when it reaches the
// configured fraction of responders, nil otherwise. Ties go to whichever
// status was counted as most frequent first.
func (r *Router) fcuMajority(statuses []engine.PayloadStatusV1) *engine.PayloadStatusV1 {
	required := int(float64(len(statuses)) * r.cfg.MajorityFraction)

	counts := make(map[string]int, len(statuses))
	byKey := make(map[string]engine.PayloadStatusV1, len(statuses))
	for _, s := range statuses {
		key := s.Key()
		counts[key]++
		if _, seen := byKey[key]; !seen {
			byKey[key] = s
		}
	}

	var bestKey string
	bestCount := 0
	for key, count := range counts {
		if count > bestCount {
			bestKey, bestCount = key, count
		}
	}

	if bestCount < required {
		return nil
	}
	winner := byKey[bestKey]
	return &winner
}

// fcuLogic decides what the consensus client is told after a newPayload
// or fcU fan-out. A majority INVALID verdict is passed through so the
// block is rejected. Without a majority, or when even one node calls the
// payload invalid, the proxy stalls with SYNCING rather than risk
// following a bad chain. A trusted verdict is also replicated to the
// syncing nodes to help them catch up.
func (r *Router) fcuLogic(ctx context.Context, statuses []engine.PayloadStatusV1, body []byte, auth string) (engine.PayloadStatusV1, error) {
	if len(statuses) == 0 {
		r.metrics.RecordFcuOutcome(ctx, "no_responses")
		return engine.PayloadStatusV1{}, errNoResponses
	}

	majority := r.fcuMajority(statuses)
	if majority == nil {
		r.metrics.RecordFcuOutcome(ctx, "no_majority")
		return engine.PayloadStatusV1{}, errNoMajority
	}

	if majority.Status.IsInvalid() {
		r.metrics.RecordFcuOutcome(ctx, "invalid")
		return *majority, nil
	}

	for _, s := range statuses {
		if s.Status.IsInvalid() {
			r.metrics.RecordFcuOutcome(ctx, "minority_invalid")
			return engine.PayloadStatusV1{}, errNodeInvalid
		}
	}

	r.replicate(r.syncingSnapshot(), body, auth)

	r.metrics.RecordFcuOutcome(ctx, "agreed")
	return *majority, nil
}
