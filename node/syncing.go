package node

import (
	"encoding/json"

	"github.com/kbukum/executionbackup/engine"
)

// parseSyncingResult maps an eth_syncing response body to a status.
// false means the node is synced; a sync-progress object means it is
// still catching up; anything else is treated as offline.
func parseSyncingResult(body []byte) SyncStatus {
	result, err := engine.ParseResult(body)
	if err != nil {
		return StatusOffline
	}

	var syncing bool
	if err := json.Unmarshal(result, &syncing); err == nil {
		if !syncing {
			return StatusSynced
		}
		// "true" without progress details is not a valid eth_syncing
		// answer, but a node saying it syncs is believed.
		return StatusOnlineAndSyncing
	}

	var progress map[string]json.RawMessage
	if err := json.Unmarshal(result, &progress); err == nil {
		return StatusOnlineAndSyncing
	}

	return StatusOffline
}
