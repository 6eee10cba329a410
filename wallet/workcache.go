package wallet

import (
	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/CamoNano/camonanowallet/work"
)

// UpdateWorkCache is the single join point between the background work
// service and the foreground state: it drains finished proof-of-work jobs
// into the frontier DB, then tops the service back up with prefetches for
// frontiers that lack cached work. It reports whether any frontier changed,
// so callers can throttle saves.
func (c *Client) UpdateWorkCache() (bool, rpc.Failures) {
	var failures rpc.Failures
	changed := false

	for _, result := range c.Work.Results() {
		failures.Merge(result.Failures)
		if result.Err != nil {
			log.Debugf("Work job for %s failed: %v",
				nano.EncodeHash(result.WorkHash), result.Err)
			continue
		}
		err := c.Frontiers.SetWorkByHash(c.Config.WorkDifficulty,
			result.WorkHash, result.Work)
		if err != nil {
			// The frontier moved on while the job ran; the nonce is stale.
			log.Debugf("Discarding work for unknown work hash %s",
				nano.EncodeHash(result.WorkHash))
			continue
		}
		changed = true
	}

	if !c.Config.EnableWorkCache {
		return changed, failures
	}

	for _, frontier := range c.Frontiers.AllFrontiers() {
		if c.Work.Pending() >= work.MaxPrefetches {
			break
		}
		if frontier.HasValidWork(c.Config.WorkDifficulty) {
			continue
		}
		workHash := frontier.WorkHash()
		if c.Work.Contains(workHash) {
			continue
		}
		c.Work.Request(c.Config.RPC, c.Config.WorkDifficulty, workHash)
	}

	return changed, failures
}
