package rebalancer

import (
	"github.com/go-errors/errors"
	"github.com/satimoto/rebalance-lnd/rdb"
	"sort"
)

// Candidates ranks our channels by how much they would gain from a
// rebalance, the neediest first.
func (r *Rebalancer) Candidates() ([]*rdb.RebalanceTarget, error) {
	channels, err := r.client.Channels()
	if err != nil {
		return nil, errors.Errorf("Could not get channels: %v", err)
	}

	return selectCandidates(channels), nil
}

// selectCandidates keeps the active channels holding less than half of
// their funds locally and orders them by remote surplus, largest first.
// Ties keep the node's listing order.
func selectCandidates(channels []*rdb.Channel) []*rdb.RebalanceTarget {
	var targets []*rdb.RebalanceTarget

	for _, channel := range channels {
		if !channel.Active {
			continue
		}

		ratio := channel.LocalRatio()
		if ratio >= 0.5 {
			continue
		}

		targets = append(targets, &rdb.RebalanceTarget{
			Channel:       channel,
			LocalRatio:    ratio,
			RemoteSurplus: channel.RemoteSurplus(),
		})
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].RemoteSurplus > targets[j].RemoteSurplus
	})

	return targets
}
