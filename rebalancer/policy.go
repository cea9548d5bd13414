package rebalancer

import (
	"github.com/satimoto/rebalance-lnd/rdb"
)

// forwardingPolicy returns the policy that applies when a payment crosses
// channel chanId towards the node target. Fees and time locks are set by
// the node on the other end of the channel, so this selects the policy of
// the endpoint that is not the target.
func forwardingPolicy(graph *rdb.Graph, chanId rdb.ChanId, target rdb.PubKey) (*rdb.RoutingPolicy, error) {
	edge, ok := graph.Edges[chanId]
	if !ok {
		return nil, rdb.PolicyNotFoundError{ChanId: chanId}
	}

	policy := edge.Node1Policy
	if edge.Node1Pub == target {
		policy = edge.Node2Policy
	}

	// An unannounced policy counts as all zeroes
	if policy == nil {
		return &rdb.RoutingPolicy{}, nil
	}

	return policy, nil
}

// forwardingFeeMsat calculates the fee charged for forwarding amtMsat
// under the given policy, rounding down.
func forwardingFeeMsat(amtMsat int64, policy *rdb.RoutingPolicy) int64 {
	return policy.FeeBaseMsat + (amtMsat*policy.FeeRateMilliMsat)/1000000
}
