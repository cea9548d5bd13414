package rebalancer

import (
	"fmt"
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/satimoto/rebalance-lnd/rdb"
)

// Reasons for skipping a candidate route. They signal that the route
// cannot carry this rebalance, not that the attempt as a whole failed.
var EmptyRouteError = errors.New("Route has no hops")
var RouteAlreadyExtendedError = errors.New("Route already ends at our own node")
var NoFirstHopChannelError = errors.New("No channel to the route's first hop")
var FirstHopLowOnFundsError = errors.New("Sending would drop the first hop channel below an even balance")
var ChannelAlreadyInRouteError = errors.New("Channel to fill is already part of the route")

type FeesTooHighError struct {
	TotalFeesMsat int64
}

func (err FeesTooHighError) Error() string {
	return fmt.Sprintf("Fees too high: %v msat", err.TotalFeesMsat)
}

// RouteBuilder extends routes that were discovered towards a channel's
// counterparty with a final hop back to us through that channel, so that
// paying the extended route refills the channel's local side.
type RouteBuilder struct {
	Graph          *rdb.Graph
	Channels       []*rdb.Channel
	SelfPubKey     rdb.PubKey
	BlockHeight    rdb.BlockHeight
	FinalCltvDelta uint32
	AmtSat         int64
	FeeCeilingMsat int64
}

// AddChannel splices channel in as the terminal hop of route and reworks
// every hop's amount, fee and expiry so the route stays consistent. The
// route is modified in place; on error it must be discarded.
func (rb *RouteBuilder) AddChannel(route *lnrpc.Route, channel *rdb.Channel) error {
	hops := route.Hops

	if len(hops) == 0 {
		return EmptyRouteError
	}

	if rdb.PubKey(hops[len(hops)-1].PubKey) == rb.SelfPubKey {
		return RouteAlreadyExtendedError
	}

	if err := rb.checkFirstHopBalance(hops); err != nil {
		return err
	}

	if rdb.PubKey(hops[0].PubKey) == channel.ToNode {
		return ChannelAlreadyInRouteError
	}

	amtMsat := hops[len(hops)-1].AmtToForwardMsat
	expiryLastHop := uint32(rb.BlockHeight) + rb.FinalCltvDelta

	if err := rb.updateAmounts(hops); err != nil {
		return err
	}

	route.Hops = append(hops, rb.newFinalHop(channel, amtMsat, expiryLastHop))

	totalTimeLock, err := rb.updateExpiry(route.Hops, expiryLastHop)
	if err != nil {
		return err
	}

	return rb.updateRouteTotals(route, totalTimeLock)
}

// checkFirstHopBalance rejects the route if pushing the amount out
// through the first hop would leave that channel with less than half of
// its funds on our side.
func (rb *RouteBuilder) checkFirstHopBalance(hops []*lnrpc.Hop) error {
	firstHopNode := rdb.PubKey(hops[0].PubKey)

	var firstHopChannel *rdb.Channel
	for _, channel := range rb.Channels {
		if channel.ToNode == firstHopNode {
			firstHopChannel = channel
			break
		}
	}

	if firstHopChannel == nil {
		return NoFirstHopChannelError
	}

	if firstHopChannel.LocalRatioAfterSending(rb.AmtSat) < 0.5 {
		return FirstHopLowOnFundsError
	}

	return nil
}

// updateAmounts walks the hops from last to first, raising or lowering
// each forwarded amount by the fees accumulated behind it and recomputing
// the hop's own fee from the new amount. The accumulator is signed: a
// recomputed fee can undercut the one the hop arrived with.
func (rb *RouteBuilder) updateAmounts(hops []*lnrpc.Hop) error {
	var additionalFeesMsat int64

	for i := len(hops) - 1; i >= 0; i-- {
		hop := hops[i]

		amtToForwardMsat := hop.AmtToForwardMsat + additionalFeesMsat
		hop.AmtToForwardMsat = amtToForwardMsat
		hop.AmtToForward = amtToForwardMsat / 1000

		policy, err := forwardingPolicy(rb.Graph, rdb.ChanId(hop.ChanId), rdb.PubKey(hop.PubKey))
		if err != nil {
			return err
		}

		feeMsatBefore := hop.FeeMsat
		feeMsat := forwardingFeeMsat(amtToForwardMsat, policy)
		hop.FeeMsat = feeMsat
		hop.Fee = feeMsat / 1000
		additionalFeesMsat += feeMsat - feeMsatBefore
	}

	return nil
}

// newFinalHop builds the hop that brings the payment home over the
// rebalance channel. It charges no fee since we are the recipient.
func (rb *RouteBuilder) newFinalHop(channel *rdb.Channel, amtMsat int64, expiry uint32) *lnrpc.Hop {
	return &lnrpc.Hop{
		ChanId:           uint64(channel.ChanId),
		ChanCapacity:     channel.Capacity,
		AmtToForwardMsat: amtMsat,
		AmtToForward:     amtMsat / 1000,
		Expiry:           expiry,
		PubKey:           string(rb.SelfPubKey),
	}
}

// updateExpiry walks all hops from last to first, assigning each hop the
// accumulated time lock and then adding the hop's own policy delta for
// the hops before it. It returns the accumulator, which becomes the
// route's total time lock.
func (rb *RouteBuilder) updateExpiry(hops []*lnrpc.Hop, expiryLastHop uint32) (uint32, error) {
	totalTimeLock := expiryLastHop

	for i := len(hops) - 1; i >= 0; i-- {
		hop := hops[i]
		hop.Expiry = totalTimeLock

		policy, err := forwardingPolicy(rb.Graph, rdb.ChanId(hop.ChanId), rdb.PubKey(hop.PubKey))
		if err != nil {
			return 0, err
		}

		totalTimeLock += policy.TimeLockDelta
	}

	return totalTimeLock, nil
}

// updateRouteTotals sums up the route and rejects it when the fees pass
// the ceiling. Milli-unit totals round down to base units.
func (rb *RouteBuilder) updateRouteTotals(route *lnrpc.Route, totalTimeLock uint32) error {
	var totalFeesMsat int64
	for _, hop := range route.Hops {
		totalFeesMsat += hop.FeeMsat
	}

	if totalFeesMsat > rb.FeeCeilingMsat {
		return FeesTooHighError{TotalFeesMsat: totalFeesMsat}
	}

	totalAmtMsat := route.Hops[len(route.Hops)-1].AmtToForwardMsat + totalFeesMsat

	route.TotalAmtMsat = totalAmtMsat
	route.TotalAmt = totalAmtMsat / 1000
	route.TotalFeesMsat = totalFeesMsat
	route.TotalFees = totalFeesMsat / 1000
	route.TotalTimeLock = totalTimeLock

	return nil
}
