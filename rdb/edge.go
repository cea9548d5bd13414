package rdb

type ChanId uint64

type RoutingPolicy struct {
	TimeLockDelta    uint32
	MinHtlc          int64
	FeeBaseMsat      int64
	FeeRateMilliMsat int64
	Disabled         bool
	MaxHtlcMsat      uint64
}

// Edge describes a channel as the graph sees it. Each endpoint announces
// its own policy for forwarding away from itself; a missing announcement
// decodes as a zero value policy.
type Edge struct {
	ChanId      ChanId
	Node1Pub    PubKey
	Node2Pub    PubKey
	Capacity    int64
	Node1Policy *RoutingPolicy
	Node2Policy *RoutingPolicy
	ChanPoint   string
	LastUpdate  uint32
}
