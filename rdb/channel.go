package rdb

type Channel struct {
	Active        bool
	ChanId        ChanId
	ToNode        PubKey
	Capacity      int64
	LocalBalance  int64
	RemoteBalance int64
}

// LocalRatio is the share of the channel funds sitting on our side.
func (c *Channel) LocalRatio() float64 {
	remote := c.RemoteBalance
	local := c.LocalBalance
	return float64(local) / float64(remote+local)
}

// LocalRatioAfterSending is the local ratio the channel would end up with
// after amtSat left through it.
func (c *Channel) LocalRatioAfterSending(amtSat int64) float64 {
	remote := c.RemoteBalance + amtSat
	local := c.LocalBalance - amtSat
	return float64(local) / float64(remote+local)
}

// RemoteSurplus is how many satoshis the remote side holds more than we do.
func (c *Channel) RemoteSurplus() int64 {
	return c.RemoteBalance - c.LocalBalance
}

// RebalanceTarget is a channel worth filling, with the metrics it was
// ranked by.
type RebalanceTarget struct {
	Channel       *Channel
	LocalRatio    float64
	RemoteSurplus int64
}

// SuggestedAmountSat is the amount that moves the channel to an even
// split, rounded up.
func (t *RebalanceTarget) SuggestedAmountSat() int64 {
	return (t.RemoteSurplus + 1) / 2
}
