package rebalancer

import (
	"github.com/go-errors/errors"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/satimoto/rebalance-lnd/rdb"
)

const (
	// DefaultFeeCeilingMsat caps the total routing fees of an attempt.
	DefaultFeeCeilingMsat = 3000000
	// DefaultMaxRoutes is how many candidate routes are requested from
	// the node per attempt.
	DefaultMaxRoutes = 30
)

var NoSuitableRouteError = errors.New("Could not find any suitable route")

// Client is the node backend a Rebalancer drives. *lndc.Client
// implements it against lnd.
type Client interface {
	IdentityPubKey() (rdb.PubKey, error)
	BlockHeight() (rdb.BlockHeight, error)
	Graph() (*rdb.Graph, error)
	Channels() ([]*rdb.Channel, error)
	AddInvoice(memo string, amtSat int64) (*rdb.Invoice, error)
	LookupInvoice(paymentHash string) (*rdb.Invoice, error)
	QueryRoutes(dest rdb.PubKey, amtSat int64, maxRoutes int32) ([]*lnrpc.Route, error)
	SendToRoutes(paymentHash string, routes []*lnrpc.Route) (*rdb.Payment, error)
}

type Rebalancer struct {
	logger         Logger
	client         Client
	feeCeilingMsat int64
	maxRoutes      int32
}

type Config struct {
	Logger         Logger
	Client         Client
	FeeCeilingMsat int64
	MaxRoutes      int32
}

func NewRebalancer(config *Config) *Rebalancer {
	rebalancer := &Rebalancer{}

	if config.Logger != nil {
		rebalancer.logger = config.Logger
	} else {
		rebalancer.logger = noopLogger{}
	}

	rebalancer.client = config.Client

	rebalancer.feeCeilingMsat = config.FeeCeilingMsat
	if rebalancer.feeCeilingMsat == 0 {
		rebalancer.feeCeilingMsat = DefaultFeeCeilingMsat
	}

	rebalancer.maxRoutes = config.MaxRoutes
	if rebalancer.maxRoutes == 0 {
		rebalancer.maxRoutes = DefaultMaxRoutes
	}

	return rebalancer
}

// Rebalance pays amtSat back to ourselves through the channel shared with
// remotePubKey, filling up that channel's local side. It returns the
// settled payment.
func (r *Rebalancer) Rebalance(remotePubKey rdb.PubKey, amtSat int64) (*rdb.Payment, error) {
	identityPubKey, err := r.client.IdentityPubKey()
	if err != nil {
		return nil, errors.Errorf("Could not get identity pubkey: %v", err)
	}

	blockHeight, err := r.client.BlockHeight()
	if err != nil {
		return nil, errors.Errorf("Could not get block height: %v", err)
	}

	channels, err := r.client.Channels()
	if err != nil {
		return nil, errors.Errorf("Could not get channels: %v", err)
	}

	var rebalanceChannel *rdb.Channel
	for _, channel := range channels {
		if channel.ToNode == remotePubKey {
			rebalanceChannel = channel
			break
		}
	}

	if rebalanceChannel == nil {
		return nil, errors.Errorf("No channel to node %v", remotePubKey)
	}

	r.logger.Debugf("Sending %v satoshis to rebalance, remote pubkey: %v", amtSat, remotePubKey)

	routes, err := r.client.QueryRoutes(remotePubKey, amtSat, r.maxRoutes)
	if err != nil {
		return nil, errors.Errorf("Could not query routes: %v", err)
	}

	invoice, err := r.client.AddInvoice("Rebalance of channel to "+string(remotePubKey), amtSat)
	if err != nil {
		return nil, errors.Errorf("Could not add invoice: %v", err)
	}

	// The invoice dictates the expiry margin of the final hop
	invoice, err = r.client.LookupInvoice(invoice.PaymentHash)
	if err != nil {
		return nil, errors.Errorf("Could not look up invoice: %v", err)
	}

	graph, err := r.client.Graph()
	if err != nil {
		return nil, errors.Errorf("Could not get graph: %v", err)
	}

	builder := &RouteBuilder{
		Graph:          graph,
		Channels:       channels,
		SelfPubKey:     identityPubKey,
		BlockHeight:    blockHeight,
		FinalCltvDelta: uint32(invoice.CltvExpiry),
		AmtSat:         amtSat,
		FeeCeilingMsat: r.feeCeilingMsat,
	}

	var candidateRoutes []*lnrpc.Route
	for _, route := range routes {
		if err := builder.AddChannel(route, rebalanceChannel); err != nil {
			r.logger.Debugf("Ignoring route: %v", err)
			continue
		}

		candidateRoutes = append(candidateRoutes, route)
	}

	if len(candidateRoutes) == 0 {
		return nil, NoSuitableRouteError
	}

	r.logger.Infof("Constructed %v routes to try", len(candidateRoutes))

	payment, err := r.client.SendToRoutes(invoice.PaymentHash, candidateRoutes)
	if err != nil {
		if _, ok := err.(rdb.TemporaryChannelFailureError); ok {
			r.logger.Infof("TemporaryChannelFailure (not enough funds along the route?)")
		}

		return nil, err
	}

	r.logger.Infof("Success! Paid fees: %.3f Satoshi", float64(payment.FeesMsat)/1000.0)

	return payment, nil
}
