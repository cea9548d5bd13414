package lndc

import (
	"context"
	"crypto/x509"
	"encoding/hex"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/pkg/errors"
	"github.com/satimoto/rebalance-lnd/rdb"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
	macaroon "gopkg.in/macaroon.v2"
	"io/ioutil"
	"regexp"
	"strings"
)

type Client struct {
	client         lnrpc.LightningClient
	conn           *grpc.ClientConn
	context        context.Context
	identityPubKey rdb.PubKey
	blockHeight    rdb.BlockHeight
}

type Config struct {
	TlsCertPath  string
	RpcServer    string
	MacaroonPath string
}

func NewClient(config *Config) (*Client, error) {
	cert, err := makeTlsCertFromPath(config.TlsCertPath)
	if err != nil {
		return nil, errors.Errorf("Could not make TLS cert: %v", err)
	}

	creds := credentials.NewClientTLSFromCert(cert, "")

	conn, err := grpc.Dial(config.RpcServer, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, errors.Errorf("Could not connect to lightning node: %v", err)
	}

	client := lnrpc.NewLightningClient(conn)

	macaroon, err := makeMacaroonFromPath(config.MacaroonPath)
	if err != nil {
		return nil, errors.Errorf("Could not make macaroon: %v", err)
	}

	ctx := context.Background()
	ctx = metadata.NewOutgoingContext(ctx, metadata.Pairs("macaroon", macaroon))

	return &Client{
		client:  client,
		conn:    conn,
		context: ctx,
	}, nil
}

func (client *Client) Close() error {
	return client.conn.Close()
}

// Graph returns the local Lightning network graph consisting of a node and edge map
func (client *Client) Graph() (*rdb.Graph, error) {
	graph := &rdb.Graph{}

	channelGraph, err := client.client.DescribeGraph(client.context, &lnrpc.ChannelGraphRequest{
		IncludeUnannounced: true,
	}, grpc.MaxCallRecvMsgSize(50*1024*1024))
	if err != nil {
		return nil, errors.Errorf("Could not get channel graph: %v", err)
	}

	nodeMap := make(rdb.NodeMap)
	for _, node := range channelGraph.Nodes {
		nodeMap[rdb.PubKey(node.PubKey)] = &rdb.Node{
			PubKey: rdb.PubKey(node.PubKey),
			Alias:  node.Alias,
		}
	}
	graph.Nodes = nodeMap

	edgeMap := make(rdb.EdgeMap)
	for _, edge := range channelGraph.Edges {
		edgeMap[rdb.ChanId(edge.ChannelId)] = &rdb.Edge{
			ChanId:      rdb.ChanId(edge.ChannelId),
			Node1Pub:    rdb.PubKey(edge.Node1Pub),
			Node2Pub:    rdb.PubKey(edge.Node2Pub),
			Capacity:    edge.Capacity,
			ChanPoint:   edge.ChanPoint,
			LastUpdate:  edge.LastUpdate,
			Node1Policy: makeRoutingPolicy(edge.Node1Policy),
			Node2Policy: makeRoutingPolicy(edge.Node2Policy),
		}
	}
	graph.Edges = edgeMap

	return graph, nil
}

// makeRoutingPolicy decodes a wire policy. Channels occasionally announce
// no policy for one direction, which decodes to the zero value.
func makeRoutingPolicy(policy *lnrpc.RoutingPolicy) *rdb.RoutingPolicy {
	if policy == nil {
		return &rdb.RoutingPolicy{}
	}

	return &rdb.RoutingPolicy{
		TimeLockDelta:    policy.TimeLockDelta,
		MinHtlc:          policy.MinHtlc,
		FeeBaseMsat:      policy.FeeBaseMsat,
		FeeRateMilliMsat: policy.FeeRateMilliMsat,
		Disabled:         policy.Disabled,
		MaxHtlcMsat:      policy.MaxHtlcMsat,
	}
}

func (client *Client) BlockHeight() (rdb.BlockHeight, error) {
	// Once saved, we can assume that the block height stays for a while
	if client.blockHeight != 0 {
		return client.blockHeight, nil
	}

	info, err := client.client.GetInfo(client.context, &lnrpc.GetInfoRequest{})
	if err != nil {
		return 0, errors.Errorf("Could not get info: %v", err)
	}

	client.blockHeight = rdb.BlockHeight(info.BlockHeight)

	return rdb.BlockHeight(info.BlockHeight), nil
}

func (client *Client) IdentityPubKey() (rdb.PubKey, error) {
	// Once saved, we can assume that the identity pubkey always stays the same
	if client.identityPubKey != "" {
		return client.identityPubKey, nil
	}

	info, err := client.client.GetInfo(client.context, &lnrpc.GetInfoRequest{})
	if err != nil {
		return "", errors.Errorf("Could not get info: %v", err)
	}

	client.identityPubKey = rdb.PubKey(info.IdentityPubkey)

	return rdb.PubKey(info.IdentityPubkey), nil
}

// Channels lists the active channels in the order the node reports them
func (client *Client) Channels() ([]*rdb.Channel, error) {
	channelList, err := client.client.ListChannels(client.context, &lnrpc.ListChannelsRequest{
		ActiveOnly: true,
	})
	if err != nil {
		return nil, errors.Errorf("Could not list channels: %v", err)
	}

	channels := make([]*rdb.Channel, 0, len(channelList.Channels))
	for _, channel := range channelList.Channels {
		channels = append(channels, &rdb.Channel{
			Active:        channel.Active,
			ChanId:        rdb.ChanId(channel.ChanId),
			ToNode:        rdb.PubKey(channel.RemotePubkey),
			Capacity:      channel.Capacity,
			LocalBalance:  channel.LocalBalance,
			RemoteBalance: channel.RemoteBalance,
		})
	}

	return channels, nil
}

func (client *Client) AddInvoice(memo string, amtSat int64) (*rdb.Invoice, error) {
	addInvoice, err := client.client.AddInvoice(client.context, &lnrpc.Invoice{
		Memo:  memo,
		Value: amtSat,
	})
	if err != nil {
		return nil, errors.Errorf("Could not add invoice: %v", err)
	}

	decodedInvoice, err := client.client.DecodePayReq(client.context, &lnrpc.PayReqString{
		PayReq: addInvoice.PaymentRequest,
	})
	if err != nil {
		return nil, errors.Errorf("Could not decode invoice: %v", err)
	}

	return &rdb.Invoice{
		Expiry:          decodedInvoice.Expiry,
		NumSatoshis:     decodedInvoice.NumSatoshis,
		PaymentHash:     decodedInvoice.PaymentHash,
		CltvExpiry:      decodedInvoice.CltvExpiry,
		Description:     decodedInvoice.Description,
		DescriptionHash: decodedInvoice.DescriptionHash,
		Destination:     decodedInvoice.Destination,
		FallbackAddr:    decodedInvoice.FallbackAddr,
		Timestamp:       decodedInvoice.Timestamp,
	}, nil
}

func (client *Client) LookupInvoice(paymentHash string) (*rdb.Invoice, error) {
	invoice, err := client.client.LookupInvoice(client.context, &lnrpc.PaymentHash{
		RHashStr: paymentHash,
	})
	if err != nil {
		return nil, errors.Errorf("Could not look up invoice: %v", err)
	}

	return &rdb.Invoice{
		Expiry:          invoice.Expiry,
		NumSatoshis:     invoice.Value,
		PaymentHash:     hex.EncodeToString(invoice.RHash),
		CltvExpiry:      int64(invoice.CltvExpiry),
		Description:     invoice.Memo,
		DescriptionHash: hex.EncodeToString(invoice.DescriptionHash),
		FallbackAddr:    invoice.FallbackAddr,
		Timestamp:       invoice.CreationDate,
	}, nil
}

// QueryRoutes asks the node for up to maxRoutes routes towards dest that
// can carry amtSat
func (client *Client) QueryRoutes(dest rdb.PubKey, amtSat int64, maxRoutes int32) ([]*lnrpc.Route, error) {
	response, err := client.client.QueryRoutes(client.context, &lnrpc.QueryRoutesRequest{
		PubKey:    string(dest),
		Amt:       amtSat,
		NumRoutes: maxRoutes,
	})
	if err != nil {
		return nil, errors.Errorf("Could not query routes: %v", err)
	}

	return response.Routes, nil
}

// SendToRoutes submits all candidate routes for the payment hash in one
// call, letting the node try them in order until one settles
func (client *Client) SendToRoutes(paymentHash string, routes []*lnrpc.Route) (*rdb.Payment, error) {
	sendResult, err := client.client.SendToRouteSync(client.context, &lnrpc.SendToRouteRequest{
		PaymentHashString: paymentHash,
		Routes:            routes,
	})
	if err != nil {
		return nil, errors.Errorf("Could not send to route: %v", err)
	}

	if sendResult.PaymentError != "" {
		err := mapPaymentErrorToTypedError(sendResult.PaymentError)

		// Extend the temporary channel failure error with the amount that couldn't be forwarded
		if failure, ok := err.(rdb.TemporaryChannelFailureError); ok {
			for _, route := range routes {
				for _, hop := range route.Hops {
					if hop.ChanId == uint64(failure.ChanId) {
						failure.AmtMsat = hop.AmtToForwardMsat
					}
				}
			}

			return nil, failure
		}

		return nil, err
	}

	return &rdb.Payment{
		PaymentHash:     hex.EncodeToString(sendResult.PaymentHash),
		PaymentPreimage: hex.EncodeToString(sendResult.PaymentPreimage),
		FeesMsat:        sendResult.PaymentRoute.TotalFeesMsat,
		AmtMsat:         sendResult.PaymentRoute.TotalAmtMsat,
	}, nil
}

var temporaryChannelFailureRegex = regexp.MustCompile(`(?ms)TemporaryChannelFailure.*\b(?P<ShortChanId>\d+:\d+:\d+)\b`)
var feeInsufficientRegex = regexp.MustCompile(`(?ms)FeeInsufficient.*\b(?P<ShortChanId>\d+:\d+:\d+)\b`)
var expiryTooSoonRegex = regexp.MustCompile(`(?ms)ExpiryTooSoon.*\b(?P<ShortChanId>\d+:\d+:\d+)\b`)

func mapPaymentErrorToTypedError(paymentError string) error {
	if strings.Contains(paymentError, "TemporaryChannelFailure") {
		failure := rdb.TemporaryChannelFailureError{}

		// The failure usually carries a channel update naming the failed channel
		if match := temporaryChannelFailureRegex.FindStringSubmatch(paymentError); len(match) > 0 {
			if shortChanId, err := rdb.NewShortChanIdFromString(match[1]); err == nil && shortChanId.Valid() {
				failure.ChanId = rdb.ChanId(shortChanId.ToUint64())
			}
		}

		return failure
	}

	if match := feeInsufficientRegex.FindStringSubmatch(paymentError); len(match) > 0 {
		shortChanId, _ := rdb.NewShortChanIdFromString(match[1])

		return rdb.FeeInsufficientError{
			ChanId: rdb.ChanId(shortChanId.ToUint64()),
		}
	}

	if match := expiryTooSoonRegex.FindStringSubmatch(paymentError); len(match) > 0 {
		shortChanId, _ := rdb.NewShortChanIdFromString(match[1])

		return rdb.ExpiryTooSoonError{
			ChanId: rdb.ChanId(shortChanId.ToUint64()),
		}
	}

	if strings.Contains(paymentError, "invoice is already paid") {
		return rdb.InvoiceAlreadyPaidError
	}

	return errors.Errorf("Could not send payment: %v", paymentError)
}

func makeTlsCertFromPath(path string) (*x509.CertPool, error) {
	certBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("Could not read tls cert %v", path)
	}

	cert := x509.NewCertPool()
	if ok := cert.AppendCertsFromPEM(certBytes); !ok {
		return nil, errors.New("Could not parse tls cert.")
	}

	return cert, nil
}

func makeMacaroonFromPath(path string) (string, error) {
	macaroonBytes, err := ioutil.ReadFile(path)
	if err != nil {
		return "", errors.Errorf("Could not read macaroon %v", path)
	}

	// Parse the macaroon so a corrupt file fails here instead of as an
	// opaque auth error on the first call
	mac := &macaroon.Macaroon{}
	if err := mac.UnmarshalBinary(macaroonBytes); err != nil {
		return "", errors.Errorf("Could not parse macaroon %v: %v", path, err)
	}

	hexMacaroon := hex.EncodeToString(macaroonBytes)

	return hexMacaroon, nil
}
