package lndc

import (
	"context"
	"github.com/kr/pretty"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/satimoto/rebalance-lnd/rdb"
	"google.golang.org/grpc"
	"testing"
)

var temporaryChannelFailure = "unable to route payment to destination: TemporaryChannelFailure(update=(*lnwire.ChannelUpdate)(0xcbe3cc0)({\n Signature: (lnwire.Sig) (len=64 cap=64) {\n  00000000  0b d4 c9 7f 09 ab 1d 3c  5b db a3 14 15 f9 5d 1f  |.......<[.....].|\n  00000010  27 79 2c 0b c5 b9 fb 01  da f1 17 4e f9 af 89 b5  |'y,........N....|\n  00000020  5a 17 3c f6 ea d1 af 9f  1b 85 12 2a 7b 13 9a 89  |Z.<........*{...|\n  00000030  f4 cf a8 83 6d f8 04 fd  e4 44 0b 57 34 d2 e7 10  |....m....D.W4...|\n },\n ChainHash: (chainhash.Hash) (len=32 cap=32) 000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f,\n ShortChannelID: (lnwire.ShortChannelID) 557807:665:1,\n Timestamp: (uint32) 1553189282,\n MessageFlags: (lnwire.ChanUpdateMsgFlags) 00000001,\n ChannelFlags: (lnwire.ChanUpdateChanFlags) 00000001,\n TimeLockDelta: (uint16) 144,\n HtlcMinimumMsat: (lnwire.MilliSatoshi) 1000 mSAT,\n BaseFee: (uint32) 0,\n FeeRate: (uint32) 1,\n HtlcMaximumMsat: (lnwire.MilliSatoshi) 1000000000 mSAT,\n ExtraOpaqueData: ([]uint8) <nil>\n})\n)"

func TestParseError(t *testing.T) {
	err := mapPaymentErrorToTypedError(temporaryChannelFailure)

	switch err := err.(type) {
	case rdb.TemporaryChannelFailureError:
		if err.ChanId != 613315282598428673 {
			t.Errorf("Expected channel id of 613315282598428673; got %v", err.ChanId)
		}
	default:
		t.Errorf("Expected temporary channel failure; got %T", err)
	}
}

func TestParseErrorWithoutChannelUpdate(t *testing.T) {
	err := mapPaymentErrorToTypedError("unable to route payment to destination: TemporaryChannelFailure")

	switch err := err.(type) {
	case rdb.TemporaryChannelFailureError:
		if err.ChanId != 0 {
			t.Errorf("Expected unknown channel id; got %v", err.ChanId)
		}
	default:
		t.Errorf("Expected temporary channel failure; got %T", err)
	}
}

func TestParseFeeInsufficientError(t *testing.T) {
	paymentError := "unable to route payment to destination: FeeInsufficient(htlc_amt=10170 mSAT, update=(*lnwire.ChannelUpdate)({\n ShortChannelID: (lnwire.ShortChannelID) 557807:665:1,\n TimeLockDelta: (uint16) 144\n})\n)"
	err := mapPaymentErrorToTypedError(paymentError)

	switch err := err.(type) {
	case rdb.FeeInsufficientError:
		if err.ChanId != 613315282598428673 {
			t.Errorf("Expected channel id of 613315282598428673; got %v", err.ChanId)
		}
	default:
		t.Errorf("Expected fee insufficient error; got %T", err)
	}
}

func TestParseExpiryTooSoonError(t *testing.T) {
	paymentError := "unable to route payment to destination: ExpiryTooSoon(update=(*lnwire.ChannelUpdate)({\n ShortChannelID: (lnwire.ShortChannelID) 557807:665:1\n})\n)"
	err := mapPaymentErrorToTypedError(paymentError)

	switch err := err.(type) {
	case rdb.ExpiryTooSoonError:
		if err.ChanId != 613315282598428673 {
			t.Errorf("Expected channel id of 613315282598428673; got %v", err.ChanId)
		}
	default:
		t.Errorf("Expected expiry too soon error; got %T", err)
	}
}

func TestParseInvoiceAlreadyPaidError(t *testing.T) {
	err := mapPaymentErrorToTypedError("invoice is already paid")

	if err != rdb.InvoiceAlreadyPaidError {
		t.Errorf("Expected invoice already paid error; got %v", err)
	}
}

func TestParseUnknownError(t *testing.T) {
	err := mapPaymentErrorToTypedError("UnknownNextPeer()")

	switch err.(type) {
	case rdb.TemporaryChannelFailureError, rdb.FeeInsufficientError, rdb.ExpiryTooSoonError:
		t.Errorf("Expected untyped error; got %T", err)
	}
}

// fakeLightningClient stubs out the node for the calls a test cares about.
// Everything else panics through the embedded nil interface.
type fakeLightningClient struct {
	lnrpc.LightningClient
	sendResponse *lnrpc.SendResponse
	listResponse *lnrpc.ListChannelsResponse
}

func (c *fakeLightningClient) SendToRouteSync(ctx context.Context, req *lnrpc.SendToRouteRequest, opts ...grpc.CallOption) (*lnrpc.SendResponse, error) {
	return c.sendResponse, nil
}

func (c *fakeLightningClient) ListChannels(ctx context.Context, req *lnrpc.ListChannelsRequest, opts ...grpc.CallOption) (*lnrpc.ListChannelsResponse, error) {
	return c.listResponse, nil
}

func TestSendToRoutesTemporaryFailure(t *testing.T) {
	client := &Client{
		client: &fakeLightningClient{
			sendResponse: &lnrpc.SendResponse{
				PaymentError: temporaryChannelFailure,
			},
		},
		context: context.Background(),
	}

	// The failing channel sits in the second submitted route
	routes := []*lnrpc.Route{
		{
			Hops: []*lnrpc.Hop{
				{ChanId: 1, AmtToForwardMsat: 1000000},
			},
		},
		{
			Hops: []*lnrpc.Hop{
				{ChanId: 2, AmtToForwardMsat: 1000000},
				{ChanId: 613315282598428673, AmtToForwardMsat: 990000},
			},
		},
	}

	_, err := client.SendToRoutes("00", routes)
	if err == nil {
		t.Fatalf("Expected error from failed payment")
	}

	switch err := err.(type) {
	case rdb.TemporaryChannelFailureError:
		if err.ChanId != 613315282598428673 {
			t.Errorf("Expected channel id of 613315282598428673; got %v", err.ChanId)
		}

		if err.AmtMsat != 990000 {
			t.Errorf("Expected amount of 990000 msat; got %v", err.AmtMsat)
		}
	default:
		t.Errorf("Expected temporary channel failure; got %T", err)
	}
}

func TestSendToRoutesSuccess(t *testing.T) {
	client := &Client{
		client: &fakeLightningClient{
			sendResponse: &lnrpc.SendResponse{
				PaymentHash:     []byte{0xab, 0xcd},
				PaymentPreimage: []byte{0x12, 0x34},
				PaymentRoute: &lnrpc.Route{
					TotalAmtMsat:  991000,
					TotalFeesMsat: 1000,
				},
			},
		},
		context: context.Background(),
	}

	payment, err := client.SendToRoutes("abcd", []*lnrpc.Route{{}})
	if err != nil {
		t.Fatalf("Could not send to routes: %v", err)
	}

	expected := &rdb.Payment{
		PaymentHash:     "abcd",
		PaymentPreimage: "1234",
		FeesMsat:        1000,
		AmtMsat:         991000,
	}

	if *payment != *expected {
		t.Errorf("Expected payment %# v; got %# v", pretty.Formatter(expected), pretty.Formatter(payment))
	}
}

func TestChannelsKeepListingOrder(t *testing.T) {
	client := &Client{
		client: &fakeLightningClient{
			listResponse: &lnrpc.ListChannelsResponse{
				Channels: []*lnrpc.Channel{
					{ChanId: 3, RemotePubkey: "carol", Active: true},
					{ChanId: 1, RemotePubkey: "alice", Active: true},
					{ChanId: 2, RemotePubkey: "bob", Active: true},
				},
			},
		},
		context: context.Background(),
	}

	channels, err := client.Channels()
	if err != nil {
		t.Fatalf("Could not get channels: %v", err)
	}

	expectedOrder := []rdb.ChanId{3, 1, 2}
	for i, chanId := range expectedOrder {
		if channels[i].ChanId != chanId {
			t.Errorf("Expected channel %v at position %v; got %v", chanId, i, channels[i].ChanId)
		}
	}
}
