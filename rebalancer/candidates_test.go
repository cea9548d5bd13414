package rebalancer

import (
	"github.com/kr/pretty"
	"github.com/satimoto/rebalance-lnd/rdb"
	"testing"
)

func TestSelectCandidates(t *testing.T) {
	channels := []*rdb.Channel{
		{Active: true, ChanId: 2, ToNode: "b", Capacity: 100, LocalBalance: 40, RemoteBalance: 60},
		{Active: true, ChanId: 3, ToNode: "c", Capacity: 100, LocalBalance: 60, RemoteBalance: 40},
		{Active: true, ChanId: 1, ToNode: "a", Capacity: 100, LocalBalance: 20, RemoteBalance: 80},
	}

	targets := selectCandidates(channels)

	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets; got %v: %# v", len(targets), pretty.Formatter(targets))
	}

	// The channel with the largest remote surplus ranks first; the one
	// already holding most funds locally is out.
	if targets[0].Channel.ToNode != "a" {
		t.Errorf("Expected channel to a first; got %v", targets[0].Channel.ToNode)
	}

	if targets[1].Channel.ToNode != "b" {
		t.Errorf("Expected channel to b second; got %v", targets[1].Channel.ToNode)
	}

	if targets[0].RemoteSurplus != 60 {
		t.Errorf("Expected remote surplus of 60; got %v", targets[0].RemoteSurplus)
	}

	if targets[0].LocalRatio != 0.2 {
		t.Errorf("Expected local ratio of 0.2; got %v", targets[0].LocalRatio)
	}
}

func TestSelectCandidatesKeepsOrderOnTies(t *testing.T) {
	channels := []*rdb.Channel{
		{Active: true, ChanId: 1, ToNode: "a", Capacity: 100, LocalBalance: 30, RemoteBalance: 70},
		{Active: true, ChanId: 2, ToNode: "b", Capacity: 110, LocalBalance: 35, RemoteBalance: 75},
	}

	targets := selectCandidates(channels)

	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets; got %v", len(targets))
	}

	if targets[0].Channel.ChanId != 1 || targets[1].Channel.ChanId != 2 {
		t.Errorf("Expected listing order to hold on equal surplus; got %v, %v",
			targets[0].Channel.ChanId, targets[1].Channel.ChanId)
	}
}

func TestSelectCandidatesSkipsInactive(t *testing.T) {
	channels := []*rdb.Channel{
		{Active: false, ChanId: 1, ToNode: "a", Capacity: 100, LocalBalance: 10, RemoteBalance: 90},
	}

	if targets := selectCandidates(channels); len(targets) != 0 {
		t.Errorf("Expected no targets; got %# v", pretty.Formatter(targets))
	}
}
