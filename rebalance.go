package main

import (
	"fmt"
	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"
	"github.com/satimoto/rebalance-lnd/lndc"
	"github.com/satimoto/rebalance-lnd/rdb"
	"github.com/satimoto/rebalance-lnd/rebalancer"
	log "github.com/sirupsen/logrus"
	"os"
	"strconv"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	version string
	// Stores the date of this build. This should be set using -ldflags during compilation.
	date string
)

// maxPaymentAmountSat is the largest payment lnd can route, from the
// uint32 millisatoshi cap on a single HTLC.
const maxPaymentAmountSat = 4294967

// rebalanceMain is the true entry point for rebalance-lnd. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func rebalanceMain() error {
	cfg, args, err := loadConfig()
	if err != nil {
		return err
	}

	// Diagnostics go to stderr so results on stdout stay pipeable
	log.SetOutput(os.Stderr)
	log.SetLevel(log.InfoLevel)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	if cfg.ShowVersion {
		fmt.Printf("rebalance-lnd version=%s commit=%s date=%s\n", version, commit, date)
		return nil
	}

	client, err := lndc.NewClient(&lndc.Config{
		TlsCertPath:  cfg.TlsCertPath,
		RpcServer:    cfg.RpcServer,
		MacaroonPath: cfg.MacaroonPath,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	r := rebalancer.NewRebalancer(&rebalancer.Config{
		Logger: log.StandardLogger(),
		Client: client,
	})

	if len(args) != 2 {
		targets, err := r.Candidates()
		if err != nil {
			return err
		}

		listCandidates(os.Stdout, targets, terminalWidth())

		return nil
	}

	remotePubKey := rdb.PubKey(args[0])

	amtSat, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return errors.Errorf("Could not parse amount: %v", err)
	}

	if amtSat <= 0 || amtSat > maxPaymentAmountSat {
		return errors.Errorf("Amount must be between 1 and %v satoshi", maxPaymentAmountSat)
	}

	payment, err := r.Rebalance(remotePubKey, amtSat)
	if err != nil {
		return err
	}

	printPayment(os.Stdout, payment)

	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := rebalanceMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running rebalance-lnd.")
		}
		os.Exit(1)
	}
}
