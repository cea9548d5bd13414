package main

import (
	"fmt"
	"github.com/satimoto/rebalance-lnd/rdb"
	"golang.org/x/term"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	// maxChannelCapacitySat is the protocol cap on channel size and the
	// reference width for the capacity bars.
	maxChannelCapacitySat = 16777215
	defaultTerminalWidth  = 80
)

// listCandidates prints the rebalance candidates with the neediest
// channel last, right above the usage hint.
func listCandidates(w io.Writer, targets []*rdb.RebalanceTarget, columns int) {

	for i := len(targets) - 1; i >= 0; i-- {
		target := targets[i]

		suggestedAmountSat := target.SuggestedAmountSat()
		amount := strconv.FormatInt(suggestedAmountSat, 10)
		if suggestedAmountSat > maxPaymentAmountSat {
			amount += fmt.Sprintf(" (max per transaction: %v)", maxPaymentAmountSat)
		}

		fmt.Fprintf(w, "Pubkey:           %v\n", target.Channel.ToNode)
		fmt.Fprintf(w, "Local ratio:      %.3f\n", target.LocalRatio)
		fmt.Fprintf(w, "Capacity:         %v\n", target.Channel.Capacity)
		fmt.Fprintf(w, "Remote balance:   %v\n", target.Channel.RemoteBalance)
		fmt.Fprintf(w, "Local balance:    %v\n", target.Channel.LocalBalance)
		fmt.Fprintf(w, "Amount for 50-50: %v\n", amount)
		fmt.Fprintln(w, capacityAndRatioBar(target, columns))
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Run with two arguments: 1) pubkey of channel to fill 2) amount")
}

func printPayment(w io.Writer, payment *rdb.Payment) {
	fmt.Fprintf(w, "Amount paid:      %.3f Satoshi\n", float64(payment.AmtMsat)/1000.0)
	fmt.Fprintf(w, "Fees paid:        %.3f Satoshi\n", float64(payment.FeesMsat)/1000.0)
	fmt.Fprintf(w, "Payment hash:     %v\n", payment.PaymentHash)
	fmt.Fprintf(w, "Payment preimage: %v\n", payment.PaymentPreimage)
}

// capacityAndRatioBar draws the channel as a bar whose width is the
// capacity scaled against the largest possible channel and whose fill
// is the local ratio.
func capacityAndRatioBar(target *rdb.RebalanceTarget, columns int) string {
	scaled := int(math.Round(float64(columns) * float64(target.Channel.Capacity) / maxChannelCapacitySat))

	barWidth := scaled - 2
	if barWidth < 0 {
		barWidth = 0
	}

	length := int(math.Round(target.LocalRatio * float64(barWidth)))

	return "|" + strings.Repeat("=", length) + strings.Repeat(" ", barWidth-length) + "|"
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return defaultTerminalWidth
	}

	return width
}
