package internaldefs

import (
	goATM "github.com/MrEthical07/goATM"
)

// Label is one series attribute.
type Label struct {
	Key   string
	Value string
}

// Series is one labelled series of a family, read from a machine counter.
type Series struct {
	ID     goATM.MetricID
	Labels []Label
}

// CounterFamily groups machine counters that describe the same event and
// differ only by outcome.
type CounterFamily struct {
	Name     string // Prometheus name
	OTelName string
	Help     string
	Series   []Series
}

// HistogramDef names the PIN verification latency histogram.
type HistogramDef struct {
	ID       goATM.MetricID
	Name     string
	OTelName string
	Help     string
}

func result(v string) []Label { return []Label{{Key: "result", Value: v}} }

func op(kind, res string) []Label {
	return []Label{{Key: "kind", Value: kind}, {Key: "result", Value: res}}
}

// CounterFamilies covers every counter goATM.Metrics records, each in exactly
// one family.
var CounterFamilies = []CounterFamily{
	{
		Name:     "atm_card_insertions_total",
		OTelName: "atm.card.insertions",
		Help:     "Inserted cards by directory lookup result.",
		Series: []Series{
			{ID: goATM.MetricCardInserted, Labels: result("accepted")},
			{ID: goATM.MetricCardUnknown, Labels: result("unknown")},
		},
	},
	{
		Name:     "atm_pin_entries_total",
		OTelName: "atm.pin.entries",
		Help:     "PIN entries by outcome. locked is the entry that locked the card; refused is an entry for a card already locked.",
		Series: []Series{
			{ID: goATM.MetricPINAccepted, Labels: result("accepted")},
			{ID: goATM.MetricPINRejected, Labels: result("rejected")},
			{ID: goATM.MetricCardLocked, Labels: result("locked")},
			{ID: goATM.MetricLockedCardAttempt, Labels: result("refused")},
		},
	},
	{
		Name:     "atm_operations_total",
		OTelName: "atm.operations",
		Help:     "Account operations in an authenticated card cycle by kind and result.",
		Series: []Series{
			{ID: goATM.MetricBalanceInquiry, Labels: op("balance", "success")},
			{ID: goATM.MetricDepositSuccess, Labels: op("deposit", "success")},
			{ID: goATM.MetricDepositRejected, Labels: op("deposit", "invalid_amount")},
			{ID: goATM.MetricWithdrawSuccess, Labels: op("withdraw", "success")},
			{ID: goATM.MetricWithdrawRejected, Labels: op("withdraw", "invalid_amount")},
			{ID: goATM.MetricInsufficientFunds, Labels: op("withdraw", "insufficient_funds")},
		},
	},
	{
		Name:     "atm_unauthenticated_operations_total",
		OTelName: "atm.operations.unauthenticated",
		Help:     "Account operations attempted without an authenticated card cycle.",
		Series:   []Series{{ID: goATM.MetricNotAuthenticated}},
	},
	{
		Name:     "atm_card_cycles_ended_total",
		OTelName: "atm.card_cycles.ended",
		Help:     "Card cycles ended by logout, exit, replacement or single-transaction policy.",
		Series:   []Series{{ID: goATM.MetricLogout}},
	},
}

// PINLatency is the only histogram a Machine records.
var PINLatency = HistogramDef{
	ID:       goATM.MetricPINVerifyLatency,
	Name:     "atm_pin_verify_latency_seconds",
	OTelName: "atm.pin.verify.duration",
	Help:     "PIN hash verification latency.",
}

// The machine state gauge is one-hot: the current state reports 1, the
// others 0.
const (
	StateName     = "atm_machine_state"
	StateOTelName = "atm.machine.state"
	StateHelp     = "Card cycle state of the machine, 1 for the current state."
	StateLabel    = "state"
)

// States lists every card cycle state in gauge order.
var States = []goATM.State{
	goATM.StateNoCard,
	goATM.StateCardPresent,
	goATM.StateAuthenticated,
}

// StateValue returns the gauge value of s when the machine is in current.
func StateValue(s, current goATM.State) int64 {
	if s == current {
		return 1
	}
	return 0
}

// HistogramBounds are the upper bounds, in seconds, of the eight buckets
// recorded by goATM.Metrics.
var HistogramBounds = []string{
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"1",
	"+Inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero filling
// or truncating as needed.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
