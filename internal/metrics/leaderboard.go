package metrics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Metric selects the leaderboard ranking dimension.
type Metric string

const (
	MetricVolume      Metric = "volume"
	MetricRealizedPnL Metric = "pnl"
	MetricReturnPct   Metric = "return"
)

// ParseMetric maps a query value onto a Metric.
func ParseMetric(raw string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(raw))) {
	case MetricVolume:
		return MetricVolume, nil
	case MetricRealizedPnL:
		return MetricRealizedPnL, nil
	case MetricReturnPct, "":
		return MetricReturnPct, nil
	default:
		return "", fmt.Errorf("unknown leaderboard metric %q", raw)
	}
}

// AccountSummary pairs an account with its computed metrics.
type AccountSummary struct {
	Account string  `json:"account"`
	Summary Summary `json:"summary"`
}

// Entry is one ranked leaderboard row.
type Entry struct {
	Rank    int             `json:"rank"`
	Account string          `json:"account"`
	Value   decimal.Decimal `json:"value"`
	Summary Summary         `json:"summary"`
}

func metricValue(sum Summary, metric Metric) decimal.Decimal {
	switch metric {
	case MetricVolume:
		return sum.TradingVolume
	case MetricRealizedPnL:
		return sum.RealizedPnL
	default:
		return sum.ReturnPct
	}
}

// Rank orders account summaries descending by the chosen metric and assigns
// 1-based dense ranks. Ties keep the input order (stable sort) so repeated
// runs over the same account list are deterministic.
func Rank(rows []AccountSummary, metric Metric) []Entry {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{
			Account: row.Account,
			Value:   metricValue(row.Summary, metric),
			Summary: row.Summary,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Value.GreaterThan(entries[j].Value)
	})
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Value.Cmp(entries[i-1].Value) != 0 {
			rank++
		}
		entries[i].Rank = rank
	}
	return entries
}
