package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ETFScraper/internal/domain/models"
	applogger "ETFScraper/pkg/logger"
	"ETFScraper/pkg/util"

	"github.com/shopspring/decimal"
)

const (
	allHoldingsBlock = "all_holdings"
	weightPlaces     = 8
	maxWeightLen     = 64
	maxWeightExp     = 2
	minWeightExp     = -64
	maxSkipReasons   = 5
	structureDumpLen = 1000
)

var errWeightOutOfRange = errors.New("out of range")

var (
	minWeight = decimal.Zero
	maxWeight = decimal.NewFromInt(100)
)

// Normalizer turns a fund-details document into holdings.
type Normalizer struct {
	log *applogger.Logger
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(l *applogger.Logger) *Normalizer {
	if l == nil {
		l = applogger.Nop()
	}
	return &Normalizer{log: l.Component("normalizer")}
}

// Normalize extracts holdings from doc. It never fails: structural problems
// produce an empty result with status extraction_failed.
func (n *Normalizer) Normalize(doc models.RawDocument) models.FetchResult {
	res, _ := n.Extract(doc)
	return res
}

// Extract is Normalize that also reports how many entries were dropped.
func (n *Normalizer) Extract(doc models.RawDocument) (res models.FetchResult, skipped int) {
	defer func() {
		if r := recover(); r != nil {
			n.log.Warn("holdings extraction aborted", applogger.String("panic", fmt.Sprint(r)))
			res = models.NewFetchResult(nil, models.StatusExtractionFailed)
			skipped = 0
		}
	}()

	entries, found := locateHoldings(doc.Value)
	var (
		holdings []models.Holding
		reasons  []string
	)
	status := models.StatusExtractionFailed

	if found {
		n.log.Debug("holdings block found", applogger.Int("entries", len(entries)))
		if len(entries) == 0 {
			status = models.StatusEmpty
		}
		holdings = make([]models.Holding, 0, len(entries))
		for _, entry := range entries {
			h, reason := parseHolding(entry)
			if reason != "" {
				skipped++
				reasons = append(reasons, reason)
				continue
			}
			holdings = append(holdings, h)
		}
	}

	if skipped > 0 {
		shown := reasons
		if len(shown) > maxSkipReasons {
			shown = shown[:maxSkipReasons]
		}
		n.log.Info("skipped holdings",
			applogger.Int("skipped", skipped),
			applogger.Strings("reasons", shown),
		)
	}

	if len(holdings) == 0 && n.log.DebugEnabled() {
		n.log.Debug("no holdings found in response",
			applogger.Bool("block_found", found),
			applogger.String("structure", util.Truncate(string(doc.Raw), structureDumpLen)),
		)
	}

	return models.NewFetchResult(holdings, status), skipped
}

// locateHoldings walks data.topHoldings.data[] to the first block named
// all_holdings and returns its entries. A block whose data is missing counts
// as found and empty; data of any other non-array type is not found.
func locateHoldings(v any) ([]any, bool) {
	root, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := root["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	top, ok := data["topHoldings"].(map[string]any)
	if !ok {
		return nil, false
	}
	blocks, ok := top["data"].([]any)
	if !ok {
		return nil, false
	}

	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			continue
		}
		if name, _ := block["name"].(string); name != allHoldingsBlock {
			continue
		}
		raw, present := block["data"]
		if !present || raw == nil {
			return []any{}, true
		}
		entries, ok := raw.([]any)
		if !ok {
			return nil, false
		}
		return entries, true
	}
	return nil, false
}

// parseHolding returns the holding or a non-empty reason it was rejected.
func parseHolding(entry any) (models.Holding, string) {
	m, ok := entry.(map[string]any)
	if !ok {
		return models.Holding{}, fmt.Sprintf("entry is not an object: %T", entry)
	}

	name := ""
	if s, ok := m["name"].(string); ok {
		name = strings.TrimSpace(s)
	}

	symbol := strings.ToUpper(strings.TrimSpace(scalarString(m["symbol"])))
	if symbol == "" {
		if name == "" {
			return models.Holding{}, "missing both symbol and name"
		}
		symbol = strings.ToUpper(name)
	}

	rawWeight := scalarString(m["weight"])
	if rawWeight == "" {
		return models.Holding{}, symbol + ": missing weight"
	}

	weight, err := parseWeight(rawWeight)
	if errors.Is(err, errWeightOutOfRange) {
		return models.Holding{}, fmt.Sprintf("%s: weight %q is out of range", symbol, rawWeight)
	}
	if err != nil {
		return models.Holding{}, fmt.Sprintf("%s: error parsing weight %q: %v", symbol, rawWeight, err)
	}
	if !weight.GreaterThan(minWeight) || weight.GreaterThan(maxWeight) {
		return models.Holding{}, fmt.Sprintf("%s: weight %s is out of range", symbol, weight.String())
	}

	return models.Holding{
		Symbol: symbol,
		Weight: weight.InexactFloat64(),
		Name:   name,
	}, ""
}

// parseWeight parses values like "7.49%" and rounds to 8 places.
// Exponents outside [minWeightExp, maxWeightExp] are rejected before any
// rescaling. A nonzero value with an exponent above 2 is at least 1000.
func parseWeight(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	if len(clean) > maxWeightLen {
		return decimal.Decimal{}, errWeightOutOfRange
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if exp := d.Exponent(); exp > maxWeightExp || exp < minWeightExp {
		return decimal.Decimal{}, errWeightOutOfRange
	}
	return d.Round(weightPlaces), nil
}

// scalarString formats strings, numbers and true as text. false, null and
// composite values are treated as absent.
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	case bool:
		if t {
			return "TRUE"
		}
	}
	return ""
}
