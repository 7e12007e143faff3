package etfcom

import "strings"

const (
	QueryAllHoldings = "allHoldings"
	QueryTopHoldings = "topHoldings"
)

// queries are tried in order; the first 2xx wins.
var queries = []string{QueryAllHoldings, QueryTopHoldings}

// Payload is the fund-details request body.
type Payload struct {
	Query     string    `json:"query"`
	Variables Variables `json:"variables"`
}

type Variables struct {
	Ticker   string `json:"ticker"`
	FundISIN string `json:"fund_isin"`
}

func newPayload(query, ticker string) Payload {
	return Payload{
		Query:     query,
		Variables: Variables{Ticker: strings.ToUpper(ticker)},
	}
}
