package domain

import "sort"

// PriceTable holds daily close prices, ticker x date -> close.
// Dates use the YYYY-MM-DD layout, which sorts chronologically as strings.
type PriceTable struct {
	closes map[string]map[string]float64 // ticker -> date -> close
}

// NewPriceTable creates an empty price table.
func NewPriceTable() *PriceTable {
	return &PriceTable{closes: make(map[string]map[string]float64)}
}

// AddClose records a close price for a ticker on a date.
func (p *PriceTable) AddClose(ticker, date string, close float64) {
	byDate, ok := p.closes[ticker]
	if !ok {
		byDate = make(map[string]float64)
		p.closes[ticker] = byDate
	}
	byDate[date] = close
}

// Close returns the close price for a ticker on a date, if present.
func (p *PriceTable) Close(ticker, date string) (float64, bool) {
	close, ok := p.closes[ticker][date]
	return close, ok
}

// LastCloseOnOrBefore returns the most recent close at or before date.
// Used to carry a position's valuation across price gaps.
func (p *PriceTable) LastCloseOnOrBefore(ticker, date string) (float64, bool) {
	byDate, ok := p.closes[ticker]
	if !ok {
		return 0, false
	}
	best := ""
	for d := range byDate {
		if d <= date && d > best {
			best = d
		}
	}
	if best == "" {
		return 0, false
	}
	return byDate[best], true
}

// Dates returns the sorted union of all dates in the table.
func (p *PriceTable) Dates() []string {
	seen := make(map[string]bool)
	for _, byDate := range p.closes {
		for d := range byDate {
			seen[d] = true
		}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Tickers returns the tickers present in the table, sorted.
func (p *PriceTable) Tickers() []string {
	tickers := make([]string, 0, len(p.closes))
	for t := range p.closes {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// IsEmpty reports whether the table holds no prices at all.
func (p *PriceTable) IsEmpty() bool {
	for _, byDate := range p.closes {
		if len(byDate) > 0 {
			return false
		}
	}
	return true
}
