package performance

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambutler/wheeltrack/internal/domain"
)

type fakeLedger struct {
	trades []domain.Trade
}

func (f *fakeLedger) Append(t domain.Trade) (string, error) { return "id", nil }
func (f *fakeLedger) ListAll() ([]domain.Trade, error)      { return f.trades, nil }

type fakePrices struct {
	tables map[string]*domain.PriceTable // keyed by first requested ticker
	err    error
}

func (f *fakePrices) CurrentClose(ticker string) (float64, error) {
	return 0, fmt.Errorf("%w: not implemented", domain.ErrPriceDataUnavailable)
}

func (f *fakePrices) History(tickers []string, start, end string) (*domain.PriceTable, error) {
	if f.err != nil {
		return nil, f.err
	}
	table, ok := f.tables[tickers[0]]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPriceDataUnavailable, tickers[0])
	}
	return table, nil
}

func mkTrade(date, ticker string, typ domain.TradeType, qty int64, price float64) domain.Trade {
	return domain.Trade{
		Date:     date,
		Ticker:   ticker,
		Type:     typ,
		Quantity: qty,
		Price:    decimal.NewFromFloat(price),
		FxRate:   decimal.NewFromFloat(1.5),
	}
}

// dateSeq returns n consecutive dates starting at start.
func dateSeq(start string, n int) []string {
	t, _ := time.Parse(domain.DateFormat, start)
	dates := make([]string, n)
	for i := range dates {
		dates[i] = t.AddDate(0, 0, i).Format(domain.DateFormat)
	}
	return dates
}

func tableFor(ticker string, dates []string, closes []float64) *domain.PriceTable {
	table := domain.NewPriceTable()
	for i, d := range dates {
		table.AddClose(ticker, d, closes[i])
	}
	return table
}

func testService(ledger *fakeLedger, prices *fakePrices) *Service {
	svc := NewService(ledger, prices, "^GSPC", zerolog.New(nil).Level(zerolog.Disabled))
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestCompute_SeriesAndStats(t *testing.T) {
	dates := dateSeq("2024-01-02", 4)
	ledger := &fakeLedger{trades: []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 9),
	}}
	prices := &fakePrices{tables: map[string]*domain.PriceTable{
		"AAPL":  tableFor("AAPL", dates, []float64{10, 11, 12, 11.5}),
		"^GSPC": tableFor("^GSPC", dates, []float64{4000, 4040, 4080, 4060}),
	}}

	result, err := testService(ledger, prices).Compute()
	require.NoError(t, err)
	require.Len(t, result.Series.Dates, 4)

	// value = cash(-900) + 100*close
	assert.InDelta(t, 100, result.Series.Portfolio[0], 1e-9)
	assert.InDelta(t, 200, result.Series.Portfolio[1], 1e-9)
	assert.InDelta(t, 300, result.Series.Portfolio[2], 1e-9)

	// Benchmark normalized to the portfolio's first value
	assert.InDelta(t, 100, result.Series.Benchmark[0], 1e-9)
	assert.InDelta(t, 101, result.Series.Benchmark[1], 1e-9)

	require.NotNil(t, result.Stats)
	assert.GreaterOrEqual(t, result.Stats.Correlation, -1.0)
	assert.LessOrEqual(t, result.Stats.Correlation, 1.0)
	assert.Greater(t, result.Stats.BenchmarkVolatility, 0.0)

	assert.Nil(t, result.SMA, "four points is under the moving-average window")
}

func TestCompute_SMAOnLongSeries(t *testing.T) {
	n := 30
	dates := dateSeq("2024-01-02", n)
	closes := make([]float64, n)
	bench := make([]float64, n)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.1
		bench[i] = 4000 + float64(i)*5
	}

	ledger := &fakeLedger{trades: []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 9),
	}}
	prices := &fakePrices{tables: map[string]*domain.PriceTable{
		"AAPL":  tableFor("AAPL", dates, closes),
		"^GSPC": tableFor("^GSPC", dates, bench),
	}}

	result, err := testService(ledger, prices).Compute()
	require.NoError(t, err)
	require.Len(t, result.SMA, n)
	assert.Equal(t, smaPeriod-1, result.SMAOffset)
	assert.Zero(t, result.SMA[smaPeriod-2], "warm-up window is zero")
	assert.NotZero(t, result.SMA[smaPeriod-1])
}

func TestCompute_EmptyLedger(t *testing.T) {
	result, err := testService(&fakeLedger{}, &fakePrices{}).Compute()
	require.NoError(t, err)
	assert.True(t, result.Series.IsEmpty())
	assert.Nil(t, result.Stats)
}

func TestCompute_BenchmarkOutage(t *testing.T) {
	ledger := &fakeLedger{trades: []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
	}}
	prices := &fakePrices{err: fmt.Errorf("%w: upstream down", domain.ErrPriceDataUnavailable)}

	_, err := testService(ledger, prices).Compute()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceDataUnavailable)
}

func TestDailyReturns(t *testing.T) {
	returns := dailyReturns([]float64{100, 110, 99})
	require.Len(t, returns, 2)
	assert.InDelta(t, 0.1, returns[0], 1e-9)
	assert.InDelta(t, -0.1, returns[1], 1e-9)

	assert.Nil(t, dailyReturns([]float64{100}))

	// Zero previous value yields a zero return, not a blowup
	returns = dailyReturns([]float64{0, 100})
	require.Len(t, returns, 1)
	assert.Zero(t, returns[0])
}

func TestRenderPNG(t *testing.T) {
	dates := dateSeq("2024-01-02", 4)
	ledger := &fakeLedger{trades: []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
	}}
	prices := &fakePrices{tables: map[string]*domain.PriceTable{
		"AAPL":  tableFor("AAPL", dates, []float64{10, 11, 12, 11.5}),
		"^GSPC": tableFor("^GSPC", dates, []float64{4000, 4040, 4080, 4060}),
	}}

	result, err := testService(ledger, prices).Compute()
	require.NoError(t, err)

	png, err := RenderPNG(result)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}

func TestRenderPNG_EmptySeries(t *testing.T) {
	_, err := RenderPNG(&Performance{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPriceDataUnavailable)
}

func TestSaveChart(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveChart(dir, []byte{0x89, 'P', 'N', 'G'})
	require.NoError(t, err)
	assert.FileExists(t, path)
}
