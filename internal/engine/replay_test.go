package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambutler/wheeltrack/internal/domain"
)

// mkTrade builds a ledger entry for tests
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

func TestDeltas_SignRule(t *testing.T) {
	testCases := []struct {
		name        string
		typ         domain.TradeType
		qty         int64
		price       float64
		wantShares  int64
		wantCash    string
		shouldError bool
	}{
		{name: "buy stock", typ: domain.BuyStock, qty: 100, price: 10, wantShares: 100, wantCash: "-1000"},
		{name: "sell stock", typ: domain.SellStock, qty: 100, price: 12, wantShares: -100, wantCash: "1200"},
		{name: "sell put carries contract multiplier", typ: domain.SellPut, qty: 1, price: 2, wantShares: 0, wantCash: "200"},
		{name: "sell call carries contract multiplier", typ: domain.SellCall, qty: 2, price: 1.5, wantShares: 0, wantCash: "300"},
		{name: "buy put debits premium", typ: domain.BuyPut, qty: 1, price: 0.5, wantShares: 0, wantCash: "-50"},
		{name: "buy call debits premium", typ: domain.BuyCall, qty: 3, price: 1, wantShares: 0, wantCash: "-300"},
		{name: "unknown type", typ: domain.TradeType("ASSIGNMENT"), qty: 1, price: 1, shouldError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sharesDelta, cashDelta, err := Deltas(mkTrade("2024-01-02", "AAPL", tc.typ, tc.qty, tc.price))

			if tc.shouldError {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrUnknownTradeType)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantShares, sharesDelta)
			assert.Equal(t, tc.wantCash, cashDelta.String())
		})
	}
}

func TestReplay_StockOnlySequence(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-01-10", "AAPL", domain.BuyStock, 50, 20),
		mkTrade("2024-02-01", "AAPL", domain.SellStock, 30, 25),
	}

	pos, err := Replay(trades)
	require.NoError(t, err)

	// shares = algebraic sum of signed quantities
	assert.Equal(t, int64(120), pos.Shares)
	// cash = negative sum of signed price*quantity
	assert.Equal(t, "-1250", pos.Cash.String()) // -1000 - 1000 + 750
	assert.True(t, pos.Open())
}

func TestReplay_SinglePremiumIsRealizedProfit(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "SOFI", domain.SellPut, 1, 2.00),
	}

	pos, err := Replay(trades)
	require.NoError(t, err)

	assert.Equal(t, int64(0), pos.Shares)
	assert.Equal(t, "200", pos.Cash.String())
	assert.False(t, pos.Open())

	_, ok := pos.CostBasis()
	assert.False(t, ok, "closed position has no cost basis")
}

func TestReplay_RoundTripRealizesProfit(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-03-01", "AAPL", domain.SellStock, 100, 12),
	}

	pos, err := Replay(trades)
	require.NoError(t, err)

	assert.Equal(t, int64(0), pos.Shares)
	assert.Equal(t, "200", pos.Cash.String())

	_, ok := pos.CostBasis()
	assert.False(t, ok)
}

func TestReplay_AveragedCostBasis(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-01-15", "AAPL", domain.BuyStock, 50, 20),
	}

	pos, err := Replay(trades)
	require.NoError(t, err)

	assert.Equal(t, int64(150), pos.Shares)
	assert.Equal(t, "-2000", pos.Cash.String())

	costBasis, ok := pos.CostBasis()
	require.True(t, ok)
	assert.InDelta(t, 13.3333, costBasis.InexactFloat64(), 0.0001)
}

func TestReplay_PremiumsLowerCostBasis(t *testing.T) {
	// The wheel: collect put premium, get the stock, sell covered calls.
	trades := []domain.Trade{
		mkTrade("2024-01-02", "F", domain.SellPut, 1, 0.50),
		mkTrade("2024-01-19", "F", domain.BuyStock, 100, 12),
		mkTrade("2024-01-22", "F", domain.SellCall, 1, 0.25),
	}

	pos, err := Replay(trades)
	require.NoError(t, err)

	assert.Equal(t, int64(100), pos.Shares)
	assert.Equal(t, "-1125", pos.Cash.String()) // 50 - 1200 + 25

	costBasis, ok := pos.CostBasis()
	require.True(t, ok)
	assert.Equal(t, "11.25", costBasis.String())
}

func TestReplay_IsIdempotent(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-01-03", "AAPL", domain.SellCall, 1, 1.10),
	}

	first, err := Replay(trades)
	require.NoError(t, err)
	second, err := Replay(trades)
	require.NoError(t, err)

	assert.Equal(t, first.Shares, second.Shares)
	assert.True(t, first.Cash.Equal(second.Cash))
}

func TestReplay_UnknownTypeAborts(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-01-03", "AAPL", domain.TradeType("EXERCISE"), 1, 1),
	}

	pos, err := Replay(trades)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownTradeType)
	// No partial totals escape
	assert.Equal(t, Position{}, pos)
}

func TestReplay_OutOfOrderAborts(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-02-01", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-01-02", "AAPL", domain.SellStock, 100, 12),
	}

	_, err := Replay(trades)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrOutOfOrderTrades)
}

func TestReplay_EmptyLog(t *testing.T) {
	pos, err := Replay(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos.Shares)
	assert.True(t, pos.Cash.IsZero())
	assert.False(t, pos.Open())
}

func TestGroupByTicker_FirstSeenOrder(t *testing.T) {
	trades := []domain.Trade{
		mkTrade("2024-01-02", "SOFI", domain.SellPut, 1, 2),
		mkTrade("2024-01-03", "AAPL", domain.BuyStock, 100, 10),
		mkTrade("2024-01-04", "SOFI", domain.SellPut, 1, 1.5),
	}

	order, byTicker := GroupByTicker(trades)

	assert.Equal(t, []string{"SOFI", "AAPL"}, order)
	assert.Len(t, byTicker["SOFI"], 2)
	assert.Len(t, byTicker["AAPL"], 1)
}
