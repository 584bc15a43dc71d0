package repository

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"QuotePull/internal/domain/models"
	domrepo "QuotePull/internal/domain/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var _ domrepo.Provider = (*ClickHouseHistory)(nil)

func TestHistoryCandlesAscending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sym := models.NewSymbol("600000", models.MarketSH, models.SecurityStock)
	t1 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	rows := sqlmock.NewRows([]string{"ts", "open", "high", "low", "close", "volume", "amount"}).
		AddRow(t2, 10.2, 10.4, 10.1, 10.3, int64(900), 9000.0).
		AddRow(t1, 10.0, 10.3, 9.9, 10.2, int64(1000), 10200.0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM quotepull.candles")).
		WithArgs("600000.SH.STOCK", "1d", 2).
		WillReturnRows(rows)

	h := NewClickHouseHistory(db, "quotepull", "candles", nil)
	candles := h.GetCandles(t.Context(), sym, models.Period1d, 2)

	require.Len(t, candles, 2)
	require.True(t, candles[0].Timestamp.Equal(t1))
	require.Equal(t, "10.3", candles[1].Close.String())
	require.Equal(t, sym, candles[0].Symbol)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryClampsOversizedLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM quotepull.candles")).
		WithArgs("600000.SH.STOCK", "1d", models.MaxCandleLimit).
		WillReturnRows(sqlmock.NewRows([]string{"ts", "open", "high", "low", "close", "volume", "amount"}))

	h := NewClickHouseHistory(db, "quotepull", "candles", nil)
	require.Empty(t, h.GetCandles(t.Context(), models.ParseSymbol("600000.SH.STOCK"), models.Period1d, 1<<36))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryQueryErrorIsAbsence(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	h := NewClickHouseHistory(db, "quotepull", "candles", nil)
	require.Empty(t, h.GetCandles(t.Context(), models.ParseSymbol("600000.SH.STOCK"), models.Period1d, 10))

	_, ok := h.GetQuote(t.Context(), models.ParseSymbol("600000.SH.STOCK"))
	require.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryHealthCheck(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	require.True(t, NewClickHouseHistory(db, "quotepull", "candles", nil).HealthCheck(t.Context()))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	require.False(t, NewClickHouseHistory(db, "quotepull", "candles", nil).HealthCheck(t.Context()))
}

func TestHistorySchema(t *testing.T) {
	stmts := HistorySchema("quotepull", "candles")
	require.Len(t, stmts, 2)
	require.Contains(t, stmts[1], "quotepull.candles")
}
