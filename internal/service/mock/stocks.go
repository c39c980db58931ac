package mock

import "StockInsight/internal/domain/models"

// Reference list used for display names, sectors and market movers.
var referenceStocks = []models.StockInfo{
	{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
	{Ticker: "MSFT", Name: "Microsoft Corporation", Sector: "Technology"},
	{Ticker: "GOOGL", Name: "Alphabet Inc.", Sector: "Communication Services"},
	{Ticker: "AMZN", Name: "Amazon.com, Inc.", Sector: "Consumer Discretionary"},
	{Ticker: "NVDA", Name: "NVIDIA Corporation", Sector: "Technology"},
	{Ticker: "META", Name: "Meta Platforms, Inc.", Sector: "Communication Services"},
	{Ticker: "TSLA", Name: "Tesla, Inc.", Sector: "Consumer Discretionary"},
	{Ticker: "BRK.B", Name: "Berkshire Hathaway Inc.", Sector: "Financials"},
	{Ticker: "JPM", Name: "JPMorgan Chase & Co.", Sector: "Financials"},
	{Ticker: "V", Name: "Visa Inc.", Sector: "Financials"},
	{Ticker: "JNJ", Name: "Johnson & Johnson", Sector: "Health Care"},
	{Ticker: "UNH", Name: "UnitedHealth Group Incorporated", Sector: "Health Care"},
	{Ticker: "XOM", Name: "Exxon Mobil Corporation", Sector: "Energy"},
	{Ticker: "WMT", Name: "Walmart Inc.", Sector: "Consumer Staples"},
	{Ticker: "PG", Name: "The Procter & Gamble Company", Sector: "Consumer Staples"},
	{Ticker: "MA", Name: "Mastercard Incorporated", Sector: "Financials"},
	{Ticker: "HD", Name: "The Home Depot, Inc.", Sector: "Consumer Discretionary"},
	{Ticker: "AMD", Name: "Advanced Micro Devices, Inc.", Sector: "Technology"},
	{Ticker: "NFLX", Name: "Netflix, Inc.", Sector: "Communication Services"},
	{Ticker: "INTC", Name: "Intel Corporation", Sector: "Technology"},
	{Ticker: "DIS", Name: "The Walt Disney Company", Sector: "Communication Services"},
	{Ticker: "KO", Name: "The Coca-Cola Company", Sector: "Consumer Staples"},
}

// Lookup returns the reference entry for ticker, or a synthesized one.
func Lookup(ticker string) (models.StockInfo, bool) {
	for _, s := range referenceStocks {
		if s.Ticker == ticker {
			return s, true
		}
	}
	return models.StockInfo{Ticker: ticker, Name: ticker + " Inc.", Sector: "Technology"}, false
}

// Stocks returns a copy of the reference list.
func Stocks() []models.StockInfo {
	return append([]models.StockInfo(nil), referenceStocks...)
}
