package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/util"
)

const transactionsKey = "portfolio:transactions"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidDate         = errors.New("invalid transaction date")
)

// Pricer resolves the current snapshot of a ticker.
type Pricer interface {
	Resolve(ctx context.Context, ticker string) models.StockSnapshot
}

// dust is the share count below which a position is considered closed.
var dust = decimal.New(1, -9)

type position struct {
	shares decimal.Decimal
	cost   decimal.Decimal
}

// Positions replays transactions in date order with weighted-average cost.
// A buy adds shares and cost; a sell removes shares and cost at the running
// average. Positions that drop below dust are reset to zero.
func Positions(txs []models.Transaction) []models.Position {
	sorted := append([]models.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	book := make(map[string]*position)
	for _, tx := range sorted {
		p, ok := book[tx.Ticker]
		if !ok {
			p = &position{}
			book[tx.Ticker] = p
		}
		shares := decimal.NewFromFloat(tx.Shares)

		switch tx.Type {
		case models.Buy:
			p.shares = p.shares.Add(shares)
			p.cost = p.cost.Add(shares.Mul(decimal.NewFromFloat(tx.Price)))
		case models.Sell:
			avg := decimal.Zero
			if p.shares.IsPositive() {
				avg = p.cost.Div(p.shares)
			}
			p.shares = p.shares.Sub(shares)
			p.cost = p.cost.Sub(shares.Mul(avg))
			if p.shares.LessThan(dust) {
				p.shares, p.cost = decimal.Zero, decimal.Zero
			}
		}
	}

	out := make([]models.Position, 0, len(book))
	for ticker, p := range book {
		avg := decimal.Zero
		if p.shares.IsPositive() {
			avg = p.cost.Div(p.shares)
		}
		out = append(out, models.Position{
			Ticker:    ticker,
			Shares:    p.shares.InexactFloat64(),
			TotalCost: p.cost.Round(2).InexactFloat64(),
			AvgCost:   avg.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// usd renders an amount in minor units through go-money, e.g. "$1,234.50".
func usd(v decimal.Decimal) string {
	return money.New(v.Round(2).Shift(2).IntPart(), money.USD).Display()
}

// PortfolioService keeps the single default portfolio's transactions and
// values the open positions at resolved prices.
type PortfolioService struct {
	store  repository.ListStore
	pricer Pricer
	log    *logger.Logger
	now    func() time.Time

	mu sync.Mutex // serializes read-modify-write of the transaction list
}

func NewPortfolioService(store repository.ListStore, pricer Pricer, log *logger.Logger) *PortfolioService {
	return &PortfolioService{
		store:  store,
		pricer: pricer,
		log:    log.With(logger.String("component", "portfolio")),
		now:    time.Now,
	}
}

func (s *PortfolioService) load(ctx context.Context) ([]models.Transaction, error) {
	var txs []models.Transaction
	if _, err := s.store.Load(ctx, transactionsKey, &txs); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txs, nil
}

// Transactions returns the ledger in date order.
func (s *PortfolioService) Transactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(txs, func(i, j int) bool { return txs[i].Date.Before(txs[j].Date) })
	if txs == nil {
		txs = []models.Transaction{}
	}
	return txs, nil
}

func (s *PortfolioService) AddTransaction(ctx context.Context, req models.TransactionRequest) (models.Transaction, error) {
	date := s.now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		t, ok := util.ParseTime(req.Date)
		if !ok {
			return models.Transaction{}, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
		}
		date = t.UTC()
	}
	tx := models.Transaction{
		ID:     uuid.NewString(),
		Ticker: util.NormalizeTicker(req.Ticker),
		Type:   models.TransactionType(strings.ToLower(req.Type)),
		Shares: req.Shares,
		Price:  req.Price,
		Date:   date,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	txs, err := s.load(ctx)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := s.store.Save(ctx, transactionsKey, append(txs, tx)); err != nil {
		return models.Transaction{}, fmt.Errorf("save transactions: %w", err)
	}
	s.log.Info("transaction added",
		logger.String("id", tx.ID),
		logger.String("ticker", tx.Ticker),
		logger.String("type", string(tx.Type)))
	return tx, nil
}

func (s *PortfolioService) RemoveTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := txs[:0]
	for _, tx := range txs {
		if tx.ID != id {
			kept = append(kept, tx)
		}
	}
	if len(kept) == len(txs) {
		return ErrTransactionNotFound
	}
	if err := s.store.Save(ctx, transactionsKey, kept); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// Valuation prices every open position concurrently and totals them.
func (s *PortfolioService) Valuation(ctx context.Context) (models.Portfolio, error) {
	txs, err := s.load(ctx)
	if err != nil {
		return models.Portfolio{}, err
	}

	open := make([]models.Position, 0)
	for _, p := range Positions(txs) {
		if p.Shares > 0 {
			open = append(open, p)
		}
	}

	snaps := make([]models.StockSnapshot, len(open))
	var wg sync.WaitGroup
	for i, p := range open {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snaps[i] = s.pricer.Resolve(ctx, p.Ticker)
		}()
	}
	wg.Wait()

	var totalValue, totalCost decimal.Decimal
	holdings := make([]models.Holding, 0, len(open))
	for i, p := range open {
		price, err := decimal.NewFromString(snaps[i].Price)
		if err != nil {
			s.log.Warn("unparseable price", logger.String("ticker", p.Ticker), logger.String("price", snaps[i].Price))
			price = decimal.Zero
		}
		shares := decimal.NewFromFloat(p.Shares)
		cost := decimal.NewFromFloat(p.TotalCost)
		value := shares.Mul(price)
		pl := value.Sub(cost)

		holdings = append(holdings, models.Holding{
			Position:      p,
			Name:          snaps[i].Name,
			CurrentPrice:  price.InexactFloat64(),
			Value:         value.Round(2).InexactFloat64(),
			ProfitLoss:    pl.Round(2).InexactFloat64(),
			ProfitLossPct: percentOf(pl, cost),
			DisplayValue:  usd(value),
			DisplayPL:     usd(pl),
			PriceSource:   snaps[i].DataSource,
		})
		totalValue = totalValue.Add(value)
		totalCost = totalCost.Add(cost)
	}

	totalPL := totalValue.Sub(totalCost)
	return models.Portfolio{
		Holdings: holdings,
		Summary: models.PortfolioSummary{
			TotalValue:      totalValue.Round(2).InexactFloat64(),
			TotalInvestment: totalCost.Round(2).InexactFloat64(),
			TotalPL:         totalPL.Round(2).InexactFloat64(),
			TotalPLPercent:  percentOf(totalPL, totalCost),
			DisplayValue:    usd(totalValue),
			DisplayPL:       usd(totalPL),
		},
	}, nil
}

func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
}
