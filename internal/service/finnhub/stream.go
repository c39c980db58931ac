// Package finnhub streams live trades from the Finnhub websocket.
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/logger"
)

var ErrNotConnected = errors.New("finnhub stream not connected")

// Stream implements repository.MarketStream over the trade websocket.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	dialer         *websocket.Dialer
	log            *logger.Logger

	mu        sync.Mutex // guards conn and writes
	conn      *websocket.Conn
	connected bool
}

var _ repository.MarketStream = (*Stream)(nil)

func NewStream(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) *Stream {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		dialer:         websocket.DefaultDialer,
		log:            log.With(logger.String("component", "finnhub_stream")),
	}
}

func (s *Stream) Connect(ctx context.Context) error {
	u, err := url.Parse(s.websocketURL)
	if err != nil {
		return fmt.Errorf("finnhub stream url: %w", err)
	}
	q := u.Query()
	q.Set("token", s.apiKey)
	u.RawQuery = q.Encode()

	conn, _, err := s.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("finnhub connect: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	s.log.Info("connected", logger.Int("symbols", len(s.symbols)))
	return nil
}

func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return ErrNotConnected
	}
	for _, sym := range s.symbols {
		if err := s.conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": sym}); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	s.log.Debug("subscribed", logger.Strings("symbols", s.symbols))
	return nil
}

type trade struct {
	Symbol string  `json:"s"`
	Price  float64 `json:"p"`
	Volume float64 `json:"v"`
	Time   int64   `json:"t"` // ms
}

type message struct {
	Type string  `json:"type"`
	Data []trade `json:"data"`
}

// decode turns one frame into quotes. Non-trade frames (pings, errors) yield nil.
func decode(b []byte) []models.TickerQuote {
	var m message
	if err := json.Unmarshal(b, &m); err != nil || m.Type != "trade" {
		return nil
	}
	quotes := make([]models.TickerQuote, 0, len(m.Data))
	for _, d := range m.Data {
		quotes = append(quotes, models.TickerQuote{
			Symbol:    d.Symbol,
			Price:     d.Price,
			Volume:    d.Volume,
			Timestamp: time.UnixMilli(d.Time).UTC(),
		})
	}
	return quotes
}

// Read pumps quotes until ctx ends or the socket fails. The error channel
// receives at most one value; both channels close when the loop exits.
func (s *Stream) Read(ctx context.Context) (<-chan models.TickerQuote, <-chan error) {
	quotes := make(chan models.TickerQuote, 1024)
	errs := make(chan error, 1)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		errs <- ErrNotConnected
		close(quotes)
		close(errs)
		return quotes, errs
	}

	readCtx, stop := context.WithCancel(ctx)
	go s.pingLoop(readCtx, conn)

	go func() {
		defer stop()
		defer close(quotes)
		defer close(errs)
		for {
			if readCtx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				if readCtx.Err() == nil {
					errs <- fmt.Errorf("finnhub read: %w", err)
				}
				return
			}
			for _, q := range decode(b) {
				select {
				case quotes <- q:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return quotes, errs
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			s.mu.Unlock()
			if err != nil {
				s.log.Debug("ping failed", logger.Error(err))
			}
		}
	}
}

func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
