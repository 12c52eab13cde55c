// Package feed streams live aggregate trades over the Binance websocket.
package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const defaultWSBase = "wss://stream.binance.com:9443/ws"

// Tick is one aggregate trade.
type Tick struct {
	Symbol string
	Price  float64
	Qty    float64
	Time   time.Time
}

type aggTradeMsg struct {
	Symbol string `json:"s"`
	Price  string `json:"p"`
	Qty    string `json:"q"`
	TimeMs int64  `json:"T"`
}

// Stream connects to the symbol's aggTrade stream and invokes onTick per
// trade. It returns when the context is canceled, limit ticks were consumed
// (0 means unlimited), stop returns true, or the connection drops.
type Stream struct {
	BaseURL string
	Log     zerolog.Logger
}

func (s *Stream) Run(ctx context.Context, symbol string, limit int, stop func(Tick) bool, onTick func(Tick)) error {
	base := s.BaseURL
	if base == "" {
		base = defaultWSBase
	}
	url := fmt.Sprintf("%s/%s@aggTrade", base, strings.ToLower(symbol))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	// Unblock ReadJSON when the context is canceled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	s.Log.Info().Str("symbol", symbol).Msg("aggTrade stream connected")

	count := 0
	for {
		var msg aggTradeMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read tick: %w", err)
		}

		price, err := strconv.ParseFloat(msg.Price, 64)
		if err != nil {
			continue
		}
		qty, _ := strconv.ParseFloat(msg.Qty, 64)

		tick := Tick{
			Symbol: msg.Symbol,
			Price:  price,
			Qty:    qty,
			Time:   time.UnixMilli(msg.TimeMs),
		}
		if onTick != nil {
			onTick(tick)
		}

		count++
		if limit > 0 && count >= limit {
			return nil
		}
		if stop != nil && stop(tick) {
			return nil
		}
	}
}
