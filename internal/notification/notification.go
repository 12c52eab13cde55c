// Package notification delivers signal and execution alerts. Telegram is the
// only backend; TELEGRAM_DRYRUN=1 prints messages instead of sending them.
package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"spot-trading-bot/internal/signal"
)

const dryRunEnv = "TELEGRAM_DRYRUN"

// Notifier delivers one formatted message.
type Notifier interface {
	Send(text string) error
	Name() string
	IsEnabled() bool
}

// Manager fans a message out to every enabled notifier. Delivery failures
// are logged and the last error returned; a dead alert channel must not
// stall the trading loop.
type Manager struct {
	notifiers []Notifier
	log       zerolog.Logger
}

func NewManager(log zerolog.Logger) *Manager {
	return &Manager{log: log}
}

func (m *Manager) Add(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

func (m *Manager) Send(text string) error {
	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if err := n.Send(text); err != nil {
			m.log.Warn().Err(err).Str("notifier", n.Name()).Msg("alert delivery failed")
			lastErr = err
		}
	}
	return lastErr
}

// SendProposal formats and sends a trade proposal alert.
func (m *Manager) SendProposal(p *signal.Proposal) error {
	var b strings.Builder
	fmt.Fprintf(&b, "*Signal: %s %s*\n", strings.ToUpper(string(p.Side)), p.Symbol)
	fmt.Fprintf(&b, "Entry: %.2f\nStop: %.2f\nTake: %.2f\n", p.Entry, p.Stop, p.Take)
	fmt.Fprintf(&b, "Risk: %.2f%% | Size: %.1f%%\n", p.RiskPct, p.SizePct)
	for _, r := range p.Reasons {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return m.Send(b.String())
}

// SendExecution reports the router outcome for a symbol.
func (m *Manager) SendExecution(symbol, mode, status string, qty, price float64) error {
	return m.Send(fmt.Sprintf("*Execution: %s*\nMode: %s\nStatus: %s\nQty: %.6f @ %.2f",
		symbol, mode, status, qty, price))
}

// SendError reports an operational failure.
func (m *Manager) SendError(title, message string) error {
	return m.Send(fmt.Sprintf("*%s*\n%s", title, message))
}

// TelegramNotifier posts messages to a Telegram chat via the bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	dryRun   bool
	client   *http.Client
	log      zerolog.Logger
}

// TelegramConfig holds the bot credentials.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

func NewTelegramNotifier(cfg TelegramConfig, log zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		dryRun:   os.Getenv(dryRunEnv) == "1",
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log,
	}
}

func (t *TelegramNotifier) Name() string { return "telegram" }

func (t *TelegramNotifier) IsEnabled() bool {
	return t.dryRun || (t.botToken != "" && t.chatID != "")
}

func (t *TelegramNotifier) Send(text string) error {
	if t.dryRun {
		t.log.Info().Str("notifier", "telegram").Msg("dry run, message not sent")
		fmt.Println(text)
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)
	resp, err := t.client.Post(url, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
