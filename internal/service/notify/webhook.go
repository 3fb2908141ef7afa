package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/models"
	"github.com/aayeshatech/SYMBOLASTRO/internal/domain/repository"
	xhttp "github.com/aayeshatech/SYMBOLASTRO/pkg/http"

	"github.com/sony/gobreaker"
)

// Config configures the webhook notifier.
type Config struct {
	URL     string
	ChatID  string
	Labels  []string
	Timeout time.Duration
}

// message is the body posted to the webhook. The shape matches chat bot
// APIs that accept {chat_id, text}.
type message struct {
	ChatID    string `json:"chat_id,omitempty"`
	Text      string `json:"text"`
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Label     string `json:"label"`
}

// Webhook posts recommendations whose label is in the configured set.
// Deliveries go through a circuit breaker so a dead endpoint is not
// hammered on every analysis.
type Webhook struct {
	cfg     Config
	client  *xhttp.Client
	breaker *gobreaker.CircuitBreaker
	labels  map[models.Label]struct{}
}

// NewWebhook builds a notifier. client may be nil.
func NewWebhook(cfg Config, client *xhttp.Client) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout))
	}

	labels := make(map[models.Label]struct{}, len(cfg.Labels))
	for _, l := range cfg.Labels {
		labels[models.Label(strings.TrimSpace(l))] = struct{}{}
	}

	st := gobreaker.Settings{
		Name:     "notify-webhook",
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &Webhook{
		cfg:     cfg,
		client:  client,
		breaker: gobreaker.NewCircuitBreaker(st),
		labels:  labels,
	}
}

// Wants reports whether label is configured for delivery.
func (w *Webhook) Wants(label models.Label) bool {
	_, ok := w.labels[label]
	return ok
}

// Notify posts res if its current label is wanted. Unwanted labels are a no-op.
func (w *Webhook) Notify(ctx context.Context, res *models.AnalysisResult) error {
	if res == nil || !w.Wants(res.CurrentRecommendation.Label) {
		return nil
	}

	body := message{
		ChatID:    w.cfg.ChatID,
		Text:      FormatText(res),
		Symbol:    res.Symbol,
		Timeframe: res.Timeframe,
		Label:     string(res.CurrentRecommendation.Label),
	}

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	_, err := w.breaker.Execute(func() (interface{}, error) {
		return nil, w.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: "POST",
			URL:    w.cfg.URL,
			Body:   body,
		}, nil)
	})
	if err != nil {
		return fmt.Errorf("notify %s: %w", res.Symbol, err)
	}
	return nil
}

// State exposes the breaker state for health reporting.
func (w *Webhook) State() string {
	return w.breaker.State().String()
}

// FormatText renders a one-message summary of res.
func FormatText(res *models.AnalysisResult) string {
	rec := res.CurrentRecommendation
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s (confidence %s)\n", res.Symbol, res.Timeframe, rec.Label, rec.Confidence)
	fmt.Fprintf(&b, "Bullish %s / Bearish %s", rec.BullishProbability, rec.BearishProbability)
	if n := len(res.PriceData); n > 0 {
		fmt.Fprintf(&b, "\nSimulated close %.2f", res.PriceData[n-1].Price)
	}
	return b.String()
}

// Nop never notifies.
type Nop struct{}

func (Nop) Notify(context.Context, *models.AnalysisResult) error { return nil }

var (
	_ repository.Notifier = (*Webhook)(nil)
	_ repository.Notifier = Nop{}
)
