package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/MimoJanra/StatusPulse/internal/metrics"
	"github.com/MimoJanra/StatusPulse/internal/models"
)

const (
	TypeSlack    = "slack"
	TypeTelegram = "telegram"

	DefaultTelegramAPI = "https://api.telegram.org"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Settings struct {
	Type       string
	WebhookURL string
	Token      string
	ChatID     string
	// TelegramAPI overrides the Telegram Bot API base URL.
	TelegramAPI string
}

func (s Settings) Enabled() bool {
	return s.Type != ""
}

// ServiceChange is one service whose health state moved between two snapshots.
type ServiceChange struct {
	ID   string
	Name string
	From models.HealthState
	To   models.HealthState
}

// StatusChange describes an overall state transition of the board.
type StatusChange struct {
	RefreshID string
	Previous  models.HealthState
	Current   models.HealthState
	Services  []ServiceChange
	At        time.Time
}

// Diff returns the status change between two snapshots, and false when the
// overall state did not move or there is no previous snapshot.
func Diff(prev, next *models.Snapshot) (StatusChange, bool) {
	if prev == nil || next == nil || prev.Overall == next.Overall {
		return StatusChange{}, false
	}

	change := StatusChange{
		Previous: prev.Overall,
		Current:  next.Overall,
		At:       next.LoadedAt,
	}
	for _, st := range next.Statuses {
		old, ok := prev.Status(st.ID)
		if !ok || old.HealthState == st.HealthState {
			continue
		}
		change.Services = append(change.Services, ServiceChange{
			ID:   st.ID,
			Name: st.Name,
			From: old.HealthState,
			To:   st.HealthState,
		})
	}
	return change, true
}

type NotificationSender struct {
	client   *http.Client
	settings Settings
	logger   *zap.Logger
}

func NewNotificationSender(settings Settings, logger *zap.Logger) *NotificationSender {
	if settings.TelegramAPI == "" {
		settings.TelegramAPI = DefaultTelegramAPI
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationSender{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		settings: settings,
		logger:   logger.Named("notifications"),
	}
}

// Notify delivers change on the configured channel. With no channel
// configured it is a no-op.
func (ns *NotificationSender) Notify(ctx context.Context, change StatusChange) error {
	if !ns.settings.Enabled() {
		return nil
	}

	var err error
	switch ns.settings.Type {
	case TypeTelegram:
		err = ns.sendTelegram(ctx, change)
	case TypeSlack:
		err = ns.sendSlack(ctx, change)
	default:
		err = fmt.Errorf("unsupported notification type: %s", ns.settings.Type)
	}

	result := "sent"
	if err != nil {
		result = "failed"
		ns.logger.Warn("status notification failed",
			zap.String("channel", ns.settings.Type),
			zap.String("refresh_id", change.RefreshID),
			zap.Error(err),
		)
	} else {
		ns.logger.Info("status notification sent",
			zap.String("channel", ns.settings.Type),
			zap.String("previous", string(change.Previous)),
			zap.String("current", string(change.Current)),
		)
	}
	metrics.NotificationsTotal.WithLabelValues(ns.settings.Type, result).Inc()
	return err
}

func (ns *NotificationSender) sendTelegram(ctx context.Context, change StatusChange) error {
	if ns.settings.Token == "" || ns.settings.ChatID == "" {
		return fmt.Errorf("telegram token and chat_id are required")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(ns.settings.TelegramAPI, "/"), ns.settings.Token)
	payload := map[string]interface{}{
		"chat_id":    ns.settings.ChatID,
		"text":       formatTelegramMessage(change),
		"parse_mode": "HTML",
	}
	return ns.post(ctx, url, payload, "telegram API")
}

func (ns *NotificationSender) sendSlack(ctx context.Context, change StatusChange) error {
	if ns.settings.WebhookURL == "" {
		return fmt.Errorf("slack webhook_url is required")
	}

	payload := map[string]interface{}{
		"text": formatSlackMessage(change),
	}
	return ns.post(ctx, ns.settings.WebhookURL, payload, "slack webhook")
}

func (ns *NotificationSender) post(ctx context.Context, url string, payload interface{}, target string) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("create %s request: %w", target, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ns.client.Do(req)
	if err != nil {
		return fmt.Errorf("send to %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}
	return nil
}

func stateEmoji(state models.HealthState) string {
	switch state {
	case models.StateOperational:
		return "✅"
	case models.StateDegraded, models.StateMaintenance:
		return "⚠️"
	case models.StateOutage:
		return "❌"
	default:
		return "❔"
	}
}

func formatTelegramMessage(change StatusChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s %s</b>\n\n", stateEmoji(change.Current), change.Current.Headline())
	fmt.Fprintf(&b, "<b>Status:</b> %s → %s\n", change.Previous, change.Current)
	for _, s := range change.Services {
		fmt.Fprintf(&b, "<b>%s:</b> %s → %s\n", html.EscapeString(s.Name), s.From, s.To)
	}
	fmt.Fprintf(&b, "<b>Time:</b> %s", change.At.UTC().Format(time.RFC3339))
	return b.String()
}

func formatSlackMessage(change StatusChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", stateEmoji(change.Current), change.Current.Headline())
	fmt.Fprintf(&b, "*Status:* %s → %s\n", change.Previous, change.Current)
	for _, s := range change.Services {
		fmt.Fprintf(&b, "*%s:* %s → %s\n", s.Name, s.From, s.To)
	}
	fmt.Fprintf(&b, "*Time:* %s", change.At.UTC().Format(time.RFC3339))
	return b.String()
}
