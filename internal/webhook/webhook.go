package webhook

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/xaenox/mawari-agent/internal/metrics"
)

type EventType string

const (
	AppInstall   EventType = "app_install"
	AppUninstall EventType = "app_uninstall"
	UserAction   EventType = "user_action"
	Transaction  EventType = "transaction"
	Notification EventType = "notification"
)

// SupportedEvents is reported by the GET status endpoint
var SupportedEvents = []EventType{AppInstall, AppUninstall, UserAction, Transaction, Notification}

type User struct {
	FID         int64  `json:"fid"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type Action struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type TransactionInfo struct {
	Hash   string `json:"hash"`
	Amount string `json:"amount"`
	Token  string `json:"token"`
}

type Data struct {
	User        *User            `json:"user,omitempty"`
	Action      *Action          `json:"action,omitempty"`
	Transaction *TransactionInfo `json:"transaction,omitempty"`
	Timestamp   string           `json:"timestamp"`
	AppID       string           `json:"appId"`
}

// Event is a host platform webhook delivery
type Event struct {
	Type EventType `json:"type"`
	Data Data      `json:"data"`
}

type Handler func(ctx context.Context, ev Event) error

// Dispatcher routes events to a handler per type
type Dispatcher struct {
	handlers map[EventType]Handler
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher registers the default handlers, which only log
func NewDispatcher(m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{
		handlers: make(map[EventType]Handler),
		logger:   logger,
		metrics:  m,
	}
	d.Handle(AppInstall, d.logUser("App installed"))
	d.Handle(AppUninstall, d.logUser("App uninstalled"))
	d.Handle(UserAction, func(_ context.Context, ev Event) error {
		actionType := ""
		if ev.Data.Action != nil {
			actionType = ev.Data.Action.Type
		}
		d.logger.Info("User action", append(userFields(ev.Data.User), zap.String("action", actionType))...)
		return nil
	})
	d.Handle(Transaction, func(_ context.Context, ev Event) error {
		fields := userFields(ev.Data.User)
		if tx := ev.Data.Transaction; tx != nil {
			fields = append(fields,
				zap.String("hash", tx.Hash),
				zap.String("amount", tx.Amount),
				zap.String("token", tx.Token))
		}
		d.logger.Info("Transaction received", fields...)
		return nil
	})
	d.Handle(Notification, func(_ context.Context, ev Event) error {
		d.logger.Info("Notification event", zap.String("app_id", ev.Data.AppID))
		return nil
	})
	return d
}

// Handle replaces the handler of an event type
func (d *Dispatcher) Handle(t EventType, h Handler) {
	d.handlers[t] = h
}

// Dispatch runs the handler for ev.Type. Unknown types are logged and ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	d.logger.Info("Webhook event",
		zap.String("type", string(ev.Type)),
		zap.String("timestamp", ev.Data.Timestamp),
		zap.String("app_id", ev.Data.AppID))

	h, ok := d.handlers[ev.Type]
	if !ok {
		d.logger.Warn("Unknown webhook type", zap.String("type", string(ev.Type)))
		d.metrics.IncWebhook("unknown")
		return nil
	}
	d.metrics.IncWebhook(string(ev.Type))
	return h(ctx, ev)
}

func (d *Dispatcher) logUser(msg string) Handler {
	return func(_ context.Context, ev Event) error {
		d.logger.Info(msg, userFields(ev.Data.User)...)
		return nil
	}
}

func userFields(u *User) []zap.Field {
	if u == nil {
		return nil
	}
	return []zap.Field{
		zap.Int64("fid", u.FID),
		zap.String("username", u.Username),
		zap.String("display_name", u.DisplayName),
	}
}
