package observer

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Notification is a proactive message for the presentation layer.
type Notification struct {
	Kind    string // "error" or "suggestion"
	Title   string // foreground window title that triggered it
	Message string
}

// WindowSource yields the current foreground window title.
type WindowSource interface {
	ForegroundWindow() string
}

// Observer watches the foreground window on a fixed interval and pushes
// notifications through its channel. It owns no pipeline state; the
// channel is the only connection to the rest of the process.
type Observer struct {
	source     WindowSource
	interval   time.Duration
	stalePolls int
	logger     *zap.Logger

	ch chan Notification

	lastTitle  string
	staleCount int
}

var errorKeywords = []string{"Error", "エラー"}

var entertainmentKeywords = []string{"YouTube", "Netflix"}

func New(source WindowSource, interval time.Duration, stalePolls int, logger *zap.Logger) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if stalePolls <= 0 {
		stalePolls = 12
	}
	return &Observer{
		source:     source,
		interval:   interval,
		stalePolls: stalePolls,
		logger:     logger,
		ch:         make(chan Notification, 8),
	}
}

// Notifications is the receive side; it closes when the observer stops.
func (o *Observer) Notifications() <-chan Notification {
	return o.ch
}

// Start spawns the polling loop. Cancelling ctx stops the loop and
// closes the notification channel.
func (o *Observer) Start(ctx context.Context) {
	go func() {
		defer close(o.ch)
		ticker := time.NewTicker(o.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.poll()
			}
		}
	}()
}

func (o *Observer) poll() {
	title := o.source.ForegroundWindow()
	if title == "" {
		return
	}

	if title == o.lastTitle {
		o.staleCount++
	} else {
		o.staleCount = 1
	}
	changed := title != o.lastTitle
	o.lastTitle = title

	if changed && containsAny(title, errorKeywords) {
		o.emit(Notification{
			Kind:    "error",
			Title:   title,
			Message: "Error Detected: " + title,
		})
		return
	}

	if o.staleCount == o.stalePolls && containsAny(title, entertainmentKeywords) {
		o.emit(Notification{
			Kind:    "suggestion",
			Title:   title,
			Message: "You've been watching for a while. Time for a break?",
		})
	}
}

// emit drops the notification when the consumer lags; observation must
// never block polling.
func (o *Observer) emit(n Notification) {
	select {
	case o.ch <- n:
		o.logger.Debug("notification emitted",
			zap.String("kind", n.Kind), zap.String("title", n.Title))
	default:
		o.logger.Warn("notification dropped", zap.String("kind", n.Kind))
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
