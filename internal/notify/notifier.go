// Package notify renders notifications and fans them out to the
// subscribed channels.
package notify

import (
	"context"

	"go.uber.org/zap"

	"siriuswatch/internal/api"
	"siriuswatch/internal/discord"
	"siriuswatch/internal/metrics"
)

// Sender is the narrow contract the notifier needs from the chat
// platform.
type Sender interface {
	ResolveChannel(ctx context.Context, id int64) (*discord.Channel, error)
	Send(ctx context.Context, channelID int64, msg discord.Message) error
}

// Notifier delivers messages to every subscribed channel. Each
// channel is attempted independently: a resolution or send failure on
// one channel never blocks the others.
type Notifier struct {
	sender Sender
	logger *zap.Logger
}

func New(sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// NotifyEvent sends one event notification to every channel. No-op
// when no channels are subscribed.
func (n *Notifier) NotifyEvent(ctx context.Context, channels []int64, course string, ev api.Event) {
	if len(channels) == 0 {
		return
	}
	msg := discord.Message{Embeds: []discord.Embed{EventEmbed(course, ev)}}
	n.logger.Info("notifying event",
		zap.String("course", course),
		zap.String("event", string(ev.ID)),
		zap.Int("channels", len(channels)))
	n.fanOut(ctx, channels, msg)
}

// NotifyNews sends one course-pages message to every channel.
func (n *Notifier) NotifyNews(ctx context.Context, channels []int64, item api.NewsItem) {
	if len(channels) == 0 {
		return
	}
	msg := discord.Message{Embeds: []discord.Embed{NewsEmbed(item)}}
	n.logger.Info("notifying news",
		zap.String("news", item.ID),
		zap.Int("channels", len(channels)))
	n.fanOut(ctx, channels, msg)
}

// NotifyPing sends a single aggregated mention message. No-op when
// either the channel set or the ping set is empty.
func (n *Notifier) NotifyPing(ctx context.Context, channels, pings []int64) {
	if len(channels) == 0 || len(pings) == 0 {
		return
	}
	msg := discord.Message{Content: PingContent(pings)}
	n.logger.Info("notifying ping", zap.Int("roles", len(pings)))
	n.fanOut(ctx, channels, msg)
}

func (n *Notifier) fanOut(ctx context.Context, channels []int64, msg discord.Message) {
	for _, id := range channels {
		ch, err := n.sender.ResolveChannel(ctx, id)
		if err != nil {
			n.logger.Warn("channel resolution failed", zap.Int64("channel", id), zap.Error(err))
			metrics.DeliveryErrorsTotal.Inc()
			continue
		}
		if !ch.Sendable() {
			n.logger.Debug("channel not sendable, skipping", zap.Int64("channel", id))
			continue
		}
		if err := n.sender.Send(ctx, id, msg); err != nil {
			n.logger.Warn("send failed", zap.Int64("channel", id), zap.Error(err))
			metrics.DeliveryErrorsTotal.Inc()
		}
	}
}
