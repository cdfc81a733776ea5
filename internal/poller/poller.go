// Package poller drives the poll cycle: pull events per watched
// course, dedupe against the seen state, notify, and persist.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"siriuswatch/internal/api"
	"siriuswatch/internal/metrics"
	"siriuswatch/internal/state"
)

// Notifier is what the poller needs from the notification layer.
type Notifier interface {
	NotifyEvent(ctx context.Context, channels []int64, course string, ev api.Event)
	NotifyNews(ctx context.Context, channels []int64, item api.NewsItem)
	NotifyPing(ctx context.Context, channels, pings []int64)
}

// Store persists the state at the end of each cycle.
type Store interface {
	Save(st *state.State) error
}

// CycleSummary is a snapshot of the most recent cycle, served by the
// status endpoint.
type CycleSummary struct {
	CycleID      string        `json:"cycle_id"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
	Courses      int           `json:"courses"`
	NewEvents    int           `json:"new_events"`
	NewNews      int           `json:"new_news"`
	CourseErrors int           `json:"course_errors"`
	SeenEvents   int           `json:"seen_events"`
}

// Poller owns the polling cadence and the in-memory state between
// persists. Cycles are serialized by the caller (the cron schedule
// skips a fire while the previous cycle runs), so state mutation needs
// no locking beyond the status snapshot.
type Poller struct {
	events   api.EventSource
	news     api.NewsSource // nil disables the news watcher
	notifier Notifier
	store    Store
	st       *state.State
	logger   *zap.Logger
	now      func() time.Time

	mu   sync.Mutex
	last CycleSummary
}

func New(events api.EventSource, news api.NewsSource, notifier Notifier, store Store, st *state.State, logger *zap.Logger) *Poller {
	return &Poller{
		events:   events,
		news:     news,
		notifier: notifier,
		store:    store,
		st:       st,
		logger:   logger,
		now:      time.Now,
	}
}

// RunCycle runs one full pass over all watched courses. Per-course
// failures are logged and skipped; the cycle always ends with a
// persistence attempt. Identifiers are marked seen in memory right
// after their notification is attempted, so a crash before the save
// can re-notify but never drop an event.
func (p *Poller) RunCycle(ctx context.Context) {
	cycleID := uuid.New().String()
	start := p.now()

	log := p.logger.With(zap.String("cycle", cycleID))
	log.Info("cycle started", zap.Int("courses", len(p.st.Courses)))

	summary := CycleSummary{
		CycleID:   cycleID,
		StartedAt: start,
		Courses:   len(p.st.Courses),
	}

	for _, course := range p.st.Courses {
		opts := api.EventOptions{
			EventType: api.EventTypeAssessment,
			From:      start,
		}
		events, err := p.events.ListEvents(ctx, course, opts)
		if err != nil {
			log.Warn("course poll failed", zap.String("course", course), zap.Error(err))
			metrics.CourseErrorsTotal.Inc()
			summary.CourseErrors++
			continue
		}

		for _, ev := range events {
			if ev.ID.IsZero() {
				continue
			}
			if p.st.HasSeenEvent(ev.ID) {
				continue
			}
			p.notifier.NotifyEvent(ctx, p.st.Channels, course, ev)
			p.st.MarkEventSeen(ev.ID)
			summary.NewEvents++
			metrics.EventsNotifiedTotal.Inc()
		}
	}

	summary.NewNews = p.checkNews(ctx, log)

	if summary.NewEvents+summary.NewNews > 0 {
		p.notifier.NotifyPing(ctx, p.st.Channels, p.st.Pings)
	}

	if err := p.store.Save(p.st); err != nil {
		// Keep the in-memory state; the next cycle will not
		// re-notify what was merged, and a later save picks it up.
		log.Error("state persistence failed", zap.Error(err))
		metrics.PersistErrorsTotal.Inc()
	}

	summary.Duration = p.now().Sub(start)
	summary.SeenEvents = len(p.st.SeenEvents)

	metrics.CyclesTotal.Inc()
	metrics.CycleDuration.Observe(summary.Duration.Seconds())
	metrics.SeenEvents.Set(float64(len(p.st.SeenEvents)))

	p.mu.Lock()
	p.last = summary
	p.mu.Unlock()

	log.Info("cycle finished",
		zap.Int("new_events", summary.NewEvents),
		zap.Int("new_news", summary.NewNews),
		zap.Int("course_errors", summary.CourseErrors),
		zap.Duration("duration", summary.Duration))
}

func (p *Poller) checkNews(ctx context.Context, log *zap.Logger) int {
	if p.news == nil || len(p.st.Courses) == 0 {
		return 0
	}

	items, err := p.news.ListNews(ctx, api.NewsOptions{Courses: p.st.Courses})
	if err != nil {
		log.Warn("news poll failed", zap.Error(err))
		metrics.CourseErrorsTotal.Inc()
		return 0
	}

	newItems := 0
	for _, item := range items {
		if item.ID == "" || item.Deleted {
			continue
		}
		if p.st.HasSeenNews(item.ID) {
			continue
		}
		p.notifier.NotifyNews(ctx, p.st.Channels, item)
		p.st.MarkNewsSeen(item.ID)
		newItems++
		metrics.NewsNotifiedTotal.Inc()
	}
	return newItems
}

// LastCycle returns a snapshot of the most recent cycle summary.
func (p *Poller) LastCycle() CycleSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}
