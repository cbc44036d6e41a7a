package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tagscout/internal/config"
	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/resolution"
	"tagscout/internal/services"
	"tagscout/internal/stats"
	"tagscout/internal/synthesis"
	"tagscout/internal/tags"
)

const (
	component            = "pipeline"
	defaultRecordTimeout = 5 * time.Second
)

// Resolver resolves one search request into a merged entity.
type Resolver interface {
	Resolve(ctx context.Context, req media.SearchRequest) (*resolution.Entity, error)
}

// Recorder receives one event per successfully answered tag.
type Recorder interface {
	RecordRequest(ctx context.Context, req stats.Request) error
}

// Store is the persistence the processor uses for statistics, per-server
// settings and message de-duplication. *stats.Store satisfies it.
type Store interface {
	Recorder
	MarkMessage(ctx context.Context, messageID string) (bool, error)
	ExpandedAllowed(ctx context.Context, serverID string) (bool, error)
	ToggleExpanded(ctx context.Context, serverID string) (bool, error)
	UserStats(ctx context.Context, requesterID string) (stats.Summary, error)
	ServerStats(ctx context.Context, serverID string) (stats.Summary, error)
	TitleStats(ctx context.Context, medium media.Medium, title string) (stats.TitleStats, error)
}

// Option configures a Processor.
type Option func(*Processor)

// WithStore attaches the statistics store. It also becomes the Recorder
// unless WithRecorder is given.
func WithStore(store Store) Option {
	return func(p *Processor) {
		p.store = store
	}
}

// WithRecorder replaces the destination of statistics events.
func WithRecorder(recorder Recorder) Option {
	return func(p *Processor) {
		p.recorder = recorder
	}
}

// WithSynthesizer replaces the default synthesizer.
func WithSynthesizer(s *synthesis.Synthesizer) Option {
	return func(p *Processor) {
		if s != nil {
			p.synth = s
		}
	}
}

// WithRecordTimeout bounds each statistics write.
func WithRecordTimeout(d time.Duration) Option {
	return func(p *Processor) {
		if d > 0 {
			p.recordTimeout = d
		}
	}
}

// Processor answers chat messages.
type Processor struct {
	resolver      Resolver
	synth         *synthesis.Synthesizer
	store         Store
	recorder      Recorder
	logger        *slog.Logger
	maxTags       int
	recordTimeout time.Duration

	pending sync.WaitGroup
}

// New creates a processor resolving tags through resolver.
func New(cfg *config.Config, resolver Resolver, logger *slog.Logger, opts ...Option) (*Processor, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "config required", nil)
	}
	if resolver == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "resolver required", nil)
	}
	p := &Processor{
		resolver:      resolver,
		synth:         synthesis.New(),
		logger:        logging.NewComponentLogger(logger, component),
		maxTags:       cfg.Resolution.MaxTagsPerMessage,
		recordTimeout: defaultRecordTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.recorder == nil && p.store != nil {
		p.recorder = p.store
	}
	return p, nil
}

// Process answers msg. Items follow the order of the tags in the message;
// a tag whose title was already answered earlier in the same message is
// omitted. The returned error is non-nil only when ctx ends.
func (p *Processor) Process(ctx context.Context, msg Message) (Reply, error) {
	reply := Reply{MessageID: msg.ID}
	extraction := tags.Extract(msg.Body)
	if len(extraction.Requests) == 0 && len(extraction.Commands) == 0 {
		messagesTotal.WithLabelValues("ignored").Inc()
		return reply, nil
	}

	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = services.WithRequestID(ctx, requestID)
	}
	reply.RequestID = requestID
	ctx = services.WithMessageID(ctx, msg.ID)
	logger := logging.WithContext(ctx, p.logger)

	if p.store != nil && msg.ID != "" {
		first, err := p.store.MarkMessage(ctx, msg.ID)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "message de-duplication unavailable", "message_mark_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the stats database"),
				logging.String(logging.FieldImpact, "message may be answered twice"),
			)
		case !first:
			messagesTotal.WithLabelValues("duplicate").Inc()
			logger.Debug("message already handled")
			reply.Duplicate = true
			return reply, nil
		}
	}

	for _, cmd := range extraction.Commands {
		reply.Commands = append(reply.Commands, p.runCommand(ctx, msg, extraction.Mentions, cmd))
	}

	requests := extraction.Requests
	if p.maxTags > 0 && len(requests) > p.maxTags {
		for _, dropped := range requests[p.maxTags:] {
			tagsTotal.WithLabelValues(string(dropped.Medium), "dropped").Inc()
		}
		logger.Info("tag limit reached; ignoring the rest",
			logging.Int("tags", len(requests)),
			logging.Int("limit", p.maxTags),
		)
		requests = requests[:p.maxTags]
	}
	requests = p.restrictExpanded(ctx, msg, requests, logger)

	items, err := p.resolveAll(ctx, requests, logger)
	if err != nil {
		messagesTotal.WithLabelValues("canceled").Inc()
		return reply, err
	}
	reply.Items = items

	for _, item := range reply.Items {
		if item.Record != nil {
			p.record(ctx, msg, item.Record, logger)
		}
	}
	messagesTotal.WithLabelValues("answered").Inc()
	logger.Info("message answered",
		logging.Int("tags", len(requests)),
		logging.Int("found", len(reply.Found())),
		logging.Int("commands", len(reply.Commands)),
		logging.Int("malformed", extraction.Malformed),
		logging.Bool("collided", extraction.Collided),
	)
	return reply, nil
}

// Wait blocks until every pending statistics event has been written.
func (p *Processor) Wait() {
	p.pending.Wait()
}

// restrictExpanded answers expanded requests in the normal form when the
// server has expanded answers turned off.
func (p *Processor) restrictExpanded(ctx context.Context, msg Message, requests []media.SearchRequest, logger *slog.Logger) []media.SearchRequest {
	if p.store == nil || msg.ServerID == "" || !slices.ContainsFunc(requests, func(r media.SearchRequest) bool { return r.Expanded }) {
		return requests
	}
	allowed, err := p.store.ExpandedAllowed(ctx, msg.ServerID)
	if err != nil {
		logging.WarnWithContext(logger, "server setting unavailable; answering as requested", "server_setting_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the stats database"),
			logging.String(logging.FieldImpact, "expanded setting of the server ignored"),
		)
		return requests
	}
	if allowed {
		return requests
	}
	out := slices.Clone(requests)
	for i := range out {
		out[i].Expanded = false
	}
	logger.Debug("expanded answers disabled on server", logging.String("server_id", msg.ServerID))
	return out
}

// resolveAll resolves every request concurrently and assembles the items in
// request order once all lookups have joined.
func (p *Processor) resolveAll(ctx context.Context, requests []media.SearchRequest, logger *slog.Logger) ([]Item, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	answers := make([]Item, len(requests))
	var group errgroup.Group
	for i, req := range requests {
		group.Go(func() error {
			answers[i] = p.answer(ctx, req, logger)
			return nil
		})
	}
	_ = group.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(answers))
	items := make([]Item, 0, len(answers))
	for _, item := range answers {
		key := dedupKey(item)
		if _, dup := seen[key]; dup {
			tagsTotal.WithLabelValues(string(item.Request.Medium), "duplicate").Inc()
			continue
		}
		seen[key] = struct{}{}
		if item.NotFound {
			tagsTotal.WithLabelValues(string(item.Request.Medium), "not_found").Inc()
		} else {
			tagsTotal.WithLabelValues(string(item.Request.Medium), "found").Inc()
		}
		items = append(items, item)
	}
	return items, nil
}

func (p *Processor) answer(ctx context.Context, req media.SearchRequest, logger *slog.Logger) Item {
	item := Item{Request: req}
	entity, err := p.resolver.Resolve(ctx, req)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) && ctx.Err() == nil {
			logging.WarnWithContext(logger, "tag could not be resolved", "tag_resolution_failed",
				logging.String("request", req.String()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check provider configuration"),
				logging.String(logging.FieldImpact, "tag answered as not found"),
			)
		}
		item.NotFound = true
		return item
	}
	record, err := p.synth.Synthesize(entity, req.Expanded)
	if err != nil {
		item.NotFound = true
		return item
	}
	if p.store != nil {
		titleStats, err := p.store.TitleStats(ctx, record.Medium, record.Title)
		if err != nil {
			logger.Debug("title stats unavailable", logging.String("title", record.Title), logging.Error(err))
		} else if titleStats.Requests > 0 {
			record.Stats = &synthesis.Stats{
				Requests: titleStats.Requests,
				Servers:  titleStats.Servers,
				Share:    titleStats.Share,
			}
		}
	}
	item.Record = record
	return item
}

func dedupKey(item Item) string {
	if item.Record != nil {
		return string(item.Record.Medium) + "\x00" + strings.ToLower(item.Record.Title)
	}
	return string(item.Request.Medium) + "\x00?" + strings.ToLower(item.Request.Query)
}

// record reports one answered tag in the background. Failures are logged and
// never reach the caller.
func (p *Processor) record(ctx context.Context, msg Message, record *synthesis.Record, logger *slog.Logger) {
	if p.recorder == nil || msg.AuthorID == "" {
		return
	}
	event := stats.Request{
		MessageID:   msg.ID,
		RequesterID: msg.AuthorID,
		ServerID:    msg.ServerID,
		ChannelID:   msg.ChannelID,
		Medium:      record.Medium,
		Title:       record.Title,
	}
	detached := context.WithoutCancel(ctx)
	p.pending.Go(func() {
		recordCtx, cancel := context.WithTimeout(detached, p.recordTimeout)
		defer cancel()
		if err := p.recorder.RecordRequest(recordCtx, event); err != nil {
			recordFailuresTotal.Inc()
			logging.WarnWithContext(logger, "statistics event dropped", "stats_record_failed",
				logging.String("title", event.Title),
				logging.String(logging.FieldMedium, string(event.Medium)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the stats database"),
				logging.String(logging.FieldImpact, "request missing from statistics"),
			)
		}
	})
}
