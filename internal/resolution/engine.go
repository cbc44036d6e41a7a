package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"tagscout/internal/config"
	"tagscout/internal/logging"
	"tagscout/internal/media"
	"tagscout/internal/providers"
	"tagscout/internal/resolution/overrides"
	"tagscout/internal/services"
)

const component = "resolution"

// OverrideSource supplies pre-resolved provider identifiers for a query.
type OverrideSource interface {
	Lookup(medium media.Medium, query string) (overrides.Override, bool, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithOverrides installs the override catalog consulted before searching.
func WithOverrides(source OverrideSource) Option {
	return func(e *Engine) {
		e.overrides = source
	}
}

// WithTimeouts replaces the configured request and per-call timeouts. Zero
// disables the corresponding bound.
func WithTimeouts(request, provider time.Duration) Option {
	return func(e *Engine) {
		e.requestTimeout = request
		e.providerTimeout = provider
	}
}

// Engine resolves search requests against the configured providers. It is
// safe for concurrent use; each Resolve call owns its own state.
type Engine struct {
	registry        *providers.Registry
	lineups         map[media.Medium]lineup
	overrides       OverrideSource
	requestTimeout  time.Duration
	providerTimeout time.Duration
	maxRounds       int
	logger          *slog.Logger
}

type lineup struct {
	primary   []providers.Provider
	auxiliary []providers.Provider
}

func (l lineup) ranking() []string {
	ids := make([]string, 0, len(l.primary)+len(l.auxiliary))
	for _, p := range l.primary {
		ids = append(ids, p.ID())
	}
	for _, p := range l.auxiliary {
		ids = append(ids, p.ID())
	}
	return ids
}

// New builds an engine from the per-medium rankings in cfg. Providers that do
// not support a medium they are ranked for are skipped with a warning.
func New(cfg *config.Config, registry *providers.Registry, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "config required", nil)
	}
	if registry == nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "init", "provider registry required", nil)
	}
	e := &Engine{
		registry:        registry,
		lineups:         make(map[media.Medium]lineup, len(media.All())),
		requestTimeout:  cfg.RequestTimeout(),
		providerTimeout: cfg.ProviderTimeout(),
		maxRounds:       cfg.Resolution.MaxRounds,
		logger:          logging.NewComponentLogger(logger, component),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, medium := range media.All() {
		ranking := cfg.Ranking(medium)
		primary, err := e.lookup(medium, ranking.Primary)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, component, "init", string(medium)+" primary", err)
		}
		auxiliary, err := e.lookup(medium, ranking.Auxiliary)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, component, "init", string(medium)+" auxiliary", err)
		}
		e.lineups[medium] = lineup{primary: primary, auxiliary: auxiliary}
	}
	return e, nil
}

func (e *Engine) lookup(medium media.Medium, ids []string) ([]providers.Provider, error) {
	found, err := e.registry.Lookup(ids)
	if err != nil {
		return nil, err
	}
	out := found[:0]
	for _, p := range found {
		if !p.Supports(medium) {
			logging.WarnWithContext(e.logger, "ranked provider does not support medium; skipping", "provider_medium_unsupported",
				logging.String(logging.FieldProvider, p.ID()),
				logging.String(logging.FieldMedium, string(medium)),
				logging.String(logging.FieldErrorHint, "remove the provider from providers."+string(medium)),
				logging.String(logging.FieldImpact, "provider never consulted for this medium"),
			)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Ranking returns the merge precedence configured for medium.
func (e *Engine) Ranking(medium media.Medium) []string {
	return e.lineups[medium].ranking()
}

// Resolve looks up req and returns the merged entity. A request no primary
// provider matches returns an error matching services.ErrNotFound. When the
// request timeout or the caller's deadline fires, providers that already
// answered are returned as they are; with no answer at all the error matches
// both ErrNotFound and ErrTimeout. Caller cancellation is returned unchanged.
func (e *Engine) Resolve(ctx context.Context, req media.SearchRequest) (*Entity, error) {
	query := strings.Join(strings.Fields(req.Query), " ")
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, component, "resolve", "empty query", nil)
	}
	line, ok := e.lineups[req.Medium]
	if !ok {
		return nil, services.Wrap(services.ErrValidation, component, "resolve", fmt.Sprintf("unknown medium %q", req.Medium), nil)
	}
	if len(line.primary) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, component, "resolve", "no primary providers for "+string(req.Medium), nil)
	}

	parent := services.WithMedium(ctx, string(req.Medium))
	ctx = parent
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, e.requestTimeout)
		defer cancel()
	}
	logger := logging.WithContext(ctx, e.logger)
	start := time.Now()

	entity := &Entity{
		Medium:  req.Medium,
		Query:   query,
		Ranking: line.ranking(),
		Results: make(map[string]*providers.Result),
	}
	pool := newSynonymPool(query)

	handled := false
	if e.overrides != nil {
		override, found, err := e.overrides.Lookup(req.Medium, query)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "override catalog unreadable; searching instead", "overrides_unreadable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "fix the YAML in paths.overrides_path"),
				logging.String(logging.FieldImpact, "overrides ignored until the file parses"),
			)
		case found:
			handled = true
			overrideHitsTotal.WithLabelValues(string(req.Medium)).Inc()
			e.resolveOverride(ctx, entity, pool, override, logger)
		}
	}
	if !handled {
		e.roundRobin(ctx, entity, pool, line, logger)
		if len(entity.Results) > 0 && ctx.Err() == nil {
			e.queryAuxiliaries(ctx, entity, pool, line, logger)
		}
	}
	entity.Synonyms = pool.snapshot()
	elapsed := time.Since(start)

	if err := ctx.Err(); err != nil {
		parentErr := parent.Err()
		if parentErr != nil && !errors.Is(parentErr, context.DeadlineExceeded) {
			recordResolution(string(req.Medium), services.Outcome(parentErr), entity.Rounds, elapsed)
			return nil, parentErr
		}
		if !entity.Empty() {
			// Providers that already answered are kept; the rest count as absent.
			logging.WarnWithContext(logger, "resolution deadline reached; answering with partial results", "resolution_partial",
				logging.String("request", req.String()),
				logging.Duration("elapsed", elapsed),
				logging.Int("rounds", entity.Rounds),
				logging.Any("providers", resultIDs(entity)),
				logging.String(logging.FieldErrorHint, "raise resolution.request_timeout_seconds or check provider latency"),
				logging.String(logging.FieldImpact, "slow providers missing from the answer"),
			)
			recordResolution(string(req.Medium), "partial", entity.Rounds, elapsed)
			return entity, nil
		}
		recordResolution(string(req.Medium), "timeout", entity.Rounds, elapsed)
		logging.WarnWithContext(logger, "resolution timed out; reporting not found", "resolution_timeout",
			logging.String("request", req.String()),
			logging.Duration("elapsed", elapsed),
			logging.Bool("caller_deadline", parentErr != nil),
			logging.Int("rounds", entity.Rounds),
			logging.String(logging.FieldErrorHint, "raise resolution.request_timeout_seconds or check provider latency"),
			logging.String(logging.FieldImpact, "tag answered as not found"),
		)
		return nil, services.Wrap(services.ErrNotFound, component, "resolve",
			fmt.Sprintf("%s timed out after %v", req, elapsed.Round(time.Millisecond)), services.ErrTimeout)
	}

	if entity.Empty() {
		recordResolution(string(req.Medium), "not_found", entity.Rounds, elapsed)
		logger.Info("no provider matched",
			logging.String("request", req.String()),
			logging.Int("rounds", entity.Rounds),
			logging.Int("queries", entity.Queries),
			logging.Duration("elapsed", elapsed),
		)
		return nil, services.Wrap(services.ErrNotFound, component, "resolve", "no provider matched "+req.String(), nil)
	}

	recordResolution(string(req.Medium), "ok", entity.Rounds, elapsed)
	logger.Info("resolved request",
		logging.String("request", req.String()),
		logging.String("title", entity.Title()),
		logging.Int("providers", len(entity.Results)),
		logging.Int("rounds", entity.Rounds),
		logging.Int("queries", entity.Queries),
		logging.Bool("overridden", entity.Overridden),
		logging.Duration("elapsed", elapsed),
	)
	return entity, nil
}

// roundRobin runs the synonym rounds across the primary providers. Each round
// queries every unresolved provider concurrently; hits and their synonyms are
// applied in rank order once the round joins.
func (e *Engine) roundRobin(ctx context.Context, entity *Entity, pool *synonymPool, line lineup, logger *slog.Logger) {
	rounds := len(line.primary)
	if e.maxRounds > 0 && e.maxRounds < rounds {
		rounds = e.maxRounds
	}
	tried := make(triedSet)

	for round := 1; round <= rounds; round++ {
		snapshot := pool.snapshot()
		var pending []providers.Provider
		var candidates [][]string
		for _, p := range line.primary {
			if _, done := entity.Results[p.ID()]; done {
				continue
			}
			untried := tried.untried(p.ID(), snapshot)
			if len(untried) == 0 {
				continue
			}
			pending = append(pending, p)
			candidates = append(candidates, untried)
		}
		if len(pending) == 0 {
			break
		}
		entity.Rounds = round

		hits := make([]*providers.Result, len(pending))
		attempted := make([][]string, len(pending))
		var g errgroup.Group
		for i, p := range pending {
			g.Go(func() error {
				hits[i], attempted[i] = e.searchFirst(ctx, p, candidates[i], entity.Medium, logger)
				return nil
			})
		}
		_ = g.Wait()

		progressed := false
		for i, p := range pending {
			tried.mark(p.ID(), attempted[i])
			entity.Queries += len(attempted[i])
			if hits[i] == nil {
				continue
			}
			progressed = true
			entity.Results[p.ID()] = hits[i]
			added := pool.merge(p.Synonyms(hits[i]))
			logger.Debug("primary provider matched",
				logging.String(logging.FieldProvider, p.ID()),
				logging.Int("round", round),
				logging.String("title", hits[i].DisplayTitle()),
				logging.Int("new_synonyms", added),
			)
		}
		if !progressed || ctx.Err() != nil {
			break
		}
	}
}

func (e *Engine) queryAuxiliaries(ctx context.Context, entity *Entity, pool *synonymPool, line lineup, logger *slog.Logger) {
	if len(line.auxiliary) == 0 {
		return
	}
	candidates := pool.snapshot()
	hits := make([]*providers.Result, len(line.auxiliary))
	attempted := make([]int, len(line.auxiliary))
	var g errgroup.Group
	for i, p := range line.auxiliary {
		g.Go(func() error {
			var tried []string
			hits[i], tried = e.searchFirst(ctx, p, candidates, entity.Medium, logger)
			attempted[i] = len(tried)
			return nil
		})
	}
	_ = g.Wait()
	for i, p := range line.auxiliary {
		entity.Queries += attempted[i]
		if hits[i] != nil {
			entity.Results[p.ID()] = hits[i]
		}
	}
}

// searchFirst tries candidates in order against p and returns the first hit
// together with the candidates actually queried.
func (e *Engine) searchFirst(ctx context.Context, p providers.Provider, candidates []string, medium media.Medium, logger *slog.Logger) (*providers.Result, []string) {
	attempted := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if ctx.Err() != nil {
			break
		}
		attempted = append(attempted, candidate)
		callCtx, cancel := e.providerContext(ctx, p.ID())
		result, err := p.Search(callCtx, candidate, medium)
		cancel()
		if err != nil {
			e.logProviderError(logger, p.ID(), "search", candidate, err)
			continue
		}
		if result != nil {
			return result, attempted
		}
	}
	return nil, attempted
}

// resolveOverride fetches every provider the override names by ID instead of
// searching.
func (e *Engine) resolveOverride(ctx context.Context, entity *Entity, pool *synonymPool, override overrides.Override, logger *slog.Logger) {
	entity.Overridden = true
	var targets []providers.Provider
	for _, id := range override.Providers() {
		p, ok := e.registry.Get(id)
		if !ok {
			logging.WarnWithContext(logger, "override names unknown provider; skipping", "override_unknown_provider",
				logging.String(logging.FieldProvider, id),
				logging.String(logging.FieldErrorHint, "use a provider id from the providers section"),
				logging.String(logging.FieldImpact, "no link for this provider"),
			)
			continue
		}
		targets = append(targets, p)
		if !containsString(entity.Ranking, id) {
			entity.Ranking = append(entity.Ranking, id)
		}
	}

	hits := make([]*providers.Result, len(targets))
	var g errgroup.Group
	for i, p := range targets {
		g.Go(func() error {
			callCtx, cancel := e.providerContext(ctx, p.ID())
			defer cancel()
			result, err := p.FetchByID(callCtx, override.IDs[p.ID()], entity.Medium)
			if err != nil {
				e.logProviderError(logger, p.ID(), "fetch", override.IDs[p.ID()], err)
				return nil
			}
			hits[i] = result
			return nil
		})
	}
	_ = g.Wait()
	entity.Queries += len(targets)

	for _, id := range entity.Ranking {
		for i, p := range targets {
			if p.ID() == id && hits[i] != nil {
				entity.Results[id] = hits[i]
				pool.merge(p.Synonyms(hits[i]))
			}
		}
	}
}

func (e *Engine) providerContext(ctx context.Context, provider string) (context.Context, context.CancelFunc) {
	ctx = services.WithProvider(ctx, provider)
	if e.providerTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.providerTimeout)
}

func (e *Engine) logProviderError(logger *slog.Logger, provider, operation, query string, err error) {
	attrs := []logging.Attr{
		logging.String(logging.FieldProvider, provider),
		logging.String("operation", operation),
		logging.String("query", query),
		logging.String("outcome", services.Outcome(err)),
		logging.Error(err),
	}
	if services.IsAbsent(err) || errors.Is(err, context.Canceled) {
		logger.Debug("provider call treated as absent", logging.Args(attrs...)...)
		return
	}
	attrs = append(attrs,
		logging.String(logging.FieldErrorHint, "check the provider adapter and endpoint configuration"),
		logging.String(logging.FieldImpact, "provider treated as absent for this request"),
	)
	logging.WarnWithContext(logger, "provider call failed", "provider_call_failed", attrs...)
}

// resultIDs lists the providers with a result, in rank order.
func resultIDs(entity *Entity) []string {
	ids := make([]string, 0, len(entity.Results))
	for _, id := range entity.Ranking {
		if _, ok := entity.Results[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
