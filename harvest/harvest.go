package harvest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"marketsky/bluesky"
	"marketsky/models"
)

// Config holds the parameters for one harvest run.
type Config struct {
	// SearchTerms are resolved to their most relevant actor each.
	SearchTerms []string

	// Actors are fetched as-is, in addition to resolved search terms.
	Actors []string

	// PageLimit is the getAuthorFeed page size (clamped by the client).
	PageLimit int

	// MaxPostsPerActor caps how deep each feed is walked. <= 0 means no cap.
	MaxPostsPerActor int

	// StartDate and EndDate bound posts by creation time (inclusive).
	// Zero values leave the corresponding side unbounded.
	StartDate time.Time
	EndDate   time.Time

	// Workers is the number of actors fetched concurrently.
	Workers int

	// RetryInitialInterval and RetryMaxElapsedTime tune the per-page
	// retry policy. Zero values use the defaults.
	RetryInitialInterval time.Duration
	RetryMaxElapsedTime  time.Duration
}

// Sink receives the merged, date-filtered, newest-first harvest result.
type Sink interface {
	WritePosts(ctx context.Context, posts []models.Post) error
}

// Harvester drives the full collection pipeline over a shared client, so
// all workers reuse one session.
type Harvester struct {
	client *bluesky.Client
	config Config
}

func New(client *bluesky.Client, config Config) *Harvester {
	if config.PageLimit <= 0 {
		config.PageLimit = bluesky.MaxFeedLimit
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Harvester{client: client, config: config}
}

// ResolveActors expands search terms into actor handles and merges them
// with the configured actor list, deduplicated.
func (h *Harvester) ResolveActors(ctx context.Context) ([]string, error) {
	handles := make([]string, 0, len(h.config.Actors)+len(h.config.SearchTerms))
	handles = append(handles, h.config.Actors...)

	for _, term := range h.config.SearchTerms {
		actors, err := h.client.SearchActors(ctx, term, 1)
		if err != nil {
			return nil, err
		}
		if len(actors) == 0 {
			log.WithFields(log.Fields{
				"term": term,
			}).Warn("No actors found for search term")
			continue
		}

		log.WithFields(log.Fields{
			"term":   term,
			"handle": actors[0].Handle,
		}).Info("Resolved search term to actor")
		handles = append(handles, actors[0].Handle)
	}

	return lo.Uniq(handles), nil
}

// Run executes the pipeline and hands the result to sink. Returns the
// number of posts written.
func (h *Harvester) Run(ctx context.Context, sink Sink) (int, error) {
	actors, err := h.ResolveActors(ctx)
	if err != nil {
		return 0, err
	}
	if len(actors) == 0 {
		log.Warn("No actors to harvest")
		return 0, nil
	}

	log.WithFields(log.Fields{
		"actors":  len(actors),
		"workers": h.config.Workers,
	}).Info("Starting harvest")

	var mu sync.Mutex
	var all []models.Post

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Workers)

	for _, actor := range actors {
		actor := actor
		g.Go(func() error {
			posts, err := h.collectActor(ctx, actor)
			if err != nil {
				return err
			}

			mu.Lock()
			all = append(all, posts...)
			mu.Unlock()

			log.WithFields(log.Fields{
				"actor": actor,
				"posts": len(posts),
			}).Info("Collected actor feed")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	all = FilterByDate(all, h.config.StartDate, h.config.EndDate)
	SortNewestFirst(all)

	if err := sink.WritePosts(ctx, all); err != nil {
		return 0, err
	}

	return len(all), nil
}

// collectActor walks one feed page-by-page, retrying transient failures.
func (h *Harvester) collectActor(ctx context.Context, actor string) ([]models.Post, error) {
	pager := h.client.NewFeedPager(actor, h.config.PageLimit, h.config.MaxPostsPerActor)

	var posts []models.Post
	for pager.HasMore() {
		page, err := h.fetchPage(ctx, pager)
		if err != nil {
			return nil, err
		}
		posts = append(posts, page...)
	}

	return posts, nil
}

func (h *Harvester) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 30 * time.Second
	bo.Multiplier = 1.5
	bo.MaxElapsedTime = 2 * time.Minute
	if h.config.RetryInitialInterval > 0 {
		bo.InitialInterval = h.config.RetryInitialInterval
	}
	if h.config.RetryMaxElapsedTime > 0 {
		bo.MaxElapsedTime = h.config.RetryMaxElapsedTime
	}
	return bo
}

// fetchPage retries one page fetch on transport errors with exponential
// backoff, and waits out the provider's hint on rate limits. Auth and
// provider errors surface immediately. Both retried categories are
// bounded by MaxElapsedTime, so a permanently failing page surfaces its
// error instead of looping.
func (h *Harvester) fetchPage(ctx context.Context, pager *bluesky.FeedPager) ([]models.Post, error) {
	bo := h.newBackOff()

	for {
		page, err := pager.Next(ctx)
		if err == nil {
			return page, nil
		}

		var rateLimited *bluesky.RateLimitedError
		var transport *bluesky.TransportError

		var wait time.Duration
		switch {
		case errors.As(err, &rateLimited):
			next := bo.NextBackOff()
			if next == backoff.Stop {
				return nil, err
			}
			wait = rateLimited.RetryAfter
			if wait <= 0 {
				wait = next
			}
			log.WithFields(log.Fields{
				"wait": wait,
			}).Warn("Rate limited by provider, backing off")
		case errors.As(err, &transport):
			wait = bo.NextBackOff()
			if wait == backoff.Stop {
				return nil, err
			}
			log.WithFields(log.Fields{
				"wait": wait,
			}).Warn("Transport error fetching page, retrying")
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// FilterByDate keeps posts created within [start, end]. Zero bounds are
// open ends.
func FilterByDate(posts []models.Post, start, end time.Time) []models.Post {
	if start.IsZero() && end.IsZero() {
		return posts
	}

	filtered := make([]models.Post, 0, len(posts))
	for _, post := range posts {
		if !start.IsZero() && post.CreatedAt.Before(start) {
			continue
		}
		if !end.IsZero() && post.CreatedAt.After(end) {
			continue
		}
		filtered = append(filtered, post)
	}
	return filtered
}

// SortNewestFirst orders posts by creation time, most recent first.
func SortNewestFirst(posts []models.Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}
