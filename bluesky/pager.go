package bluesky

import (
	"context"

	"marketsky/models"
)

// FeedPager walks an author feed page-by-page. Pagers are not restartable:
// the provider may rotate cursors between runs, so a fresh walk needs a
// fresh pager.
type FeedPager struct {
	client   *Client
	actor    string
	limit    int
	maxPosts int

	cursor  string
	fetched int
	done    bool
}

// NewFeedPager prepares a walk over actor's feed. maxPosts <= 0 means no
// cap.
func (c *Client) NewFeedPager(actor string, pageLimit, maxPosts int) *FeedPager {
	return &FeedPager{
		client:   c,
		actor:    actor,
		limit:    pageLimit,
		maxPosts: maxPosts,
	}
}

// HasMore reports whether another call to Next may yield posts.
func (p *FeedPager) HasMore() bool {
	return !p.done
}

// Next fetches the next page. Blocking happens only at the network call;
// nothing beyond one page is buffered.
func (p *FeedPager) Next(ctx context.Context) ([]models.Post, error) {
	if p.done {
		return nil, nil
	}

	posts, next, err := p.client.FetchAuthorFeed(ctx, p.actor, p.limit, p.cursor)
	if err != nil {
		return nil, err
	}

	p.cursor = next
	if next == "" {
		p.done = true
	}

	if p.maxPosts > 0 {
		remaining := p.maxPosts - p.fetched
		if len(posts) >= remaining {
			posts = posts[:remaining]
			p.done = true
		}
	}
	p.fetched += len(posts)

	// An empty page with no cursor means the feed is exhausted.
	if len(posts) == 0 && p.cursor == "" {
		p.done = true
	}

	return posts, nil
}

// FetchAllForActor walks the whole feed (up to maxPosts) and returns the
// concatenated pages in feed order. A fresh call re-walks pagination from
// the start.
func (c *Client) FetchAllForActor(ctx context.Context, actor string, pageLimit, maxPosts int) ([]models.Post, error) {
	pager := c.NewFeedPager(actor, pageLimit, maxPosts)

	var all []models.Post
	for pager.HasMore() {
		page, err := pager.Next(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}

	return all, nil
}
