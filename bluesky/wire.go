package bluesky

import (
	"time"

	log "github.com/sirupsen/logrus"

	"marketsky/models"
)

// Wire types for the subset of the XRPC contract we consume. Field names
// follow the lexicon JSON, not our models.

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type createSessionResponse struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	Did        string `json:"did"`
}

type feedResponse struct {
	Feed   []feedItem `json:"feed"`
	Cursor *string    `json:"cursor"`
}

type feedItem struct {
	Post *postView `json:"post"`
}

type postView struct {
	Uri         string      `json:"uri"`
	Cid         string      `json:"cid"`
	Author      actorView   `json:"author"`
	Record      *postRecord `json:"record"`
	LikeCount   int64       `json:"likeCount"`
	RepostCount int64       `json:"repostCount"`
	ReplyCount  int64       `json:"replyCount"`
}

type actorView struct {
	Did         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
}

type postRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type searchActorsResponse struct {
	Actors []actorView `json:"actors"`
}

// normalizePosts turns feed envelopes into Post records. Envelopes without
// a post or record, or with an unparseable createdAt, are skipped.
func normalizePosts(items []feedItem) []models.Post {
	posts := make([]models.Post, 0, len(items))
	for _, item := range items {
		if item.Post == nil || item.Post.Record == nil {
			log.Warn("Skipping incomplete feed envelope")
			continue
		}

		view := item.Post
		createdAt, err := time.Parse(time.RFC3339, view.Record.CreatedAt)
		if err != nil {
			log.WithFields(log.Fields{
				"uri": view.Uri,
			}).Warn("Skipping post with invalid createdAt")
			continue
		}

		posts = append(posts, models.Post{
			ActorDid:    view.Author.Did,
			ActorHandle: view.Author.Handle,
			Uri:         view.Uri,
			Cid:         view.Cid,
			Text:        view.Record.Text,
			CreatedAt:   createdAt,
			Likes:       view.LikeCount,
			Reposts:     view.RepostCount,
			Replies:     view.ReplyCount,
			Engagement:  view.LikeCount + view.RepostCount + view.ReplyCount,
		})
	}
	return posts
}
