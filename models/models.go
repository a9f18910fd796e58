package models

import "time"

// Post is the normalized record extracted from an author feed. Once built
// it is never mutated; downstream consumers work on copies.
type Post struct {
	ActorDid    string    `json:"actorDid"`
	ActorHandle string    `json:"actorHandle"`
	Uri         string    `json:"uri"`
	Cid         string    `json:"cid,omitempty"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"createdAt"`
	Likes       int64     `json:"likes"`
	Reposts     int64     `json:"reposts"`
	Replies     int64     `json:"replies"`
	Engagement  int64     `json:"engagement"`
}

// Actor is a matched account from actor search.
type Actor struct {
	Did         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
}
