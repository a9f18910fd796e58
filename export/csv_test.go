package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketsky/export"
	"marketsky/models"
)

func samplePosts() []models.Post {
	return []models.Post{
		{
			ActorHandle: "unusualwhales.bsky.social",
			ActorDid:    "did:plc:whales",
			Uri:         "at://did:plc:whales/app.bsky.feed.post/1",
			Text:        "markets, with a \"quoted\" word\nand a newline",
			CreatedAt:   time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
			Likes:       10,
			Reposts:     4,
			Replies:     2,
			Engagement:  16,
		},
		{
			ActorHandle: "economist.bsky.social",
			Uri:         "at://did:plc:econ/app.bsky.feed.post/2",
			Text:        "second post",
			CreatedAt:   time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
		},
	}
}

func TestCSVSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "posts.csv")
	sink := export.NewCSVSink(path)

	require.NoError(t, sink.WritePosts(context.Background(), samplePosts()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"actor_handle", "uri", "text", "created_at",
		"likes", "reposts", "replies", "engagement",
	}, rows[0])

	assert.Equal(t, "unusualwhales.bsky.social", rows[1][0])
	assert.Equal(t, "markets, with a \"quoted\" word\nand a newline", rows[1][2])
	assert.Equal(t, "2025-06-01T12:30:00Z", rows[1][3])
	assert.Equal(t, "16", rows[1][7])

	assert.Equal(t, "economist.bsky.social", rows[2][0])
	assert.Equal(t, "0", rows[2][4])
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	sink := export.NewJSONLinesSink(&buf)

	require.NoError(t, sink.WritePosts(context.Background(), samplePosts()))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first models.Post
	require.NoError(t, json.Unmarshal(lines[0], &first))
	assert.Equal(t, "unusualwhales.bsky.social", first.ActorHandle)
	assert.Equal(t, int64(16), first.Engagement)
}
