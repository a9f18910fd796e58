package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"marketsky/models"
)

// JSONLinesSink writes one post as a JSON object per line, suitable for
// piping into jq or another application.
type JSONLinesSink struct {
	w io.Writer
}

func NewJSONLinesSink(w io.Writer) *JSONLinesSink {
	return &JSONLinesSink{w: w}
}

func (s *JSONLinesSink) WritePosts(ctx context.Context, posts []models.Post) error {
	enc := json.NewEncoder(s.w)
	for _, post := range posts {
		if err := enc.Encode(post); err != nil {
			return fmt.Errorf("failed to encode post %s: %w", post.Uri, err)
		}
	}
	return nil
}
