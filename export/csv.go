package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"marketsky/models"
)

var csvHeader = []string{
	"actor_handle", "uri", "text", "created_at",
	"likes", "reposts", "replies", "engagement",
}

// CSVSink writes harvested posts to a CSV file for downstream analysis.
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

func (s *CSVSink) WritePosts(ctx context.Context, posts []models.Post) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, post := range posts {
		record := []string{
			post.ActorHandle,
			post.Uri,
			post.Text,
			post.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatInt(post.Likes, 10),
			strconv.FormatInt(post.Reposts, 10),
			strconv.FormatInt(post.Replies, 10),
			strconv.FormatInt(post.Engagement, 10),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write post %s: %w", post.Uri, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	log.WithFields(log.Fields{
		"posts": len(posts),
		"path":  s.path,
	}).Info("Wrote posts to CSV")

	return nil
}
