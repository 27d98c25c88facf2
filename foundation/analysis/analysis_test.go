package analysis_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/provenance/foundation/analysis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint(t *testing.T) {
	tt := []struct {
		name    string
		content string
		hash    string
	}{
		{name: "empty", content: "", hash: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{name: "abc", content: "abc", hash: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			hash, err := analysis.Fingerprint(strings.NewReader(tst.content))
			require.NoError(t, err)
			assert.Equal(t, tst.hash, hash)

			path := filepath.Join(t.TempDir(), "clip.mp4")
			require.NoError(t, os.WriteFile(path, []byte(tst.content), 0600))

			hash, err = analysis.FingerprintFile(path)
			require.NoError(t, err)
			assert.Equal(t, tst.hash, hash)
		})
	}

	_, err := analysis.FingerprintFile(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}

func TestWithFallback(t *testing.T) {
	fails := analysis.ScorerFunc(func(ctx context.Context, path string) (int, error) {
		return 0, errors.New("model not loaded")
	})

	var events []string
	ev := func(v string, args ...any) { events = append(events, v) }

	tt := []struct {
		name   string
		scorer analysis.Scorer
		score  int
	}{
		{name: "in range", scorer: analysis.Neutral(80), score: 80},
		{name: "lower bound", scorer: analysis.Neutral(0), score: 0},
		{name: "upper bound", scorer: analysis.Neutral(100), score: 100},
		{name: "failure", scorer: fails, score: analysis.NeutralScore},
		{name: "too high", scorer: analysis.Neutral(101), score: analysis.NeutralScore},
		{name: "negative", scorer: analysis.Neutral(-1), score: analysis.NeutralScore},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			score, err := analysis.WithFallback("video", tst.scorer, analysis.NeutralScore, ev).Score(context.Background(), "clip.mp4")
			require.NoError(t, err)
			assert.Equal(t, tst.score, score)
		})
	}

	assert.Len(t, events, 3)
}

func TestHTTPScorer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		f, _, err := r.FormFile("file")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()

		content, _ := io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.FormValue("kind") == "audio":
			w.WriteHeader(http.StatusInternalServerError)
		case string(content) == "no score":
			json.NewEncoder(w).Encode(map[string]any{})
		default:
			json.NewEncoder(w).Encode(map[string]any{"score": 73.9})
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	clip := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(clip, []byte("frames"), 0600))

	empty := filepath.Join(dir, "empty.mp4")
	require.NoError(t, os.WriteFile(empty, []byte("no score"), 0600))

	ctx := context.Background()

	score, err := analysis.NewHTTPScorer("video", srv.URL, time.Second).Score(ctx, clip)
	require.NoError(t, err)
	assert.Equal(t, 73, score)

	_, err = analysis.NewHTTPScorer("audio", srv.URL, time.Second).Score(ctx, clip)
	assert.Error(t, err)

	_, err = analysis.NewHTTPScorer("video", srv.URL, time.Second).Score(ctx, empty)
	assert.Error(t, err)

	_, err = analysis.NewHTTPScorer("video", srv.URL, time.Second).Score(ctx, filepath.Join(dir, "missing.mp4"))
	assert.Error(t, err)
}
