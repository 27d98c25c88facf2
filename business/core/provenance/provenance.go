// Package provenance provides the core business API for analyzing uploaded
// artifacts and recording the results on the ledger.
package provenance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ardanlabs/provenance/foundation/analysis"
	"github.com/ardanlabs/provenance/foundation/blockchain/database"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidUpload is returned when the upload can't be accepted.
var ErrInvalidUpload = errors.New("invalid upload")

// Verdicts given to an analyzed artifact.
const (
	VerdictFake = "Fake"
	VerdictReal = "Real"
)

// fakeThreshold is the final accuracy above which an artifact is fake.
const fakeThreshold = 50

// sourceLayout is the layout used to report when the artifact was analyzed.
const sourceLayout = "2006-01-02 15:04:05 UTC"

// =============================================================================

// Ledger represents the ledger operations the core requires.
type Ledger interface {
	SealAnalysis(ctx context.Context, ar database.AnalysisResult) (database.Block, error)
	SubmitModelMetadata(mm database.ModelMetadata) (uint64, error)
}

// Config represents the settings for analyzing uploads.
type Config struct {
	UploadFolder string
	Extensions   []string
	Video        analysis.Scorer
	Audio        analysis.Scorer
	Model        database.ModelMetadata
	Uploader     string
	Location     string
}

// Record represents the outcome of analyzing one upload.
type Record struct {
	Name          string  `json:"name"`
	Size          string  `json:"size"`
	User          string  `json:"user"`
	Source        string  `json:"source"`
	VideoAccuracy int     `json:"video_accuracy"`
	AudioAccuracy int     `json:"audio_accuracy"`
	FinalAccuracy float64 `json:"final_accuracy"`
	FinalResult   string  `json:"final_result"`
	FileHash      string  `json:"file_hash"`
	StoredAs      string  `json:"stored_as"`
	Block         uint64  `json:"block"`
}

// Core manages the set of APIs for provenance access.
type Core struct {
	ledger     Ledger
	cfg        Config
	extensions map[string]bool
	now        func() time.Time
}

// NewCore constructs a core for provenance api access.
func NewCore(ledger Ledger, cfg Config) *Core {
	extensions := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		extensions[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	if cfg.Video == nil {
		cfg.Video = analysis.Neutral(analysis.NeutralScore)
	}
	if cfg.Audio == nil {
		cfg.Audio = analysis.Neutral(analysis.NeutralScore)
	}

	return &Core{
		ledger:     ledger,
		cfg:        cfg,
		extensions: extensions,
		now:        time.Now,
	}
}

// Analyze stores the uploaded content, scores it and records the result in a
// newly sealed block. The model metadata is submitted after the seal and is
// sealed with the next block.
func (c *Core) Analyze(ctx context.Context, name string, content io.Reader) (Record, error) {
	ext, err := c.extension(name)
	if err != nil {
		return Record{}, err
	}

	now := c.now().UTC()

	path, size, err := c.store(now, ext, content)
	if err != nil {
		return Record{}, fmt.Errorf("storing upload: %w", err)
	}

	fileHash, err := analysis.FingerprintFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("fingerprint: %w", err)
	}

	videoAccuracy, audioAccuracy, err := c.score(ctx, path)
	if err != nil {
		return Record{}, err
	}

	final := float64(videoAccuracy+audioAccuracy) / 2

	verdict := VerdictReal
	if final > fakeThreshold {
		verdict = VerdictFake
	}

	ar := database.AnalysisResult{
		VideoName:     name,
		VideoAccuracy: videoAccuracy,
		AudioAccuracy: audioAccuracy,
		FileHash:      fileHash,
		Uploader:      c.cfg.Uploader,
		Location:      c.cfg.Location,
	}

	block, err := c.ledger.SealAnalysis(ctx, ar)
	if err != nil {
		return Record{}, fmt.Errorf("seal analysis: %w", err)
	}

	if _, err := c.ledger.SubmitModelMetadata(c.cfg.Model); err != nil {
		return Record{}, fmt.Errorf("submit model metadata: %w", err)
	}

	user := c.cfg.Uploader
	if user == "" {
		user = database.DefaultUploader
	}

	rec := Record{
		Name:          name,
		Size:          fmt.Sprintf("%.2f KB", float64(size)/1024),
		User:          user,
		Source:        now.Format(sourceLayout),
		VideoAccuracy: videoAccuracy,
		AudioAccuracy: audioAccuracy,
		FinalAccuracy: final,
		FinalResult:   verdict,
		FileHash:      fileHash,
		StoredAs:      filepath.Base(path),
		Block:         block.Number,
	}

	return rec, nil
}

// =============================================================================

// extension returns the lower case extension of the name when it is allowed.
func (c *Core) extension(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: no file selected", ErrInvalidUpload)
	}

	i := strings.LastIndex(name, ".")
	if i == -1 || !c.extensions[strings.ToLower(name[i+1:])] {
		return "", fmt.Errorf("%w: file type not allowed, please upload a video file with one of the following extensions: %s",
			ErrInvalidUpload, strings.Join(c.cfg.Extensions, ", "))
	}

	return strings.ToLower(name[i+1:]), nil
}

// store writes the content into the upload folder under a name derived from
// the time of the upload. It returns the path and the number of bytes.
func (c *Core) store(now time.Time, ext string, content io.Reader) (string, int64, error) {
	if err := os.MkdirAll(c.cfg.UploadFolder, 0755); err != nil {
		return "", 0, err
	}

	// Uploads within the same second get a sequence suffix.
	base := fmt.Sprintf("uploaded_video_%d", now.Unix())
	path := filepath.Join(c.cfg.UploadFolder, base+"."+ext)

	var f *os.File
	for seq := 1; ; seq++ {
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", 0, err
		}
		path = filepath.Join(c.cfg.UploadFolder, fmt.Sprintf("%s_%d.%s", base, seq, ext))
	}
	defer f.Close()

	// A partial upload is never left behind.
	size, err := io.Copy(f, content)
	if err != nil {
		os.Remove(path)
		return "", 0, err
	}

	// The file must be fully written before it is fingerprinted.
	if err := f.Sync(); err != nil {
		os.Remove(path)
		return "", 0, err
	}

	return path, size, nil
}

// score runs the video and audio scorers concurrently.
func (c *Core) score(ctx context.Context, path string) (int, int, error) {
	var videoAccuracy, audioAccuracy int

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		score, err := c.cfg.Video.Score(ctx, path)
		if err != nil {
			return fmt.Errorf("video score: %w", err)
		}
		videoAccuracy = score
		return nil
	})

	g.Go(func() error {
		score, err := c.cfg.Audio.Score(ctx, path)
		if err != nil {
			return fmt.Errorf("audio score: %w", err)
		}
		audioAccuracy = score
		return nil
	})

	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	return videoAccuracy, audioAccuracy, nil
}
