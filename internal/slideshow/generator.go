package slideshow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	MinImages       = 2
	MaxImages       = 3
	DefaultDuration = 2
)

// Encoder renders a timeline to a file at outPath.
type Encoder interface {
	RenderTimeline(ctx context.Context, tl Timeline, outPath string) error
}

type Config struct {
	Bounds               Bounds
	TempDir              string
	EncodeTimeout        time.Duration
	MaxConcurrentEncodes int64
	MinArtifactBytes     int
}

type Request struct {
	Images          []Upload
	DurationSeconds int
	Crossfade       bool
	SlideEffect     bool
	Transition      string
}

type Result struct {
	Key      string
	Data     []byte
	Canvas   Size
	Duration float64
}

// Generator runs the whole pipeline for one request: ingest, plan, resolve,
// compose and encode. Every request works in its own temp directory which is
// removed before Generate returns.
type Generator struct {
	cfg     Config
	encoder Encoder
	sem     *semaphore.Weighted
	log     zerolog.Logger
	now     func() time.Time
}

func NewGenerator(cfg Config, encoder Encoder, log zerolog.Logger) *Generator {
	if cfg.MaxConcurrentEncodes <= 0 {
		cfg.MaxConcurrentEncodes = 1
	}
	return &Generator{
		cfg:     cfg,
		encoder: encoder,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrentEncodes),
		log:     log.With().Str("component", "slideshow").Logger(),
		now:     time.Now,
	}
}

// EffectiveMode resolves the animation for a request. Disabling slide_effect
// only turns off the slide animation.
func EffectiveMode(transition string, slideEffect bool) Mode {
	mode := ParseMode(transition)
	if mode == ModeSlide && !slideEffect {
		return ModeNone
	}
	return mode
}

func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if n := len(req.Images); n < MinImages || n > MaxImages {
		return nil, invalid("Please upload %d to %d images.", MinImages, MaxImages)
	}
	for i, u := range req.Images {
		if err := checkUpload(i+1, u); err != nil {
			return nil, err
		}
	}

	duration := max(1, req.DurationSeconds)
	mode := EffectiveMode(req.Transition, req.SlideEffect)

	if err := os.MkdirAll(g.cfg.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(g.cfg.TempDir, "slideshow-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			g.log.Warn().Err(err).Str("dir", workDir).Msg("failed to remove work dir")
		}
	}()

	images := make([]SourceImage, len(req.Images))
	eg, gctx := errgroup.WithContext(ctx)
	for i, u := range req.Images {
		eg.Go(func() error {
			img, err := ingest(gctx, workDir, i+1, u)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sizes := make([]Size, len(images))
	for i, img := range images {
		sizes[i] = img.Size
	}
	canvas, err := PlanCanvas(sizes, g.cfg.Bounds)
	if err != nil {
		return nil, err
	}

	clips := make([]Clip, len(images))
	for i, img := range images {
		clips[i] = Resolve(img.Size, canvas, mode, float64(duration))
		clips[i].Path = img.Path
	}

	tl, err := Compose(clips, canvas, req.Crossfade)
	if err != nil {
		return nil, err
	}

	g.log.Info().
		Int("images", len(images)).
		Str("canvas", canvas.String()).
		Str("mode", string(mode)).
		Bool("crossfade", req.Crossfade).
		Float64("duration", tl.Duration()).
		Msg("rendering slideshow")

	outPath := filepath.Join(workDir, "out.mp4")
	if err := g.encode(ctx, tl, outPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, &EncodeError{Reason: "artifact missing", Err: err}
	}
	if len(data) < g.cfg.MinArtifactBytes {
		return nil, &EncodeError{Reason: fmt.Sprintf("artifact too small (%d bytes)", len(data))}
	}

	return &Result{
		Key:      g.newKey(),
		Data:     data,
		Canvas:   canvas,
		Duration: tl.Duration(),
	}, nil
}

// encode waits for an encode slot and renders under the configured deadline.
// The deadline covers the wait as well.
func (g *Generator) encode(ctx context.Context, tl Timeline, outPath string) error {
	encodeCtx := ctx
	if g.cfg.EncodeTimeout > 0 {
		var cancel context.CancelFunc
		encodeCtx, cancel = context.WithTimeout(ctx, g.cfg.EncodeTimeout)
		defer cancel()
	}

	if err := g.sem.Acquire(encodeCtx, 1); err != nil {
		return g.encodeFailure(ctx, encodeCtx, err)
	}
	defer g.sem.Release(1)

	start := time.Now()
	if err := g.encoder.RenderTimeline(encodeCtx, tl, outPath); err != nil {
		return g.encodeFailure(ctx, encodeCtx, err)
	}

	g.log.Debug().Dur("took", time.Since(start)).Msg("encode finished")
	return nil
}

func (g *Generator) encodeFailure(parent, encodeCtx context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(encodeCtx.Err(), context.DeadlineExceeded) {
		g.log.Warn().Dur("timeout", g.cfg.EncodeTimeout).Msg("encode deadline exceeded")
		return ErrEncodeTimeout
	}
	return &EncodeError{Reason: "renderer failed", Err: err}
}

func (g *Generator) newKey() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("slideshow_%s_%s.mp4", g.now().UTC().Format("20060102150405"), suffix)
}
