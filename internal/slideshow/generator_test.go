package slideshow

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEncoder struct {
	mu       sync.Mutex
	size     int
	err      error
	block    bool
	timeline Timeline
	inputs   []string
}

func (f *fakeEncoder) RenderTimeline(ctx context.Context, tl Timeline, outPath string) error {
	f.mu.Lock()
	f.timeline = tl
	for _, c := range tl.Clips {
		f.inputs = append(f.inputs, c.Path)
	}
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, bytes.Repeat([]byte{0x42}, f.size), 0644)
}

func pngUpload(t *testing.T, name string, w, h int) Upload {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{R: 200, A: 255}), imaging.PNG))
	return Upload{Filename: name, ContentType: "image/png", Data: buf.Bytes()}
}

func newTestGenerator(t *testing.T, enc Encoder) (*Generator, string) {
	t.Helper()
	tmp := filepath.Join(t.TempDir(), "work")
	g := NewGenerator(Config{
		Bounds:               DefaultBounds,
		TempDir:              tmp,
		EncodeTimeout:        time.Minute,
		MaxConcurrentEncodes: 2,
		MinArtifactBytes:     1024,
	}, enc, zerolog.Nop())
	return g, tmp
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateSlideshow(t *testing.T) {
	enc := &fakeEncoder{size: 4096}
	g, tmp := newTestGenerator(t, enc)

	res, err := g.Generate(context.Background(), Request{
		Images:          []Upload{pngUpload(t, "a.png", 800, 600), pngUpload(t, "b.PNG", 1000, 500)},
		DurationSeconds: 2,
		SlideEffect:     true,
		Transition:      "slide",
	})
	require.NoError(t, err)

	assert.Equal(t, Size{1280, 720}, res.Canvas)
	assert.Equal(t, 4.0, res.Duration)
	assert.Len(t, res.Data, 4096)
	assert.Regexp(t, regexp.MustCompile(`^slideshow_\d{14}_[0-9a-f]{8}\.mp4$`), res.Key)

	require.Len(t, enc.timeline.Clips, 2)
	assert.Equal(t, ModeSlide, enc.timeline.Clips[0].Motion.Mode)
	assert.Zero(t, enc.timeline.Overlap)
	assertNoTempFiles(t, tmp)
}

func TestGenerateRejectsImageCount(t *testing.T) {
	enc := &fakeEncoder{size: 4096}
	g, tmp := newTestGenerator(t, enc)

	for _, n := range []int{0, 1, 4} {
		images := make([]Upload, n)
		for i := range images {
			images[i] = pngUpload(t, "x.png", 100, 100)
		}

		res, err := g.Generate(context.Background(), Request{Images: images, DurationSeconds: 2})

		var ve *ValidationError
		require.True(t, errors.As(err, &ve), "n=%d", n)
		assert.Equal(t, "Please upload 2 to 3 images.", ve.Message)
		assert.Nil(t, res)
	}

	assert.Empty(t, enc.inputs)
	assertNoTempFiles(t, tmp)
}

func TestGenerateRejectsBadUploads(t *testing.T) {
	g, tmp := newTestGenerator(t, &fakeEncoder{size: 4096})
	good := pngUpload(t, "a.png", 100, 100)

	tests := []struct {
		name   string
		upload Upload
		msg    string
	}{
		{"content type", Upload{Filename: "b.png", ContentType: "text/plain", Data: good.Data}, "Invalid file type for image 2."},
		{"extension", Upload{Filename: "b.gif", ContentType: "image/gif", Data: good.Data}, "Unsupported image format '.gif'. Please upload JPG or PNG."},
		{"undecodable", Upload{Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("not an image")}, "Image 2 could not be decoded."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), Request{Images: []Upload{good, tt.upload}})

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.Message)
			assertNoTempFiles(t, tmp)
		})
	}
}

func TestGenerateMissingExtensionDefaultsToJPEG(t *testing.T) {
	g, _ := newTestGenerator(t, &fakeEncoder{size: 4096})
	a := pngUpload(t, "a", 100, 100)
	b := pngUpload(t, "b.jpeg", 100, 100)

	_, err := g.Generate(context.Background(), Request{Images: []Upload{a, b}})
	require.NoError(t, err)
}

func TestGenerateRejectsTinyArtifact(t *testing.T) {
	g, tmp := newTestGenerator(t, &fakeEncoder{size: 100})

	_, err := g.Generate(context.Background(), Request{
		Images: []Upload{pngUpload(t, "a.png", 100, 100), pngUpload(t, "b.png", 100, 100)},
	})

	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	assertNoTempFiles(t, tmp)
}

func TestGenerateWrapsRendererFailure(t *testing.T) {
	boom := errors.New("ffmpeg exited 1")
	g, tmp := newTestGenerator(t, &fakeEncoder{err: boom})

	_, err := g.Generate(context.Background(), Request{
		Images: []Upload{pngUpload(t, "a.png", 100, 100), pngUpload(t, "b.png", 100, 100)},
	})

	var ee *EncodeError
	require.True(t, errors.As(err, &ee))
	assert.ErrorIs(t, err, boom)
	assertNoTempFiles(t, tmp)
}

func TestGenerateTimesOut(t *testing.T) {
	g, tmp := newTestGenerator(t, &fakeEncoder{block: true})
	g.cfg.EncodeTimeout = 50 * time.Millisecond

	_, err := g.Generate(context.Background(), Request{
		Images: []Upload{pngUpload(t, "a.png", 100, 100), pngUpload(t, "b.png", 100, 100)},
	})

	assert.ErrorIs(t, err, ErrEncodeTimeout)
	assertNoTempFiles(t, tmp)
}

func TestGenerateCrossfadeAndDurationFloor(t *testing.T) {
	enc := &fakeEncoder{size: 2048}
	g, _ := newTestGenerator(t, enc)

	res, err := g.Generate(context.Background(), Request{
		Images: []Upload{
			pngUpload(t, "a.png", 2400, 1000),
			pngUpload(t, "b.png", 100, 100),
			pngUpload(t, "c.jpg", 100, 100),
		},
		DurationSeconds: 0,
		Crossfade:       true,
		Transition:      "zoom_in",
	})
	require.NoError(t, err)

	assert.Equal(t, Size{1920, 800}, res.Canvas)
	assert.InDelta(t, 3-2*0.3, res.Duration, 1e-9)
	assert.Equal(t, ModeZoomIn, enc.timeline.Clips[2].Motion.Mode)
}

func TestIngestStopsWhenCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ingest(ctx, dir, 1, pngUpload(t, "a.png", 100, 100))

	assert.ErrorIs(t, err, context.Canceled)
	assertNoTempFiles(t, dir)
}

func TestGenerateCancelledBeforeIngest(t *testing.T) {
	enc := &fakeEncoder{size: 4096}
	g, tmp := newTestGenerator(t, enc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := g.Generate(ctx, Request{
		Images: []Upload{pngUpload(t, "a.png", 100, 100), pngUpload(t, "b.png", 100, 100)},
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, res)
	assert.Empty(t, enc.inputs)
	assertNoTempFiles(t, tmp)
}
