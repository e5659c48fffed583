package services

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bobarin/aistudio/internal/slideshow"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EncodeParams are the fixed output settings for every slideshow.
type EncodeParams struct {
	FPS     int
	Codec   string
	Preset  string
	Bitrate string
	Threads int
}

var DefaultEncodeParams = EncodeParams{
	FPS:     24,
	Codec:   "libx264",
	Preset:  "ultrafast",
	Bitrate: "2000k",
	Threads: 4,
}

// CommandRunner runs an external command and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// ---------------------------------------------------------------------------
// FFmpegService
// ---------------------------------------------------------------------------

type FFmpegService struct {
	binary  string
	tempDir string
	params  EncodeParams
	run     CommandRunner
	log     zerolog.Logger
}

var _ slideshow.Encoder = (*FFmpegService)(nil)

func NewFFmpegService(binary, tempDir string, params EncodeParams, log zerolog.Logger) (*FFmpegService, error) {
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	if binary == "" {
		binary = "ffmpeg"
	}

	return &FFmpegService{
		binary:  binary,
		tempDir: tempDir,
		params:  params,
		run:     execRunner,
		log:     log.With().Str("component", "ffmpeg").Logger(),
	}, nil
}

// WithRunner swaps the process runner.
func (s *FFmpegService) WithRunner(run CommandRunner) *FFmpegService {
	s.run = run
	return s
}

// RenderTimeline encodes the timeline into an mp4 at outPath in a single
// ffmpeg invocation. Cancelling ctx kills the process.
func (s *FFmpegService) RenderTimeline(ctx context.Context, tl slideshow.Timeline, outPath string) error {
	args, err := BuildSlideshowArgs(tl, outPath, s.params)
	if err != nil {
		return err
	}

	s.log.Debug().
		Int("clips", len(tl.Clips)).
		Str("canvas", tl.Canvas.String()).
		Strs("args", args).
		Msg("rendering timeline")

	out, err := s.run(ctx, s.binary, args...)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Error().Err(err).Str("output", tail(out, 2048)).Msg("ffmpeg render failed")
		return fmt.Errorf("ffmpeg render failed: %w", err)
	}

	return nil
}

// BuildSlideshowArgs returns the ffmpeg arguments for a timeline.
//
// Each clip is one still image input scaled to its fill size and overlaid
// centred on a black plate of canvas size. Slide clips animate the overlay x
// position, zoom clips run through zoompan first. Clips are joined by concat
// or by a chain of xfade filters when the timeline overlaps.
func BuildSlideshowArgs(tl slideshow.Timeline, outPath string, p EncodeParams) ([]string, error) {
	if len(tl.Clips) == 0 {
		return nil, fmt.Errorf("timeline has no clips")
	}

	var args []string
	var graph []string
	W, H := tl.Canvas.Width, tl.Canvas.Height

	for i, c := range tl.Clips {
		dur := fmtFloat(c.Duration)
		frames := max(1, int(c.Duration*float64(p.FPS)+0.5))

		if c.Motion.Mode.Zoom() {
			// zoompan emits d frames per input frame, so feed it one frame.
			args = append(args, "-i", c.Path)
		} else {
			args = append(args, "-loop", "1", "-framerate", strconv.Itoa(p.FPS), "-t", dur, "-i", c.Path)
		}

		graph = append(graph, fmt.Sprintf("color=c=black:s=%dx%d:d=%s:r=%d[bg%d]", W, H, dur, p.FPS, i))

		img := fmt.Sprintf("[%d:v]scale=%d:%d,setsar=1", i, c.Scaled.Width, c.Scaled.Height)
		overlay := "overlay=x=(W-w)/2:y=(H-h)/2:shortest=1"

		switch {
		case c.Motion.Mode.Zoom():
			img += fmt.Sprintf(",crop=%d:%d,%s", W, H, zoompanFilter(c.Motion, frames, W, H, p.FPS))
		case c.Motion.Animated():
			overlay = fmt.Sprintf("overlay=x='%s':y=(H-h)/2:shortest=1", slideXExpr(c.Motion))
		}

		graph = append(graph, fmt.Sprintf("%s[img%d]", img, i))
		graph = append(graph, fmt.Sprintf("[bg%d][img%d]%s,fps=%d,format=yuv420p,settb=AVTB[v%d]", i, i, overlay, p.FPS, i))
	}

	switch {
	case tl.Single():
		graph = append(graph, "[v0]null[out]")
	case tl.Overlap > 0:
		prev := "v0"
		for i := 1; i < len(tl.Clips); i++ {
			label := fmt.Sprintf("x%d", i)
			if i == len(tl.Clips)-1 {
				label = "out"
			}
			graph = append(graph, fmt.Sprintf("[%s][v%d]xfade=transition=fade:duration=%s:offset=%s[%s]",
				prev, i, fmtFloat(tl.Overlap), fmtFloat(tl.Offset(i)), label))
			prev = label
		}
	default:
		var inputs strings.Builder
		for i := range tl.Clips {
			fmt.Fprintf(&inputs, "[v%d]", i)
		}
		graph = append(graph, fmt.Sprintf("%sconcat=n=%d:v=1:a=0[out]", inputs.String(), len(tl.Clips)))
	}

	args = append(args,
		"-filter_complex", strings.Join(graph, ";"),
		"-map", "[out]",
		"-c:v", p.Codec,
		"-preset", p.Preset,
		"-b:v", p.Bitrate,
		"-r", strconv.Itoa(p.FPS),
		"-threads", strconv.Itoa(p.Threads),
		"-pix_fmt", "yuv420p",
		"-an",
		"-movflags", "+faststart",
		"-y",
		outPath,
	)

	return args, nil
}

// zoompanFilter maps a centred scale motion onto zoompan, linear in the
// output frame number.
func zoompanFilter(m slideshow.Motion, frames, w, h, fps int) string {
	from, to := m.From.Scale, m.To.Scale
	last := max(1, frames-1)

	zExpr := fmt.Sprintf("%s+%s*on/%d", fmtFloat(from), fmtFloat(to-from), last)

	return fmt.Sprintf(
		"zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		zExpr, frames, w, h, fps,
	)
}

// slideXExpr moves the overlay's centre from From.X to To.X over the clip.
func slideXExpr(m slideshow.Motion) string {
	return fmt.Sprintf("%s+(%s)*min(t/%s,1)-w/2",
		fmtFloat(m.From.X), fmtFloat(m.To.X-m.From.X), fmtFloat(m.Duration))
}

// fmtFloat prints at most six decimals so float noise stays out of filter
// expressions.
func fmtFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return string(b)
}

// ---------------------------------------------------------------------------
// Audio watermark
// ---------------------------------------------------------------------------

const (
	watermarkToneHz  = 440
	watermarkSeconds = 1
)

// AppendWatermark returns the audio with a one second 440 Hz tone appended,
// re-encoded as mp3. format is the input container ("mp3", "wav").
func (s *FFmpegService) AppendWatermark(ctx context.Context, audio []byte, format string) ([]byte, error) {
	id := uuid.NewString()
	inPath := s.CreateTempFile(fmt.Sprintf("wm_in_%s.%s", id, format))
	outPath := s.CreateTempFile(fmt.Sprintf("wm_out_%s.mp3", id))
	defer s.Cleanup(inPath, outPath)

	if err := os.WriteFile(inPath, audio, 0644); err != nil {
		return nil, fmt.Errorf("failed to write watermark input: %w", err)
	}

	filter := "[0:a]aresample=44100,aformat=channel_layouts=mono[main];" +
		"[1:a]aformat=channel_layouts=mono[tone];" +
		"[main][tone]concat=n=2:v=0:a=1[aout]"

	args := []string{
		"-i", inPath,
		"-f", "lavfi",
		"-t", strconv.Itoa(watermarkSeconds),
		"-i", fmt.Sprintf("sine=frequency=%d:sample_rate=44100", watermarkToneHz),
		"-filter_complex", filter,
		"-map", "[aout]",
		"-c:a", "libmp3lame",
		"-b:a", "128k",
		"-y",
		outPath,
	}

	if out, err := s.run(ctx, s.binary, args...); err != nil {
		s.log.Error().Err(err).Str("output", tail(out, 2048)).Msg("ffmpeg watermark failed")
		return nil, fmt.Errorf("ffmpeg watermark failed: %w", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read watermarked audio: %w", err)
	}
	return data, nil
}

// CreateTempFile returns a path in the service's temp directory
func (s *FFmpegService) CreateTempFile(filename string) string {
	return filepath.Join(s.tempDir, filename)
}

// Cleanup removes temporary files
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("failed to remove temp file")
		}
	}
}
