package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"sync"

	"github.com/ivlev/voicescene/internal/config"
)

// Encoder turns a stream of frames into a video file and attaches audio.
type Encoder interface {
	Open(ctx context.Context, path string, params config.StreamParams) (*Stream, error)
	Mux(ctx context.Context, videoPath, audioPath, out string) error
}

type FFmpegEncoder struct{}

// Stream is a running ffmpeg process reading raw RGBA frames from stdin.
type Stream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    syncBuffer
	width  int
	height int
	frames int
}

// syncBuffer collects ffmpeg output. exec copies into it from its own
// goroutine while frame writes may read it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (e *FFmpegEncoder) Open(ctx context.Context, path string, params config.StreamParams) (*Stream, error) {
	s := &Stream{width: params.Width, height: params.Height}
	s.cmd = exec.CommandContext(ctx, "ffmpeg", buildStreamArgs(path, params)...)
	s.cmd.Stdout = &s.out
	s.cmd.Stderr = &s.out

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin

	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

func buildStreamArgs(path string, params config.StreamParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", params.Width, params.Height),
		"-framerate", fmt.Sprintf("%d", params.FPS),
		"-i", "-",
		"-pix_fmt", "yuv420p",
		"-c:v", params.Encoder,
	}
	args = append(args, QualityArgs(params.Encoder, params.Quality)...)
	return append(args, path)
}

// QualityArgs maps a single quality knob onto each encoder's rate control.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox does not take -q:v everywhere, so quality is a bitrate: 75 -> 7.5 Mbit/s.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// WriteFrame sends one frame. Frames of the wrong size are rejected.
func (s *Stream) WriteFrame(img *image.RGBA) error {
	if img.Rect.Dx() != s.width || img.Rect.Dy() != s.height {
		return fmt.Errorf("frame %dx%d does not match stream %dx%d", img.Rect.Dx(), img.Rect.Dy(), s.width, s.height)
	}
	if err := writeRawRGBA(s.stdin, img); err != nil {
		return fmt.Errorf("write raw error: %w (ffmpeg: %s)", err, s.out.String())
	}
	s.frames++
	return nil
}

// Frames is the number of frames written so far.
func (s *Stream) Frames() int {
	return s.frames
}

// Close ends the input and waits for ffmpeg to finish the file.
func (s *Stream) Close() error {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w, output: %s", err, s.out.String())
	}
	return nil
}

func writeRawRGBA(w io.Writer, img image.Image) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix)
	return err
}

// Mux copies the video track and encodes the mixed narration as AAC.
func (e *FFmpegEncoder) Mux(ctx context.Context, videoPath, audioPath, out string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", buildMuxArgs(videoPath, audioPath, out)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux error: %v, output: %s", err, string(output))
	}
	return nil
}

func buildMuxArgs(videoPath, audioPath, out string) []string {
	args := []string{"-y", "-i", videoPath}
	if audioPath == "" {
		return append(args, "-map", "0:v:0", "-c:v", "copy", "-movflags", "+faststart", out)
	}
	return append(args,
		"-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac", "-b:a", "192k",
		"-movflags", "+faststart",
		out,
	)
}
