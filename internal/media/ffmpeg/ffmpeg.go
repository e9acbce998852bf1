package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor runs a command to completion. Tests inject fakes.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

// Streamer starts a command that reads its stdin from the returned Process.
type Streamer interface {
	Start(ctx context.Context, binary string, args []string) (Process, error)
}

// Process is a started command. Close ends its input; Wait blocks until it
// exits.
type Process interface {
	io.WriteCloser
	Wait() error
}

// Option configures a Client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithStreamer injects the process starter used by Encode.
func WithStreamer(streamer Streamer) Option {
	return func(c *Client) {
		if streamer != nil {
			c.streamer = streamer
		}
	}
}

// WithEncoderArgs replaces the codec arguments used by Encoder.
func WithEncoderArgs(args ...string) Option {
	return func(c *Client) {
		c.encoderArgs = append([]string(nil), args...)
	}
}

// Client wraps one ffmpeg binary.
type Client struct {
	binary      string
	exec        Executor
	streamer    Streamer
	encoderArgs []string
}

// DefaultEncoderArgs is a visually lossless x264 encode.
var DefaultEncoderArgs = []string{"-c:v", "libx264", "-preset", "medium", "-crf", "16"}

// New returns a client for binary, defaulting to "ffmpeg".
func New(binary string, opts ...Option) *Client {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	c := &Client{binary: binary, exec: commandExecutor{}, streamer: commandExecutor{}, encoderArgs: DefaultEncoderArgs}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsY4M reports whether path names a YUV4MPEG2 file by extension.
func IsY4M(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".y4m")
}

// ConvertArgs builds the argument list that decodes src into a y4m file.
func ConvertArgs(src, dst, pixFmt string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", src, "-map", "0:v:0", "-an", "-sn"}
	if pixFmt != "" {
		args = append(args, "-pix_fmt", pixFmt)
	}
	return append(args, "-f", "yuv4mpegpipe", dst)
}

// Convert decodes the primary video stream of src into dst. pixFmt forces an
// 8-bit pixel format such as yuv420p; empty keeps the source layout.
func (c *Client) Convert(ctx context.Context, src, dst, pixFmt string) error {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(dst) == "" {
		return errors.New("ffmpeg convert: invalid path")
	}
	if err := c.exec.Run(ctx, c.binary, ConvertArgs(src, dst, pixFmt)); err != nil {
		return fmt.Errorf("ffmpeg convert: %w", err)
	}
	return nil
}

// EncodeArgs builds the argument list that encodes y4m on stdin into dst.
func EncodeArgs(dst string, codec []string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-f", "yuv4mpegpipe", "-i", "pipe:0"}
	args = append(args, codec...)
	return append(args, dst)
}

// Encoder is a running ffmpeg process reading y4m from its stdin.
type Encoder struct {
	proc   Process
	closed bool
}

// Encode starts ffmpeg writing dst. Callers write a y4m stream to the
// returned Encoder and must Close it.
func (c *Client) Encode(ctx context.Context, dst string) (*Encoder, error) {
	if strings.TrimSpace(dst) == "" {
		return nil, errors.New("ffmpeg encode: invalid path")
	}
	proc, err := c.streamer.Start(ctx, c.binary, EncodeArgs(dst, c.encoderArgs))
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encode: start: %w", err)
	}
	return &Encoder{proc: proc}, nil
}

func (e *Encoder) Write(p []byte) (int, error) {
	n, err := e.proc.Write(p)
	if err != nil {
		return n, fmt.Errorf("ffmpeg encode: %w", err)
	}
	return n, nil
}

// Close ends the input stream and waits for ffmpeg to exit. Later calls
// return nil.
func (e *Encoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	closeErr := e.proc.Close()
	if err := e.proc.Wait(); err != nil {
		return fmt.Errorf("ffmpeg encode: %w", err)
	}
	if closeErr != nil && !errors.Is(closeErr, io.ErrClosedPipe) && !errors.Is(closeErr, os.ErrClosed) {
		return fmt.Errorf("ffmpeg encode: close stdin: %w", closeErr)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (commandExecutor) Start(ctx context.Context, binary string, args []string) (Process, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	proc := &commandProcess{cmd: cmd, WriteCloser: stdin}
	cmd.Stderr = &proc.stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return proc, nil
}

type commandProcess struct {
	io.WriteCloser
	cmd    *exec.Cmd
	stderr bytes.Buffer
}

func (p *commandProcess) Wait() error {
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(p.stderr.String()))
	}
	return nil
}
