package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"

	"pomodisc/backend/internal/audio"
)

// EncoderFunc starts an encoder that reads PCM from stdin and writes a
// compressed stream to stdout.
type EncoderFunc func(ctx context.Context, bitrateKbps int) *exec.Cmd

// FFmpegMP3 encodes 48kHz stereo s16le PCM to MP3.
func FFmpegMP3(ctx context.Context, bitrateKbps int) *exec.Cmd {
	return exec.CommandContext(ctx, "ffmpeg",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"-loglevel", "error",
		"pipe:1",
	)
}

// HTTPHandler serves the library mix as a chunked MP3 stream. Each
// connection runs its own encoder process.
type HTTPHandler struct {
	frames  *Broadcaster[[]int16]
	encoder EncoderFunc
	bitrate int
	logger  *slog.Logger
}

func NewHTTPHandler(frames *Broadcaster[[]int16], bitrateKbps int, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{
		frames:  frames,
		encoder: FFmpegMP3,
		bitrate: bitrateKbps,
		logger:  logger,
	}
}

// WithEncoder replaces the encoder command.
func (h *HTTPHandler) WithEncoder(fn EncoderFunc) *HTTPHandler {
	h.encoder = fn
	return h
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := h.encoder(ctx, h.bitrate)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		h.logger.Error("mp3 stream stdin pipe", "error", err)
		http.Error(w, "encoder unavailable", http.StatusInternalServerError)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		h.logger.Error("mp3 stream stdout pipe", "error", err)
		http.Error(w, "encoder unavailable", http.StatusInternalServerError)
		return
	}
	if err := cmd.Start(); err != nil {
		h.logger.Error("mp3 encoder start", "error", err)
		http.Error(w, "encoder unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.Header().Set("Connection", "close")
	w.Header().Set("ICY-Name", "pomodisc")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	listener := h.frames.Subscribe()
	defer h.frames.Unsubscribe(listener)

	h.logger.Info("mp3 listener connected", "listeners", h.frames.ListenerCount())
	defer h.logger.Info("mp3 listener disconnected")

	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Done():
				return
			case frame := <-listener.C:
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.logger.Warn("mp3 encoder read", "error", err)
			}
			break
		}
	}

	cancel()
	_ = cmd.Wait()
}
