// ABOUTME: TrackSink that writes incoming media to disk
// ABOUTME: VP8 video to IVF and Opus audio to Ogg, one file pair per session

package rtc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
)

// FileSink renders incoming tracks to files in a directory: VP8 video to
// .ivf, Opus audio to .ogg. Tracks with other codecs are drained and
// dropped so RTCP feedback keeps flowing.
type FileSink struct {
	dir    string
	prefix string
	logger *slog.Logger

	mu      sync.Mutex
	closers []interface{ Close() error }
	closed  bool
}

// NewFileSink creates a sink writing into dir, creating it if needed.
// Files are named <timestamp>_video.ivf and <timestamp>_audio.ogg.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &FileSink{
		dir:    dir,
		prefix: time.Now().Format("20060102_150405"),
		logger: slog.Default().With("component", "sink"),
	}, nil
}

// HandleTrack starts a goroutine draining the track into the matching
// writer. Implements TrackSink.
func (f *FileSink) HandleTrack(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
	switch track.Codec().MimeType {
	case webrtc.MimeTypeVP8:
		path := filepath.Join(f.dir, f.prefix+"_video.ivf")
		w, err := ivfwriter.New(path)
		if err != nil {
			f.logger.Error("opening video writer", "path", path, "error", err)
			go f.drain(track)
			return
		}
		f.register(w)
		f.logger.Info("writing video", "path", path)
		go f.copy(track, w.WriteRTP)

	case webrtc.MimeTypeOpus:
		path := filepath.Join(f.dir, f.prefix+"_audio.ogg")
		w, err := oggwriter.New(path, 48000, 2)
		if err != nil {
			f.logger.Error("opening audio writer", "path", path, "error", err)
			go f.drain(track)
			return
		}
		f.register(w)
		f.logger.Info("writing audio", "path", path)
		go f.copy(track, w.WriteRTP)

	default:
		f.logger.Warn("unsupported codec, dropping track", "codec", track.Codec().MimeType)
		go f.drain(track)
	}
}

// Close flushes and closes all writers. Safe to call more than once.
func (f *FileSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FileSink) register(c interface{ Close() error }) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closers = append(f.closers, c)
}

type rtpWriteFunc func(p *rtp.Packet) error

// copy drains RTP packets from the track into write until the track ends
// or the sink closes.
func (f *FileSink) copy(track *webrtc.TrackRemote, write rtpWriteFunc) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		f.mu.Lock()
		closed := f.closed
		f.mu.Unlock()
		if closed {
			return
		}
		if err := write(pkt); err != nil {
			f.logger.Error("writing media packet", "error", err)
			return
		}
	}
}

// drain consumes and discards a track's packets.
func (f *FileSink) drain(track *webrtc.TrackRemote) {
	for {
		if _, _, err := track.ReadRTP(); err != nil {
			return
		}
	}
}
