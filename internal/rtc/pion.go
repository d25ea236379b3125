// ABOUTME: PeerTransport implementation over a pion/webrtc peer connection
// ABOUTME: Receive-only video+audio with bounded ICE gathering and PLI keyframe requests

package rtc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
)

// pliInterval is how often a keyframe is requested for incoming video.
// Without periodic PLIs a receive-only viewer that joins mid-stream can
// wait indefinitely for a decodable frame.
const pliInterval = 3 * time.Second

// PionTransport implements PeerTransport over pion/webrtc.
type PionTransport struct {
	pc     *webrtc.PeerConnection
	done   chan struct{}
	logger *slog.Logger
}

// NewPionTransport creates a receive-only transport: one video and one
// audio transceiver, no local capture. Incoming tracks are handed to sink.
func NewPionTransport(stunServers []string, sink TrackSink) (*PionTransport, error) {
	cfg := webrtc.Configuration{}
	if len(stunServers) > 0 {
		cfg.ICEServers = []webrtc.ICEServer{{URLs: stunServers}}
	}

	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating peer connection: %w", err)
	}

	t := &PionTransport{
		pc:     pc,
		done:   make(chan struct{}),
		logger: slog.Default().With("component", "rtc"),
	}

	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeVideo, webrtc.RTPCodecTypeAudio} {
		if _, err := pc.AddTransceiverFromKind(kind, webrtc.RTPTransceiverInit{
			Direction: webrtc.RTPTransceiverDirectionRecvonly,
		}); err != nil {
			pc.Close()
			return nil, fmt.Errorf("adding %s transceiver: %w", kind, err)
		}
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		t.logger.Debug("track arrived", "kind", track.Kind().String(), "codec", track.Codec().MimeType)
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			go t.sendPLIs(track.SSRC())
		}
		if sink != nil {
			sink.HandleTrack(track, receiver)
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		t.logger.Debug("connection state changed", "state", state.String())
	})

	return t, nil
}

// Offer creates the local offer, installs it, and waits for ICE gathering
// to complete or ctx to expire. The gathering wait is bounded by the
// caller's context; timing out is a negotiation failure, not a hang.
func (t *PionTransport) Offer(ctx context.Context) (Description, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return Description{}, fmt.Errorf("creating offer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(t.pc)
	if err := t.pc.SetLocalDescription(offer); err != nil {
		return Description{}, fmt.Errorf("setting local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return Description{}, fmt.Errorf("ice gathering: %w", ctx.Err())
	}

	local := t.pc.LocalDescription()
	if local == nil {
		return Description{}, fmt.Errorf("no local description after gathering")
	}
	return Description{SDP: local.SDP, Type: local.Type.String()}, nil
}

// Apply installs the remote answer.
func (t *PionTransport) Apply(answer Description) error {
	desc := webrtc.SessionDescription{
		Type: webrtc.NewSDPType(answer.Type),
		SDP:  answer.SDP,
	}
	if err := t.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("setting remote description: %w", err)
	}
	return nil
}

// Close tears down the peer connection and stops the PLI loop.
func (t *PionTransport) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return t.pc.Close()
}

// sendPLIs periodically requests a keyframe for the given video SSRC until
// the transport closes.
func (t *PionTransport) sendPLIs(ssrc webrtc.SSRC) {
	ticker := time.NewTicker(pliInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			err := t.pc.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: uint32(ssrc)}})
			if err != nil {
				return
			}
		}
	}
}
