// ABOUTME: Media transport seam: wire description type and the PeerTransport interface
// ABOUTME: Lets the negotiation engine run against a fake transport in tests

package rtc

import (
	"context"

	"github.com/pion/webrtc/v4"
)

// Description is the wire form of a session description, matching the
// backend's {sdp, type} JSON shape.
type Description struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

// TrackSink receives incoming media tracks as they arrive. Implementations
// own draining the track; HandleTrack is called once per track from the
// transport's event goroutine and should not block.
type TrackSink interface {
	HandleTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
}

// PeerTransport is one receive-only media connection. Offer and Apply
// correspond to the two halves of a single offer/answer exchange; a
// transport is used for exactly one exchange and then held until Close.
type PeerTransport interface {
	// Offer creates the local offer and waits for ICE candidate gathering
	// to finish. The returned description is final and ready to submit.
	// Cancelling ctx abandons the wait.
	Offer(ctx context.Context) (Description, error)

	// Apply installs the remote answer, completing the exchange.
	Apply(answer Description) error

	// Close tears the connection down and releases the transport.
	Close() error
}

// TransportFactory creates a fresh PeerTransport for one connection attempt.
type TransportFactory func() (PeerTransport, error)
