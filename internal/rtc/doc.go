// Package rtc establishes the receive-only media connection to an avatar worker.
//
// # Overview
//
// The Engine drives exactly one offer/answer exchange per connection
// attempt:
//
//  1. Create a PeerTransport (receive-only video + audio, no local capture)
//  2. Create the local offer and wait for ICE gathering to complete,
//     bounded by a configurable timeout
//  3. Submit the finalized offer to POST /api/webrtc/offer
//  4. Register the backend session id when the answer carries one
//  5. Apply the remote answer
//
// Any step failing aborts the attempt and closes the transport. The engine
// never retries; retry is a user decision made upstream.
//
// # Transports
//
// PeerTransport is the seam between the engine and the media stack.
// PionTransport is the production implementation over pion/webrtc; tests
// substitute a fake. A transport serves one exchange and lives until Close.
//
// # Teardown Races
//
// The context passed to Negotiate doubles as the teardown signal. An answer
// arriving after the context is cancelled is discarded rather than applied
// to a session that no longer exists.
//
// # Media Output
//
// Incoming tracks are delivered to a TrackSink. FileSink writes VP8 to IVF
// and Opus to Ogg; other codecs are drained and dropped so RTCP feedback
// keeps flowing. The transport requests a keyframe (PLI) every few seconds
// so a viewer joining mid-stream gets a decodable picture.
package rtc
