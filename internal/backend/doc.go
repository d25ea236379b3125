// Package backend is the HTTP client for the tutor backend REST API.
//
// # Endpoints
//
//   - POST /api/avatar/start: ensure an avatar worker is running
//     (form field avatar_name; response reports is_new_instance)
//   - POST /api/webrtc/offer: submit the local offer, receive the answer
//     and an optional backend session id
//   - POST /api/sessionid: register the session id for request routing
//   - GET  /api/avatar/get_avatars: list avatars available to the user
//   - POST /api/avatar/disconnect: best-effort leave notification
//
// # Authentication
//
// Every request carries Authorization: Bearer <token> from the injected
// auth.TokenSource. A missing or locally-expired credential aborts the call
// before any network I/O, surfacing auth.ErrNoToken or auth.ErrTokenExpired.
//
// # Errors
//
// Non-2xx responses with a JSON {"msg": ...} body surface the backend's
// message; anything else reports the status code. The client never retries.
package backend
