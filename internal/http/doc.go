// Package http provides HTTP handlers and middleware for the session
// planner API.
//
// The router exposes the following endpoints:
//   - POST /login: exchanges {"pin"} for a session token returned in the body,
//     the `X-Session-Token` header, and a `planner_token` cookie.
//   - POST /logout: revokes the current token and clears the cookie.
//   - GET /sessions, POST /sessions, GET/PUT/DELETE /sessions/{id}: session
//     management exchanging the `sessionDTO` payload defined in
//     session_handler.go. Saves accept an optional recurrence rule and return
//     the persisted series plus non-blocking conflict warnings. Listing and
//     single-session reads are public; mutations require a session token.
//   - POST /sessions/{id}/subscribe: public sign-up endpoint accepting
//     {"name","email"}.
//   - POST /sessions/invite: delivers a speaker invitation for a session
//     draft and returns the draft with the speaker marked as invited.
//   - GET /embed/sessions: read-only listing mirror for embedded calendars,
//     served with permissive CORS.
//   - GET /speakers, POST /speakers, PUT/DELETE /speakers/{id}: speaker
//     directory endpoints. Listing requires any authenticated principal,
//     mutations require admin privileges.
//   - GET /users, POST /users, PUT/DELETE /users/{id}: administrator
//     controlled staff account management. Responses never include PIN hashes.
//   - GET /settings, PUT /settings: workspace configuration document.
//   - GET /backup, POST /backup: whole-store export and import for
//     administrators.
//   - POST /assist/describe, POST /assist/illustrate: generated session copy
//     and cover images.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
