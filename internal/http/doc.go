// Package http serves the hotel reservation site as server-rendered HTML.
//
// The router exposes the following endpoints:
//   - GET /, GET /rooms: landing page and the public room catalog.
//   - GET|POST /signup, GET|POST /signin, GET|POST /forgot_password, GET /logout:
//     account registration, sign-in with a `session_token` cookie, the
//     security-question password reset and sign-out.
//   - GET|POST /reserve, GET /reservations, GET|POST /edit_reservation/{id},
//     GET /cancel_reservation/{id}: reservation management for signed-in users.
//     Only the owner or an administrator may edit or cancel a reservation.
//   - GET /admin, GET /admin/user/{id}: administrator views of every booking
//     and of single user records.
//   - GET /health: datastore connectivity probe in plain text.
//   - GET /metrics: Prometheus exposition.
//
// Every form carries a CSRF token. Notices that survive a redirect travel in a
// short-lived `flash` cookie.
package http
