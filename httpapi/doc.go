// Package httpapi exposes an authcore.Engine over HTTP/JSON.
//
// Routes are registered on a gorilla/mux router by NewRouter. Request bodies
// are validated with ozzo-validation before they reach the engine; engine
// errors are mapped to status codes by kind. The refresh token travels only
// in an HttpOnly cookie scoped to /auth/refresh.
package httpapi
