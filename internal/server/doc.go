// Package server exposes the tracklist extractor over HTTP and handles the CLI's OAuth callback.
//
// # Routes
//
//	POST /api/scrape-playlist  {"url": "..."} → {songs, count, success}
//	POST /api/extract          multipart htmlFile → {songs, count, tracks, success}
//	GET  /healthz, /readyz     liveness and readiness
//	GET  /metrics              Prometheus collectors ([Metrics])
//
// A scrape that fails for an expected reason (bad URL, failed fetch, no songs) is answered with 200 and
// {error, songs: [], count: 0}. Only an unexpected fault yields a 500.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] with a [Middleware] stack; the first middleware added is the outermost.
// Custom handlers implement [Handler], which adds Routes to the stdlib handler interface. Per-route middleware
// ([AllowMethods], the per-client rate limit) runs inside the router-wide stack ([Logging], then [Recover]), so a
// recovered panic is logged with status 500.
//
// # Rate Limiting
//
// [IPLimiter] grants each client at most rate_limit requests in any sliding rate_window (10 per minute by
// default). Clients are identified by [ClientIP] and their request times held in an LRU table. Rejected requests
// get 429 with [MsgTooManyRequests].
//
// # Caching
//
// Successful scrapes are cached per URL in an expirable LRU sized by cache_size and cache_ttl.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the authorization code callback. It validates the state parameter, exchanges the code
// for tokens and sends the result through a channel. It only processes one callback.
//
// When the user runs `setlist auth youtube`, a temporary server starts on the redirect URI's port, handles the
// callback and shuts down after receiving the token.
package server
