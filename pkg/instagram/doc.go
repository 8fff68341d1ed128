// Package instagram provides a typed client for the Instagram web API.
//
// The client covers the three upstream operations the sync pipeline needs:
// profile metadata lookup by username (which embeds the most recent
// posts), the dedicated feed endpoint by profile ID, and raw media
// content GETs. Responses are mapped onto the typed error taxonomy in
// pkg/errors so callers can distinguish retryable failures (network,
// 429, 5xx) from permanent ones.
//
// An optional session cookie can be attached with SetSessionCookie;
// without one the client operates anonymously, which works for public
// profiles but is rate limited more aggressively.
package instagram
