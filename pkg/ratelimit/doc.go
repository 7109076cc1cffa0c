// Package ratelimit throttles outbound API calls.
//
// The Threads endpoints rate limit aggressively per session, so the client
// takes a token before every request. TokenBucket allows a short burst and then
// one request per period/capacity; Wait returns early with the context error
// when cancelled.
package ratelimit
