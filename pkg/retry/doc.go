// Package retry re-runs upstream requests that failed for transient reasons.
//
// Only network failures and HTTP 429/5xx responses are retried by default
// (see errors.IsRetryable). Authentication, API and not-found failures are
// returned immediately. Waits between attempts honour context cancellation.
//
//	cfg := retry.FromConfig(appCfg.Retry, log)
//	body, err := retry.DoWithResult(ctx, func(ctx context.Context) ([]byte, error) {
//		return transport.send(ctx, req)
//	}, cfg)
package retry
