// Package push implements notifications.PushTransport over an HTTP push
// gateway.
//
// Each notification is posted as JSON:
//
//	{
//	  "delivery_id": "6f1c...",
//	  "subscription": {"endpoint": "...", "keys": {"p256dh": "...", "auth": "..."}},
//	  "notification": {"title": "...", "body": "...", "data": {...}}
//	}
//
// With a signing secret the request carries X-Push-Signature,
// X-Push-Timestamp and X-Push-Delivery headers. The signature is the hex
// HMAC-SHA256 of "<timestamp>.<body>"; gateways check it with Verify.
//
// Transient failures are retried with exponential backoff. Repeated
// exhaustion of retries opens a circuit breaker that rejects sends until the
// recovery timeout passes. Answers of 404 or 410 report an expired
// subscription through ErrSubscriptionGone so callers can drop it.
package push
