package redis

import "strings"

// Every key lives under fg:<kind>:... so the cache can be shared with other
// services and flushed per kind.
const (
	keyNamespace      = "fg"
	idempotencyPrefix = "idempotency"
	rateLimitPrefix   = "rate_limit"
	sessionPrefix     = "session"
	preferencePrefix  = "pref"
	quotePrefix       = "checkout_quote"
)

func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		b.WriteByte(':')
		b.WriteString(part)
	}
	return b.String()
}

// IdempotencyKey scopes a client-supplied Idempotency-Key to a route and user.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey(idempotencyPrefix, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return joinKey(rateLimitPrefix, scope)
}

// PreferenceKey holds one per-user preference such as the selected town.
func (c *Client) PreferenceKey(userID, name string) string {
	return joinKey(preferencePrefix, userID, name)
}

// QuoteKey holds the checkout totals snapshot for a customer and store.
func (c *Client) QuoteKey(userID, storeID string) string {
	return joinKey(quotePrefix, userID, storeID)
}

func (c *Client) AccessSessionKey(accessID string) string {
	return joinKey(sessionPrefix, "access", accessID)
}
