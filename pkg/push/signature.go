package push

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Header names carried by every signed request.
const (
	HeaderSignature = "X-Push-Signature"
	HeaderTimestamp = "X-Push-Timestamp"
	HeaderDelivery  = "X-Push-Delivery"
)

// Signature authenticates one request body.
type Signature struct {
	Value      string
	Timestamp  int64
	DeliveryID string
}

// Apply sets the signature headers on h.
func (s Signature) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Value)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderDelivery, s.DeliveryID)
}

// Sign computes hex(HMAC-SHA256(secret, "<unix timestamp>.<body>")).
func Sign(secret string, body []byte, at time.Time, deliveryID string) Signature {
	ts := at.Unix()
	return Signature{Value: mac(secret, ts, body), Timestamp: ts, DeliveryID: deliveryID}
}

// Verify checks the signature headers of a received request against body.
// A positive maxAge rejects signatures older than maxAge or more than a
// minute in the future.
func Verify(secret string, body []byte, h http.Header, maxAge time.Duration, now time.Time) error {
	sig := h.Get(HeaderSignature)
	if sig == "" {
		return fmt.Errorf("%w: missing %s header", ErrInvalidSignature, HeaderSignature)
	}
	ts, err := strconv.ParseInt(h.Get(HeaderTimestamp), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: bad timestamp: %w", ErrInvalidSignature, err)
	}

	if maxAge > 0 {
		age := now.Sub(time.Unix(ts, 0))
		if age > maxAge {
			return fmt.Errorf("%w: signature is %s old", ErrInvalidSignature, age)
		}
		if age < -time.Minute {
			return fmt.Errorf("%w: timestamp is in the future", ErrInvalidSignature)
		}
	}

	if !hmac.Equal([]byte(mac(secret, ts, body)), []byte(sig)) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

func mac(secret string, ts int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte{'.'})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
