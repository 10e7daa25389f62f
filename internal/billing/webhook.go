package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"leaguelink/pkg/logging"
)

// signatureTolerance is the freshness window for webhook timestamps.
// Payloads older (or newer) than this are rejected before any state change,
// bounding replay exposure.
const signatureTolerance = 5 * time.Minute

// maxWebhookBody caps the accepted payload size.
const maxWebhookBody = 1 << 20

// WebhookHandler verifies and applies billing-provider webhook events.
//
// The Signature header has the form "t=<unix_ts>,v1=<hex_hmac>" where the
// HMAC-SHA256 is computed over "{timestamp}.{rawBody}" with the shared
// webhook secret. Comparison is constant time.
type WebhookHandler struct {
	cache  *Cache
	secret []byte
	now    func() time.Time
}

// NewWebhookHandler creates the webhook endpoint handler.
func NewWebhookHandler(cache *Cache, secret []byte) *WebhookHandler {
	return &WebhookHandler{cache: cache, secret: secret, now: time.Now}
}

// VerifySignature checks the signature header against the raw body.
// Exported for tests; ServeHTTP is the production entry point.
func (h *WebhookHandler) VerifySignature(header string, body []byte) error {
	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}

	age := h.now().Sub(time.Unix(ts, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("webhook timestamp outside tolerance window")
	}

	mac := hmac.New(sha256.New, h.secret)
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(sig)
	if err != nil {
		return fmt.Errorf("malformed signature encoding")
	}

	if !hmac.Equal(expected, provided) {
		return fmt.Errorf("webhook signature mismatch")
	}

	return nil
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := h.VerifySignature(r.Header.Get("Signature"), body); err != nil {
		logging.Warn("Billing", "rejected webhook: %v", err)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "malformed event payload", http.StatusBadRequest)
		return
	}

	if err := h.cache.Apply(r.Context(), ev); err != nil {
		logging.Error("Billing", err, "failed to apply webhook event %s", ev.EventID)
		http.Error(w, "event processing failed", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// parseSignatureHeader splits "t=<ts>,v1=<hex>" into its parts.
func parseSignatureHeader(header string) (int64, string, error) {
	if header == "" {
		return 0, "", fmt.Errorf("missing signature header")
	}

	var tsPart, sigPart string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.HasPrefix(part, "t="):
			tsPart = strings.TrimPrefix(part, "t=")
		case strings.HasPrefix(part, "v1="):
			sigPart = strings.TrimPrefix(part, "v1=")
		}
	}

	if tsPart == "" || sigPart == "" {
		return 0, "", fmt.Errorf("signature header missing t or v1 component")
	}

	ts, err := strconv.ParseInt(tsPart, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed signature timestamp")
	}

	return ts, sigPart, nil
}
