package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"paybaba/internal/services/signing"

	"github.com/sirupsen/logrus"
)

// VerifyCallback checks an inbound webhook against the raw received body. It
// must run before any field of the body is trusted.
//
// Anything that fails verification yields false. The only error returned is
// the configuration error for a missing public key.
func (c *Client) VerifyCallback(path string, rawBody []byte, signature, timestamp string) (bool, error) {
	if !c.signer.CanVerify() {
		return false, signing.ErrNoPublicKey
	}
	if signature == "" || timestamp == "" {
		c.metrics.ObserveCallbackVerification(false)
		return false, nil
	}

	canonical := signing.Canonicalize(http.MethodPost, path, rawBody, timestamp)
	ok, err := c.signer.Verify(canonical, signature)
	if err != nil {
		c.log.WithError(err).Warn("callback verification error")
		ok = false
	}
	c.metrics.ObserveCallbackVerification(ok)
	if !ok {
		c.log.WithFields(logrus.Fields{
			"path":      signing.NormalizePath(path),
			"timestamp": timestamp,
		}).Warn("callback signature rejected")
	}
	return ok, nil
}

// BuildSignedCallbackResponse builds the acknowledgment the gateway expects in
// reply to a webhook: partner id, a fresh request id and errCode "0", signed
// like an outbound request.
func (c *Client) BuildSignedCallbackResponse(path string) (*CallbackAck, error) {
	now := c.now()
	requestID := c.newID(now)
	timestamp := FormatTimestamp(now, c.config.Location)

	body, _, err := encodePayload([]field{
		{key: "merchantId", value: c.config.PartnerID},
		{key: "requestId", value: requestID},
		{key: "errCode", value: "0"},
	}, nil)
	if err != nil {
		return nil, err
	}

	headers, err := c.signedHeaders(http.MethodPost, signing.NormalizePath(path), body, timestamp, requestID)
	if err != nil {
		return nil, err
	}
	return &CallbackAck{Headers: headers, Body: body}, nil
}

// ParseCallback decodes a verified callback body.
func ParseCallback(rawBody []byte) (*CallbackNotification, error) {
	var n CallbackNotification
	if err := json.Unmarshal(rawBody, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCallback, err)
	}
	if n.MerchantTradeNo == "" {
		return nil, fmt.Errorf("%w: merchantTradeNo is missing", ErrInvalidCallback)
	}
	return &n, nil
}

// RawFields decodes a verified callback body into a generic map for storage.
func RawFields(rawBody []byte) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal(rawBody, &m); err != nil {
		return nil
	}
	return m
}

// SettledAt returns the parsed success time, or nil when it is absent or
// unreadable.
func (n *CallbackNotification) SettledAt(loc *time.Location) *time.Time {
	if n.SuccessTime == "" {
		return nil
	}
	t, err := ParseTimestamp(n.SuccessTime, loc)
	if err != nil {
		return nil
	}
	return &t
}
