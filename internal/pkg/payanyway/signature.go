package payanyway

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// The wire protocol specifies plain MD5 over a fixed field concatenation
// with the shared secret appended. The processor computes the same digest on
// its side, so the algorithm is not ours to upgrade; the comparison is
// constant-time regardless of mismatch position.

// verifyFields are the raw fields covered by the inbound signature, in
// signing order. The operation id participates as the empty string when the
// processor omits it (CHECK phase).
var requiredSignedFields = []string{
	FieldMerchantID,
	FieldTransactionID,
	FieldAmount,
	FieldCurrency,
	FieldSubscriberID,
	FieldTestMode,
}

// VerifyNotification checks the inbound signature against the raw
// (undecoded) field values. It returns false when the merchant id does not
// match the configured one, when any signed field or the signature itself is
// absent, or when the digest differs. Absent fields fail explicitly rather
// than as an empty-string digest mismatch, so callers and tests can tell
// "tampered" from "malformed".
func VerifyNotification(raw map[string]string, cfg Config) bool {
	for _, field := range requiredSignedFields {
		if _, ok := raw[field]; !ok {
			return false
		}
	}
	supplied, ok := raw[FieldSignature]
	if !ok || strings.TrimSpace(supplied) == "" {
		return false
	}

	// Cheap pre-filter before any hashing.
	if raw[FieldMerchantID] != cfg.MerchantID {
		return false
	}

	signingString := raw[FieldMerchantID] +
		raw[FieldTransactionID] +
		raw[FieldOperationID] + // empty string in the CHECK phase
		raw[FieldAmount] +
		raw[FieldCurrency] +
		raw[FieldSubscriberID] +
		raw[FieldTestMode] +
		cfg.Secret

	expected := md5Hex(signingString)
	got := strings.ToLower(strings.TrimSpace(supplied))
	return hmac.Equal([]byte(expected), []byte(got))
}

// ResponseSignature computes the outbound signature used in CHECK and PAY
// responses: a shorter signing string of result code, merchant id,
// transaction id and the secret.
func ResponseSignature(resultCode, transactionID string, cfg Config) string {
	return md5Hex(resultCode + cfg.MerchantID + transactionID + cfg.Secret)
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
