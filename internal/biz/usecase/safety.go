package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Length bounds for a generated reply (characters).
const (
	MinReplyLength = 10
	MaxReplyLength = 1500
)

// FallbackReply is the canned reply used when generation fails or every
// attempt trips the safety filter.
const FallbackReply = "yeah that's a good point. in my experience the practical impact " +
	"shows up when you test it with real constraints. curious how you'd approach it?"

// Patterns that must never appear in a generated reply.
var blocklistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(buy now|click here|use (my|this) (link|code))\b`),
	regexp.MustCompile(`(?i)\b(discount code|promo code|affiliate)\b`),
	regexp.MustCompile(`(?i)https?://\S+`),
	regexp.MustCompile(`(?i)\b(kys|kill yourself|neck yourself)\b`),
	regexp.MustCompile(`(?i)\b(stfu|gtfo|go die)\b`),
}

// Patterns that indicate the model broke character or leaked instructions.
var instructionLeakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as an ai|as a language model|i'?m an ai`),
	regexp.MustCompile(`(?i)i cannot|i can'?t .*(generate|help|assist)`),
	regexp.MustCompile(`(?i)(openai|chatgpt|gpt-4|gpt-3)`),
	regexp.MustCompile(`(?i)here'?s (a|the) (suggested|generated) (reply|response)`),
	regexp.MustCompile(`(?i)^\s*sure[,!]?\s*(here|i)`),
}

// SafetyError reports why a generated reply was rejected
type SafetyError struct {
	Reason string
}

func (e *SafetyError) Error() string {
	return "content flagged: " + e.Reason
}

// CheckReplySafety runs a candidate reply through the safety filters.
// Returns nil when the reply is safe to send.
func CheckReplySafety(text string) *SafetyError {
	stripped := strings.TrimSpace(text)
	if stripped == "" {
		return &SafetyError{Reason: "empty_reply"}
	}
	if len(stripped) < MinReplyLength {
		return &SafetyError{Reason: "too_short"}
	}
	if len(stripped) > MaxReplyLength {
		return &SafetyError{Reason: "too_long"}
	}
	for _, p := range blocklistPatterns {
		if p.MatchString(stripped) {
			return &SafetyError{Reason: "blocklist_match: " + p.String()}
		}
	}
	for _, p := range instructionLeakPatterns {
		if p.MatchString(stripped) {
			return &SafetyError{Reason: "instruction_leak: " + p.String()}
		}
	}
	return nil
}

// SuggestionSignature returns a short stable fingerprint of a reply,
// normalized for case and whitespace. Used for variety tracking.
func SuggestionSignature(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:16]
}
