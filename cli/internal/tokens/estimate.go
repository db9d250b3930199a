// Package tokens estimates the token size of an AI request so the CLI can
// warn before sending a diff that will not fit the model's context window.
// Estimation uses a byte-based chars/4 heuristic.
package tokens

import (
	"fmt"
	"math"
)

const charsPerToken = 4

// ResponseReserve is the number of tokens set aside for the model's answer
// (three candidates of a short subject and body) when checking a budget.
const ResponseReserve = 1024

// Estimate returns an estimated token count for text: (len(text)+3)/4 bytes,
// so 1-4 bytes map to 1 token, 5-8 to 2, and so on. Empty string returns 0.
func Estimate(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	return (n + charsPerToken - 1) / charsPerToken
}

// Budget is a model context window and the fraction of it that triggers a warning.
// A Budget with Limit <= 0 never warns.
type Budget struct {
	Limit     int
	Threshold float64
}

// Check estimates the tokens of all parts plus ResponseReserve and returns a
// warning when the total meets or exceeds Threshold of Limit; otherwise "".
func (b Budget) Check(parts ...string) string {
	if b.Limit <= 0 {
		return ""
	}
	prompt := 0
	for _, p := range parts {
		n := Estimate(p)
		if n > math.MaxInt-prompt {
			return "token estimate overflow"
		}
		prompt += n
	}
	if ResponseReserve > math.MaxInt-prompt {
		return "token estimate overflow"
	}
	total := prompt + ResponseReserve
	limit := float64(b.Limit) * b.Threshold
	threshold := int(limit)
	if limit > float64(threshold) {
		threshold++
	}
	if total < threshold {
		return ""
	}
	return fmt.Sprintf("estimated tokens %d (input %d + reserve %d) exceeds %.0f%% of context limit %d",
		total, prompt, ResponseReserve, b.Threshold*100, b.Limit)
}
