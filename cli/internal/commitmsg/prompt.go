package commitmsg

import (
	"fmt"
	"os"
	"strings"
)

// DefaultSystemPrompt is the persona turn sent before the diff or translation
// text. It fixes the reply grammar to a JSON array of {type, message, body}.
const DefaultSystemPrompt = `You are an expert software engineer who is fluent in Git and writes clear, precise commit messages.

You do one of two things with the user's input:
1. If the input is a unified git diff (lines prefixed with "+", "-" or a space), summarize the change as a commit message.
2. Otherwise, treat the input as a description of a change, possibly in another language, and turn it into an English commit message.

Rules:
- Write in English.
- "message" is a single line of 5 to 20 words that starts with an imperative verb (e.g. "Add", "Fix", "Remove"). Move details into "body".
- "type" is a conventional commit type such as feat, fix, docs, style, refactor, perf, test, build, ci, chore or revert.
- Offer exactly three alternative candidates.
- Reply with only a JSON array, no markdown and no commentary:
[{"type": "<type>", "message": "<message>", "body": "<body>"}]
- If the input cannot be turned into a commit message, reply with:
[{"type": "error", "message": "Request processing failure", "body": "The submitted input isn't compatible with the required parameters"}]`

// SystemPrompt returns the persona prompt. If path is set and readable, its
// contents (trimmed) are returned; otherwise DefaultSystemPrompt is returned.
// A missing file returns the default with nil error; any other read error
// (e.g. permission denied) is returned so the user can see it.
func SystemPrompt(path string) (string, error) {
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSystemPrompt, nil
		}
		return "", fmt.Errorf("read prompt file: %w", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return DefaultSystemPrompt, nil
	}
	return s, nil
}
