package fsadapter

import "strings"

// estimateTokens is the deterministic token-estimate heuristic used
// everywhere an adapter needs one (§4.4): a count of whitespace-
// separated tokens in content. Implementation-defined per §9's open
// question; this package's tests assert those whitespace-token counts.
func estimateTokens(content string) int {
	return len(strings.Fields(content))
}
