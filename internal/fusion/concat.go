package fusion

import (
	"fmt"
	"strings"

	"github.com/no-bike/software-aibot/pkg/api"
)

const (
	noAnswerMessage  = "抱歉，没有可用的回答。"
	supplementMaxLen = 200
)

// SimpleConcat is the terminal fallback strategy: deterministic, pure, and
// total. Every higher-level failure funnels here so fusion always returns a
// non-error string when at least one candidate was supplied.
func SimpleConcat(candidates []api.Candidate, topK int) string {
	if len(candidates) == 0 {
		return noAnswerMessage
	}

	if len(candidates) == 1 {
		return candidates[0].Content
	}

	if topK < 1 {
		topK = 1
	}
	if topK > len(candidates) {
		topK = len(candidates)
	}
	top := candidates[:topK]

	var b strings.Builder
	fmt.Fprintf(&b, "基于 %d 个AI模型的回答，为您提供以下综合答案：\n\n", len(top))

	best := top[0]
	fmt.Fprintf(&b, "**主要观点** (来源: %s):\n%s\n", best.ModelID, best.Content)

	if len(top) > 1 {
		b.WriteString("\n**补充观点**:\n")
		for _, c := range top[1:] {
			fmt.Fprintf(&b, "- %s: %s\n", c.ModelID, truncate(c.Content, supplementMaxLen))
		}
	}

	return b.String()
}

// truncate cuts at a rune boundary so multi-byte text is never split.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
