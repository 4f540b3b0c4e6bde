package fusion_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/no-bike/software-aibot/internal/fusion"
	"github.com/no-bike/software-aibot/pkg/api"
)

func TestSimpleConcatEmpty(t *testing.T) {
	out := fusion.SimpleConcat(nil, 3)
	assert.Equal(t, "抱歉，没有可用的回答。", out)
}

func TestSimpleConcatSingleIsVerbatim(t *testing.T) {
	out := fusion.SimpleConcat([]api.Candidate{{ModelID: "m1", Content: "the answer"}}, 3)
	assert.Equal(t, "the answer", out)
}

func TestSimpleConcatMultiple(t *testing.T) {
	cands := []api.Candidate{
		{ModelID: "best-model", Content: "primary answer"},
		{ModelID: "second-model", Content: "supporting answer"},
		{ModelID: "third-model", Content: "another view"},
	}

	out := fusion.SimpleConcat(cands, 3)

	assert.Contains(t, out, "基于 3 个AI模型的回答")
	assert.Contains(t, out, "**主要观点** (来源: best-model):\nprimary answer")
	assert.Contains(t, out, "**补充观点**")
	assert.Contains(t, out, "- second-model: supporting answer")
	assert.Contains(t, out, "- third-model: another view")
}

func TestSimpleConcatRespectsTopK(t *testing.T) {
	cands := []api.Candidate{
		{ModelID: "a", Content: "one"},
		{ModelID: "b", Content: "two"},
		{ModelID: "c", Content: "three"},
	}

	out := fusion.SimpleConcat(cands, 2)

	assert.Contains(t, out, "基于 2 个AI模型的回答")
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "three")
}

func TestSimpleConcatTruncatesSupplements(t *testing.T) {
	long := strings.Repeat("长", 250)
	cands := []api.Candidate{
		{ModelID: "a", Content: "primary"},
		{ModelID: "b", Content: long},
	}

	out := fusion.SimpleConcat(cands, 2)

	assert.Contains(t, out, strings.Repeat("长", 200)+"...")
	assert.NotContains(t, out, strings.Repeat("长", 201))
}

func TestSimpleConcatPrimaryNeverTruncated(t *testing.T) {
	long := strings.Repeat("x", 1000)
	cands := []api.Candidate{
		{ModelID: "a", Content: long},
		{ModelID: "b", Content: "short"},
	}

	out := fusion.SimpleConcat(cands, 2)
	assert.Contains(t, out, long)
}
