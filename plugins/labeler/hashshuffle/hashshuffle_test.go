package hashshuffle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 已知 (text, seed) → (index, label)，与历史标注文件一致。
func TestLabelKnownValues(t *testing.T) {
	cases := []struct {
		text  string
		seed  int64
		index int
		label string
	}{
		{"This is great!", 42, 0, Neutral},
		{"I hate this.", 42, 2, Positive},
		{"This is great!", 123, 2, Negative},
		{"I hate this.", 123, 1, Neutral},
		{"", 0, 2, Neutral},
		{"Hello", 0, 0, Negative},
		{"World", 0, 0, Negative},
		{"Test text", 0, 1, Positive},
		{"héllo 世界", 7, 1, Negative},
		// 负种子：摘要用带符号文本，排列用绝对值
		{"x", -5, 2, Positive},
		{"This is great!", -42, 0, Neutral},
		// 超过 32 位的种子按多个 32 位字初始化
		{"x", 1 << 40, 2, Negative},
	}
	l := New(nil)
	for _, c := range cases {
		t.Run(fmt.Sprintf("%q/%d", c.text, c.seed), func(t *testing.T) {
			assert.Equal(t, c.index, Index(c.text, c.seed))
			assert.Equal(t, c.label, l.Label(c.text, c.seed))
		})
	}
}

func TestLabelRangeAndDeterminism(t *testing.T) {
	l := New(nil)
	valid := map[string]bool{Negative: true, Neutral: true, Positive: true}
	for seed := int64(-20); seed < 20; seed++ {
		for i := 0; i < 25; i++ {
			text := fmt.Sprintf("sample %d", i)
			got := l.Label(text, seed)
			require.True(t, valid[got], "label %q out of range", got)
			// 新实例（无缓存）应给出相同结果
			assert.Equal(t, got, New(nil).Label(text, seed))
		}
	}
}

func TestPermutationIsCachedCopy(t *testing.T) {
	l := New(nil)
	p1 := l.permutation(42)
	p1[0] = "MUTATED"
	assert.Equal(t, [3]string{Neutral, Negative, Positive}, l.permutation(42))
	assert.Equal(t, Permutation(42), l.permutation(42))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, []string{Negative, Neutral, Positive}, New(nil).Labels())
}
