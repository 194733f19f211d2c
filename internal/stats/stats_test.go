package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

func setOf(labels ...contract.Value) contract.AnnotationSet {
	set := contract.AnnotationSet{Version: 1}
	for i, l := range labels {
		p := map[string]contract.Value{"text": contract.String("t"), "label": l}
		set.Items = append(set.Items, contract.AnnotationItem{ID: contract.IntID(int64(i)), Payload: p})
	}
	return set
}

func TestSummarize(t *testing.T) {
	s := Summarize(setOf(
		contract.String("POSITIVE"),
		contract.String("NEGATIVE"),
		contract.String("POSITIVE"),
		contract.Int(1),
		contract.String("1"),
	), "label")
	assert.Equal(t, 5, s.Total)
	var got []string
	sum := 0
	for _, r := range s.Rows {
		got = append(got, r.Display())
		sum += r.Count
	}
	assert.Equal(t, []string{"1", "1", "NEGATIVE", "POSITIVE"}, got, "数字 1 与字符串 \"1\" 分组不同")
	assert.Equal(t, s.Total, sum)
	assert.Equal(t, 2, s.Rows[3].Count)
}

func TestSummarizeMissing(t *testing.T) {
	set := contract.AnnotationSet{Version: 1, Items: []contract.AnnotationItem{
		{ID: contract.IntID(0), Payload: map[string]contract.Value{}},
		{ID: contract.IntID(1), Payload: map[string]contract.Value{"label": contract.Null()}},
		{ID: contract.IntID(2), Payload: map[string]contract.Value{"label": contract.String("NEUTRAL")}},
	}}
	s := Summarize(set, "label")
	require.Len(t, s.Rows, 2)
	assert.True(t, s.Rows[0].Missing)
	assert.Equal(t, MissingLabel, s.Rows[0].Display())
	assert.Equal(t, 2, s.Rows[0].Count)
	assert.Equal(t, 3, s.Total)

	s = Summarize(set, "category")
	require.Len(t, s.Rows, 1)
	assert.Equal(t, 3, s.Rows[0].Count)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(contract.AnnotationSet{Version: 1}, "label")
	assert.NotNil(t, s.Rows)
	assert.Empty(t, s.Rows)
	assert.Zero(t, s.Total)
	assert.Contains(t, FormatTable(s), "| TOTAL |     0 |")
}

func TestFormatTable(t *testing.T) {
	s := Summarize(setOf(contract.String("NEGATIVE"), contract.String("POSITIVE"), contract.String("POSITIVE")), "label")
	want := `Annotation Label Distribution
+----------+-------+
| Label    | Count |
+----------+-------+
| NEGATIVE |     1 |
| POSITIVE |     2 |
+----------+-------+
| TOTAL    |     3 |
+----------+-------+
`
	assert.Equal(t, want, FormatTable(s))
}

func TestFormatTableWideRunes(t *testing.T) {
	s := Summarize(setOf(contract.String("正面")), "label")
	out := FormatTable(s)
	assert.Contains(t, out, "| 正面  |     1 |")
	assert.Contains(t, out, "| TOTAL |     1 |")
	assert.Equal(t, 4, displayWidth("正面"))
}

func TestFormatJSON(t *testing.T) {
	set := contract.AnnotationSet{Version: 1, Items: []contract.AnnotationItem{
		{ID: contract.IntID(0), Payload: map[string]contract.Value{"label": contract.String("NEUTRAL")}},
		{ID: contract.IntID(1), Payload: map[string]contract.Value{}},
	}}
	b, err := FormatJSON(Summarize(set, "label"), "label")
	require.NoError(t, err)
	assert.JSONEq(t, `{"label_field":"label","rows":[{"label":null,"missing":true,"count":1},{"label":"NEUTRAL","count":1}],"total":2}`, string(b))
}
