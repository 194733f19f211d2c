package csvfile

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

func load(t *testing.T, opts *Options, src string) []contract.Record {
	t.Helper()
	l, err := New(opts)
	require.NoError(t, err)
	recs, err := l.Load(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	return recs
}

// TestLoadIDText 两行 id,text：id 为整数、text 为字符串
func TestLoadIDText(t *testing.T) {
	recs := load(t, nil, "id,text\n1,Hello\n2,World\n")
	require.Len(t, recs, 2)
	id, _ := recs[0].Get("id")
	assert.Equal(t, contract.Int(1), id)
	text, _ := recs[1].Get("text")
	assert.Equal(t, contract.String("World"), text)

	b, err := json.Marshal(recs)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"text":"Hello"},{"id":2,"text":"World"}]`, string(b))
}

func TestLoadBOMAndQuotes(t *testing.T) {
	recs := load(t, nil, "\ufeffid,text\n1,\"a, \"\"quoted\"\" cell\"\n")
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"id", "text"}, recs[0].Keys(), "BOM 不应进入首列名")
	text, _ := recs[0].Get("text")
	assert.Equal(t, `a, "quoted" cell`, text.Text())
}

func TestLoadNumbersAndNulls(t *testing.T) {
	recs := load(t, nil, "id,score,note\n1,0.25,\n2,,x\n3,1.0,\n")
	require.Len(t, recs, 3)
	s0, _ := recs[0].Get("score")
	assert.Equal(t, "0.25", s0.Text())
	s1, _ := recs[1].Get("score")
	assert.True(t, s1.IsNull())
	s2, _ := recs[2].Get("score")
	assert.Equal(t, contract.KindNumber, s2.Kind())
	assert.Equal(t, "1.0", s2.Text())
	n0, _ := recs[0].Get("note")
	assert.Equal(t, contract.String(""), n0)
}

func TestLoadOptions(t *testing.T) {
	off := false
	recs := load(t, &Options{Delimiter: ";", InferTypes: &off}, "id;text\n1;a\n")
	id, _ := recs[0].Get("id")
	assert.Equal(t, contract.String("1"), id)

	recs = load(t, &Options{Delimiter: "\t"}, "id\ttext\n5\tb\n")
	id, _ = recs[0].Get("id")
	assert.Equal(t, contract.Int(5), id)

	_, err := New(&Options{Delimiter: ";;"})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
	_, err = New(&Options{Delimiter: "\""})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

func TestLoadShortAndLongRows(t *testing.T) {
	recs := load(t, nil, "id,text,extra\n1,a\n")
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Keys(), 3)

	l, _ := New(nil)
	_, err := l.Load(context.Background(), strings.NewReader("id,text\n1,a,b\n"))
	assert.ErrorIs(t, err, contract.ErrDatasetFormat)
}

func TestLoadMalformed(t *testing.T) {
	l, _ := New(nil)
	_, err := l.Load(context.Background(), strings.NewReader("id,text\n1,\"unterminated\n"))
	assert.ErrorIs(t, err, contract.ErrDatasetFormat)

	_, err = l.Load(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, contract.ErrDatasetFormat)
}

func TestLoadHeaderOnly(t *testing.T) {
	recs := load(t, nil, "id,text\n")
	assert.Empty(t, recs)
}

// 非法 UTF-8 不替换为 U+FFFD，直接报数据集格式错误
func TestLoadInvalidUTF8(t *testing.T) {
	l, _ := New(nil)
	_, err := l.Load(context.Background(), strings.NewReader("id,text\n1,caf\xe9\n"))
	assert.ErrorIs(t, err, contract.ErrDatasetFormat)

	recs := load(t, nil, "\xef\xbb\xbfid,text\n1,café\n")
	text, _ := recs[0].Get("text")
	assert.Equal(t, "café", text.Text())
}
