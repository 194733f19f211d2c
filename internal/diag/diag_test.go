package diag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annotatorx/pkg/contract"
)

// 日志轮转写入
func TestRotatingFile(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(dir, 30)
	require.NoError(t, w.WriteLine([]byte("first line that is very long")))
	require.NoError(t, w.WriteLine([]byte("second")))
	require.NoError(t, w.Close())
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2, "应存在当前文件与一个轮转文件")
	b, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(b))
}

// 历史文件超出 Keep 时删除最旧的
func TestRotatingFilePrune(t *testing.T) {
	dir := t.TempDir()
	w := NewRotatingFile(dir, 10)
	w.Keep = 2
	for i := 0; i < 6; i++ {
		require.NoError(t, w.WriteLine([]byte("xxxxxxxxxxxxxxxxxx")))
	}
	require.NoError(t, w.Close())
	ents, err := os.ReadDir(dir)
	require.NoError(t, err)
	var current, rotated int
	for _, e := range ents {
		switch {
		case e.Name() == "annotatorx-current.log":
			current++
		case strings.HasPrefix(e.Name(), "annotatorx-") && strings.HasSuffix(e.Name(), ".log"):
			rotated++
		}
	}
	assert.Equal(t, 1, current)
	assert.Equal(t, 2, rotated)
}

// 触发默认 maxBytes 分支与 rotate 在 f==nil 分支
func TestRotatingFileDefaultsAndRotateNoOpen(t *testing.T) {
	w := NewRotatingFile(t.TempDir(), 0)
	require.NoError(t, w.WriteLine([]byte("a")))
	_ = w.f.Close()
	w.f = nil
	require.NoError(t, w.rotate())
	require.NoError(t, w.Close())
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{context.Canceled, CodeCancel},
		{fmt.Errorf("wrap: %w", context.DeadlineExceeded), CodeCancel},
		{fmt.Errorf("%w: x.csv", contract.ErrNotFound), CodeNotFound},
		{fmt.Errorf("%w: .txt", contract.ErrDatasetFormat), CodeDatasetFormat},
		{&contract.SchemaError{Violations: []contract.Violation{{Path: "items[0].id", Reason: "field required"}}}, CodeSchema},
		{fmt.Errorf("%w: denied", contract.ErrWrite), CodeWrite},
		{contract.ErrPathInvalid, CodeInvariant},
		{contract.ErrInvalidInput, CodeInvariant},
		{&fs.PathError{Op: "open", Path: "/", Err: errors.New("x")}, CodeIO},
		{errors.New("other"), CodeUnknown},
		{nil, CodeUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.err), fmt.Sprint(c.err))
	}
}

func TestNowUTC(t *testing.T) {
	_, err := time.Parse(time.RFC3339, NowUTC())
	assert.NoError(t, err)
}

func decodeEvents(t *testing.T, b []byte) []Event {
	t.Helper()
	var out []Event
	for _, line := range strings.Split(strings.TrimSpace(string(b)), "\n") {
		if line == "" {
			continue
		}
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		out = append(out, ev)
	}
	return out
}

// Logger 事件结构与级别过滤
func TestLoggerEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("corr-1", "info", &buf)
	tm := l.StartWithKV("annotate", "build", "datasets/reviews.csv", map[string]string{"seed": "42"})
	tm.Finish("ok", 2)
	l.Debug("annotate", "filtered", "", nil)
	l.Warn("config", "deprecated key", nil)
	start := time.Now().Add(-5 * time.Millisecond)
	l.Error("export", "write", "denied", &start)

	evs := decodeEvents(t, buf.Bytes())
	require.Len(t, evs, 4, "debug 事件应被过滤")
	assert.Equal(t, "start", evs[0].Stage)
	assert.Equal(t, "corr-1", evs[0].CorrID)
	assert.Equal(t, "datasets/reviews.csv", evs[0].FileID)
	assert.Equal(t, "42", evs[0].KV["seed"])
	assert.Equal(t, "finish", evs[1].Stage)
	assert.EqualValues(t, 2, evs[1].Count)
	assert.Equal(t, "warn", evs[2].Level)
	assert.Equal(t, "error", evs[3].Level)
	assert.Equal(t, "write", evs[3].Code)
}

func TestTimerFail(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo("", "debug", &buf)
	_, err := uuid.Parse(l.CorrID())
	require.NoError(t, err, "缺省关联 ID 为 UUID")

	code := l.Start("validate", "run").Fail(fmt.Errorf("%w: bad", contract.ErrSchemaValidation))
	assert.Equal(t, CodeSchema, code)
	evs := decodeEvents(t, buf.Bytes())
	require.Len(t, evs, 2)
	assert.Equal(t, "schema", evs[1].Code)
	assert.Contains(t, evs[1].Msg, "bad")

	var tnil *Timer
	tnil.Finish("x", 0)
	assert.Equal(t, CodeCancel, tnil.Fail(context.Canceled))
	(&Timer{}).Finish("x", 0)
}

// Logger 写入轮转文件
func TestLoggerWithSink(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger("corr", "info", dir)
	l.Start("comp", "msg").Finish("ok", 1)
	l.Error("comp", "code", "msg", nil)
	require.NoError(t, l.Close())
	b, err := os.ReadFile(filepath.Join(dir, "annotatorx-current.log"))
	require.NoError(t, err)
	assert.Len(t, decodeEvents(t, b), 3)
}

func TestLevels(t *testing.T) {
	assert.Equal(t, "warn", Warn.String())
	var unknown Level = 12345
	assert.Equal(t, "info", unknown.String())
	assert.Equal(t, Debug, ParseLevel(" DEBUG "))
	assert.Equal(t, Warn, ParseLevel("warning"))
	assert.Equal(t, Info, ParseLevel("verbose"))
	assert.True(t, ValidLevel(""))
	assert.True(t, ValidLevel("error"))
	assert.False(t, ValidLevel("verbose"))

	var nilLogger *Logger
	nilLogger.Warn("x", "y", nil)
	assert.Equal(t, "", nilLogger.CorrID())
	assert.NoError(t, nilLogger.Close())
}

// 指标写出为 textfile
func TestWriteMetrics(t *testing.T) {
	IncOp("metrics_test", "finish", "success")
	IncError("metrics_test", string(CodeWrite))
	ObserveDuration("metrics_test", "finish", 12)
	AddRecords("metrics_test", 3)
	AddRecords("metrics_test", 0)
	IncLabel("NEUTRAL")

	path := filepath.Join(t.TempDir(), "sub", "annotatorx.prom")
	require.NoError(t, WriteMetrics(path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `annotatorx_op_total{comp="metrics_test",result="success",stage="finish"}`)
	assert.Contains(t, out, `annotatorx_error_total{code="write",comp="metrics_test"} 1`)
	assert.Contains(t, out, `annotatorx_records_total{comp="metrics_test"} 3`)
	assert.Contains(t, out, `annotatorx_labels_total{label="NEUTRAL"}`)
	assert.Contains(t, out, `annotatorx_op_duration_ms_bucket{comp="metrics_test",stage="finish",le="50"}`)

	assert.NoError(t, WriteMetrics(""))
	mfs, err := Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, mfs)
}

// 终端（非 TTY）关键节点输出
func TestTerminalNonTTYFlow(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(&sb, true)
	require.False(t, term.isTTY)
	term.RunStart("annotate", "seed=42")
	term.FileStart("datasets/reviews.csv", 12)
	term.FileProgress(6, 12) // 非 TTY：不输出进度
	term.FileFinish(true, 12, 5100*time.Millisecond)
	term.RunFinish(true, 41300*time.Millisecond)

	out := sb.String()
	assert.NotContains(t, out, "\r")
	assert.Contains(t, out, "[run] annotate | seed=42\n")
	assert.Contains(t, out, "[file] reviews.csv | 记录=12\n")
	assert.Contains(t, out, "[done] reviews.csv | 条目 12 | 用时 5.1s\n")
	assert.Contains(t, out, "[ok] annotate | 文件 1 | 总用时 41.3s\n")
}

// 终端（TTY）进度节流与清尾
func TestTerminalTTYProgressThrottleAndClear(t *testing.T) {
	var sb strings.Builder
	term := NewTerminal(&sb, true)
	term.isTTY = true // 强制 TTY
	term.RunStart("annotate", "")
	term.FileStart("/a/b/c/longfilename.csv", 3)

	term.FileProgress(1, 3)
	first := sb.String()
	assert.Contains(t, first, "\r[file] longfilename.csv | 进度 1/3")
	// 立即第二次：节流
	term.FileProgress(2, 3)
	assert.Equal(t, first, sb.String())
	// 最后一条不节流
	term.FileProgress(3, 3)
	assert.Contains(t, sb.String(), "进度 3/3")

	term.FileFinish(false, 0, 2200*time.Millisecond)
	final := sb.String()
	idx := strings.LastIndex(final, "[fail]")
	require.Greater(t, idx, 0)
	seg := final[:idx]
	cr := strings.LastIndex(seg, "\r")
	require.GreaterOrEqual(t, cr, 0)
	assert.Contains(t, seg[strings.LastIndex(seg[:cr], "\r")+1:], " ", "清尾应写入空格")
}

// 写失败降级为禁用态
type flakyWriter struct{ fail bool }

func (w *flakyWriter) Write(p []byte) (int, error) {
	if w.fail {
		w.fail = false
		return 0, fmt.Errorf("boom")
	}
	return len(p), nil
}

func TestTerminalDisableOnWriteError(t *testing.T) {
	fw := &flakyWriter{fail: true}
	term := NewTerminal(fw, true)
	term.RunStart("stats", "") // 第一次 println 触发失败
	assert.False(t, term.enabled)
	term.FileStart("a", 0)
	term.FileProgress(0, 0)
	term.FileFinish(true, 0, 0)
	term.RunFinish(true, 0)

	fw = &flakyWriter{fail: true}
	term = NewTerminal(fw, true)
	term.isTTY = true
	term.FileStart("f.csv", 2)
	term.FileProgress(1, 2) // inline 写失败
	assert.False(t, term.enabled)
}

func TestTerminalNilAndDisabled(t *testing.T) {
	var tn *Terminal
	tn.RunStart("x", "")
	tn.FileStart("a", 1)
	tn.FileProgress(0, 0)
	tn.FileFinish(true, 0, 0)
	tn.RunFinish(true, 0)

	var sb strings.Builder
	off := NewTerminal(&sb, false)
	off.RunStart("x", "")
	off.RunFinish(true, 0)
	assert.Empty(t, sb.String())
}

func TestNewTerminalCIEnv(t *testing.T) {
	t.Setenv("CI", "true")
	term := NewTerminal(os.Stderr, true)
	assert.False(t, term.isTTY)
}

func TestHelpers(t *testing.T) {
	s := shortenBase("/x/y/这是一个很长的文件名用于截断测试abcdefghijk.csv", 10)
	assert.True(t, strings.HasSuffix(s, "…"))
	assert.LessOrEqual(t, visLen(s), 10)
	assert.Equal(t, "", shortenBase("x", 0))
	assert.Equal(t, "a.csv", shortenBase(" dir/a.csv ", 10))
	assert.Equal(t, 4, visLen("数据"))
	assert.Equal(t, "a b c", safe("a\nb\rc"))
	assert.Equal(t, "0ms", formatDur(0))
	assert.Equal(t, "1.5s", formatDur(1500*time.Millisecond))
}
