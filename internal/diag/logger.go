package diag

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// 级别定义
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// ParseLevel 解析级别名；未知值按 info。
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warn
	case "error":
		return Error
	default:
		return Info
	}
}

// ValidLevel 判断级别名是否合法（空串视为合法，即默认 info）。
func ValidLevel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// NewCorrID 生成单次调用的关联 ID。
func NewCorrID() string { return uuid.NewString() }

// Logger 为最小结构化日志器：单行 JSON，写入轮转文件（或指定 io.Writer），失败时回退 stderr。
type Logger struct {
	corrID string
	level  Level
	sink   *RotatingFile
	out    io.Writer
	mu     sync.Mutex
}

// NewLogger 按 level 初始化，日志写入 dir/annotatorx-current.log，10MiB 轮转。
// corrID 为空时自动生成；dir 为 "-" 时写 stderr。
func NewLogger(corrID, level, dir string) *Logger {
	if corrID == "" {
		corrID = NewCorrID()
	}
	l := &Logger{corrID: corrID, level: ParseLevel(level)}
	if dir == "-" {
		l.out = os.Stderr
		return l
	}
	if strings.TrimSpace(dir) == "" {
		dir = "logs"
	}
	l.sink = NewRotatingFile(dir, 10*1024*1024)
	return l
}

// NewLoggerTo 将日志行写入 w（测试与嵌入场景）。
func NewLoggerTo(corrID, level string, w io.Writer) *Logger {
	if corrID == "" {
		corrID = NewCorrID()
	}
	return &Logger{corrID: corrID, level: ParseLevel(level), out: w}
}

// CorrID 返回本次调用的关联 ID。
func (l *Logger) CorrID() string {
	if l == nil {
		return ""
	}
	return l.corrID
}

// Close 关闭底层文件。
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.Close()
}

// Event 为标准事件结构。
type Event struct {
	Level  string            `json:"level"`
	TS     string            `json:"ts"`
	CorrID string            `json:"corr_id"`
	Comp   string            `json:"comp"`
	Stage  string            `json:"stage"` // start|finish|error|note
	Code   string            `json:"code,omitempty"`
	DurMS  int64             `json:"dur_ms,omitempty"`
	Count  int64             `json:"count,omitempty"`
	FileID string            `json:"file_id,omitempty"`
	Msg    string            `json:"msg"`
	KV     map[string]string `json:"kv,omitempty"`
}

func (l *Logger) log(lv Level, ev Event) {
	if l == nil || lv < l.level {
		return
	}
	ev.Level = lv.String()
	ev.TS = NowUTC()
	ev.CorrID = l.corrID
	b, _ := json.Marshal(ev)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.out != nil {
		_, _ = l.out.Write(append(b, '\n'))
		return
	}
	if l.sink == nil {
		_, _ = os.Stderr.Write(append(b, '\n'))
		return
	}
	if err := l.sink.WriteLine(b); err != nil {
		fmt.Fprintf(os.Stderr, "logger sink error: %v\n", err)
		_, _ = os.Stderr.Write(append(b, '\n'))
	}
}

// Start 记录 start 事件；返回计时器用于 Finish/Fail。
func (l *Logger) Start(comp, msg string) *Timer {
	return l.StartWithKV(comp, msg, "", nil)
}

// StartWithKV 记录带 file_id 与键值的 start。
func (l *Logger) StartWithKV(comp, msg, fileID string, kv map[string]string) *Timer {
	l.log(Info, Event{Comp: comp, Stage: "start", FileID: fileID, Msg: msg, KV: kv})
	return &Timer{l: l, comp: comp, fileID: fileID, t0: time.Now()}
}

// Error 记录 error 事件。
func (l *Logger) Error(comp, code, msg string, durSince *time.Time) {
	l.ErrorWithKV(comp, code, msg, durSince, "", nil)
}

// ErrorWithKV 支持 file_id 与附带键值。
func (l *Logger) ErrorWithKV(comp, code, msg string, durSince *time.Time, fileID string, kv map[string]string) {
	var dur int64
	if durSince != nil {
		dur = time.Since(*durSince).Milliseconds()
	}
	l.log(Error, Event{Comp: comp, Stage: "error", Code: code, DurMS: dur, Msg: msg, FileID: fileID, KV: kv})
}

// Warn 记录 warn 级别的提示事件。
func (l *Logger) Warn(comp, msg string, kv map[string]string) {
	l.log(Warn, Event{Comp: comp, Stage: "note", Msg: msg, KV: kv})
}

// Debug 输出调试事件（仅在 level=debug 时生效）。
func (l *Logger) Debug(comp, msg, fileID string, kv map[string]string) {
	l.log(Debug, Event{Comp: comp, Stage: "note", FileID: fileID, Msg: msg, KV: kv})
}

// Timer 用于 start→finish 计时，并同步更新指标。
type Timer struct {
	l      *Logger
	comp   string
	fileID string
	t0     time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	dur := time.Since(t.t0).Milliseconds()
	t.l.log(Info, Event{Comp: t.comp, Stage: "finish", DurMS: dur, Count: count, FileID: t.fileID, Msg: msg})
	IncOp(t.comp, "finish", "success")
	ObserveDuration(t.comp, "finish", dur)
}

// Fail 记录 error 事件（按 Classify 分类）并返回分类码。
func (t *Timer) Fail(err error) Code {
	code := Classify(err)
	if t == nil || t.l == nil {
		return code
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.l.ErrorWithKV(t.comp, string(code), msg, &t.t0, t.fileID, nil)
	IncOp(t.comp, "finish", "error")
	IncError(t.comp, string(code))
	ObserveDuration(t.comp, "finish", time.Since(t.t0).Milliseconds())
	return code
}
