package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
)

// FileID: 逻辑文件ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// NormalizeFileID 统一为正斜杠并清理 . 与 .. 片段；相对路径保持相对。
// 数据集在日志与终端中以该形式出现，Windows 与 Unix 下一致。
func NormalizeFileID(p string) FileID {
	return FileID(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}

// Field: 记录中的单个字段。
type Field struct {
	Key   string
	Value Value
}

// Record: 数据集中的一行（字段名 → 值），保留字段的输入顺序。
// 无固定 schema；零值可直接使用。
type Record struct {
	keys []string
	vals map[string]Value
}

// NewRecord 以给定字段顺序构造记录；重复键以后者为准（位置保持首次出现）。
func NewRecord(fields ...Field) Record {
	var r Record
	for _, f := range fields {
		r.Set(f.Key, f.Value)
	}
	return r
}

// Set 写入字段；新键追加到末尾。
func (r *Record) Set(key string, v Value) {
	if r.vals == nil {
		r.vals = make(map[string]Value)
	}
	if _, ok := r.vals[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.vals[key] = v
}

// Get 返回字段值；缺失时 ok=false。
func (r Record) Get(key string) (Value, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys 返回字段名（输入顺序）的副本。
func (r Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// MarshalJSON 按字段顺序输出。
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(&buf, k); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := r.vals[k].encode(&buf); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON 解析 JSON 对象并保留键序；非对象返回 ErrDatasetFormat。
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: record must be an object", ErrDatasetFormat)
	}
	var out Record
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := kt.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return err
		}
		out.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}

// ID: 标注条目标识，整数或字符串。零值为整数 0。
type ID struct {
	str   string
	num   int64
	isStr bool
}

func IntID(n int64) ID     { return ID{num: n} }
func StringID(s string) ID { return ID{str: s, isStr: true} }

func (id ID) IsString() bool { return id.isStr }

// Int 返回整数形式；字符串 ID 返回 ok=false。
func (id ID) Int() (int64, bool) { return id.num, !id.isStr }

func (id ID) String() string {
	if id.isStr {
		return id.str
	}
	return strconv.FormatInt(id.num, 10)
}

// Value 将 ID 转为 Value（用于展平导出等）。
func (id ID) Value() Value {
	if id.isStr {
		return String(id.str)
	}
	return Int(id.num)
}

var errIDType = errors.New("must be an integer or string")

// IDFromValue：整数/整值浮点 → 整数 ID；字符串 → 字符串 ID；其他类型报错。
func IDFromValue(v Value) (ID, error) {
	if s, ok := v.AsString(); ok {
		return StringID(s), nil
	}
	if n, ok := v.AsInt(); ok {
		return IntID(n), nil
	}
	return ID{}, errIDType
}

func (id ID) MarshalJSON() ([]byte, error) { return id.Value().MarshalJSON() }

func (id *ID) UnmarshalJSON(b []byte) error {
	var v Value
	if err := v.UnmarshalJSON(b); err != nil {
		return err
	}
	out, err := IDFromValue(v)
	if err != nil {
		return fmt.Errorf("%w: id %s", ErrSchemaValidation, err)
	}
	*id = out
	return nil
}

// AnnotationItem: 单条标注（记录 + 生成标签 + 来源元信息）。
// 经构建或校验得到的条目 Payload/Meta 均非 nil。
type AnnotationItem struct {
	ID      ID               `json:"id"`
	Payload map[string]Value `json:"payload"`
	Meta    map[string]Value `json:"meta"`
}

// MarshalJSON 保证 nil 映射输出为 {} 而非 null。
func (it AnnotationItem) MarshalJSON() ([]byte, error) {
	type wire struct {
		ID      ID               `json:"id"`
		Payload map[string]Value `json:"payload"`
		Meta    map[string]Value `json:"meta"`
	}
	w := wire{ID: it.ID, Payload: it.Payload, Meta: it.Meta}
	if w.Payload == nil {
		w.Payload = map[string]Value{}
	}
	if w.Meta == nil {
		w.Meta = map[string]Value{}
	}
	return marshalNoEscape(w)
}

// AnnotationSet: 带版本的有序标注集合，持久化与校验的基本单位。构建后只读。
type AnnotationSet struct {
	Version int              `json:"version"`
	Items   []AnnotationItem `json:"items"`
}

// CurrentVersion: 当前文档版本。
const CurrentVersion = 1

// MarshalJSON 保证 nil Items 输出为 []。
func (s AnnotationSet) MarshalJSON() ([]byte, error) {
	type wire struct {
		Version int              `json:"version"`
		Items   []AnnotationItem `json:"items"`
	}
	w := wire{Version: s.Version, Items: s.Items}
	if w.Items == nil {
		w.Items = []AnnotationItem{}
	}
	return marshalNoEscape(w)
}

// Equal 深比较两个集合（顺序敏感）。
func (s AnnotationSet) Equal(o AnnotationSet) bool {
	if s.Version != o.Version || len(s.Items) != len(o.Items) {
		return false
	}
	for i := range s.Items {
		a, b := s.Items[i], o.Items[i]
		if a.ID != b.ID || !EqualMaps(a.Payload, b.Payload) || !EqualMaps(a.Meta, b.Meta) {
			return false
		}
	}
	return true
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
