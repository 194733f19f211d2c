package contract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind: Value 的标签。
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindObject
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value: JSON 兼容值的标签联合 {null, bool, number, string, object, array}。
// 零值为 null。数字保留 JSON 字面量文本，序列化时原样写回。
type Value struct {
	kind Kind
	b    bool
	s    string // string 内容或数字字面量
	obj  map[string]Value
	arr  []Value
}

func Null() Value           { return Value{} }
func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Int(n int64) Value     { return Value{kind: KindNumber, s: strconv.FormatInt(n, 10)} }

// Number 以字面量构造数字；空字面量视为 0。
func Number(lit json.Number) Value {
	if lit == "" {
		lit = "0"
	}
	return Value{kind: KindNumber, s: string(lit)}
}

// Float 以最短往返表示构造数字。
func Float(f float64) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Object 构造对象值；nil 视为空对象。
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

// Array 构造数组值；nil 视为空数组。
func Array(vs []Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsNumber() (json.Number, bool) { return json.Number(v.s), v.kind == KindNumber }

func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

// AsInt 返回整数值：整数字面量，或小数部分为 0 且落在 int64 范围内的浮点字面量。
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if n, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// Text 返回送入标注函数的字符串形式：
// null→""；string→原文；number→字面量；bool→true/false；object/array→紧凑 JSON。
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber, KindString:
		return v.s
	default:
		b, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Equal 深比较；数字按字面量比较。
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber, KindString:
		return v.s == o.s
	case KindObject:
		return EqualMaps(v.obj, o.obj)
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// EqualMaps 比较两个 payload/meta 映射（nil 与空映射等价）。
func EqualMaps(a, b map[string]Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !av.Equal(bv) {
			return false
		}
	}
	return true
}

// MarshalJSON 输出不做 HTML 转义；对象键按字典序输出，保证字节级稳定。
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		if !json.Valid([]byte(v.s)) {
			return fmt.Errorf("%w: invalid number literal %q", ErrInvalidInput, v.s)
		}
		buf.WriteString(v.s)
	case KindString:
		return encodeString(buf, v.s)
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := v.obj[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		return fmt.Errorf("%w: unknown value kind %d", ErrInvalidInput, v.kind)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode 追加换行
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON 解析任意 JSON 文本；数字保留字面量。
func (v *Value) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after top-level value")
	}
	out, err := FromAny(x)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// FromAny 将 encoding/json（UseNumber）解码结果或常见 Go 标量转换为 Value。
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		if math.IsInf(t, 0) || math.IsNaN(t) {
			return Value{}, fmt.Errorf("%w: non-finite number", ErrInvalidInput)
		}
		return Float(t), nil
	case map[string]any:
		m := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return Object(m), nil
	case map[string]Value:
		return Object(t), nil
	case []any:
		arr := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Value{}, err
			}
			arr = append(arr, ev)
		}
		return Array(arr), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported value type %T", ErrInvalidInput, x)
	}
}

// String 便于日志与表格展示：字符串原样，其余取 JSON 文本。
func (v Value) String() string {
	if v.kind == KindString {
		return v.s
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return strings.TrimSpace(v.s)
	}
	return string(b)
}
