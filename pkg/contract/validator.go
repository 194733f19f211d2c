package contract

import (
	"fmt"
	"strconv"
	"strings"
)

// Violation: 单条结构违例（字段路径 + 原因）。
type Violation struct {
	Path   string
	Reason string
}

func (v Violation) String() string { return v.Path + ": " + v.Reason }

// SchemaError 汇总全部违例；errors.Is(err, ErrSchemaValidation) 为真。
type SchemaError struct {
	Violations []Violation
}

func (e *SchemaError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("%s: %s", ErrSchemaValidation, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaValidation }

// 校验库函数（纯函数，无 I/O）：
// - Validate:      解析 JSON 文本后校验
// - ValidateValue: 校验已解析的文档
// 规则：version 缺省为 1，items 缺省为空；条目 id 必填（整数或字符串），
// payload/meta 缺省为空映射、出现时必须为对象；未知键忽略。
// 返回全部违例而非首个。
func Validate(doc []byte) (AnnotationSet, error) {
	var v Value
	if err := v.UnmarshalJSON(doc); err != nil {
		return AnnotationSet{}, &SchemaError{Violations: []Violation{{Path: "$", Reason: "invalid JSON: " + err.Error()}}}
	}
	return ValidateValue(v)
}

func ValidateValue(doc Value) (AnnotationSet, error) {
	var errs []Violation
	add := func(path, reason string) { errs = append(errs, Violation{Path: path, Reason: reason}) }

	root, ok := doc.AsObject()
	if !ok {
		add("$", "must be an object, got "+doc.Kind().String())
		return AnnotationSet{}, &SchemaError{Violations: errs}
	}

	set := AnnotationSet{Version: CurrentVersion, Items: []AnnotationItem{}}
	if vv, present := root["version"]; present {
		n, ok := coerceInt(vv)
		if !ok {
			add("version", "must be an integer, got "+describe(vv))
		} else {
			set.Version = int(n)
		}
	}

	if iv, present := root["items"]; present {
		items, ok := iv.AsArray()
		if !ok {
			add("items", "must be a list, got "+describe(iv))
		} else {
			set.Items = make([]AnnotationItem, 0, len(items))
			for i, raw := range items {
				p := "items[" + strconv.Itoa(i) + "]"
				it, ok := validateItem(p, raw, add)
				if ok {
					set.Items = append(set.Items, it)
				}
			}
		}
	}

	if len(errs) > 0 {
		return AnnotationSet{}, &SchemaError{Violations: errs}
	}
	return set, nil
}

func validateItem(path string, raw Value, add func(path, reason string)) (AnnotationItem, bool) {
	obj, ok := raw.AsObject()
	if !ok {
		add(path, "must be an object, got "+describe(raw))
		return AnnotationItem{}, false
	}
	valid := true
	var it AnnotationItem
	if idv, present := obj["id"]; !present {
		add(path+".id", "field required")
		valid = false
	} else if id, err := IDFromValue(idv); err != nil {
		add(path+".id", err.Error()+", got "+describe(idv))
		valid = false
	} else {
		it.ID = id
	}
	it.Payload = map[string]Value{}
	if pv, present := obj["payload"]; present {
		m, ok := pv.AsObject()
		if !ok {
			add(path+".payload", "must be an object, got "+describe(pv))
			valid = false
		} else {
			it.Payload = cloneMap(m)
		}
	}
	it.Meta = map[string]Value{}
	if mv, present := obj["meta"]; present {
		m, ok := mv.AsObject()
		if !ok {
			add(path+".meta", "must be an object, got "+describe(mv))
			valid = false
		} else {
			it.Meta = cloneMap(m)
		}
	}
	return it, valid
}

// coerceInt: 整数、整值浮点或十进制整数字符串。
func coerceInt(v Value) (int64, bool) {
	if n, ok := v.AsInt(); ok {
		return n, true
	}
	if s, ok := v.AsString(); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func describe(v Value) string {
	switch v.Kind() {
	case KindString, KindNumber, KindBool:
		return v.Kind().String() + " " + strconv.Quote(v.Text())
	default:
		return v.Kind().String()
	}
}

// cloneMap 浅拷贝映射，避免与调用方共享。
func cloneMap(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
