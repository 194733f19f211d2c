// Package stats 统计标注集合的标签分布，并渲染为终端表格或 JSON。
// 全部为纯函数，不做 I/O。
package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"annotatorx/pkg/contract"
)

// MissingLabel: 缺失或为 null 的标签分组的展示名。
const MissingLabel = "(missing)"

// Row: 单个标签分组。
type Row struct {
	// Label 为原始标签值；Missing=true 时无意义。
	Label   contract.Value
	Missing bool
	Count   int
}

// Display 返回展示用字符串：字符串原样，其他类型取 JSON 文本。
func (r Row) Display() string {
	if r.Missing {
		return MissingLabel
	}
	return r.Label.String()
}

// Summary: 按展示名升序的分组与总数（Total == 条目数 == 各组之和）。
type Summary struct {
	Rows  []Row
	Total int
}

// Summarize 按 payload[labelKey] 分组计数。
// 分组键区分值类型（字符串 "1" 与数字 1 是不同分组），排序依据展示名、其次计数。
func Summarize(set contract.AnnotationSet, labelKey string) Summary {
	type key struct {
		missing bool
		kind    contract.Kind
		text    string
	}
	idx := map[key]int{}
	var rows []Row
	for _, it := range set.Items {
		v, ok := it.Payload[labelKey]
		k := key{missing: !ok || v.IsNull()}
		if !k.missing {
			k.kind, k.text = v.Kind(), v.String()
		}
		if i, seen := idx[k]; seen {
			rows[i].Count++
			continue
		}
		idx[k] = len(rows)
		rows = append(rows, Row{Label: v, Missing: k.missing, Count: 1})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := rows[i].Display(), rows[j].Display()
		if di != dj {
			return di < dj
		}
		return rows[i].Count < rows[j].Count
	})
	if rows == nil {
		rows = []Row{}
	}
	return Summary{Rows: rows, Total: len(set.Items)}
}

// Title: 表格标题。
const Title = "Annotation Label Distribution"

// FormatTable 渲染为带边框的等宽表格，末行为 TOTAL。宽字符（CJK）按两列计。
func FormatTable(s Summary) string {
	labels := make([]string, 0, len(s.Rows)+1)
	counts := make([]string, 0, len(s.Rows)+1)
	for _, r := range s.Rows {
		labels = append(labels, r.Display())
		counts = append(counts, strconv.Itoa(r.Count))
	}
	labels = append(labels, "TOTAL")
	counts = append(counts, strconv.Itoa(s.Total))

	lw, cw := displayWidth("Label"), displayWidth("Count")
	for i := range labels {
		lw = max(lw, displayWidth(labels[i]))
		cw = max(cw, displayWidth(counts[i]))
	}

	var b strings.Builder
	sep := "+" + strings.Repeat("-", lw+2) + "+" + strings.Repeat("-", cw+2) + "+\n"
	line := func(label, count string) {
		b.WriteString("| ")
		b.WriteString(label)
		b.WriteString(strings.Repeat(" ", lw-displayWidth(label)))
		b.WriteString(" | ")
		b.WriteString(strings.Repeat(" ", cw-displayWidth(count)))
		b.WriteString(count)
		b.WriteString(" |\n")
	}

	b.WriteString(Title + "\n")
	b.WriteString(sep)
	line("Label", "Count")
	b.WriteString(sep)
	last := len(labels) - 1
	for i := 0; i < last; i++ {
		line(labels[i], counts[i])
	}
	b.WriteString(sep)
	line(labels[last], counts[last])
	b.WriteString(sep)
	return b.String()
}

// FormatJSON 渲染为 {"label_field":..., "rows":[{"label":...,"count":n}], "total":n}。
// 缺失标签的 label 为 null 且 missing=true。
func FormatJSON(s Summary, labelKey string) ([]byte, error) {
	type row struct {
		Label   contract.Value `json:"label"`
		Missing bool           `json:"missing,omitempty"`
		Count   int            `json:"count"`
	}
	out := struct {
		LabelField string `json:"label_field"`
		Rows       []row  `json:"rows"`
		Total      int    `json:"total"`
	}{LabelField: labelKey, Rows: make([]row, 0, len(s.Rows)), Total: s.Total}
	for _, r := range s.Rows {
		lv := r.Label
		if r.Missing {
			lv = contract.Null()
		}
		out.Rows = append(out.Rows, row{Label: lv, Missing: r.Missing, Count: r.Count})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode stats: %w", err)
	}
	return buf.Bytes(), nil
}

// displayWidth: 终端显示宽度（东亚宽字符与全角字符占两列）。
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
