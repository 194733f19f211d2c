// Package tabular 将“表头 + 数据行”形式的字符串表格转换为 Record 序列，
// CSV 与 XLSX 加载器共用同一套列类型推断规则。
package tabular

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"annotatorx/pkg/contract"
)

// ColumnType 为推断出的列类型。
type ColumnType uint8

const (
	ColumnString ColumnType = iota
	ColumnInt
	ColumnNumber
)

func (c ColumnType) String() string {
	switch c {
	case ColumnInt:
		return "int"
	case ColumnNumber:
		return "number"
	default:
		return "string"
	}
}

var intPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)

// Options 控制转换行为。
type Options struct {
	// InferTypes=false 时所有单元格保留为字符串。
	InferTypes bool
	// Source 用于错误信息（文件名或工作表名）。
	Source string
}

// Records 把 rows 转为 Record。rows[0] 为表头；短行补空单元格，长行返回 ErrDatasetFormat。
// 行号（错误信息中）按 1 起算并包含表头行。
func Records(ctx context.Context, rows [][]string, opts Options) ([]contract.Record, error) {
	if len(rows) == 0 {
		return []contract.Record{}, nil
	}
	header := rows[0]
	body := rows[1:]
	for i, row := range body {
		if len(row) > len(header) {
			return nil, fmt.Errorf("%w: %srow %d has %d cells, header has %d", contract.ErrDatasetFormat, prefix(opts.Source), i+2, len(row), len(header))
		}
	}

	types := make([]ColumnType, len(header))
	if opts.InferTypes {
		for c := range header {
			types[c] = InferColumn(body, c)
		}
	}

	out := make([]contract.Record, 0, len(body))
	for _, row := range body {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var rec contract.Record
		for c, name := range header {
			cell := ""
			if c < len(row) {
				cell = row[c]
			}
			rec.Set(name, Cell(cell, types[c]))
		}
		out = append(out, rec)
	}
	return out, nil
}

// InferColumn 推断第 col 列类型：全部非空单元格为整数 → int；
// 否则全部可解析为有限浮点 → number；否则 string。全空列视为 string。
func InferColumn(rows [][]string, col int) ColumnType {
	seen := false
	allInt, allNum := true, true
	for _, row := range rows {
		if col >= len(row) {
			continue
		}
		s := strings.TrimSpace(row[col])
		if s == "" {
			continue
		}
		seen = true
		if allInt {
			if !intPattern.MatchString(s) {
				allInt = false
			} else if _, err := strconv.ParseInt(s, 10, 64); err != nil {
				// 超出 int64 的整数按浮点列处理，字面量保留
				allInt = false
			}
		}
		if !allInt && allNum {
			if _, ok := parseFinite(s); !ok {
				allNum = false
			}
		}
		if !allInt && !allNum {
			return ColumnString
		}
	}
	switch {
	case !seen:
		return ColumnString
	case allInt:
		return ColumnInt
	default:
		return ColumnNumber
	}
}

// Cell 按列类型转换单个单元格。数值列中的空单元格为 null。
func Cell(raw string, t ColumnType) contract.Value {
	switch t {
	case ColumnInt:
		s := strings.TrimSpace(raw)
		if s == "" {
			return contract.Null()
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return contract.String(raw)
		}
		return contract.Int(n)
	case ColumnNumber:
		s := strings.TrimSpace(raw)
		if s == "" {
			return contract.Null()
		}
		f, ok := parseFinite(s)
		if !ok {
			return contract.String(raw)
		}
		if json.Valid([]byte(s)) {
			return contract.Number(json.Number(s))
		}
		// "1." / ".5" / "+2" 等非 JSON 字面量改写为规范形式
		return contract.Float(f)
	default:
		return contract.String(raw)
	}
}

func parseFinite(s string) (float64, bool) {
	// 排除 ParseFloat 接受的十六进制与下划线写法
	if strings.ContainsAny(s, "xX_pP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func prefix(source string) string {
	if source == "" {
		return ""
	}
	return source + ": "
}
