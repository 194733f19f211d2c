package xlsxfile

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"annotatorx/internal/tabular"
	"annotatorx/pkg/contract"
)

// Options 为 XLSX Loader 的可选配置。
type Options struct {
	// Sheet: 指定工作表名；为空时自动选择首个非元数据表。
	Sheet string `json:"sheet"`
	// InferTypes: 是否做列类型推断；nil 表示默认开启。
	InferTypes *bool `json:"infer_types"`
}

// 自动选择时跳过的元数据工作表（小写比较）。
var metadataSheets = map[string]bool{
	"info":     true,
	"metadata": true,
	"about":    true,
	"readme":   true,
	"notes":    true,
}

// Loader 读取单个工作表，行处理与 CSV 相同（首行表头、列类型推断、短行补齐）。
type Loader struct {
	sheet string
	infer bool
}

func New(opts *Options) *Loader {
	l := &Loader{infer: true}
	if opts != nil {
		l.sheet = opts.Sheet
		if opts.InferTypes != nil {
			l.infer = *opts.InferTypes
		}
	}
	return l
}

var _ contract.Loader = (*Loader)(nil)

func (l *Loader) Load(ctx context.Context, r io.Reader) ([]contract.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: open xlsx: %v", contract.ErrDatasetFormat, err)
	}
	defer f.Close()

	sheet, err := l.pickSheet(f.GetSheetList())
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", contract.ErrDatasetFormat, sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %q is empty (no header row)", contract.ErrDatasetFormat, sheet)
	}
	return tabular.Records(ctx, rows, tabular.Options{InferTypes: l.infer, Source: "sheet " + sheet})
}

// pickSheet: 显式配置优先；否则取首个非元数据表，全部为元数据表时取最后一个。
func (l *Loader) pickSheet(sheets []string) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("%w: workbook has no sheets", contract.ErrDatasetFormat)
	}
	if l.sheet != "" {
		for _, s := range sheets {
			if s == l.sheet {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: sheet %q not found (have %s)", contract.ErrDatasetFormat, l.sheet, strings.Join(sheets, ", "))
	}
	for _, s := range sheets {
		if !metadataSheets[strings.ToLower(s)] {
			return s, nil
		}
	}
	return sheets[len(sheets)-1], nil
}
