package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"annotatorx/internal/tabular"
	"annotatorx/internal/textio"
	"annotatorx/pkg/contract"
)

// Options 为 CSV Loader 的可选配置。
type Options struct {
	// Delimiter: 单字符分隔符，默认 ","。
	Delimiter string `json:"delimiter"`
	// InferTypes: 是否做列类型推断；nil 表示默认开启。
	InferTypes *bool `json:"infer_types"`
	// LazyQuotes: 容忍字段内未转义的引号。
	LazyQuotes bool `json:"lazy_quotes"`
	// TrimLeadingSpace: 去掉字段前导空白。
	TrimLeadingSpace bool `json:"trim_leading_space"`
}

// Loader: 首行为表头，后续每行一条记录。
type Loader struct {
	comma      rune
	infer      bool
	lazyQuotes bool
	trimSpace  bool
}

// New 创建 CSV Loader；分隔符非法时返回 ErrInvalidInput。
func New(opts *Options) (*Loader, error) {
	l := &Loader{comma: ',', infer: true}
	if opts == nil {
		return l, nil
	}
	if opts.Delimiter != "" {
		r, size := utf8.DecodeRuneInString(opts.Delimiter)
		if size != len(opts.Delimiter) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
			return nil, fmt.Errorf("%w: csv delimiter %q", contract.ErrInvalidInput, opts.Delimiter)
		}
		l.comma = r
	}
	if opts.InferTypes != nil {
		l.infer = *opts.InferTypes
	}
	l.lazyQuotes = opts.LazyQuotes
	l.trimSpace = opts.TrimLeadingSpace
	return l, nil
}

var _ contract.Loader = (*Loader)(nil)

// Load 读取全部行后统一推断列类型。前导 BOM（UTF-8/UTF-16）会被识别并剥离；
// 非法 UTF-8 返回 ErrDatasetFormat。
func (l *Loader) Load(ctx context.Context, r io.Reader) ([]contract.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := textio.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(b))
	cr.Comma = l.comma
	cr.LazyQuotes = l.lazyQuotes
	cr.TrimLeadingSpace = l.trimSpace
	// 行宽由 tabular 统一校验（短行补齐、长行报错）
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	rows, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, fmt.Errorf("%w: csv: %v", contract.ErrDatasetFormat, pe)
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty csv file (no header row)", contract.ErrDatasetFormat)
	}
	return tabular.Records(ctx, rows, tabular.Options{InferTypes: l.infer})
}
