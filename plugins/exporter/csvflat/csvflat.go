package csvflat

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"annotatorx/pkg/contract"
)

// Options 为 CSV 导出的可选配置。
type Options struct {
	// CRLF: 行尾使用 \r\n。
	CRLF bool `json:"crlf"`
}

// Exporter 将每个条目展平为一行：id 列在首，其后为全部 payload 键的并集（字典序）。
// meta 不导出。零条目时不写任何字节。
type Exporter struct {
	crlf bool
}

func New(opts *Options) *Exporter {
	return &Exporter{crlf: opts != nil && opts.CRLF}
}

var _ contract.Exporter = (*Exporter)(nil)

func (e *Exporter) Ext() string { return ".csv" }

// Columns 返回导出列：id + 排序后的 payload 键（payload 中名为 id 的键不重复出现）。
func Columns(items []contract.AnnotationItem) []string {
	seen := map[string]struct{}{}
	for _, it := range items {
		for k := range it.Payload {
			if k != "id" {
				seen[k] = struct{}{}
			}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return append([]string{"id"}, keys...)
}

func (e *Exporter) Encode(ctx context.Context, set contract.AnnotationSet, w io.Writer) error {
	if len(set.Items) == 0 {
		return nil
	}
	cols := Columns(set.Items)
	cw := csv.NewWriter(w)
	cw.UseCRLF = e.crlf
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	row := make([]string, len(cols))
	for _, it := range set.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		row[0] = it.ID.String()
		for i, k := range cols[1:] {
			row[i+1] = "" // 缺失键为空单元格
			if v, ok := it.Payload[k]; ok {
				row[i+1] = v.Text()
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
