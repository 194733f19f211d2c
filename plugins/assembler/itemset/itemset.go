package itemset

import (
	"context"
	"fmt"

	"annotatorx/pkg/contract"
)

// Builder: 逐条记录调用 Labeler，线性组装 AnnotationSet。
type Builder struct {
	labeler contract.Labeler
}

// New 创建构建器；labeler 不可为 nil。
func New(l contract.Labeler) (*Builder, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil labeler", contract.ErrInvalidInput)
	}
	return &Builder{labeler: l}, nil
}

var _ contract.Builder = (*Builder)(nil)

// Build 对第 i 条记录：
//   - text  = record[TextField] 的文本形式（缺失或 null 为空串）
//   - label = Label(text, Seed)
//   - id    = record["id"]（存在且非 null），否则为下标 i
//   - payload 先写 text 后写 label，字段同名时 label 覆盖 text
//   - meta  = {source, seed}
//
// id 为布尔、非整数数字、对象或数组时返回 ErrDatasetFormat。
func (b *Builder) Build(ctx context.Context, records []contract.Record, opts contract.BuildOptions) (contract.AnnotationSet, error) {
	if opts.LabelField == "" || opts.TextField == "" {
		return contract.AnnotationSet{}, fmt.Errorf("%w: label and text field names must be non-empty", contract.ErrInvalidInput)
	}
	source := opts.Source
	if source == "" {
		source = contract.DefaultSource
	}

	items := make([]contract.AnnotationItem, 0, len(records))
	for i, rec := range records {
		select {
		case <-ctx.Done():
			return contract.AnnotationSet{}, ctx.Err()
		default:
		}

		id, err := itemID(rec, i)
		if err != nil {
			return contract.AnnotationSet{}, err
		}
		var text string
		if v, ok := rec.Get(opts.TextField); ok {
			text = v.Text()
		}
		label := b.labeler.Label(text, opts.Seed)

		payload := make(map[string]contract.Value, 2)
		payload[opts.TextField] = contract.String(text)
		payload[opts.LabelField] = contract.String(label)

		items = append(items, contract.AnnotationItem{
			ID:      id,
			Payload: payload,
			Meta: map[string]contract.Value{
				"source": contract.String(source),
				"seed":   contract.Int(opts.Seed),
			},
		})
		if opts.Progress != nil {
			opts.Progress(i+1, len(records))
		}
	}
	return contract.AnnotationSet{Version: contract.CurrentVersion, Items: items}, nil
}

func itemID(rec contract.Record, i int) (contract.ID, error) {
	v, ok := rec.Get("id")
	if !ok || v.IsNull() {
		return contract.IntID(int64(i)), nil
	}
	id, err := contract.IDFromValue(v)
	if err != nil {
		return contract.ID{}, fmt.Errorf("%w: record %d: id %s, got %s", contract.ErrDatasetFormat, i, err, v.Kind())
	}
	return id, nil
}
