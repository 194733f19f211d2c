package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"annotatorx/internal/diag"
	"annotatorx/internal/stats"
	"annotatorx/pkg/contract"
	"annotatorx/pkg/registry"
)

// - 同步、单线程：各命令顺序执行 Reader → Loader → Builder → Exporter → Writer。
// - 首错返回：任一阶段失败立即返回包装后的错误，不重试。
// - 标注文件始终先经校验器再导出或统计。

// Components 聚合运行所需的原子组件。
type Components struct {
	Reader    contract.Reader
	Loaders   map[string]contract.Loader // 键为数据集格式
	Builder   contract.Builder
	Exporters map[string]contract.Exporter // 键为导出格式
	// Writer 写任意目标路径（标注与导出）；Store 以数据集仓库为根（ingest）。
	Writer contract.Writer
	Store  contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	DatasetsDir    string
	AnnotationsDir string
	LabelField     string
	TextField      string
	Seed           int64
	Source         string
	// Term: 终端状态提示，可为 nil。
	Term *diag.Terminal
}

// AnnotationsFile: annotate 未指定 --output 时的文件名。
const AnnotationsFile = "annotations.json"

// persistFormat: 标注文件的落盘格式。
const persistFormat = "json"

func sanity(c Components, s Settings) error {
	if c.Reader == nil || c.Builder == nil || c.Writer == nil || c.Store == nil || len(c.Loaders) == 0 || len(c.Exporters) == 0 {
		return errors.New("pipeline: missing components")
	}
	if c.Exporters[persistFormat] == nil {
		return errors.New("pipeline: json exporter not registered")
	}
	if strings.TrimSpace(s.DatasetsDir) == "" || strings.TrimSpace(s.AnnotationsDir) == "" {
		return errors.New("pipeline: store directories not set")
	}
	return nil
}

// IngestRequest: 将外部数据集复制进仓库。
type IngestRequest struct {
	Source string
	// Name: 仓库内名称；空则取源文件名去扩展名。
	Name string
	// Format: csv|json|xlsx；空则按扩展名推断。
	Format string
}

// Ingest 原样复制源文件到 <datasets_dir>/<name>.<format>，返回目标路径。
func Ingest(ctx context.Context, comp Components, set Settings, req IngestRequest, logger *diag.Logger) (string, error) {
	if err := sanity(comp, set); err != nil {
		return "", fmt.Errorf("sanity: %w", err)
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		f, err := registry.FormatOf(req.Source)
		if err != nil {
			return "", err
		}
		format = f
	} else if comp.Loaders[format] == nil {
		return "", fmt.Errorf("%w: unsupported format %q", contract.ErrDatasetFormat, req.Format)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		base := filepath.Base(req.Source)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := checkName(name); err != nil {
		return "", err
	}

	fileID, rc, err := comp.Reader.Open(ctx, req.Source)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	target := name + "." + format
	t := logger.StartWithKV("ingest", "copy", string(fileID), map[string]string{"name": name, "format": format})
	if err := comp.Store.Write(ctx, contract.ArtifactID(target), rc); err != nil {
		t.Fail(err)
		return "", err
	}
	t.Finish("copied", 0)
	return filepath.Join(set.DatasetsDir, target), nil
}

// checkName: 仓库名称不得含路径分隔符或为 . / ..。
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: dataset name %q", contract.ErrPathInvalid, name)
	}
	return nil
}

// AnnotateRequest: 为仓库中的数据集生成标注文件。空字段取 Settings 中的默认值。
type AnnotateRequest struct {
	Dataset    string
	Output     string
	LabelField string
	TextField  string
	Seed       *int64
	// Limit: 仅标注前 N 条；<=0 不截断。
	Limit int
}

// AnnotateResult: 输出路径与生成的集合。
type AnnotateResult struct {
	Output string
	Set    contract.AnnotationSet
}

// Annotate 定位数据集（.csv > .json > .xlsx）→ 解码 → 截断 → 标注 → 写出 JSON 标注文件。
func Annotate(ctx context.Context, comp Components, set Settings, req AnnotateRequest, logger *diag.Logger) (AnnotateResult, error) {
	if err := sanity(comp, set); err != nil {
		return AnnotateResult{}, fmt.Errorf("sanity: %w", err)
	}
	opts := contract.BuildOptions{
		LabelField: firstNonEmpty(req.LabelField, set.LabelField),
		TextField:  firstNonEmpty(req.TextField, set.TextField),
		Seed:       set.Seed,
		Source:     set.Source,
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	out := req.Output
	if strings.TrimSpace(out) == "" {
		out = filepath.Join(set.AnnotationsDir, AnnotationsFile)
	}

	path, err := comp.Reader.Lookup(set.DatasetsDir, req.Dataset, registry.DatasetExts)
	if err != nil {
		return AnnotateResult{}, err
	}
	records, fileID, err := loadDataset(ctx, comp, path, logger)
	if err != nil {
		return AnnotateResult{}, err
	}
	records = contract.Truncate(records, req.Limit)

	term := set.Term
	term.FileStart(string(fileID), len(records))
	t0 := time.Now()
	opts.Progress = term.FileProgress
	t := logger.StartWithKV("annotate", "label", string(fileID), map[string]string{
		"seed":        strconv.FormatInt(opts.Seed, 10),
		"label_field": opts.LabelField,
		"text_field":  opts.TextField,
		"limit":       strconv.Itoa(req.Limit),
	})
	as, err := comp.Builder.Build(ctx, records, opts)
	if err != nil {
		t.Fail(err)
		term.FileFinish(false, 0, time.Since(t0))
		return AnnotateResult{}, err
	}
	t.Finish("labeled", int64(len(as.Items)))
	for _, it := range as.Items {
		if s, ok := it.Payload[opts.LabelField].AsString(); ok {
			diag.IncLabel(s)
		}
	}

	if err := persist(ctx, comp, comp.Exporters[persistFormat], as, out, logger); err != nil {
		term.FileFinish(false, len(as.Items), time.Since(t0))
		return AnnotateResult{}, err
	}
	term.FileFinish(true, len(as.Items), time.Since(t0))
	return AnnotateResult{Output: out, Set: as}, nil
}

// loadDataset 打开并按扩展名选择 Loader 解码。
func loadDataset(ctx context.Context, comp Components, path string, logger *diag.Logger) ([]contract.Record, contract.FileID, error) {
	format, err := registry.FormatOf(path)
	if err != nil {
		return nil, "", err
	}
	loader := comp.Loaders[format]
	if loader == nil {
		return nil, "", fmt.Errorf("%w: no loader for %s", contract.ErrDatasetFormat, format)
	}
	fileID, rc, err := comp.Reader.Open(ctx, path)
	if err != nil {
		return nil, "", err
	}
	defer rc.Close()
	t := logger.StartWithKV("loader", "decode", string(fileID), map[string]string{"format": format})
	records, err := loader.Load(ctx, rc)
	if err != nil {
		t.Fail(err)
		return nil, fileID, fmt.Errorf("%s: %w", fileID, err)
	}
	t.Finish("decoded", int64(len(records)))
	diag.AddRecords("loader", len(records))
	return records, fileID, nil
}

// persist 编码到内存后交给 Writer，避免半截文件。
func persist(ctx context.Context, comp Components, e contract.Exporter, as contract.AnnotationSet, out string, logger *diag.Logger) error {
	var buf bytes.Buffer
	if err := e.Encode(ctx, as, &buf); err != nil {
		return fmt.Errorf("encode %s: %w", out, err)
	}
	t := logger.StartWithKV("writer", "write", out, map[string]string{"bytes": strconv.Itoa(buf.Len())})
	if err := comp.Writer.Write(ctx, contract.ArtifactID(out), &buf); err != nil {
		t.Fail(err)
		return err
	}
	t.Finish("written", int64(len(as.Items)))
	return nil
}

// Check 读取标注文件并校验，返回规范化后的集合。违例聚合在 *contract.SchemaError 中。
func Check(ctx context.Context, comp Components, path string, logger *diag.Logger) (contract.AnnotationSet, error) {
	if comp.Reader == nil {
		return contract.AnnotationSet{}, errors.New("pipeline: missing reader")
	}
	fileID, b, err := comp.Reader.ReadAll(ctx, path)
	if err != nil {
		return contract.AnnotationSet{}, err
	}
	t := logger.StartWithKV("validator", "validate", string(fileID), nil)
	as, err := contract.Validate(b)
	if err != nil {
		var se *contract.SchemaError
		if errors.As(err, &se) {
			logger.Debug("validator", "violations", string(fileID), map[string]string{"count": strconv.Itoa(len(se.Violations))})
		}
		t.Fail(err)
		return contract.AnnotationSet{}, err
	}
	t.Finish("valid", int64(len(as.Items)))
	return as, nil
}

// ExportRequest: 将标注文件导出为 csv 或 json。
type ExportRequest struct {
	Input string
	// Format: csv|json；空则为 csv。
	Format string
	// Output: 空则由输入路径推导（.csv 或 .export.json）。
	Output string
}

// DefaultExportPath 推导默认导出路径：csv 替换扩展名为 .csv，json 替换为 .export.json。
func DefaultExportPath(input, format string) string {
	stem := strings.TrimSuffix(input, filepath.Ext(input))
	if format == "json" {
		return stem + ".export.json"
	}
	return stem + ".csv"
}

// Export 校验输入后按格式编码写出，返回输出路径。
func Export(ctx context.Context, comp Components, set Settings, req ExportRequest, logger *diag.Logger) (string, error) {
	if err := sanity(comp, set); err != nil {
		return "", fmt.Errorf("sanity: %w", err)
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format == "" {
		format = "csv"
	}
	e := comp.Exporters[format]
	if e == nil {
		return "", fmt.Errorf("%w: export format %q", contract.ErrInvalidInput, req.Format)
	}
	out := req.Output
	if strings.TrimSpace(out) == "" {
		if req.Input == "-" {
			return "", fmt.Errorf("%w: --output required when reading stdin", contract.ErrInvalidInput)
		}
		out = DefaultExportPath(req.Input, format)
	}
	as, err := Check(ctx, comp, req.Input, logger)
	if err != nil {
		return "", err
	}
	term := set.Term
	term.FileStart(req.Input, len(as.Items))
	t0 := time.Now()
	if err := persist(ctx, comp, e, as, out, logger); err != nil {
		term.FileFinish(false, 0, time.Since(t0))
		return "", err
	}
	term.FileFinish(true, len(as.Items), time.Since(t0))
	return out, nil
}

// Summarize 校验标注文件并统计标签分布；labelKey 为空时取 Settings.LabelField。
func Summarize(ctx context.Context, comp Components, set Settings, path, labelKey string, logger *diag.Logger) (stats.Summary, error) {
	as, err := Check(ctx, comp, path, logger)
	if err != nil {
		return stats.Summary{}, err
	}
	key := firstNonEmpty(labelKey, set.LabelField)
	t := logger.StartWithKV("stats", "summarize", path, map[string]string{"label_field": key})
	s := stats.Summarize(as, key)
	t.Finish("summarized", int64(s.Total))
	return s, nil
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
