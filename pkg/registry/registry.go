package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"annotatorx/pkg/contract"
	itemset "annotatorx/plugins/assembler/itemset"
	csvflat "annotatorx/plugins/exporter/csvflat"
	jsonindent "annotatorx/plugins/exporter/jsonindent"
	hashshuffle "annotatorx/plugins/labeler/hashshuffle"
	lcsv "annotatorx/plugins/loader/csvfile"
	ljson "annotatorx/plugins/loader/jsonfile"
	lxlsx "annotatorx/plugins/loader/xlsxfile"
	rfs "annotatorx/plugins/reader/filesystem"
	wfs "annotatorx/plugins/writer/filesystem"
)

// 数据集格式名（同时是 Loader 注册表的键）。
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

// DatasetExts: annotate 在仓库中查找数据集时的扩展名优先级。
var DatasetExts = []string{".csv", ".json", ".xlsx"}

// FormatOf 按扩展名（大小写不敏感）推断数据集格式；不支持的扩展名返回 ErrDatasetFormat。
func FormatOf(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", contract.ErrDatasetFormat, path)
	}
	return "", fmt.Errorf("%w: unsupported extension %s", contract.ErrDatasetFormat, ext)
}

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: options: %v", contract.ErrInvalidInput, err)
	}
	return nil
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewLoader 工厂签名：接收原样 JSON Options。
type NewLoader func(raw json.RawMessage) (contract.Loader, error)

// NewLabeler 工厂签名：接收原样 JSON Options。
type NewLabeler func(raw json.RawMessage) (contract.Labeler, error)

// NewBuilder 工厂签名：Builder 持有所用的 Labeler。
type NewBuilder func(l contract.Labeler) (contract.Builder, error)

// NewExporter 工厂签名：接收原样 JSON Options。
type NewExporter func(raw json.RawMessage) (contract.Exporter, error)

// NewWriter 工厂签名：root 非空时覆盖 options 中的 output_dir。
type NewWriter func(raw json.RawMessage, root string) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Loader 工厂注册表，键为数据集格式。
var Loader = map[string]NewLoader{
	FormatCSV: func(raw json.RawMessage) (contract.Loader, error) {
		var opts lcsv.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return lcsv.New(&opts)
	},
	FormatJSON: func(raw json.RawMessage) (contract.Loader, error) {
		var opts ljson.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ljson.New(&opts), nil
	},
	FormatXLSX: func(raw json.RawMessage) (contract.Loader, error) {
		var opts lxlsx.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return lxlsx.New(&opts), nil
	},
}

// Labeler 工厂注册表。
var Labeler = map[string]NewLabeler{
	// hashshuffle: sha256 取模 + 按种子打乱的标签表
	"hashshuffle": func(raw json.RawMessage) (contract.Labeler, error) {
		var opts hashshuffle.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return hashshuffle.New(&opts), nil
	},
}

// Builder 工厂注册表。
var Builder = map[string]NewBuilder{
	"itemset": func(l contract.Labeler) (contract.Builder, error) { return itemset.New(l) },
}

// Exporter 工厂注册表，键为导出格式。
var Exporter = map[string]NewExporter{
	"csv": func(raw json.RawMessage) (contract.Exporter, error) {
		var opts csvflat.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return csvflat.New(&opts), nil
	},
	"json": func(raw json.RawMessage) (contract.Exporter, error) {
		var opts jsonindent.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return jsonindent.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 本地文件系统 Writer（默认原子写）
	"fs": func(raw json.RawMessage, root string) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		w, err := wfs.New(&opts)
		if err != nil {
			return nil, err
		}
		if root != "" {
			return w.WithRoot(root), nil
		}
		return w, nil
	},
}
