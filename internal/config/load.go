package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"annotatorx/pkg/contract"
)

// EnvPrefix: 本工具读取的环境变量前缀。
const EnvPrefix = "ANNOTATORX_"

// Defaults 返回带有安全默认值的 Config 雏形。
func Defaults() Config {
	seed := int64(0)
	return Config{
		DatasetsDir:    "datasets",
		AnnotationsDir: "annotations",
		Logging:        Logging{Level: "info", Dir: "logs"},
		Annotate: Annotate{
			LabelField: "label",
			TextField:  "text",
			Seed:       &seed,
			Source:     contract.DefaultSource,
		},
		Components: Components{
			Reader:  "fs",
			Labeler: "hashshuffle",
			Builder: "itemset",
			Writer:  "fs",
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。空值不覆盖。
func Merge(base, over Config) Config {
	out := base
	if s := strings.TrimSpace(over.DatasetsDir); s != "" {
		out.DatasetsDir = s
	}
	if s := strings.TrimSpace(over.AnnotationsDir); s != "" {
		out.AnnotationsDir = s
	}

	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}
	if s := strings.TrimSpace(over.Logging.Dir); s != "" {
		out.Logging.Dir = s
	}

	if over.Annotate.LabelField != "" {
		out.Annotate.LabelField = over.Annotate.LabelField
	}
	if over.Annotate.TextField != "" {
		out.Annotate.TextField = over.Annotate.TextField
	}
	if over.Annotate.Seed != nil {
		v := *over.Annotate.Seed
		out.Annotate.Seed = &v
	}
	if over.Annotate.Source != "" {
		out.Annotate.Source = over.Annotate.Source
	}

	if s := strings.TrimSpace(over.Metrics.File); s != "" {
		out.Metrics.File = s
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Labeler != "" {
		out.Components.Labeler = over.Components.Labeler
	}
	if over.Components.Builder != "" {
		out.Components.Builder = over.Components.Builder
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	mergeRaw(&out.Options.Reader, over.Options.Reader)
	mergeRaw(&out.Options.CSV, over.Options.CSV)
	mergeRaw(&out.Options.JSON, over.Options.JSON)
	mergeRaw(&out.Options.XLSX, over.Options.XLSX)
	mergeRaw(&out.Options.Labeler, over.Options.Labeler)
	mergeRaw(&out.Options.CSVExport, over.Options.CSVExport)
	mergeRaw(&out.Options.JSONExport, over.Options.JSONExport)
	mergeRaw(&out.Options.Writer, over.Options.Writer)
	return out
}

func mergeRaw(dst *json.RawMessage, over json.RawMessage) {
	if len(over) > 0 {
		*dst = cloneRaw(over)
	}
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 ANNOTATORX_；集合之外的键忽略；空值视为未设置。
// 支持：DATASETS_DIR, ANNOTATIONS_DIR, LOG_LEVEL, LOG_DIR, LABEL_FIELD, TEXT_FIELD,
// SEED, SOURCE, METRICS_FILE, COMPONENTS_{READER,LABELER,BUILDER,WRITER}。
// CONFIG_FILE/CONFIG_JSON 决定配置来源，由调用方读取。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		nk := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := strings.TrimSpace(kv[eq+1:])
		if val == "" {
			continue
		}
		switch nk {
		case "DATASETS_DIR":
			over.DatasetsDir = val
		case "ANNOTATIONS_DIR":
			over.AnnotationsDir = val
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_DIR":
			over.Logging.Dir = val
		case "LABEL_FIELD":
			over.Annotate.LabelField = val
		case "TEXT_FIELD":
			over.Annotate.TextField = val
		case "SEED":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return Config{}, fmt.Errorf("%sSEED: %q is not an integer", EnvPrefix, val)
			}
			over.Annotate.Seed = &n
		case "SOURCE":
			over.Annotate.Source = val
		case "METRICS_FILE":
			over.Metrics.File = val
		case "COMPONENTS_READER":
			over.Components.Reader = val
		case "COMPONENTS_LABELER":
			over.Components.Labeler = val
		case "COMPONENTS_BUILDER":
			over.Components.Builder = val
		case "COMPONENTS_WRITER":
			over.Components.Writer = val
		default:
			// 非本集合的键忽略
		}
	}
	return over, nil
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}
