package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 仓库目录与字段名取默认值；
// - 组件名采用仓库内置实现；
// - 选项包含全部键并给出中性默认值，便于按需修改。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "allow_stdin": true
}`)
	cfg.Options.CSV = json.RawMessage(`{
  "delimiter": ",",
  "infer_types": true,
  "lazy_quotes": false,
  "trim_leading_space": false
}`)
	cfg.Options.JSON = json.RawMessage(`{
  "data_key": "data"
}`)
	cfg.Options.XLSX = json.RawMessage(`{
  "sheet": "",
  "infer_types": true
}`)
	// hashshuffle 无配置项，保持空对象
	cfg.Options.Labeler = json.RawMessage(`{}`)
	cfg.Options.CSVExport = json.RawMessage(`{
  "crlf": false
}`)
	cfg.Options.JSONExport = json.RawMessage(`{
  "indent": "  "
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "atomic": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536
}`)
	return cfg
}

// DotEnvTemplate 返回 .env 模板内容（由 init-config 生成）。
func DotEnvTemplate() string {
	return `# annotatorx .env 模板（由 init-config 生成）
# 优先级：CLI > ENV(.env) > JSON > 默认值
# 空值表示未设置。

# 配置来源（可二选一）
ANNOTATORX_CONFIG_FILE=
ANNOTATORX_CONFIG_JSON=

# 仓库目录
ANNOTATORX_DATASETS_DIR=
ANNOTATORX_ANNOTATIONS_DIR=

# 日志与指标
ANNOTATORX_LOG_LEVEL=
ANNOTATORX_LOG_DIR=
ANNOTATORX_METRICS_FILE=

# 标注默认参数
ANNOTATORX_LABEL_FIELD=
ANNOTATORX_TEXT_FIELD=
ANNOTATORX_SEED=
ANNOTATORX_SOURCE=

# 组件选择
ANNOTATORX_COMPONENTS_READER=
ANNOTATORX_COMPONENTS_LABELER=
ANNOTATORX_COMPONENTS_BUILDER=
ANNOTATORX_COMPONENTS_WRITER=
`
}
