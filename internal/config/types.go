package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// 数据集仓库与标注输出目录；命令执行前确保存在。
	DatasetsDir    string `json:"datasets_dir"`
	AnnotationsDir string `json:"annotations_dir"`

	Logging  Logging  `json:"logging"`
	Annotate Annotate `json:"annotate"`
	Metrics  Metrics  `json:"metrics"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 日志等级与目录（"-" 表示写 stderr）。
type Logging struct {
	Level string `json:"level"`
	Dir   string `json:"dir"`
}

// Annotate: annotate/stats 的默认参数，命令行旗标可逐项覆盖。
type Annotate struct {
	LabelField string `json:"label_field"`
	TextField  string `json:"text_field"`
	// Seed 为指针以区分“未设置”与显式 0。
	Seed   *int64 `json:"seed"`
	Source string `json:"source"`
}

// Metrics: 设置 file 时在命令结束后写出 Prometheus 文本格式指标。
type Metrics struct {
	File string `json:"file"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader  string `json:"reader"`
	Labeler string `json:"labeler"`
	Builder string `json:"builder"`
	Writer  string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader     json.RawMessage `json:"reader"`
	CSV        json.RawMessage `json:"csv"`
	JSON       json.RawMessage `json:"json"`
	XLSX       json.RawMessage `json:"xlsx"`
	Labeler    json.RawMessage `json:"labeler"`
	CSVExport  json.RawMessage `json:"csv_export"`
	JSONExport json.RawMessage `json:"json_export"`
	Writer     json.RawMessage `json:"writer"`
}
