package diag

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// 进程内指标，命令结束时可落盘为 node_exporter textfile（metrics.file）：
//   - annotatorx_op_total{comp,stage,result}
//   - annotatorx_error_total{comp,code}
//   - annotatorx_op_duration_ms{comp,stage}
//   - annotatorx_records_total{comp}
//   - annotatorx_labels_total{label}
var (
	registry = prometheus.NewRegistry()

	opTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotatorx_op_total",
			Help: "Count of finished operations by component and result",
		},
		[]string{"comp", "stage", "result"},
	)

	errorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotatorx_error_total",
			Help: "Count of failed operations by component and error code",
		},
		[]string{"comp", "code"},
	)

	opDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "annotatorx_op_duration_ms",
			Help:    "Operation duration in milliseconds",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
		},
		[]string{"comp", "stage"},
	)

	recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotatorx_records_total",
			Help: "Number of records processed by component",
		},
		[]string{"comp"},
	)

	labelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "annotatorx_labels_total",
			Help: "Number of generated labels by value",
		},
		[]string{"label"},
	)
)

func init() {
	registry.MustRegister(opTotal, errorTotal, opDuration, recordsTotal, labelsTotal)
}

// Registry 返回进程内指标注册表。
func Registry() prometheus.Gatherer { return registry }

// IncOp 累加操作计数（result=success|error）。
func IncOp(comp, stage, result string) {
	opTotal.WithLabelValues(comp, stage, result).Inc()
}

// IncError 按分类累加错误计数。
func IncError(comp, code string) {
	errorTotal.WithLabelValues(comp, code).Inc()
}

// ObserveDuration 记录阶段耗时（毫秒）。
func ObserveDuration(comp, stage string, durMS int64) {
	opDuration.WithLabelValues(comp, stage).Observe(float64(durMS))
}

// AddRecords 累加处理的记录数。
func AddRecords(comp string, n int) {
	if n > 0 {
		recordsTotal.WithLabelValues(comp).Add(float64(n))
	}
}

// IncLabel 累加生成的标签计数。
func IncLabel(label string) {
	labelsTotal.WithLabelValues(label).Inc()
}

// WriteMetrics 以 textfile 格式原子写出全部指标；path 为空时不做任何事。
func WriteMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
