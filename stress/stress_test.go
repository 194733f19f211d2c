package stress

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	cfgpkg "annotatorx/internal/config"
	"annotatorx/internal/diag"
	"annotatorx/internal/pipeline"
)

// baseConfig 构造以 root 为仓库根目录的最小配置。
func baseConfig(root string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.DatasetsDir = filepath.Join(root, "datasets")
	cfg.AnnotationsDir = filepath.Join(root, "annotations")
	cfg.Logging.Level = "error"
	return cfg
}

// writeDataset 生成 n 行 CSV，文本含重复与多字节字符。
func writeDataset(path string, n int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "id,text,rating")
	words := []string{"great", "terrible", "okay", "好用", "не плохо", "meh, fine"}
	for i := 0; i < n; i++ {
		fmt.Fprintf(w, "%d,\"review %d: %s\",%d\n", i+1, i%997, words[i%len(words)], i%5+1)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// runAnnotate 装配组件并标注 dataset，返回输出字节。
func runAnnotate(cfg cfgpkg.Config, dataset, output string) ([]byte, error) {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return nil, err
	}
	seed := int64(42)
	logger := diag.NewLoggerTo("stress", "error", nil)
	if _, err := pipeline.Annotate(context.Background(), comp, set, pipeline.AnnotateRequest{Dataset: dataset, Output: output, Seed: &seed}, logger); err != nil {
		return nil, err
	}
	return os.ReadFile(output)
}

// TestStress 在不同数据规模下重复标注，校验结果逐字节一致并记录延迟统计。
func TestStress(t *testing.T) {
	if testing.Short() {
		t.Skip("short 模式跳过压测")
	}
	sizes := []int{1000, 10000, 50000}
	for _, n := range sizes {
		t.Run(fmt.Sprintf("rows_%d", n), func(t *testing.T) {
			root := t.TempDir()
			cfg := baseConfig(root)
			for _, d := range []string{cfg.DatasetsDir, cfg.AnnotationsDir} {
				if err := os.MkdirAll(d, 0o755); err != nil {
					t.Fatalf("mkdir: %v", err)
				}
			}
			if err := writeDataset(filepath.Join(cfg.DatasetsDir, "bulk.csv"), n); err != nil {
				t.Fatalf("gen dataset: %v", err)
			}

			const runs = 3
			var first []byte
			latencies := make([]time.Duration, 0, runs)
			for i := 0; i < runs; i++ {
				out := filepath.Join(cfg.AnnotationsDir, fmt.Sprintf("run-%d.json", i))
				start := time.Now()
				got, err := runAnnotate(cfg, "bulk", out)
				dur := time.Since(start)
				if err != nil {
					t.Fatalf("run %d: %v", i, err)
				}
				latencies = append(latencies, dur)
				if first == nil {
					first = got
				} else if !bytes.Equal(first, got) {
					t.Fatalf("run %d: 输出与首次运行不一致", i)
				}
			}

			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var total time.Duration
			for _, d := range latencies {
				total += d
			}
			avg := total / time.Duration(len(latencies))
			idx := int(math.Ceil(float64(len(latencies))*0.95)) - 1
			if idx < 0 {
				idx = 0
			}
			p95 := latencies[idx]
			rate := float64(n) / avg.Seconds()
			t.Logf("行数%d 平均%v 95%%延迟%v 吞吐%.0f 条/秒 输出%d 字节", n, avg, p95, rate, len(first))
		})
	}
}
