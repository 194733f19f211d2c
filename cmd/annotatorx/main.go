package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	cfgpkg "annotatorx/internal/config"
	"annotatorx/internal/diag"
	"annotatorx/internal/pipeline"
)

// 退出码
const (
	exitOK     = 0
	exitFail   = 1
	exitUsage  = 2
	exitConfig = 3
)

const usageText = `用法: annotatorx [全局选项] <命令> [参数]

命令:
  ingest <file> [--name NAME] [--format csv|json|xlsx]   复制数据集到仓库
  annotate <dataset> [--output PATH] [--label-field F] [--text-field F] [--seed N] [--limit N]
                                                         标注仓库中的数据集
  validate <file>                                        校验标注文件
  export <file> [--format csv|json] [--output PATH]      导出标注文件
  stats <file> [--label-field F] [--json]                标签分布统计
  init-config [dir]                                      生成默认 config.json 与 .env 模板

全局选项:
`

// CLI：全局旗标在命令之前；命令旗标可出现在位置参数前后。
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	start := time.Now()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := loadDotEnv(".env"); err != nil {
		fprintf(stderr, "提示：.env 解析失败（已跳过）：%v\n", err)
	}

	gfs := flag.NewFlagSet("annotatorx", flag.ContinueOnError)
	gfs.SetOutput(stderr)
	var (
		flagConfig   string
		flagLogLevel string
		flagMetrics  string
		flagStatus   bool
	)
	gfs.StringVar(&flagConfig, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	gfs.StringVar(&flagLogLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	gfs.StringVar(&flagMetrics, "metrics-file", "", "命令结束后写出 Prometheus 文本指标的路径（覆盖配置）")
	gfs.BoolVar(&flagStatus, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	gfs.Usage = func() {
		fprintf(stderr, "%s", usageText)
		gfs.PrintDefaults()
	}
	if err := gfs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	rest := gfs.Args()
	if len(rest) == 0 {
		gfs.Usage()
		return exitUsage
	}
	name, cmdArgs := rest[0], rest[1:]

	if name == "init-config" {
		return runInitConfig(cmdArgs, stdout, stderr)
	}
	parse, ok := commands[name]
	if !ok {
		fprintf(stderr, "未知命令: %s\n\n", name)
		gfs.Usage()
		return exitUsage
	}
	// 命令参数先于配置解析：用法错误与配置无关
	act, detail, err := parse(cmdArgs, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		var ue usageError
		if errors.As(err, &ue) {
			fprintf(stderr, "%v\n", err)
		}
		return exitUsage
	}

	cfg, err := loadConfig(flagConfig)
	if err != nil {
		fprintf(stderr, "配置解析失败: %v\n", err)
		return exitConfig
	}
	// CLI 覆盖
	cfg = cfgpkg.Merge(cfg, cfgpkg.Config{
		Logging: cfgpkg.Logging{Level: flagLogLevel},
		Metrics: cfgpkg.Metrics{File: flagMetrics},
	})
	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(stderr, "配置校验失败: %v\n", err)
		// 提示打印有效配置，便于诊断
		_ = dumpConfig(stderr, cfg)
		return exitConfig
	}

	logger := diag.NewLogger(diag.NewCorrID(), cfg.Logging.Level, cfg.Logging.Dir)
	defer logger.Close()
	defer func() {
		if err := diag.WriteMetrics(cfg.Metrics.File); err != nil {
			fprintf(stderr, "提示：指标写出失败：%v\n", err)
		}
	}()

	if err := ensureDirs(cfg.DatasetsDir, cfg.AnnotationsDir); err != nil {
		fprintf(stderr, "仓库目录不可创建: %v\n", err)
		logger.Error("cli", string(diag.Classify(err)), "first error", &start)
		return exitConfig
	}
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(stderr, "装配失败: %v\n", err)
		logger.Error("cli", string(diag.Classify(err)), "first error", &start)
		return exitConfig
	}

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	term := diag.NewTerminal(stderr, flagStatus)
	set.Term = term
	term.RunStart(name, detail)

	logger.Debug("config", "effective", "", map[string]string{
		"command":         name,
		"datasets_dir":    cfg.DatasetsDir,
		"annotations_dir": cfg.AnnotationsDir,
		"reader":          cfg.Components.Reader,
		"labeler":         cfg.Components.Labeler,
		"builder":         cfg.Components.Builder,
		"writer":          cfg.Components.Writer,
		"metrics_file":    cfg.Metrics.File,
	})

	t := logger.Start("cli", name)
	e := env{comp: comp, set: set, log: logger, out: stdout}
	if err := act(context.Background(), e); err != nil {
		t.Fail(err)
		var re reportedError
		if !errors.As(err, &re) && !errors.Is(err, context.Canceled) {
			fprintf(stderr, "%s 失败: %v\n", name, err)
		}
		term.RunFinish(false, time.Since(start))
		return exitFail
	}
	t.Finish(name, 0)
	term.RunFinish(true, time.Since(start))
	return exitOK
}

// loadConfig 按 默认值 < JSON < ENV 合并（CLI 覆盖由调用方追加）。
// JSON 来源：ANNOTATORX_CONFIG_JSON，否则 --config，否则 ANNOTATORX_CONFIG_FILE，否则 ./config.json（若存在）。
func loadConfig(path string) (cfgpkg.Config, error) {
	var raw []byte
	if s := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); s != "" {
		raw = []byte(s)
	}
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	cfg := cfgpkg.Defaults()
	if path != "" || len(raw) > 0 {
		base, err := cfgpkg.LoadJSON(path, raw)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}
	over, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	return cfgpkg.Merge(cfg, over), nil
}

func ensureDirs(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// runInitConfig: init-config [dir]，目录缺省为当前目录。已存在的 config.json 不覆盖（返回配置错误）。
func runInitConfig(args []string, stdout, stderr io.Writer) int {
	if len(args) > 1 {
		fprintf(stderr, "用法: annotatorx init-config [dir]\n")
		return exitUsage
	}
	dir := "."
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		dir = strings.TrimSpace(args[0])
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return exitConfig
	}
	cfgPath := filepath.Join(dir, "config.json")
	if err := writeConfig(cfgPath, cfgpkg.DefaultTemplateConfig()); err != nil {
		fprintf(stderr, "生成默认配置失败: %v\n", err)
		return exitConfig
	}
	// 生成 .env 模板（不覆盖已存在文件）。
	envPath := filepath.Join(dir, ".env")
	if err := writeDotEnv(envPath); err != nil {
		fprintf(stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	fprintf(stdout, "Wrote %s\n", cfgPath)
	return exitOK
}

func fprintf(w io.Writer, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(w io.Writer, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	fprintf(w, "有效配置:\n%s\n", b)
	return nil
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

// loadDotEnv 读取 .env 并注入进程环境；不覆盖已存在的环境变量，文件不存在时忽略。
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(cfgpkg.DotEnvTemplate())
	return err
}

// env 为命令执行期依赖。
type env struct {
	comp pipeline.Components
	set  pipeline.Settings
	log  *diag.Logger
	out  io.Writer
}
