package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"annotatorx/internal/pipeline"
	"annotatorx/internal/stats"
	"annotatorx/pkg/contract"
)

// action 为解析完成、待执行的命令。
type action func(ctx context.Context, e env) error

// parser 解析命令参数，返回 action 与终端摘要。
type parser func(args []string, stderr io.Writer) (action, string, error)

var commands = map[string]parser{
	"ingest":   parseIngest,
	"annotate": parseAnnotate,
	"validate": parseValidate,
	"export":   parseExport,
	"stats":    parseStats,
}

// usageError: 参数个数或取值不合法（退出码 2）。
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

// reportedError: 已在 stdout 给出结果的失败，调用方不再重复打印。
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// parseInterleaved 允许旗标出现在位置参数前后；"--" 之后全部视为位置参数。
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return pos, nil
		}
		// Parse 在 "--" 处停止并吞掉它
		consumed := len(args) - len(rest)
		if consumed > 0 && args[consumed-1] == "--" {
			return append(pos, rest...), nil
		}
		pos = append(pos, rest[0])
		args = rest[1:]
	}
}

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("annotatorx "+name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func onePositional(fs *flag.FlagSet, args []string, synopsis string) (string, error) {
	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return "", err
	}
	if len(pos) != 1 || strings.TrimSpace(pos[0]) == "" {
		return "", usageError{msg: "用法: annotatorx " + synopsis}
	}
	return pos[0], nil
}

func choice(flagName, got string, allowed ...string) error {
	if got == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(got, a) {
			return nil
		}
	}
	return usageError{msg: fmt.Sprintf("--%s: %q 不在 %s 之中", flagName, got, strings.Join(allowed, "|"))}
}

func parseIngest(args []string, stderr io.Writer) (action, string, error) {
	fs := newFlagSet("ingest", stderr)
	name := fs.String("name", "", "仓库内名称（缺省取源文件名去扩展名）")
	format := fs.String("format", "", "csv|json|xlsx（缺省按扩展名推断）")
	src, err := onePositional(fs, args, "ingest <file> [--name NAME] [--format csv|json|xlsx]")
	if err != nil {
		return nil, "", err
	}
	if err := choice("format", *format, "csv", "json", "xlsx"); err != nil {
		return nil, "", err
	}
	req := pipeline.IngestRequest{Source: src, Name: *name, Format: *format}
	return func(ctx context.Context, e env) error {
		dest, err := pipeline.Ingest(ctx, e.comp, e.set, req, e.log)
		if err != nil {
			return err
		}
		fprintf(e.out, "Ingested %s -> %s\n", src, dest)
		return nil
	}, src, nil
}

func parseAnnotate(args []string, stderr io.Writer) (action, string, error) {
	fs := newFlagSet("annotate", stderr)
	output := fs.String("output", "", "标注文件输出路径（缺省 <annotations_dir>/annotations.json）")
	labelField := fs.String("label-field", "", "标签字段名（覆盖配置）")
	textField := fs.String("text-field", "", "文本字段名（覆盖配置）")
	seed := fs.Int64("seed", 0, "随机种子（覆盖配置）")
	limit := fs.Int("limit", 0, "仅处理前 N 条；<=0 不限制")
	dataset, err := onePositional(fs, args, "annotate <dataset> [--output PATH] [--label-field F] [--text-field F] [--seed N] [--limit N]")
	if err != nil {
		return nil, "", err
	}
	req := pipeline.AnnotateRequest{
		Dataset:    dataset,
		Output:     *output,
		LabelField: *labelField,
		TextField:  *textField,
		Limit:      *limit,
	}
	// 仅显式给出 --seed 时覆盖配置（0 亦为合法种子）
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			v := *seed
			req.Seed = &v
		}
	})
	detail := dataset
	if req.Seed != nil {
		detail += " | seed=" + strconv.FormatInt(*req.Seed, 10)
	}
	return func(ctx context.Context, e env) error {
		res, err := pipeline.Annotate(ctx, e.comp, e.set, req, e.log)
		if err != nil {
			return err
		}
		fprintf(e.out, "Annotated %d records -> %s\n", len(res.Set.Items), res.Output)
		return nil
	}, detail, nil
}

func parseValidate(args []string, stderr io.Writer) (action, string, error) {
	fs := newFlagSet("validate", stderr)
	path, err := onePositional(fs, args, "validate <file>")
	if err != nil {
		return nil, "", err
	}
	return func(ctx context.Context, e env) error {
		_, err := pipeline.Check(ctx, e.comp, path, e.log)
		var se *contract.SchemaError
		switch {
		case err == nil:
			fprintf(e.out, "Validation passed\n")
			return nil
		case errors.As(err, &se):
			fprintf(e.out, "Validation failed:\n")
			for _, v := range se.Violations {
				fprintf(e.out, "  - %s\n", v)
			}
			return reportedError{err: err}
		default:
			return err
		}
	}, path, nil
}

func parseExport(args []string, stderr io.Writer) (action, string, error) {
	fs := newFlagSet("export", stderr)
	format := fs.String("format", "csv", "csv|json")
	output := fs.String("output", "", "输出路径（缺省替换扩展名为 .csv 或 .export.json）")
	path, err := onePositional(fs, args, "export <file> [--format csv|json] [--output PATH]")
	if err != nil {
		return nil, "", err
	}
	if err := choice("format", *format, "csv", "json"); err != nil {
		return nil, "", err
	}
	f := strings.ToLower(*format)
	req := pipeline.ExportRequest{Input: path, Format: f, Output: *output}
	return func(ctx context.Context, e env) error {
		out, err := pipeline.Export(ctx, e.comp, e.set, req, e.log)
		if err != nil {
			return err
		}
		fprintf(e.out, "Exported %s -> %s\n", strings.ToUpper(f), out)
		return nil
	}, path + " | " + f, nil
}

func parseStats(args []string, stderr io.Writer) (action, string, error) {
	fs := newFlagSet("stats", stderr)
	labelField := fs.String("label-field", "", "标签字段名（覆盖配置）")
	asJSON := fs.Bool("json", false, "输出 JSON 而非表格")
	path, err := onePositional(fs, args, "stats <file> [--label-field F] [--json]")
	if err != nil {
		return nil, "", err
	}
	return func(ctx context.Context, e env) error {
		sum, err := pipeline.Summarize(ctx, e.comp, e.set, path, *labelField, e.log)
		if err != nil {
			return err
		}
		if *asJSON {
			key := *labelField
			if key == "" {
				key = e.set.LabelField
			}
			b, err := stats.FormatJSON(sum, key)
			if err != nil {
				return err
			}
			_, err = e.out.Write(b)
			return err
		}
		_, err = io.WriteString(e.out, stats.FormatTable(sum))
		return err
	}, path, nil
}
