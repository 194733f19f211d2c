package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"annotatorx/internal/diag"
	"annotatorx/internal/pipeline"
	"annotatorx/pkg/contract"
	"annotatorx/pkg/registry"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.DatasetsDir) == "" {
		return errors.New("config: datasets_dir empty")
	}
	if strings.TrimSpace(cfg.AnnotationsDir) == "" {
		return errors.New("config: annotations_dir empty")
	}
	if strings.TrimSpace(cfg.Annotate.LabelField) == "" {
		return errors.New("config: annotate.label_field empty")
	}
	if strings.TrimSpace(cfg.Annotate.TextField) == "" {
		return errors.New("config: annotate.text_field empty")
	}
	if lv := strings.TrimSpace(cfg.Logging.Level); lv != "" && !diag.ValidLevel(lv) {
		return fmt.Errorf("config: logging.level %q (want debug|info|warn|error)", lv)
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	d := Defaults()
	if name := effName(cfg.Components.Reader, d.Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Labeler, d.Components.Labeler); registry.Labeler[name] == nil {
		return fmt.Errorf("config: labeler %q not registered", name)
	}
	if name := effName(cfg.Components.Builder, d.Components.Builder); registry.Builder[name] == nil {
		return fmt.Errorf("config: builder %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, d.Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	return nil
}

// Assemble 构造 Components 与 Settings。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	// 有效名称
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	ln := effName(cfg.Components.Labeler, d.Components.Labeler)
	bn := effName(cfg.Components.Builder, d.Components.Builder)
	wn := effName(cfg.Components.Writer, d.Components.Writer)

	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader: %w", err)
	}
	loaderOpts := map[string]json.RawMessage{
		registry.FormatCSV:  cfg.Options.CSV,
		registry.FormatJSON: cfg.Options.JSON,
		registry.FormatXLSX: cfg.Options.XLSX,
	}
	loaders := make(map[string]contract.Loader, len(registry.Loader))
	for format, newLoader := range registry.Loader {
		l, err := newLoader(loaderOpts[format])
		if err != nil {
			return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("loader %s: %w", format, err)
		}
		loaders[format] = l
	}
	lb, err := registry.Labeler[ln](cfg.Options.Labeler)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("labeler: %w", err)
	}
	b, err := registry.Builder[bn](lb)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("builder: %w", err)
	}
	exportOpts := map[string]json.RawMessage{
		"csv":  cfg.Options.CSVExport,
		"json": cfg.Options.JSONExport,
	}
	exps := make(map[string]contract.Exporter, len(registry.Exporter))
	for format, newExporter := range registry.Exporter {
		e, err := newExporter(exportOpts[format])
		if err != nil {
			return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("exporter %s: %w", format, err)
		}
		exps[format] = e
	}
	w, err := registry.Writer[wn](cfg.Options.Writer, "")
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer: %w", err)
	}
	store, err := registry.Writer[wn](cfg.Options.Writer, cfg.DatasetsDir)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer: %w", err)
	}

	comp := pipeline.Components{
		Reader:    r,
		Loaders:   loaders,
		Builder:   b,
		Exporters: exps,
		Writer:    w,
		Store:     store,
	}
	set := pipeline.Settings{
		DatasetsDir:    cfg.DatasetsDir,
		AnnotationsDir: cfg.AnnotationsDir,
		LabelField:     cfg.Annotate.LabelField,
		TextField:      cfg.Annotate.TextField,
		Source:         cfg.Annotate.Source,
	}
	if cfg.Annotate.Seed != nil {
		set.Seed = *cfg.Annotate.Seed
	}
	return comp, set, nil
}

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
