package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ErrCodeNotFound 表示 CLI 未给全路径且 cwd 下没有 pmt.json。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingPath 表示 source/dest 既没出现在 CLI 也没出现在配置文件。
	ErrCodeMissingPath = "config_missing_path"
)

// FileName 是配置文件的固定名字，只在 cwd 下查找。
const FileName = "pmt.json"

// CLIArgs 是命令行解析出的入口参数，布尔项保留“是否显式指定”的信息，
// 保证 CLI 永远能覆盖配置文件（包括 --skip-mov=false 这种否定覆盖）。
type CLIArgs struct {
	Source string
	Dest   string

	Workers    int
	WorkersSet bool

	SkipMov    bool
	SkipMovSet bool

	StopOnError    bool
	StopOnErrorSet bool

	DryRun bool

	Flat    bool // 只扫源目录第一层
	FlatSet bool

	ReportPath string
}

// FileConfig 对应 pmt.json 的解析结构。
type FileConfig struct {
	Source      string      `json:"source"`
	Dest        string      `json:"dest"`
	Workers     int         `json:"workers"`
	SkipMov     *bool       `json:"skip_mov"`
	StopOnError *bool       `json:"stop_on_error"`
	Recursive   *bool       `json:"recursive"`
	ExcludeDirs []string    `json:"exclude_dirs"`
	Sync        *SyncConfig `json:"sync"`
}

// SyncConfig 是 sync 子命令的可选配置段。
type SyncConfig struct {
	Dest   string `json:"dest"`
	Delete *bool  `json:"delete"`
}

// EffectiveConfig 是合并并规范化后的最终配置，实现层直接消费，
// 不再做二次默认/优先级判断。
type EffectiveConfig struct {
	Source string
	Dest   string

	Workers     int
	SkipMov     bool
	StopOnError bool
	DryRun      bool
	Recursive   bool
	ExcludeDirs []string
	ReportPath  string

	SyncDest   string
	SyncDelete bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code  string
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q，且命令行未给全 source/dest", e.Code, e.Path)
	case ErrCodeMissingPath:
		return fmt.Sprintf("%s：缺少必填路径 %s（命令行或 %q 均未提供）", e.Code, e.Field, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/pmt.json（可选）并与 CLI 参数合并。
//
// 覆盖优先级（固定）：
// - source/dest：CLI 位置参数 > 配置文件；两边都没有才报错
// - 布尔与数值项：CLI 显式指定 > 配置文件 > 内置默认
// - exclude_dirs / sync 段：仅由配置文件控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	source := strings.TrimSpace(cli.Source)
	if source == "" {
		source = strings.TrimSpace(fc.Source)
	}
	dest := strings.TrimSpace(cli.Dest)
	if dest == "" {
		dest = strings.TrimSpace(fc.Dest)
	}
	if source == "" || dest == "" {
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		field := "source"
		if source != "" {
			field = "dest"
		}
		return EffectiveConfig{}, &Error{Code: ErrCodeMissingPath, Path: cfgPath, Field: field}
	}

	workers := 0
	if cli.WorkersSet {
		workers = cli.Workers
	} else if fc.Workers != 0 {
		workers = fc.Workers
	}
	if workers == 0 {
		workers = runtime.NumCPU()
	}
	// 约定范围 [1, 32]，超出截断。
	if workers < 1 {
		workers = 1
	}
	if workers > 32 {
		workers = 32
	}

	skipMov := false
	if cli.SkipMovSet {
		skipMov = cli.SkipMov
	} else if fc.SkipMov != nil {
		skipMov = *fc.SkipMov
	}

	stopOnError := false
	if cli.StopOnErrorSet {
		stopOnError = cli.StopOnError
	} else if fc.StopOnError != nil {
		stopOnError = *fc.StopOnError
	}

	recursive := true
	if cli.FlatSet {
		recursive = !cli.Flat
	} else if fc.Recursive != nil {
		recursive = *fc.Recursive
	}

	syncDest := ""
	syncDelete := false
	if fc.Sync != nil {
		syncDest = absCleanFrom(cwdAbs, fc.Sync.Dest)
		if fc.Sync.Delete != nil {
			syncDelete = *fc.Sync.Delete
		}
	}

	return EffectiveConfig{
		Source:      absCleanFrom(cwdAbs, source),
		Dest:        absCleanFrom(cwdAbs, dest),
		Workers:     workers,
		SkipMov:     skipMov,
		StopOnError: stopOnError,
		DryRun:      cli.DryRun,
		Recursive:   recursive,
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		ReportPath:  strings.TrimSpace(cli.ReportPath),
		SyncDest:    syncDest,
		SyncDelete:  syncDelete,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
