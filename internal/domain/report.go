package domain

import (
	"sort"
	"time"
)

const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	FileStatusPlanned = "planned"
	FileStatusCopied  = "copied"
	FileStatusSkipped = "skipped"
	FileStatusFailed  = "failed"
)

const (
	ErrCodeSourceUnreadable     = "source_unreadable"
	ErrCodeMetadataUnavailable  = "metadata_unavailable"
	ErrCodeCopyFailed           = "copy_failed"
	ErrCodeAmbiguousAssociation = "ambiguous_association"
	ErrCodeTargetConflict       = "target_conflict"
	ErrCodeIOFailed             = "io_failed"
	ErrCodeSyncFailed           = "sync_failed"
	ErrCodeConfigNotFound       = "config_not_found"
	ErrCodeConfigInvalid        = "config_invalid"
	ErrCodeConfigMissingPath    = "config_missing_path"
)

// RunReport 是对外稳定输出（stdout JSON / --report 文件）的结构。
type RunReport struct {
	Action string `json:"action"` // "import" | "sync"
	Source string `json:"source"`
	Dest   string `json:"dest"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []GroupResult `json:"items"`
}

// ReportSummary 按文件计数（一个 group 可能同时产生 copied 与 skipped）。
type ReportSummary struct {
	Groups   int `json:"groups"`
	Copied   int `json:"copied"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
	Ignored  int `json:"ignored"` // 扫描阶段被过滤的条目（.mov 跳过）
	Warnings int `json:"warnings"`
}

// GroupResult 是一个 PhotoGroup 的处理结果；Primary=="" 表示合成条目
// （source_unreadable、config 错误等整轮级失败）。
type GroupResult struct {
	Primary    string `json:"primary"`
	Folder     string `json:"folder"`
	TimeSource string `json:"time_source"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Warnings []Warning    `json:"warnings"`
	Files    []FileResult `json:"files"`
}

// Warning 是条目级的非致命问题（metadata_unavailable / ambiguous_association）。
type Warning struct {
	Code string `json:"code"`
	Path string `json:"path"`
	Msg  string `json:"msg"`
}

type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) items 稳定排序：按 primary 字典序；primary=="" 的条目排在最后
// 3) summary 的文件计数与 warning 计数由 items 计算得出（Ignored 除外，
//    它来自扫描阶段，调用方须在 Finalize 前填好）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Primary
		b := r.Items[j].Primary
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	ignored := r.Summary.Ignored
	s := ReportSummary{Ignored: ignored}
	for _, it := range r.Items {
		if it.Primary != "" || len(it.Files) > 0 {
			s.Groups++
		}
		s.Warnings += len(it.Warnings)
		if it.Status == StatusFailed && len(it.Files) == 0 {
			// 合成条目（整轮级失败）也必须体现在 failed 计数里。
			s.Failed++
			continue
		}
		for _, f := range it.Files {
			switch f.Status {
			case FileStatusCopied, FileStatusPlanned:
				// dry-run 下 planned 等价于“本轮会复制”。
				s.Copied++
			case FileStatusSkipped:
				s.Skipped++
			case FileStatusFailed:
				s.Failed++
			}
		}
	}
	r.Summary = s
}
