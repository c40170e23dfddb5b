package run

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ZhaoHualin/pmt/internal/app"
	"github.com/ZhaoHualin/pmt/internal/app/planner"
	"github.com/ZhaoHualin/pmt/internal/config"
	"github.com/ZhaoHualin/pmt/internal/dedup"
	"github.com/ZhaoHualin/pmt/internal/domain"
	"github.com/ZhaoHualin/pmt/internal/infra/fsx"
	"github.com/ZhaoHualin/pmt/internal/meta"
	"github.com/ZhaoHualin/pmt/internal/scan"
)

// Deps 是导入流程的可注入边界：元数据读取与重复判定。
// 测试用 stub 替换；生产走 DefaultDeps。
type Deps struct {
	// NewReader 为每个 worker 建一个 Reader（exiftool 句柄不可共享）。
	// 返回 nil Reader 表示元数据层整体不可用，直接走文件系统时间。
	NewReader func() (meta.Reader, func() error)
	Detector  dedup.Detector
}

// DefaultDeps 返回生产依赖。
func DefaultDeps() Deps {
	return Deps{
		NewReader: meta.NewDefault,
		Detector:  dedup.FSDetector{},
	}
}

// Execute 执行一次导入（dry-run/apply），并返回对外稳定的 RunReport。
// 该函数尽量把错误“降级”为组级失败（单组失败不影响其他组）。
func Execute(ctx context.Context, eff config.EffectiveConfig, deps Deps) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, deps, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息
//（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, deps Deps, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		Action:    "import",
		Source:    eff.Source,
		Dest:      eff.Dest,
		DryRun:    eff.DryRun,
		StartedAt: started,
		Items:     make([]domain.GroupResult, 0, 128),
	}

	scanStarted := time.Now()
	files, ignored, err := scan.ScanMedia(eff.Source, scan.Options{
		Recursive:   eff.Recursive,
		SkipMov:     eff.SkipMov,
		ExcludeDirs: eff.ExcludeDirs,
	})
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeSourceUnreadable, err.Error()))
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return rr
	}
	rr.Summary.Ignored = ignored
	scanDur := time.Since(scanStarted)

	groupStarted := time.Now()
	groups, ambigs := app.Associate(files)
	groupDur := time.Since(groupStarted)

	if obs != nil {
		obs.OnPhaseDone("scan", map[string]any{
			"files":   len(files),
			"ignored": ignored,
		}, scanDur)
		obs.OnPhaseDone("group", map[string]any{
			"groups":    len(groups),
			"ambiguous": len(ambigs),
		}, groupDur)
	}

	// 歧义文件保留为自己的主文件；告警挂到对应组上。
	warnByIdx := make(map[int][]domain.Warning, len(ambigs))
	for _, a := range ambigs {
		warnByIdx[a.Idx] = append(warnByIdx[a.Idx], domain.Warning{
			Code: domain.ErrCodeAmbiguousAssociation,
			Path: files[a.Idx].RelPath,
			Msg:  fmt.Sprintf("命中多个可能的主文件：%v；已保留为独立条目", a.Candidates),
		})
	}

	workers := eff.Workers
	if workers < 1 {
		workers = 1
	}

	if obs != nil {
		obs.OnPhaseDone("exec", map[string]any{
			"workers":      workers,
			"total_groups": len(groups),
		}, 0)
	}

	type execResult struct {
		res domain.GroupResult
		dur time.Duration
	}

	// execCtx 只控制任务投递：stop_on_error 或上层取消后不再开工，
	// 已在途的组照常收尾（避免半拉子目录）。
	execCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan domain.PhotoGroup)
	results := make(chan execResult, len(groups))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			var reader meta.Reader
			closeReader := func() error { return nil }
			if deps.NewReader != nil {
				reader, closeReader = deps.NewReader()
			}
			defer func() { _ = closeReader() }()

			for g := range jobs {
				oneStarted := time.Now()
				r := execOne(ctx, eff, files, g, reader, deps.Detector, warnByIdx)
				results <- execResult{res: r, dur: time.Since(oneStarted)}
			}
		}()
	}

	go func() {
		for _, g := range groups {
			select {
			case jobs <- g:
			case <-execCtx.Done():
			}
			if execCtx.Err() != nil {
				break
			}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		rr.Items = append(rr.Items, r.res)
		if eff.StopOnError && r.res.Status == domain.StatusFailed {
			cancel()
		}
		if obs != nil {
			obs.OnGroupDone(done, len(groups), r.res, r.dur)
		}
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}

// execOne 处理一个照片组：定时间、出计划、逐文件判重并复制。
// 所有失败都收敛为组内状态，不向上抛。
func execOne(ctx context.Context, eff config.EffectiveConfig, files []domain.MediaFile, g domain.PhotoGroup, reader meta.Reader, det dedup.Detector, warnByIdx map[int][]domain.Warning) domain.GroupResult {
	item := domain.GroupResult{
		Primary:  files[g.Primary].RelPath,
		Status:   domain.StatusProcessed, // 失败时覆盖
		Warnings: append([]domain.Warning(nil), warnByIdx[g.Primary]...),
		Files:    []domain.FileResult{},
	}
	if item.Warnings == nil {
		item.Warnings = []domain.Warning{}
	}

	primary := files[g.Primary]

	var ct domain.CaptureTime
	if domain.IsMediaExt(primary.Ext) {
		var err error
		ct, err = readCaptureTime(ctx, reader, primary)
		if err != nil {
			// 元数据不可用：降级到文件系统时间并告警，整组照常导入。
			ct = meta.FilesystemTime(primary.AbsPath, primary.ModUnix)
			item.Warnings = append(item.Warnings, domain.Warning{
				Code: domain.ErrCodeMetadataUnavailable,
				Path: primary.RelPath,
				Msg:  fmt.Sprintf("读取拍摄时间失败，已退回 %s：%v", ct.Source, err),
			})
		}
	} else {
		// 非媒体主文件（孤儿 sidecar、未识别扩展名）没有拍摄元数据，
		// 直接按文件时间落位，不算告警。
		ct = meta.FilesystemTime(primary.AbsPath, primary.ModUnix)
	}

	plan := planner.PlanGroup(eff.Dest, files, g, ct)
	item.Folder = plan.Folder
	item.TimeSource = ct.Source

	destDir := filepath.Join(eff.Dest, plan.Folder)
	used, err := planner.ReadDestNames(destDir)
	if err != nil {
		item.Status = domain.StatusFailed
		item.ErrorCode = domain.ErrCodeIOFailed
		item.ErrorMsg = fmt.Sprintf("读取目标目录失败：%v", err)
		for _, cp := range plan.Copies {
			item.Files = append(item.Files, domain.FileResult{
				Src: files[cp.SrcIdx].RelPath, Kind: cp.Kind, Status: domain.FileStatusFailed,
			})
		}
		return item
	}

	for _, cp := range plan.Copies {
		fr := execCopy(eff, destDir, plan.Folder, files[cp.SrcIdx], cp, det, used)
		if fr.Status == domain.FileStatusFailed && item.Status != domain.StatusFailed {
			item.Status = domain.StatusFailed
			item.ErrorCode = fr.errCode
			item.ErrorMsg = fr.errMsg
		}
		item.Files = append(item.Files, fr.FileResult)
	}

	// 全部文件都因重复被跳过：整组是幂等重跑，标记 skipped。
	if item.Status == domain.StatusProcessed {
		allSkipped := len(item.Files) > 0
		for _, f := range item.Files {
			if f.Status != domain.FileStatusSkipped {
				allSkipped = false
				break
			}
		}
		if allSkipped {
			item.Status = domain.StatusSkipped
		}
	}
	return item
}

type fileOutcome struct {
	domain.FileResult
	errCode string
	errMsg  string
}

// execCopy 处理单个文件的判重与落位。
//
// 同名冲突按候选序列（原名、原名__2、……）逐个比对：
// 命中逐字节相同即跳过，否则落到第一个空位。这保证重命名过的
// 历史导入在重跑时仍然幂等。
func execCopy(eff config.EffectiveConfig, destDir, folder string, src domain.MediaFile, cp domain.CopyPlan, det dedup.Detector, used map[string]struct{}) fileOutcome {
	name := filepath.Base(cp.SrcAbs)
	out := fileOutcome{FileResult: domain.FileResult{
		Src:  src.RelPath,
		Kind: cp.Kind,
	}}

	cand := name
	for n := 2; ; n++ {
		out.Dst = filepath.Join(folder, cand)
		dstAbs := filepath.Join(destDir, cand)

		if _, taken := used[cand]; taken {
			v, err := det.Compare(cp.SrcAbs, dstAbs)
			if err != nil {
				out.Status = domain.FileStatusFailed
				out.errCode = domain.ErrCodeIOFailed
				out.errMsg = fmt.Sprintf("重复判定失败：%v", err)
				return out
			}
			if v == dedup.VerdictDuplicate {
				out.Status = domain.FileStatusSkipped
				return out
			}
			cand = planner.CandidateName(name, n)
			continue
		}

		if eff.DryRun {
			out.Status = domain.FileStatusPlanned
			return out
		}

		err := fsx.CopyFileAtomic(cp.SrcAbs, dstAbs)
		if err == nil {
			used[cand] = struct{}{}
			out.Status = domain.FileStatusCopied
			return out
		}
		if errors.Is(err, os.ErrExist) {
			// 并发组刚占了这个名字：当作 taken 重新比对。
			used[cand] = struct{}{}
			n--
			continue
		}
		out.Status = domain.FileStatusFailed
		if fsx.IsPathTypeConflict(err) {
			out.errCode = domain.ErrCodeTargetConflict
		} else {
			out.errCode = domain.ErrCodeCopyFailed
		}
		out.errMsg = err.Error()
		return out
	}
}

func readCaptureTime(ctx context.Context, reader meta.Reader, primary domain.MediaFile) (domain.CaptureTime, error) {
	if reader == nil {
		return domain.CaptureTime{}, &meta.Unavailable{Path: primary.AbsPath, Err: errors.New("元数据层不可用")}
	}
	return reader.ReadCaptureTime(ctx, primary.AbsPath)
}

func syntheticFailed(code, msg string) domain.GroupResult {
	return domain.GroupResult{
		Status:    domain.StatusFailed,
		ErrorCode: code,
		ErrorMsg:  msg,
		Warnings:  []domain.Warning{},
		Files:     []domain.FileResult{},
	}
}

// SyncReport 把一次 rsync 同步的结果包装成与导入同构的 RunReport。
func SyncReport(source, dest string, dryRun bool, started time.Time, err error) domain.RunReport {
	rr := domain.RunReport{
		Action:    "sync",
		Source:    source,
		Dest:      dest,
		DryRun:    dryRun,
		StartedAt: started.UTC(),
		Items:     []domain.GroupResult{},
	}
	if err != nil {
		rr.Items = append(rr.Items, syntheticFailed(domain.ErrCodeSyncFailed, err.Error()))
	}
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	return rr
}
