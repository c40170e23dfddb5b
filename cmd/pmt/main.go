package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ZhaoHualin/pmt/internal/app/run"
	"github.com/ZhaoHualin/pmt/internal/config"
	"github.com/ZhaoHualin/pmt/internal/domain"
	"github.com/ZhaoHualin/pmt/internal/infra/fsx"
	"github.com/ZhaoHualin/pmt/internal/rsyncx"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "import":
		if code := importCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	case "sync":
		if code := syncCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func importCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printImportUsage()
			return 0
		}
	}

	cli, err := parseImportArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printImportUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		emitReport(reportForConfigError("import", cli.DryRun, err))
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, run.DefaultDeps(), obs)

	if eff.ReportPath != "" {
		if err := writeReportFile(eff.ReportPath, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if rr.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func syncCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printSyncUsage()
			return 0
		}
	}

	sa, err := parseSyncArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printSyncUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	src, dst := sa.Source, sa.Dest
	del, excludeMov := sa.Delete, sa.SkipMov
	if src == "" || dst == "" {
		// 缺省路径来自 pmt.json：源是整理后的照片库（import 的 dest），
		// 目的地是 sync.dest。
		eff, e := config.LoadEffective(cwd, config.CLIArgs{})
		if e != nil {
			emitReport(reportForConfigError("sync", sa.DryRun, e))
			return 1
		}
		if src == "" {
			src = eff.Dest
		}
		if dst == "" {
			dst = eff.SyncDest
		}
		if !sa.DeleteSet {
			del = eff.SyncDelete
		}
		if !sa.SkipMovSet {
			excludeMov = eff.SkipMov
		}
	}
	if dst == "" {
		fmt.Fprintf(os.Stderr, "参数错误：sync 需要目的地（命令行或 pmt.json 的 sync.dest）\n\n")
		printSyncUsage()
		return 2
	}
	src = absClean(cwd, src)
	dst = absClean(cwd, dst)

	started := time.Now()
	runErr := rsyncx.Run(context.Background(), rsyncx.Options{
		Source:     src,
		Dest:       dst,
		ExcludeMov: excludeMov,
		Delete:     del,
		DryRun:     sa.DryRun,
	}, os.Stderr)

	rr := run.SyncReport(src, dst, sa.DryRun, started, runErr)

	if sa.ReportPath != "" {
		if err := writeReportFile(sa.ReportPath, rr); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report 失败：%v\n", err)
			emitReport(rr)
			return 1
		}
	}

	emitReport(rr)
	if runErr != nil {
		return 1
	}
	return 0
}

func parseImportArgs(args []string) (config.CLIArgs, error) {
	cli := config.CLIArgs{}
	pos := []string{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--workers":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("--workers 需要一个值")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--workers 必须是整数：%q", args[i])
			}
			cli.Workers = n
			cli.WorkersSet = true
		case strings.HasPrefix(a, "--workers="):
			n, err := strconv.Atoi(strings.TrimPrefix(a, "--workers="))
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--workers 必须是整数：%q", a)
			}
			cli.Workers = n
			cli.WorkersSet = true
		case a == "--skip-mov":
			cli.SkipMov = true
			cli.SkipMovSet = true
		case strings.HasPrefix(a, "--skip-mov="):
			v, err := parseBoolFlag("--skip-mov", strings.TrimPrefix(a, "--skip-mov="))
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.SkipMov = v
			cli.SkipMovSet = true
		case a == "--stop-on-error":
			cli.StopOnError = true
			cli.StopOnErrorSet = true
		case strings.HasPrefix(a, "--stop-on-error="):
			v, err := parseBoolFlag("--stop-on-error", strings.TrimPrefix(a, "--stop-on-error="))
			if err != nil {
				return config.CLIArgs{}, err
			}
			cli.StopOnError = v
			cli.StopOnErrorSet = true
		case a == "--dry-run":
			cli.DryRun = true
		case a == "--flat":
			cli.Flat = true
			cli.FlatSet = true
		case a == "--report":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("--report 需要一个路径")
			}
			i++
			cli.ReportPath = args[i]
		case strings.HasPrefix(a, "--report="):
			cli.ReportPath = strings.TrimPrefix(a, "--report=")
		case strings.HasPrefix(a, "-"):
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			pos = append(pos, a)
		}
	}

	switch len(pos) {
	case 0:
	case 1:
		cli.Source = pos[0]
	case 2:
		cli.Source = pos[0]
		cli.Dest = pos[1]
	default:
		return config.CLIArgs{}, fmt.Errorf("最多两个位置参数（source dest），实际 %d 个", len(pos))
	}
	return cli, nil
}

type syncArgs struct {
	Source string
	Dest   string

	Delete    bool
	DeleteSet bool

	SkipMov    bool
	SkipMovSet bool

	DryRun     bool
	ReportPath string
}

func parseSyncArgs(args []string) (syncArgs, error) {
	sa := syncArgs{}
	pos := []string{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--delete":
			sa.Delete = true
			sa.DeleteSet = true
		case strings.HasPrefix(a, "--delete="):
			v, err := parseBoolFlag("--delete", strings.TrimPrefix(a, "--delete="))
			if err != nil {
				return syncArgs{}, err
			}
			sa.Delete = v
			sa.DeleteSet = true
		case a == "--skip-mov":
			sa.SkipMov = true
			sa.SkipMovSet = true
		case strings.HasPrefix(a, "--skip-mov="):
			v, err := parseBoolFlag("--skip-mov", strings.TrimPrefix(a, "--skip-mov="))
			if err != nil {
				return syncArgs{}, err
			}
			sa.SkipMov = v
			sa.SkipMovSet = true
		case a == "--dry-run":
			sa.DryRun = true
		case a == "--report":
			if i+1 >= len(args) {
				return syncArgs{}, fmt.Errorf("--report 需要一个路径")
			}
			i++
			sa.ReportPath = args[i]
		case strings.HasPrefix(a, "--report="):
			sa.ReportPath = strings.TrimPrefix(a, "--report=")
		case strings.HasPrefix(a, "-"):
			return syncArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			pos = append(pos, a)
		}
	}

	switch len(pos) {
	case 0:
	case 1:
		sa.Source = pos[0]
	case 2:
		sa.Source = pos[0]
		sa.Dest = pos[1]
	default:
		return syncArgs{}, fmt.Errorf("最多两个位置参数（source dest），实际 %d 个", len(pos))
	}
	return sa, nil
}

func parseBoolFlag(name, v string) (bool, error) {
	switch v {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("%s 只能是 true 或 false，实际是 %q", name, v)
	}
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pmt import [source] [dest] [flags]
  pmt sync [source] [dest] [flags]

命令：
  import  把相机卡/下载目录的照片按拍摄月份整理进照片库
  sync    用 rsync 把照片库镜像到备份目的地

路径可省略：从当前目录的 pmt.json 读取。
使用 "pmt <命令> --help" 查看详细说明。
`)
}

func printImportUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pmt import [source] [dest] [flags]

参数：
  source           相机卡/下载目录（省略则读 pmt.json 的 source）
  dest             照片库根目录（省略则读 pmt.json 的 dest）
  --workers N      并发组数（默认 CPU 核数，上限 32）
  --skip-mov       跳过 .mov 视频；支持 --skip-mov=false 覆盖配置
  --stop-on-error  首个失败组后不再开工
  --dry-run        只输出计划，不写入目标目录
  --flat           只扫 source 第一层（默认递归）
  --report PATH    把 RunReport JSON 另存一份到 PATH
  -h, --help       显示帮助
`)
}

func printSyncUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pmt sync [source] [dest] [flags]

参数：
  source         照片库根目录（省略则读 pmt.json 的 dest）
  dest           备份目的地（省略则读 pmt.json 的 sync.dest）
  --delete       删除目的地多余文件（严格镜像）
  --skip-mov     跳过 .mov 视频
  --dry-run      只让 rsync 预演，不落盘
  --report PATH  把 RunReport JSON 另存一份到 PATH
  -h, --help     显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		fmt.Fprintf(os.Stdout, "完成：groups=%d copied=%d skipped=%d failed=%d warnings=%d\n",
			rr.Summary.Groups, rr.Summary.Copied, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Warnings,
		)
		if rr.Summary.Failed > 0 {
			for _, it := range rr.Items {
				if it.Status != domain.StatusFailed {
					continue
				}
				key := it.Primary
				if key == "" {
					key = "<run>"
				}
				fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
			}
		}
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（日志/摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	fmt.Fprintf(os.Stderr, "完成：groups=%d copied=%d skipped=%d failed=%d warnings=%d\n",
		rr.Summary.Groups, rr.Summary.Copied, rr.Summary.Skipped, rr.Summary.Failed, rr.Summary.Warnings,
	)
}

func reportForConfigError(action string, dryRun bool, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Action:     action,
		DryRun:     dryRun,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.GroupResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
			Warnings:  []domain.Warning{},
			Files:     []domain.FileResult{},
		}},
	}
	rr.Finalize()
	return rr
}

func writeReportFile(path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), b)
}

func absClean(base, p string) string {
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

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
