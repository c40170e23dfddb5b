// Package rsyncx 把备份同步委托给系统 rsync，只负责拼参数和解释退出码。
package rsyncx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Options 描述一次镜像同步。
type Options struct {
	Source     string // 已整理的照片库根目录
	Dest       string // 备份目的地
	ExcludeMov bool   // 跳过 .mov（与导入侧的 --skip-mov 对应）
	Delete     bool   // 删除目的地多余文件（严格镜像）
	DryRun     bool
}

// NotFoundError 表示系统里找不到 rsync 可执行文件。
type NotFoundError struct {
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("找不到 rsync，请先安装：%v", e.Err)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ExitError 表示 rsync 以非零码退出。
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("rsync 退出码 %d：%v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Args 把 Options 展开为 rsync 参数。纯函数，顺序固定，方便测试和排查。
// 源与目标都带尾部斜杠：同步的是目录内容，不在目的地再套一层目录。
func Args(o Options) []string {
	args := []string{"-avh"}
	if o.DryRun {
		args = append(args, "--dry-run")
	}
	if o.Delete {
		args = append(args, "--delete")
	}
	if o.ExcludeMov {
		args = append(args, "--exclude=*.mov", "--exclude=*.MOV")
	}
	args = append(args, withSlash(o.Source), withSlash(o.Dest))
	return args
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// Run 执行 rsync，把子进程输出接到给定的 writer（通常是 stderr，
// 保持 stdout 只属于 report）。
func Run(ctx context.Context, o Options, out io.Writer) error {
	bin, err := exec.LookPath("rsync")
	if err != nil {
		return &NotFoundError{Err: err}
	}
	cmd := exec.CommandContext(ctx, bin, Args(o)...)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return &ExitError{Code: ee.ExitCode(), Err: err}
		}
		return err
	}
	return nil
}
