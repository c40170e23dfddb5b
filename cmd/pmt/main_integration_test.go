package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

func TestCLI_NoTTY_StdoutOnlyRunReportJSON(t *testing.T) {
	// 这个测试锁定对外契约：stdout 非 TTY 时只能输出一个 RunReport JSON
	//（进度/配置必须走 stderr 或直接禁用）。
	root := t.TempDir()

	src := filepath.Join(root, "sdcard")
	dst := filepath.Join(root, "photos")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "IMG0001.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("写入照片失败：%v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/pmt", "import", src, dst)
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	// stdout 必须是单个 JSON。
	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Action != "import" {
		t.Fatalf("action 应为 import：%q", rr.Action)
	}
	if rr.Summary.Copied != 1 {
		t.Fatalf("应复制 1 个文件：%+v", rr.Summary)
	}
	// 进度/配置不应出现在 stdout。
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}

	// stderr 至少应包含最终摘要行。
	if !strings.Contains(stderr.String(), "完成：groups=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}
}

func TestCLI_缺少路径时输出config错误报告(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	// cwd 是没有 pmt.json 的空目录；go run 无法在模块外按绝对路径解析包，
	// 所以先在仓库根目录构建二进制，再从空目录运行。
	bin := filepath.Join(t.TempDir(), "pmt")
	build := exec.Command("go", "build", "-o", bin, "./cmd/pmt")
	build.Dir = repoRoot
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("构建失败：%v\n%s", err, out)
	}

	cmd := exec.Command(bin, "import")
	cmd.Dir = t.TempDir()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	if err == nil {
		t.Fatalf("缺少路径应以非零码退出")
	}

	var rr domain.RunReport
	if e := json.Unmarshal(stdout.Bytes(), &rr); e != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v\nstdout=%q", e, stdout.String())
	}
	if len(rr.Items) != 1 || rr.Items[0].ErrorCode != "config_not_found" {
		t.Fatalf("应有 config_not_found 条目：%+v", rr.Items)
	}
}

func TestCLI_DryRun不创建目标目录(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "sdcard")
	dst := filepath.Join(root, "photos")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(filepath.Join(src, "IMG0001.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("写入照片失败：%v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/pmt", "import", src, dst, "--dry-run")
	cmd.Dir = repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s", err, stderr.String())
	}

	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建目标目录")
	}

	var rr domain.RunReport
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 RunReport JSON：%v", err)
	}
	if !rr.DryRun || rr.Summary.Copied != 1 {
		t.Fatalf("dry-run 报告异常：%+v", rr.Summary)
	}
}
