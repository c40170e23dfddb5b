package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEffective_ConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_ConfigMissingDest(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "pmt.json"), []byte(`{"source":"sdcard"}`))

	_, err := LoadEffective(cwd, CLIArgs{})
	if Code(err) != ErrCodeMissingPath {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeMissingPath, err, Code(err))
	}
}

func TestLoadEffective_CLI给全路径_配置可选(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, CLIArgs{Source: "sdcard", Dest: "/photos"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Source != filepath.Join(cwd, "sdcard") {
		t.Fatalf("相对 source 应基于 cwd 规范化：%q", eff.Source)
	}
	if eff.Dest != "/photos" {
		t.Fatalf("绝对 dest 不应被改写：%q", eff.Dest)
	}
	if !eff.Recursive {
		t.Fatalf("默认应递归扫描")
	}
	if eff.Workers < 1 || eff.Workers > 32 {
		t.Fatalf("workers 超出约定范围：%d", eff.Workers)
	}
}

func TestLoadEffective_布尔CLI否定覆盖(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "pmt.json"),
		[]byte(`{"source":"s","dest":"d","skip_mov":true,"stop_on_error":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{
		SkipMov: false, SkipMovSet: true, // --skip-mov=false
	})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.SkipMov {
		t.Fatalf("CLI 否定应覆盖配置文件")
	}
	if !eff.StopOnError {
		t.Fatalf("未显式指定的项应取配置文件值")
	}
}

func TestLoadEffective_WorkersMerge与截断(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "pmt.json"),
		[]byte(`{"source":"s","dest":"d","workers":99}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Workers != 32 {
		t.Fatalf("workers=99 应截断到 32，实际 %d", eff.Workers)
	}

	eff2, err := LoadEffective(cwd, CLIArgs{Workers: 2, WorkersSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff2.Workers != 2 {
		t.Fatalf("CLI workers 应覆盖配置文件，实际 %d", eff2.Workers)
	}
}

func TestLoadEffective_Flat覆盖Recursive(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "pmt.json"),
		[]byte(`{"source":"s","dest":"d","recursive":true}`))

	eff, err := LoadEffective(cwd, CLIArgs{Flat: true, FlatSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Recursive {
		t.Fatalf("--flat 应关闭递归")
	}
}

func TestLoadEffective_Sync段(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "pmt.json"),
		[]byte(`{"source":"s","dest":"d","sync":{"dest":"backup","delete":true}}`))

	eff, err := LoadEffective(cwd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.SyncDest != filepath.Join(cwd, "backup") {
		t.Fatalf("sync.dest 应规范化：%q", eff.SyncDest)
	}
	if !eff.SyncDelete {
		t.Fatalf("sync.delete 未生效")
	}
}

func TestLoadEffective_InvalidJSON(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "pmt.json"), []byte(`{`))

	_, err := LoadEffective(cwd, CLIArgs{Source: "s", Dest: "d"})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeInvalid, err, Code(err))
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
