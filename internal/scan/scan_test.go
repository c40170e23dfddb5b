package scan

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScanMedia_CollectMediaAndSidecars(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "DCIM", "DSF7942.RAF"))
	touch(t, filepath.Join(root, "DCIM", "DSF7942.XMP"))
	touch(t, filepath.Join(root, "DCIM", "notes.txt"))

	got, ignored, err := ScanMedia(root, Options{Recursive: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 未识别扩展名的文件也要收集（原样导入，不丢）。
	if len(got) != 3 {
		t.Fatalf("期望 3 个文件，实际 %d", len(got))
	}
	if ignored != 0 {
		t.Fatalf("期望 ignored=0，实际 %d", ignored)
	}
	// 输出必须按 RelPath 稳定排序；Ext 小写。
	if got[0].RelPath != filepath.Join("DCIM", "DSF7942.RAF") || got[0].Ext != ".raf" {
		t.Fatalf("文件 0 不符合预期：%+v", got[0])
	}
	if got[1].Ext != ".xmp" || got[1].Base != "DSF7942" {
		t.Fatalf("文件 1 不符合预期：%+v", got[1])
	}
	if got[2].RelPath != filepath.Join("DCIM", "notes.txt") || got[2].Ext != ".txt" {
		t.Fatalf("文件 2 不符合预期：%+v", got[2])
	}
}

func TestScanMedia_UnknownExtOnly(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "DSCF0001.PEF"))

	got, ignored, err := ScanMedia(root, Options{Recursive: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 2 || ignored != 0 {
		t.Fatalf("未识别扩展名不应被丢弃：files=%d ignored=%d", len(got), ignored)
	}
}

func TestScanMedia_NonRecursive(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "sub", "b.jpg"))

	got, _, err := ScanMedia(root, Options{Recursive: false})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].RelPath != "a.jpg" {
		t.Fatalf("非递归扫描不应进入子目录：%+v", got)
	}
}

func TestScanMedia_SkipMovAndHidden(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "a.MOV"))
	touch(t, filepath.Join(root, "b.jpg"))
	touch(t, filepath.Join(root, ".DS_Store"))
	touch(t, filepath.Join(root, ".Trashes", "c.jpg"))

	got, ignored, err := ScanMedia(root, Options{Recursive: true, SkipMov: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].RelPath != "b.jpg" {
		t.Fatalf("期望仅 b.jpg，实际 %+v", got)
	}
	// .MOV 计入 ignored；隐藏文件不计入。
	if ignored != 1 {
		t.Fatalf("期望 ignored=1，实际 %d", ignored)
	}
}

func TestScanMedia_ExcludeDirsFromConfig(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "temp", "a.jpg"))
	touch(t, filepath.Join(root, "ok", "b.jpg"))

	got, _, err := ScanMedia(root, Options{Recursive: true, ExcludeDirs: []string{"temp"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(got) != 1 || got[0].RelPath != filepath.Join("ok", "b.jpg") {
		t.Fatalf("排除目录未生效：%+v", got)
	}
}

func TestScanMedia_SourceUnreadable(t *testing.T) {
	_, _, err := ScanMedia(filepath.Join(t.TempDir(), "missing"), Options{Recursive: true})
	if err == nil {
		t.Fatalf("期望失败，但得到 nil")
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("期望 *SourceError，实际 %T：%v", err, err)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
