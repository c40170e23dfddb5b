package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

// Options 控制一次扫描的过滤行为。
type Options struct {
	// Recursive 为 false 时只扫描 root 第一层。
	Recursive bool
	// SkipMov 跳过 .mov（计入 ignored）。
	SkipMov bool
	// ExcludeDirs 来自配置文件，均视为相对 root 的路径
	//（若是绝对路径，则按绝对路径处理）。
	ExcludeDirs []string
}

// SourceError 表示源目录不可读。按契约这是整轮致命错误。
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("源目录不可读：%q：%v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ScanMedia 扫描 root 下的全部可见文件（媒体、sidecar/元数据文件，
// 以及未识别扩展名的文件：它们不参与关联，各自成主文件）。
// 返回值 ignored 是被过滤条目的数量（目前只有 .mov 跳过）。
//
// 注意：扫描阶段只做 stat（DirEntry.Info），不读文件内容；
// 隐藏文件与隐藏目录（前缀 '.'）一律跳过，不计入 ignored。
func ScanMedia(root string, opts Options) (files []domain.MediaFile, ignored int, err error) {
	root = filepath.Clean(root)

	fi, err := os.Stat(root)
	if err != nil {
		return nil, 0, &SourceError{Path: root, Err: err}
	}
	if !fi.IsDir() {
		return nil, 0, &SourceError{Path: root, Err: fmt.Errorf("不是目录")}
	}

	excluded := buildExcluded(root, opts.ExcludeDirs)
	files = make([]domain.MediaFile, 0, 128)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		name := d.Name()
		hidden := strings.HasPrefix(name, ".") && path != root

		if d.IsDir() {
			if path == root {
				return nil
			}
			if hidden || isExcluded(path, excluded) || !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}

		if hidden || isExcluded(path, excluded) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(name))
		if opts.SkipMov && ext == ".mov" {
			ignored++
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, domain.MediaFile{
			AbsPath: path,
			RelPath: rel,
			Base:    strings.TrimSuffix(name, filepath.Ext(name)),
			Ext:     ext,
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, 0, &SourceError{Path: root, Err: err}
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, ignored, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
