package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

// PlanGroup 基于 PhotoGroup + 拍摄时间生成确定性的执行计划（不做任何写入）。
//
// 纯函数：目标路径只由 (destRoot, 拍摄时间, 原文件名) 决定；
// 主文件与全部关联文件落入同一个 YYYY.MM 目录，文件名原样保留。
func PlanGroup(destRoot string, files []domain.MediaFile, g domain.PhotoGroup, ct domain.CaptureTime) domain.GroupPlan {
	folder := ct.Folder()
	dir := filepath.Join(destRoot, folder)

	copies := make([]domain.CopyPlan, 0, 1+len(g.Assoc))
	copies = append(copies, domain.CopyPlan{
		SrcIdx: g.Primary,
		SrcAbs: files[g.Primary].AbsPath,
		DstAbs: filepath.Join(dir, filepath.Base(files[g.Primary].AbsPath)),
		Kind:   domain.KindPrimary,
	})
	for _, a := range g.Assoc {
		copies = append(copies, domain.CopyPlan{
			SrcIdx: a.Idx,
			SrcAbs: files[a.Idx].AbsPath,
			DstAbs: filepath.Join(dir, filepath.Base(files[a.Idx].AbsPath)),
			Kind:   a.Kind,
		})
	}

	return domain.GroupPlan{
		Primary: files[g.Primary].RelPath,
		Folder:  folder,
		Time:    ct,
		Copies:  copies,
	}
}

// ReadDestNames 读取目标目录的现有文件名集合（只做 ReadDir，不读内容）。
// 目录不存在时返回空集合且不报错。
func ReadDestNames(dir string) (map[string]struct{}, error) {
	names := map[string]struct{}{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return names, nil
		}
		return nil, err
	}
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names, nil
}

// CandidateName 给出命名冲突（同名但内容不同）的候选序列：
// n=1 是原名，之后依次 base__2、base__3……
// 分隔符用 "__"，避免与编辑版本的 "-<n>" 语法混淆；
// 执行侧按该序列逐个比对既存文件，保证重跑幂等。
func CandidateName(name string, n int) string {
	if n <= 1 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s__%d%s", base, n, ext)
}
