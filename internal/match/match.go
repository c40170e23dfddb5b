package match

import (
	"strings"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

// “编辑版本”的后缀语法：主文件 base + '-' + 后缀 + 图片扩展名。
// 后缀要么是正整数（-1、-2、…），要么是纯字母标签（-HDR、…）。
//
// 约束：要么得到唯一归属，要么按歧义处理；宁可保留为独立主文件，
// 也不允许静默挂错。

// ValidSuffix 校验编辑版本后缀（不含分隔符 '-'）。
func ValidSuffix(s string) bool {
	if s == "" {
		return false
	}
	if isDigits(s) {
		// 正整数：不允许前导零（"-01" 更像相机自己的命名，不是编辑版本）。
		return s[0] != '0'
	}
	return isAlpha(s)
}

// EditedSplit 描述 base name 的一个合法拆分：parent + "-" + suffix。
type EditedSplit struct {
	Parent string
	Suffix string
}

// EditedSplits 枚举 base 的全部合法拆分，按 Parent 从长到短排列。
// 调用方按“最长 parent 优先”的策略消费；并列歧义由调用方处理。
func EditedSplits(base string) []EditedSplit {
	var out []EditedSplit
	for i := len(base) - 1; i > 0; i-- {
		if base[i] != '-' {
			continue
		}
		sfx := base[i+1:]
		if !ValidSuffix(sfx) {
			continue
		}
		out = append(out, EditedSplit{Parent: base[:i], Suffix: sfx})
	}
	return out
}

// PrimaryRank 决定同 base 簇内谁当主文件（数值越小越优先）：
// 0 = 普通媒体扩展名（jpg/heic/mov/...）
// 1 = 会作为 sidecar 跟随的 raw（.raf/.dng）
// 2 = 纯元数据文件（.xmp/.fp2/...），永远不是首选
func PrimaryRank(ext string) int {
	switch {
	case domain.IsMetaExt(ext):
		return 2
	case domain.IsRawExt(ext) && domain.IsSidecarExt(ext):
		return 1
	default:
		return 0
	}
}

// ClusterKey 是同 base 簇的归并键。base 比较大小写不敏感
//（扩展名的大小写不敏感由扫描阶段的小写化保证）。
func ClusterKey(base string) string {
	return strings.ToLower(base)
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
