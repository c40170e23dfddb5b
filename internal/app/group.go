package app

import (
	"sort"

	"github.com/ZhaoHualin/pmt/internal/domain"
	"github.com/ZhaoHualin/pmt/internal/match"
)

// Associate 把扫描结果划分为 PhotoGroup（导入的原子单元）。
//
// 规则（顺序即优先级）：
// 1) 同 base（大小写不敏感）的文件聚成簇，簇内按 PrimaryRank 选主文件，
//    其余扩展名不同的成员成为它的 sidecar；
// 2) 主文件 base 形如 <parent>-<后缀> 且扩展名是图片时，整组并入 parent
//    的组：主文件记为 edited，随行 sidecar 保持 sidecar，链式归并到根；
//    例外：簇里有同 base 媒体配对（jpg+raf）的组是独立拍摄，不归并；
// 3) parent 命中多个主文件时取 base 最长者；并列视为歧义：该文件保留为
//    独立主文件，并返回 Ambiguity 供上层写入 warning（不静默归属）。
//
// 分类表之外的扩展名不参与上述任何规则：各自成组原样导入。
//
// 输出稳定：组按主文件 RelPath 排序，组内关联文件按 RelPath 排序。
func Associate(files []domain.MediaFile) ([]domain.PhotoGroup, []domain.Ambiguity) {
	byKey := map[string][]int{}
	var unknown []int
	for i := range files {
		// 分类表之外的扩展名（notes.txt、未收录的相机格式）不参与簇：
		// 既不当 sidecar，也不当编辑版本，各自成组原样导入。
		if !domain.IsKnownExt(files[i].Ext) {
			unknown = append(unknown, i)
			continue
		}
		k := match.ClusterKey(files[i].Base)
		byKey[k] = append(byKey[k], i)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type pgroup struct {
		primary int
		assoc   []domain.AssocFile
		// mediaMate：簇里有同 base 的媒体文件（例如 jpg+raf 成对）。
		// 这样的组是一次独立拍摄，不参与 edited 归并。
		mediaMate bool
	}
	groups := make([]pgroup, 0, len(byKey))

	for _, k := range keys {
		idx := byKey[k]
		sort.Slice(idx, func(a, b int) bool {
			ra := match.PrimaryRank(files[idx[a]].Ext)
			rb := match.PrimaryRank(files[idx[b]].Ext)
			if ra != rb {
				return ra < rb
			}
			return files[idx[a]].RelPath < files[idx[b]].RelPath
		})

		// 簇内没有媒体文件（只有 .xmp 之类）：未被认领，各自成组。
		if match.PrimaryRank(files[idx[0]].Ext) == 2 {
			for _, i := range idx {
				groups = append(groups, pgroup{primary: i})
			}
			continue
		}

		g := pgroup{primary: idx[0]}
		for _, i := range idx[1:] {
			if files[i].Ext == files[g.primary].Ext {
				// 同扩展名不构成 sidecar（例如仅 base 大小写不同的两个
				// .jpg）：各自成组，由后面的 edited 归并或歧义规则处理。
				groups = append(groups, pgroup{primary: i})
				continue
			}
			g.assoc = append(g.assoc, domain.AssocFile{Idx: i, Kind: domain.AssocSidecar})
			if domain.IsMediaExt(files[i].Ext) {
				g.mediaMate = true
			}
		}
		groups = append(groups, g)
	}

	for _, i := range unknown {
		groups = append(groups, pgroup{primary: i})
	}

	// parent 查找索引：簇键 → 以媒体文件为主文件的组下标。
	byPrimaryKey := map[string][]int{}
	for gi := range groups {
		p := files[groups[gi].primary]
		if domain.IsMediaExt(p.Ext) {
			k := match.ClusterKey(p.Base)
			byPrimaryKey[k] = append(byPrimaryKey[k], gi)
		}
	}

	parent := make([]int, len(groups))
	for i := range parent {
		parent[i] = -1
	}
	ambigs := make([]domain.Ambiguity, 0, 4)

	for gi := range groups {
		p := files[groups[gi].primary]
		// 编辑版本必须是图片扩展名；带媒体配对（jpg+raf）的组是独立拍摄。
		if !domain.IsImageExt(p.Ext) || groups[gi].mediaMate {
			continue
		}

		// EditedSplits 按 parent 从长到短排列：第一个命中即最长匹配。
		var hit []int
		for _, sp := range match.EditedSplits(p.Base) {
			for _, ci := range byPrimaryKey[match.ClusterKey(sp.Parent)] {
				if ci != gi {
					hit = append(hit, ci)
				}
			}
			if len(hit) > 0 {
				break
			}
		}
		switch {
		case len(hit) == 0:
			// 不是编辑版本：保持独立主文件。
		case len(hit) == 1:
			parent[gi] = hit[0]
		default:
			bases := make([]string, 0, len(hit))
			for _, ci := range hit {
				bases = append(bases, files[groups[ci].primary].Base)
			}
			sort.Strings(bases)
			ambigs = append(ambigs, domain.Ambiguity{Idx: groups[gi].primary, Candidates: bases})
		}
	}

	// parent 的 base 严格更短，链必然有限：直接追到根。
	root := func(gi int) int {
		for parent[gi] != -1 {
			gi = parent[gi]
		}
		return gi
	}

	out := make([]domain.PhotoGroup, 0, len(groups))
	outIdx := make(map[int]int, len(groups))
	for gi := range groups {
		if parent[gi] != -1 {
			continue
		}
		outIdx[gi] = len(out)
		out = append(out, domain.PhotoGroup{
			Primary: groups[gi].primary,
			Assoc:   append([]domain.AssocFile(nil), groups[gi].assoc...),
		})
	}
	for gi := range groups {
		if parent[gi] == -1 {
			continue
		}
		oi := outIdx[root(gi)]
		out[oi].Assoc = append(out[oi].Assoc, domain.AssocFile{Idx: groups[gi].primary, Kind: domain.AssocEdited})
		out[oi].Assoc = append(out[oi].Assoc, groups[gi].assoc...)
	}

	sort.Slice(out, func(i, j int) bool {
		return files[out[i].Primary].RelPath < files[out[j].Primary].RelPath
	})
	for i := range out {
		a := out[i].Assoc
		sort.Slice(a, func(x, y int) bool { return files[a[x].Idx].RelPath < files[a[y].Idx].RelPath })
	}
	sort.Slice(ambigs, func(i, j int) bool {
		return files[ambigs[i].Idx].RelPath < files[ambigs[j].Idx].RelPath
	})
	return out, ambigs
}
