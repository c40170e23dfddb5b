package domain

// 关联文件的类别。
const (
	AssocSidecar = "sidecar" // 同 base、不同扩展名（.xmp/.raf/...）
	AssocEdited  = "edited"  // <base>-<n> 或 <base>-<tag> + 图片扩展名
)

// AssocFile 指向 PhotoGroup 内的一个关联文件。
// 为了数据局部性只保存下标（指向 []MediaFile），避免复制大结构体。
type AssocFile struct {
	Idx  int
	Kind string
}

// PhotoGroup 是导入的原子单元：一个主文件加上它的全部关联文件。
//
// 不变量：每个关联文件都按匹配规则归属于主文件的 base name；
// 关联文件与主文件落入同一个目标目录。
type PhotoGroup struct {
	Primary int
	Assoc   []AssocFile
}

// Ambiguity 描述一个同时命中多个主文件的候选文件。
// 该文件不会被静默归属，而是保留为它自己的主文件并在 report 里告警。
type Ambiguity struct {
	Idx        int
	Candidates []string // 命中的 base name（已排序，保证稳定）
}
