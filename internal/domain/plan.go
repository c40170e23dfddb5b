package domain

// KindPrimary 标记计划里的主文件本体（与 AssocSidecar/AssocEdited 并列）。
const KindPrimary = "primary"

// CopyPlan 规划一次文件复制（只描述 src/dst；真正执行必须走临时文件 + rename）。
type CopyPlan struct {
	SrcIdx int
	SrcAbs string
	DstAbs string
	Kind   string // "primary" | AssocSidecar | AssocEdited
}

// GroupPlan 是对某个 PhotoGroup 的最小执行计划（不做任何写入）。
type GroupPlan struct {
	Primary string // 主文件 RelPath（report 的定位锚点）
	Folder  string // YYYY.MM
	Time    CaptureTime
	Copies  []CopyPlan
}
