package domain

// MediaFile 描述一次扫描得到的媒体文件（只做 stat，不读内容）。
//
// 不变量（实现必须遵守）：
// - AbsPath 必须是 clean + absolute
// - Ext 已小写且带点（".jpg"）；Base 保留原始大小写
// - 扫描阶段只做 stat，不读文件内容
type MediaFile struct {
	AbsPath string
	RelPath string
	Base    string // 文件名去掉扩展名
	Ext     string // ".jpg"
	Size    int64
	ModUnix int64
}
