package domain

// 扩展名分类表。判定一律大小写不敏感，调用方须传入已小写、
// 带点的扩展名（MediaFile.Ext 的形态）。

var imageExts = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".heic": {}, ".heif": {},
	".tif": {}, ".tiff": {}, ".webp": {}, ".bmp": {}, ".gif": {},
}

var rawExts = map[string]struct{}{
	".raf": {}, ".dng": {}, ".nef": {}, ".cr2": {}, ".cr3": {},
	".arw": {}, ".orf": {}, ".rw2": {},
}

var videoExts = map[string]struct{}{
	".mov": {}, ".mp4": {}, ".avi": {}, ".m4v": {}, ".mts": {},
}

// 纯元数据/编辑参数文件：永远不是主文件。
var metaExts = map[string]struct{}{
	".xmp": {}, ".fp2": {}, ".fp3": {}, ".photo-edit": {},
}

func IsImageExt(ext string) bool {
	_, ok := imageExts[ext]
	return ok
}

func IsRawExt(ext string) bool {
	_, ok := rawExts[ext]
	return ok
}

func IsVideoExt(ext string) bool {
	_, ok := videoExts[ext]
	return ok
}

func IsMetaExt(ext string) bool {
	_, ok := metaExts[ext]
	return ok
}

// IsMediaExt 判定可作为主文件的扩展名（图片/raw/视频）。
func IsMediaExt(ext string) bool {
	return IsImageExt(ext) || IsRawExt(ext) || IsVideoExt(ext)
}

// IsSidecarExt 判定“与主文件同 base 时应作为 sidecar 跟随”的扩展名。
// .raf/.dng 特殊：有同名非 raw 主文件时作 sidecar，否则自身就是主文件。
func IsSidecarExt(ext string) bool {
	return IsMetaExt(ext) || ext == ".raf" || ext == ".dng"
}

// IsKnownExt 判定扩展名是否在分类表内（媒体或元数据文件）。
// 未知扩展名的文件不参与关联，各自作为主文件按文件时间落位。
func IsKnownExt(ext string) bool {
	return IsMediaExt(ext) || IsMetaExt(ext)
}
