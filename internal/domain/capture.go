package domain

import (
	"fmt"
	"time"
)

// 拍摄时间的来源（写入 report，保证回退路径可解释）。
const (
	TimeSourceExif      = "exif"      // exiftool 子进程
	TimeSourceEmbedded  = "embedded"  // 进程内 EXIF 解析
	TimeSourceBirthTime = "birthtime" // 文件系统创建时间
	TimeSourceModTime   = "mtime"     // 文件修改时间
)

// CaptureTime 是主文件的拍摄时间及其来源。
// 只驱动目标目录命名；不独立于它描述的文件持久化。
type CaptureTime struct {
	Time   time.Time
	Source string
}

// Folder 返回 YYYY.MM 形式的目录名（月份补零）。
// 纯函数：相同输入必然得到相同目录名。
func (c CaptureTime) Folder() string {
	return fmt.Sprintf("%04d.%02d", c.Time.Year(), int(c.Time.Month()))
}
