package meta

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/barasher/go-exiftool"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

// 按可信度排列的日期字段；照片通常命中 DateTimeOriginal，
// 视频命中 CreateDate/MediaCreateDate。
var dateKeys = []string{
	"DateTimeOriginal",
	"CreateDate",
	"MediaCreateDate",
	"CreationDate",
}

// exiftool 输出的常见时间格式。先试带时区的，再试裸格式。
var exifLayouts = []string{
	"2006:01:02 15:04:05Z07:00",
	"2006:01:02 15:04:05.999Z07:00",
	"2006:01:02 15:04:05",
	"2006:01:02 15:04:05.999",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// ExifToolReader 通过常驻的 exiftool 子进程读取元数据。
// 子进程句柄不可跨 goroutine 共享；每个 worker 各建一个。
type ExifToolReader struct {
	et *exiftool.Exiftool
}

// NewExifToolReader 启动 exiftool 子进程。exiftool 未安装时返回错误，
// 调用方应退化到其余 Reader。
func NewExifToolReader() (*ExifToolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, err
	}
	return &ExifToolReader{et: et}, nil
}

// Close 结束子进程。
func (r *ExifToolReader) Close() error { return r.et.Close() }

func (r *ExifToolReader) ReadCaptureTime(ctx context.Context, path string) (domain.CaptureTime, error) {
	if err := ctx.Err(); err != nil {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: err}
	}
	mds := r.et.ExtractMetadata(path)
	if len(mds) == 0 {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: errors.New("exiftool 无输出")}
	}
	md := mds[0]
	if md.Err != nil {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: md.Err}
	}
	for _, key := range dateKeys {
		raw, err := md.GetString(key)
		if err != nil {
			continue
		}
		if t, ok := parseExifTime(raw); ok {
			return domain.CaptureTime{Time: t, Source: domain.TimeSourceExif}, nil
		}
	}
	return domain.CaptureTime{}, &Unavailable{Path: path, Err: errors.New("没有可用的日期字段")}
}

// parseExifTime 解析 exiftool 的时间字符串。
// 相机写出的全零占位日期视为缺失。
func parseExifTime(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.HasPrefix(s, "0000:00:00") {
		return time.Time{}, false
	}
	for _, layout := range exifLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
