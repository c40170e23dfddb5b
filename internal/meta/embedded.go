package meta

import (
	"context"
	"os"

	"github.com/rwcarlsen/goexif/exif"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

// EmbeddedReader 进程内解析 EXIF 段，不依赖外部工具。
// 覆盖 JPEG 与 TIFF 族（含多数 RAW）；HEIC 与视频容器解不出来，
// 由链上的 exiftool 负责。
type EmbeddedReader struct{}

func (EmbeddedReader) ReadCaptureTime(ctx context.Context, path string) (domain.CaptureTime, error) {
	if err := ctx.Err(); err != nil {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: err}
	}
	f, err := os.Open(path)
	if err != nil {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: err}
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: err}
	}
	t, err := x.DateTime()
	if err != nil {
		return domain.CaptureTime{}, &Unavailable{Path: path, Err: err}
	}
	return domain.CaptureTime{Time: t, Source: domain.TimeSourceEmbedded}, nil
}
