package meta

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/djherbis/times.v1"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

// Reader 从主文件读取拍摄时间。
//
// 约束：
// - 工具失败/超时/字段缺失一律返回 *Unavailable；调用方必须回退到
//   文件系统时间（FilesystemTime），而不是中止整轮导入
// - 实现不要求并发安全：每个 worker 持有自己的 Reader
type Reader interface {
	ReadCaptureTime(ctx context.Context, path string) (domain.CaptureTime, error)
}

// Unavailable 表示元数据不可用（工具错误、输出无法解析、字段缺失）。
type Unavailable struct {
	Path string
	Err  error
}

func (e *Unavailable) Error() string {
	return fmt.Sprintf("读取拍摄时间失败：%q：%v", e.Path, e.Err)
}

func (e *Unavailable) Unwrap() error { return e.Err }

// IsUnavailable 判断 err 是否为元数据不可用。
func IsUnavailable(err error) bool {
	var e *Unavailable
	return errors.As(err, &e)
}

// Chain 依次尝试多个 Reader，返回第一个成功结果。
// 全部失败时返回最后一个错误（保持 *Unavailable 可判别）。
type Chain struct {
	readers []Reader
}

func NewChain(rs ...Reader) Chain {
	return Chain{readers: rs}
}

func (c Chain) ReadCaptureTime(ctx context.Context, path string) (domain.CaptureTime, error) {
	var lastErr error
	for _, r := range c.readers {
		if err := ctx.Err(); err != nil {
			return domain.CaptureTime{}, &Unavailable{Path: path, Err: err}
		}
		ct, err := r.ReadCaptureTime(ctx, path)
		if err == nil {
			return ct, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &Unavailable{Path: path, Err: errors.New("没有可用的 reader")}
	}
	return domain.CaptureTime{}, lastErr
}

// NewDefault 返回默认 Reader 链：exiftool 子进程优先，进程内 EXIF 解析兜底。
// exiftool 不可用（未安装）时退化为仅进程内解析；返回的 close 必须在
// worker 结束时调用。
func NewDefault() (Reader, func() error) {
	et, err := NewExifToolReader()
	if err != nil {
		return NewChain(EmbeddedReader{}), func() error { return nil }
	}
	return NewChain(et, EmbeddedReader{}), et.Close
}

// FilesystemTime 返回文件系统层面的最佳时间：优先创建时间，缺失则修改时间。
// 这是元数据不可用之后的最终回退，永不失败。
func FilesystemTime(path string, modUnix int64) domain.CaptureTime {
	if ts, err := times.Stat(path); err == nil {
		if ts.HasBirthTime() {
			return domain.CaptureTime{Time: ts.BirthTime(), Source: domain.TimeSourceBirthTime}
		}
		return domain.CaptureTime{Time: ts.ModTime(), Source: domain.TimeSourceModTime}
	}
	return domain.CaptureTime{Time: time.Unix(modUnix, 0), Source: domain.TimeSourceModTime}
}
