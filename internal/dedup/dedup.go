package dedup

import (
	"bytes"
	"io"
	"os"

	"github.com/kalafut/imohash"
)

// Verdict 是源文件与目标位置既存文件的比对结论。
type Verdict int

const (
	// VerdictAbsent：目标位置无同名文件，可直接落位。
	VerdictAbsent Verdict = iota
	// VerdictDuplicate：逐字节相同，跳过复制。
	VerdictDuplicate
	// VerdictDiffers：同名但内容不同，需要换名保留。
	VerdictDiffers
)

func (v Verdict) String() string {
	switch v {
	case VerdictAbsent:
		return "absent"
	case VerdictDuplicate:
		return "duplicate"
	case VerdictDiffers:
		return "differs"
	}
	return "unknown"
}

// Detector 判定 src 与 dst 的内容关系。实现必须保证：
// 判为 Duplicate 时两个文件逐字节相同（抽样哈希只能加速否定，
// 不能单独给出肯定结论）。
type Detector interface {
	Compare(srcAbs, dstAbs string) (Verdict, error)
}

// FSDetector 对真实文件系统做三段式判定：
// 先比大小，再比抽样哈希，最后逐字节确认。
// 前两段任何不一致即 Differs；只有全文相同才是 Duplicate。
type FSDetector struct{}

func (FSDetector) Compare(srcAbs, dstAbs string) (Verdict, error) {
	di, err := os.Stat(dstAbs)
	if err != nil {
		if os.IsNotExist(err) {
			return VerdictAbsent, nil
		}
		return VerdictDiffers, err
	}
	si, err := os.Stat(srcAbs)
	if err != nil {
		return VerdictDiffers, err
	}
	if si.Size() != di.Size() {
		return VerdictDiffers, nil
	}

	sh, err := imohash.SumFile(srcAbs)
	if err != nil {
		return VerdictDiffers, err
	}
	dh, err := imohash.SumFile(dstAbs)
	if err != nil {
		return VerdictDiffers, err
	}
	if sh != dh {
		return VerdictDiffers, nil
	}

	same, err := equalContent(srcAbs, dstAbs)
	if err != nil {
		return VerdictDiffers, err
	}
	if same {
		return VerdictDuplicate, nil
	}
	return VerdictDiffers, nil
}

const compareChunk = 1 << 16

// equalContent 逐字节比较两个文件。调用前已确认大小相同。
func equalContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer fa.Close()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer fb.Close()

	bufA := make([]byte, compareChunk)
	bufB := make([]byte, compareChunk)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			if errB == io.EOF || errB == io.ErrUnexpectedEOF {
				return true, nil
			}
			return false, nil
		}
		if errA != nil {
			return false, errA
		}
		if errB != nil {
			return false, errB
		}
	}
}
