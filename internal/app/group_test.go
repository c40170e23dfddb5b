package app

import (
	"testing"

	"github.com/ZhaoHualin/pmt/internal/domain"
)

func mf(rel, base, ext string) domain.MediaFile {
	return domain.MediaFile{AbsPath: "/src/" + rel, RelPath: rel, Base: base, Ext: ext}
}

func TestAssociate_SidecarAndEditedOneGroup(t *testing.T) {
	// 规格场景：RAF 主文件 + XMP sidecar + 两个编辑版本。
	files := []domain.MediaFile{
		mf("DSF7942.RAF", "DSF7942", ".raf"),
		mf("DSF7942.XMP", "DSF7942", ".xmp"),
		mf("DSF7942-1.JPG", "DSF7942-1", ".jpg"),
		mf("DSF7942-HDR.HEIC", "DSF7942-HDR", ".heic"),
	}

	groups, ambigs := Associate(files)
	if len(ambigs) != 0 {
		t.Fatalf("不期望歧义：%+v", ambigs)
	}
	if len(groups) != 1 {
		t.Fatalf("期望 1 个组，实际 %d：%+v", len(groups), groups)
	}
	g := groups[0]
	if files[g.Primary].RelPath != "DSF7942.RAF" {
		t.Fatalf("主文件不符合预期：%q", files[g.Primary].RelPath)
	}
	if len(g.Assoc) != 3 {
		t.Fatalf("期望 3 个关联文件，实际 %d", len(g.Assoc))
	}
	kinds := map[string]string{}
	for _, a := range g.Assoc {
		kinds[files[a.Idx].RelPath] = a.Kind
	}
	if kinds["DSF7942.XMP"] != domain.AssocSidecar {
		t.Fatalf("XMP 应是 sidecar：%v", kinds)
	}
	if kinds["DSF7942-1.JPG"] != domain.AssocEdited || kinds["DSF7942-HDR.HEIC"] != domain.AssocEdited {
		t.Fatalf("编辑版本分类错误：%v", kinds)
	}
}

func TestAssociate_JpgBeatsRafAsPrimary(t *testing.T) {
	files := []domain.MediaFile{
		mf("a.RAF", "a", ".raf"),
		mf("a.JPG", "a", ".jpg"),
	}
	groups, _ := Associate(files)
	if len(groups) != 1 {
		t.Fatalf("期望 1 个组，实际 %d", len(groups))
	}
	if files[groups[0].Primary].RelPath != "a.JPG" {
		t.Fatalf("同 base 时 .jpg 应优先当主文件：%q", files[groups[0].Primary].RelPath)
	}
	if len(groups[0].Assoc) != 1 || groups[0].Assoc[0].Kind != domain.AssocSidecar {
		t.Fatalf("RAF 应降为 sidecar：%+v", groups[0].Assoc)
	}
}

func TestAssociate_UnknownExtIsOwnPrimary(t *testing.T) {
	// 分类表之外的扩展名不聚簇：即使 base 相同也不当 sidecar。
	files := []domain.MediaFile{
		mf("DSCF0001.JPG", "DSCF0001", ".jpg"),
		mf("DSCF0001.txt", "DSCF0001", ".txt"),
		mf("notes.txt", "notes", ".txt"),
	}
	groups, ambigs := Associate(files)
	if len(ambigs) != 0 {
		t.Fatalf("不期望歧义：%+v", ambigs)
	}
	if len(groups) != 3 {
		t.Fatalf("期望 3 个组，实际 %d：%+v", len(groups), groups)
	}
	for _, g := range groups {
		if len(g.Assoc) != 0 {
			t.Fatalf("未识别扩展名不应有关联文件：%+v", g)
		}
	}
}

func TestAssociate_LoneSidecarIsOwnPrimary(t *testing.T) {
	files := []domain.MediaFile{
		mf("orphan.xmp", "orphan", ".xmp"),
		mf("b.jpg", "b", ".jpg"),
	}
	groups, _ := Associate(files)
	if len(groups) != 2 {
		t.Fatalf("未被认领的 .xmp 应自成一组：%+v", groups)
	}
}

func TestAssociate_EditedChainMergesToRoot(t *testing.T) {
	// IMG-1-2.jpg -> IMG-1.jpg -> IMG.raf：链式归并到根。
	files := []domain.MediaFile{
		mf("IMG.raf", "IMG", ".raf"),
		mf("IMG-1.jpg", "IMG-1", ".jpg"),
		mf("IMG-1.xmp", "IMG-1", ".xmp"),
		mf("IMG-1-2.jpg", "IMG-1-2", ".jpg"),
	}
	groups, ambigs := Associate(files)
	if len(ambigs) != 0 {
		t.Fatalf("不期望歧义：%+v", ambigs)
	}
	if len(groups) != 1 {
		t.Fatalf("期望 1 个组，实际 %d：%+v", len(groups), groups)
	}
	if files[groups[0].Primary].RelPath != "IMG.raf" {
		t.Fatalf("根主文件不符合预期：%q", files[groups[0].Primary].RelPath)
	}
	kinds := map[string]string{}
	for _, a := range groups[0].Assoc {
		kinds[files[a.Idx].RelPath] = a.Kind
	}
	// 编辑版本随行的 sidecar 保持 sidecar。
	if kinds["IMG-1.jpg"] != domain.AssocEdited || kinds["IMG-1-2.jpg"] != domain.AssocEdited || kinds["IMG-1.xmp"] != domain.AssocSidecar {
		t.Fatalf("链式归并分类错误：%v", kinds)
	}
}

func TestAssociate_LongestParentWins(t *testing.T) {
	// IMG-2.jpg 既是 IMG-2 簇的主文件（可与 IMG-2.raf 配对），
	// 又形如 IMG 的编辑版本：最长 base（自身簇）胜出。
	files := []domain.MediaFile{
		mf("IMG.raf", "IMG", ".raf"),
		mf("IMG-2.jpg", "IMG-2", ".jpg"),
		mf("IMG-2.raf", "IMG-2", ".raf"),
	}
	groups, ambigs := Associate(files)
	if len(ambigs) != 0 {
		t.Fatalf("不期望歧义：%+v", ambigs)
	}
	if len(groups) != 2 {
		t.Fatalf("期望 2 个组，实际 %d：%+v", len(groups), groups)
	}
	var g2 *domain.PhotoGroup
	for i := range groups {
		if files[groups[i].Primary].RelPath == "IMG-2.jpg" {
			g2 = &groups[i]
		}
	}
	if g2 == nil {
		t.Fatalf("IMG-2.jpg 应保持 IMG-2 簇的主文件：%+v", groups)
	}
	if len(g2.Assoc) != 1 || files[g2.Assoc[0].Idx].RelPath != "IMG-2.raf" {
		t.Fatalf("IMG-2.raf 应是它的 sidecar：%+v", g2.Assoc)
	}
}

func TestAssociate_AmbiguousParentTieIsWarned(t *testing.T) {
	// 两个仅 base 大小写不同的主文件：编辑版本无法唯一归属。
	files := []domain.MediaFile{
		mf("x/IMG0001.RAF", "IMG0001", ".raf"),
		mf("y/img0001.RAF", "img0001", ".raf"),
		mf("x/IMG0001-1.JPG", "IMG0001-1", ".jpg"),
	}
	groups, ambigs := Associate(files)
	if len(ambigs) != 1 {
		t.Fatalf("期望 1 个歧义，实际 %d：%+v", len(ambigs), ambigs)
	}
	if files[ambigs[0].Idx].RelPath != "x/IMG0001-1.JPG" {
		t.Fatalf("歧义文件不符合预期：%+v", ambigs[0])
	}
	if len(ambigs[0].Candidates) != 2 {
		t.Fatalf("候选 parent 应有 2 个：%+v", ambigs[0])
	}
	// 歧义文件保留为独立主文件，不静默归属。
	if len(groups) != 3 {
		t.Fatalf("期望 3 个组，实际 %d：%+v", len(groups), groups)
	}
}
