package rsyncx

import (
	"reflect"
	"testing"
)

func TestArgs_默认(t *testing.T) {
	got := Args(Options{Source: "/photos", Dest: "/backup"})
	want := []string{"-avh", "/photos/", "/backup/"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("参数不匹配：%v", got)
	}
}

func TestArgs_全开(t *testing.T) {
	got := Args(Options{
		Source:     "/photos/",
		Dest:       "/backup",
		ExcludeMov: true,
		Delete:     true,
		DryRun:     true,
	})
	want := []string{
		"-avh", "--dry-run", "--delete",
		"--exclude=*.mov", "--exclude=*.MOV",
		"/photos/", "/backup/",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("参数不匹配：%v", got)
	}
}

func TestArgs_尾部斜杠不重复(t *testing.T) {
	got := Args(Options{Source: "/a/", Dest: "/b/"})
	if got[len(got)-2] != "/a/" || got[len(got)-1] != "/b/" {
		t.Fatalf("尾部斜杠处理错误：%v", got)
	}
}
