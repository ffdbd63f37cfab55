package fs

import "testing"

func TestCanon(t *testing.T) {
	specs := []struct {
		path string
		want string
	}{
		{"", "/"},
		{"relative", "/"},
		{"/", "/"},
		{"/a", "/a"},
		{"/a/", "/a"},
		{"/a//b", "/a/b"},
		{"/a/./b", "/a/b"},
		{"/a/b/..", "/a"},
		{"/a/../b", "/b"},
		{"/..", "/"},
		{"/../../a", "/a"},
		{"/a/b/c", "/a/b/c"},
	}

	for _, spec := range specs {
		if got := Canon(spec.path); got != spec.want {
			t.Errorf("Canon(%q): expected %q; got %q", spec.path, spec.want, got)
		}
	}
}

func TestCanonIdempotent(t *testing.T) {
	paths := []string{"/a/../b/./c//d", "/", "", "/x"}
	for _, p := range paths {
		once := Canon(p)
		twice := Canon(once)
		if once != twice {
			t.Errorf("Canon not idempotent for %q: Canon(p)=%q, Canon(Canon(p))=%q", p, once, twice)
		}
	}
}

func TestSplit(t *testing.T) {
	specs := []struct {
		path    string
		wantDir string
		wantBase string
	}{
		{"/", "/", ""},
		{"/a", "/", "a"},
		{"/a/b/c", "/a/b", "c"},
		{"/a/../b", "/", "b"},
	}

	for _, spec := range specs {
		dir, base := Split(spec.path)
		if dir != spec.wantDir || base != spec.wantBase {
			t.Errorf("Split(%q): expected (%q, %q); got (%q, %q)", spec.path, spec.wantDir, spec.wantBase, dir, base)
		}
	}
}

func TestComponents(t *testing.T) {
	specs := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"/a", []string{"a"}},
		{"/a/b/c", []string{"a", "b", "c"}},
	}

	for _, spec := range specs {
		got := components(spec.path)
		if len(got) != len(spec.want) {
			t.Errorf("components(%q): expected %v; got %v", spec.path, spec.want, got)
			continue
		}
		for i := range got {
			if got[i] != spec.want[i] {
				t.Errorf("components(%q): expected %v; got %v", spec.path, spec.want, got)
				break
			}
		}
	}
}
