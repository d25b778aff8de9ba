package writer

import (
	"testing"

	"flipreview/pkg/ioinfo"
)

func TestRewriteExtensionForbidden(t *testing.T) {
	ext, rewritten := RewriteExtension("prores", ".mp4")
	if !rewritten || ext != ".mov" {
		t.Fatalf("expected rewrite to .mov, got %v rewritten=%v", ext, rewritten)
	}
}

func TestRewriteExtensionAlreadyPermitted(t *testing.T) {
	ext, rewritten := RewriteExtension("vp9", ".mkv")
	if rewritten || ext != ".mkv" {
		t.Fatalf("expected no rewrite, got %v rewritten=%v", ext, rewritten)
	}
}

func TestRewriteExtensionUnknownCodec(t *testing.T) {
	ext, rewritten := RewriteExtension("h264", ".mp4")
	if rewritten || ext != ".mp4" {
		t.Fatalf("expected unknown codec to pass through unchanged, got %v rewritten=%v", ext, rewritten)
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register(fakePlugin{exts: []string{"mov", "mp4"}})

	if _, ok := r.Lookup("mov"); !ok {
		t.Fatal("expected mov to be registered")
	}
	if _, ok := r.Lookup("exr"); ok {
		t.Fatal("expected exr to be unregistered")
	}
}

type fakePlugin struct{ exts []string }

func (f fakePlugin) Extensions() []string { return f.exts }
func (f fakePlugin) Open(string, ioinfo.IOInfo, Options) (Writer, error) {
	return nil, nil
}
