package ioinfo

import "testing"

func TestPathString(t *testing.T) {
	cases := []struct {
		name     string
		path     Path
		expected string
	}{
		{
			"singleFile",
			Path{Directory: "/media", BaseName: "clipA", Extension: ".mov"},
			"/media/clipA.mov",
		},
		{
			"sequence",
			Path{Directory: "/media", BaseName: "seq.", FrameField: "%04d", Extension: ".exr"},
			"/media/seq.%04d.exr",
		},
		{
			"noDirectory",
			Path{BaseName: "clipA", Extension: ".mov"},
			"clipA.mov",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if actual := tc.path.String(); actual != tc.expected {
				t.Fatalf("expected: %v, got: %v", tc.expected, actual)
			}
		})
	}
}

func TestPathFrameName(t *testing.T) {
	p := Path{Directory: "/media", BaseName: "seq.", Padding: 4, FrameField: "%04d", Extension: ".exr"}
	actual := p.FrameName(12)
	expected := "/media/seq.0012.exr"
	if actual != expected {
		t.Fatalf("expected: %v, got: %v", expected, actual)
	}
}

func TestFingerprintOptionOrderIndependence(t *testing.T) {
	path := Path{Directory: "/media", BaseName: "clipA", Extension: ".mov"}

	fp1 := InfoFingerprint(path, Options{"a": "1", "b": "2"})
	fp2 := InfoFingerprint(path, Options{"b": "2", "a": "1"})

	if fp1 != fp2 {
		t.Fatalf("fingerprints should be independent of map iteration order: %v != %v", fp1, fp2)
	}
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	path := Path{Directory: "/media", BaseName: "clipA", Extension: ".mov"}

	a := ThumbnailFingerprint(128, path, "10/24", Options{})
	b := ThumbnailFingerprint(256, path, "10/24", Options{})

	if a == b {
		t.Fatal("different heights should produce different fingerprints")
	}
}
