package shader

import "testing"

func TestExpand(t *testing.T) {
	src := "uniform sampler2D samplers[{{maxTextureUnits}}];\nconst int N = {{maxTextureUnits}};"
	got := Expand(src, map[string]string{"maxTextureUnits": "16"})

	want := "uniform sampler2D samplers[16];\nconst int N = 16;"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestExpandLeavesUnknownPlaceholders(t *testing.T) {
	got := Expand("{{a}} {{b}}", map[string]string{"a": "1"})
	if got != "1 {{b}}" {
		t.Errorf("Expand() = %q", got)
	}
}
