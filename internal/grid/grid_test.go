package grid

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTiles(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func fixedShape() ShapeDecoder {
	return func(string) (Shape, error) { return Shape{W: 10, H: 10, Channels: 3}, nil }
}

func TestBuildDenseGrid(t *testing.T) {
	dir := writeTiles(t, "R00_C00.png", "R00_C01.png", "R01_C00.png", "R01_C01.png")

	idx, err := Build(dir, fixedShape())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Grid.Rows) != 2 || len(idx.Grid.Cols) != 2 {
		t.Fatalf("Rows/Cols = %v/%v, want 2/2", idx.Grid.Rows, idx.Grid.Cols)
	}
	if idx.Path(0, 1) == "" {
		t.Error("Path(0,1) is empty, want a resolved file path")
	}
}

func TestBuildMissingTileReportsInputError(t *testing.T) {
	dir := writeTiles(t, "R00_C00.png", "R00_C01.png", "R01_C00.png") // R01_C01 missing

	_, err := Build(dir, fixedShape())
	if err == nil {
		t.Fatal("Build: expected an error for a sparse grid")
	}
	var wantSubstr = "R01_C01.png"
	if got := err.Error(); !strings.Contains(got, wantSubstr) {
		t.Errorf("Build error = %q, want it to cite %q", got, wantSubstr)
	}
}

func TestBuildEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if _, err := Build(dir, fixedShape()); err == nil {
		t.Fatal("Build: expected an error for an empty directory")
	}
}

func TestBuildIgnoresNonMatchingFiles(t *testing.T) {
	dir := writeTiles(t, "R00_C00.png", "R00_C01.png", "readme.txt")
	idx, err := Build(dir, fixedShape())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Tiles()) != 2 {
		t.Errorf("Tiles() has %d entries, want 2", len(idx.Tiles()))
	}
}
