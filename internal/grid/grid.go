// Package grid implements the Grid Indexer stage: it enumerates tile files
// on disk, parses their (row, column) identity, verifies the grid is dense,
// and learns the shared tile shape.
package grid

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/kelseym/tilestitch/internal/stitcherr"
)

// filenamePattern matches "R<digits>_C<digits>.<ext>" case-insensitively.
var filenamePattern = regexp.MustCompile(`(?i)^R(\d+)_C(\d+)\.([A-Za-z0-9]+)$`)

// Coord identifies a tile by its grid position.
type Coord struct{ R, C int }

// Shape describes the fixed pixel shape every tile must share.
type Shape struct {
	W, H, Channels int
}

// Grid describes the dense rectangle of tile coordinates discovered on
// disk.
type Grid struct {
	MinR, MaxR, MinC, MaxC int
	Rows, Cols             []int // sorted, unique values actually present
}

// RowIndex returns the position of r within Rows (the index i used by the
// initial estimator).
func (g *Grid) RowIndex(r int) int { return indexOf(g.Rows, r) }

// ColIndex returns the position of c within Cols.
func (g *Grid) ColIndex(c int) int { return indexOf(g.Cols, c) }

func indexOf(xs []int, v int) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}

// Index is the result of scanning an input directory: the grid extents,
// the base tile shape, and a case-insensitive filename lookup used by all
// downstream stages.
type Index struct {
	Dir   string
	Grid  Grid
	Shape Shape

	// files maps the (row, col) coordinate parsed from each tile's name to
	// the exact on-disk path, so downstream stages never re-walk the
	// directory or worry about casing.
	files map[Coord]string
}

// Path returns the on-disk path for tile (r, c), or "" if absent.
func (idx *Index) Path(r, c int) string {
	return idx.files[Coord{R: r, C: c}]
}

// Tiles returns every tile coordinate in (row, col) sort order.
func (idx *Index) Tiles() []Coord {
	out := make([]Coord, 0, len(idx.Rows())*len(idx.Cols()))
	for _, r := range idx.Grid.Rows {
		for _, c := range idx.Grid.Cols {
			out = append(out, Coord{R: r, C: c})
		}
	}
	return out
}

func (idx *Index) Rows() []int { return idx.Grid.Rows }
func (idx *Index) Cols() []int { return idx.Grid.Cols }

// ShapeDecoder reports the pixel shape of the image at path. Supplied by
// the imgio package via a function value to avoid an import cycle (imgio
// imports grid for Shape).
type ShapeDecoder func(path string) (Shape, error)

// Build scans dir for files matching the tile naming convention, verifies
// the grid is dense (every (r,c) in rows×cols has a file), and learns the
// base tile shape from the first tile in sort order.
func Build(dir string, decodeShape ShapeDecoder) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, stitcherr.Input("reading input directory %q: %v", dir, err)
	}

	type found struct {
		coord Coord
		path  string
	}
	var files []found
	rowSet := map[int]struct{}{}
	colSet := map[int]struct{}{}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		m := filenamePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		r, _ := strconv.Atoi(m[1])
		c, _ := strconv.Atoi(m[2])
		files = append(files, found{coord: Coord{R: r, C: c}, path: filepath.Join(dir, name)})
		rowSet[r] = struct{}{}
		colSet[c] = struct{}{}
	}

	if len(files) == 0 {
		return nil, stitcherr.Input("no files matching R<row>_C<col>.<ext> found in %q", dir)
	}

	// Sort by numeric (r, c), breaking ties by path for determinism.
	sort.Slice(files, func(i, j int) bool {
		if files[i].coord.R != files[j].coord.R {
			return files[i].coord.R < files[j].coord.R
		}
		if files[i].coord.C != files[j].coord.C {
			return files[i].coord.C < files[j].coord.C
		}
		return files[i].path < files[j].path
	})

	rows := sortedKeys(rowSet)
	cols := sortedKeys(colSet)

	g := Grid{
		MinR: rows[0], MaxR: rows[len(rows)-1],
		MinC: cols[0], MaxC: cols[len(cols)-1],
		Rows: rows, Cols: cols,
	}

	fileMap := make(map[Coord]string, len(files))
	for _, f := range files {
		fileMap[f.coord] = f.path
	}

	// Verify density: every (r,c) in rows × cols must have a file.
	var missing []string
	for _, r := range rows {
		for _, c := range cols {
			if _, ok := fileMap[Coord{R: r, C: c}]; !ok {
				missing = append(missing, expectedName(r, c))
				if len(missing) >= 5 {
					break
				}
			}
		}
		if len(missing) >= 5 {
			break
		}
	}
	if len(missing) > 0 {
		return nil, stitcherr.Input("grid is missing %d or more tiles, starting with: %s", len(missing), strings.Join(missing, ", "))
	}

	shape, err := decodeShape(files[0].path)
	if err != nil {
		return nil, stitcherr.Input("reading base tile %q: %v", files[0].path, err)
	}

	return &Index{
		Dir:   dir,
		Grid:  g,
		Shape: shape,
		files: fileMap,
	}, nil
}

func expectedName(r, c int) string {
	return fmt.Sprintf("R%02d_C%02d.png", r, c)
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
