// Package hgrio reads and writes the hypergraph text format of
// spec.md §6 ("the surrounding loader" the core's
// `read_hypergraph_from_file` ABI call wraps) and a sibling `.part`
// output format analogous to the teacher's own `.mlp` file.
//
// Grounded on the teacher's pkg/osmparser (a dedicated parser package
// with its own constant.go/data.go split, here collapsed to
// constant.go + this file since the hypergraph format has far fewer
// header fields than an OSM PBF) and pkg/partitioner/io_writer.go's
// writeMLPToMLPFile (a plain os.Create + fmt.Fprintf line-oriented
// writer, the same idiom this package's WritePartition follows for
// the `.part` sibling of a `.mlp` file).
package hgrio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hgtype"
	"github.com/lintang-b-s/hyperflow-partitioner/pkg/hypergraph"
)

// ReadFile opens path and parses it as a spec.md §6 hypergraph text
// file, building a *hypergraph.Hypergraph sized for `width`.
func ReadFile(path string, width hgtype.IDWidth) (*hypergraph.Hypergraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hgrio: %w", err)
	}
	defer f.Close()
	return Read(f, width)
}

// Read parses r as a spec.md §6 hypergraph text file:
//
//	|E| |V| [type]
//	|E| lines: [weight] pin pin ...   (1-based pin ids)
//	|V| lines (only if type&10): vertex weight
func Read(r io.Reader, width hgtype.IDWidth) (*hypergraph.Hypergraph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header, err := nextTokens(sc)
	if err != nil {
		return nil, fmt.Errorf("hgrio: reading header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("hgrio: header must have at least 2 fields, got %d", len(header))
	}
	numEdges, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("hgrio: header |E|: %w", err)
	}
	numVertices, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("hgrio: header |V|: %w", err)
	}
	wt := Unweighted
	if len(header) >= 3 {
		raw, err := strconv.Atoi(header[2])
		if err != nil {
			return nil, fmt.Errorf("hgrio: header type: %w", err)
		}
		wt = WeightType(raw)
	}
	if numEdges < 0 || numVertices < 0 {
		return nil, fmt.Errorf("hgrio: negative |E| or |V| in header")
	}

	pinLists := make([][]hgtype.ID, numEdges)
	edgeWeights := make([]hgtype.Weight, numEdges)
	for i := 0; i < numEdges; i++ {
		tokens, err := nextTokens(sc)
		if err != nil {
			return nil, fmt.Errorf("hgrio: hyperedge %d: %w", i, err)
		}
		start := 0
		edgeWeights[i] = 1
		if wt.hasEdgeWeights() {
			if len(tokens) == 0 {
				return nil, fmt.Errorf("hgrio: hyperedge %d missing weight", i)
			}
			w, err := strconv.ParseInt(tokens[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("hgrio: hyperedge %d weight: %w", i, err)
			}
			if w < 0 {
				return nil, fmt.Errorf("hgrio: hyperedge %d has negative weight", i)
			}
			edgeWeights[i] = hgtype.Weight(w)
			start = 1
		}
		pins := make([]hgtype.ID, 0, len(tokens)-start)
		for _, tok := range tokens[start:] {
			v, err := strconv.ParseUint(tok, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("hgrio: hyperedge %d pin %q: %w", i, tok, err)
			}
			if v == 0 || v > uint64(numVertices) {
				return nil, fmt.Errorf("hgrio: hyperedge %d pin %d out of range [1,%d]", i, v, numVertices)
			}
			pins = append(pins, hgtype.ID(v-1))
		}
		if len(pins) < 2 {
			return nil, fmt.Errorf("hgrio: hyperedge %d has fewer than 2 pins", i)
		}
		pinLists[i] = pins
	}

	vertexWeights := make([]hgtype.Weight, numVertices)
	for i := range vertexWeights {
		vertexWeights[i] = 1
	}
	if wt.hasVertexWeights() {
		for i := 0; i < numVertices; i++ {
			tokens, err := nextTokens(sc)
			if err != nil {
				return nil, fmt.Errorf("hgrio: vertex weight %d: %w", i, err)
			}
			if len(tokens) == 0 {
				return nil, fmt.Errorf("hgrio: vertex %d missing weight", i)
			}
			w, err := strconv.ParseInt(tokens[0], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("hgrio: vertex %d weight: %w", i, err)
			}
			if w < 0 {
				return nil, fmt.Errorf("hgrio: vertex %d has negative weight", i)
			}
			vertexWeights[i] = hgtype.Weight(w)
		}
	}

	if uint64(numVertices) > width.MaxID() {
		return nil, fmt.Errorf("hgrio: |V|=%d exceeds the max id for this width", numVertices)
	}

	return hypergraph.New(width, vertexWeights, edgeWeights, pinLists), nil
}

// nextTokens returns the whitespace-separated fields of the next
// non-blank line, skipping blank lines the way a hand-edited .hgr file
// commonly accumulates.
func nextTokens(sc *bufio.Scanner) ([]string, error) {
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		return strings.Fields(line), nil
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

// PartitionOf is the minimal read surface WritePartition needs.
type PartitionOf interface {
	NumVertices() int
	K() int
	PartID(u hgtype.ID) hgtype.BlockID
}

// WritePartitionToFile writes filename as a `.part` file: one line
// with k, then one line per vertex with its block id, the same
// line-oriented plain-text idiom as the teacher's writeMLPToMLPFile.
func WritePartitionToFile(filename string, hg PartitionOf) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("hgrio: %w", err)
	}
	defer f.Close()
	return WritePartition(f, hg)
}

func WritePartition(w io.Writer, hg PartitionOf) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d\n", hg.K()); err != nil {
		return err
	}
	for u := 0; u < hg.NumVertices(); u++ {
		if _, err := fmt.Fprintf(bw, "%d\n", hg.PartID(hgtype.ID(u))); err != nil {
			return err
		}
	}
	return bw.Flush()
}
