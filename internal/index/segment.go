package index

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Segment files are line-delimited: a fixed header line, then one
// tab-separated (term, doc, section, freq) tuple per line in snapshot order.
// The format is deliberately timestamp-free so that identical corpora
// serialize to byte-identical files.
const segmentHeader = "sakuin\t1"

// WriteSegment atomically serializes idx to path: it writes a uniquely named
// temp file in the segment's directory and renames it into place, so readers
// never observe a torn segment and concurrent writers never share a temp file.
func WriteSegment(path string, idx *Index) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp segment file: %w", err)
	}
	tmpPath := f.Name()
	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmpPath)
	}
	w := bufio.NewWriter(f)
	fmt.Fprintln(w, segmentHeader)
	for _, entry := range idx.Snapshot() {
		for _, p := range entry.Postings {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", entry.Term, p.DocID, p.Section, p.Freq)
		}
	}
	if err := w.Flush(); err != nil {
		cleanup()
		return fmt.Errorf("writing segment: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing segment: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing segment: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming segment: %w", err)
	}
	return nil
}

// ReadSegment deserializes a segment file written by WriteSegment. The
// resulting index's posting set equals the serialized one exactly; document
// and section counts are derived from the postings (sections that produced
// no terms are not represented in a segment).
func ReadSegment(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment: %w", err)
	}
	defer f.Close()

	idx := &Index{terms: make(map[string][]Posting)}
	docSeen := make(map[string]struct{})
	sectionSeen := make(map[postingKey]struct{})

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if lineNo == 1 {
			if line != segmentHeader {
				return nil, fmt.Errorf("invalid segment header %q", line)
			}
			continue
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("segment line %d: want 4 fields, got %d", lineNo, len(fields))
		}
		section, err := strconv.Atoi(fields[2])
		if err != nil {
			return nil, fmt.Errorf("segment line %d: section: %w", lineNo, err)
		}
		freq, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, fmt.Errorf("segment line %d: freq: %w", lineNo, err)
		}
		term := fields[0]
		p := Posting{DocID: fields[1], Section: section, Freq: freq}
		idx.terms[term] = append(idx.terms[term], p)
		docSeen[p.DocID] = struct{}{}
		sectionSeen[postingKey{p.DocID, p.Section}] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading segment: %w", err)
	}
	for term := range idx.terms {
		sortPostings(idx.terms[term])
	}
	idx.docCount = len(docSeen)
	idx.sectionCount = len(sectionSeen)
	return idx, nil
}
