package index

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/hyperjump/sakuin/internal/token"
)

func TestSegmentRoundTrip(t *testing.T) {
	idx := Build(specCorpus(), token.NewAnalyzer(false))
	path := filepath.Join(t.TempDir(), "corpus.idx")
	if err := WriteSegment(path, idx); err != nil {
		t.Fatal(err)
	}
	got, err := ReadSegment(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got.Snapshot(), idx.Snapshot()) {
		t.Errorf("round-trip changed posting set:\ngot  %v\nwant %v", got.Snapshot(), idx.Snapshot())
	}
}

func TestSegmentByteIdentical(t *testing.T) {
	dir := t.TempDir()
	an := token.NewAnalyzer(false)
	p1 := filepath.Join(dir, "one.idx")
	p2 := filepath.Join(dir, "two.idx")
	if err := WriteSegment(p1, Build(specCorpus(), an)); err != nil {
		t.Fatal(err)
	}
	if err := WriteSegment(p2, Build(specCorpus(), an)); err != nil {
		t.Fatal(err)
	}
	b1, err := os.ReadFile(p1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := os.ReadFile(p2)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b1, b2) {
		t.Error("identical input serialized to different bytes")
	}
}

func TestSegmentNoTempFileLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corpus.idx")
	if err := WriteSegment(path, Build(specCorpus(), token.NewAnalyzer(false))); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "corpus.idx" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("segment dir = %v, want only corpus.idx", names)
	}
}

func TestWriteSegmentConcurrentWritersPublishReadableSegment(t *testing.T) {
	an := token.NewAnalyzer(false)
	small := Build(specCorpus(), an)
	big := Build(largeCorpus(400), an)
	path := filepath.Join(t.TempDir(), "corpus.idx")

	for round := 0; round < 20; round++ {
		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i, idx := range []*Index{small, big} {
			i, idx := i, idx
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[i] = WriteSegment(path, idx)
			}()
		}
		wg.Wait()
		for i, err := range errs {
			if err != nil {
				t.Fatalf("round %d: writer %d: %v", round, i, err)
			}
		}
		got, err := ReadSegment(path)
		if err != nil {
			t.Fatalf("round %d: published segment unreadable: %v", round, err)
		}
		snap := got.Snapshot()
		if !reflect.DeepEqual(snap, small.Snapshot()) && !reflect.DeepEqual(snap, big.Snapshot()) {
			t.Fatalf("round %d: published segment matches neither writer's index", round)
		}
	}
}

func TestReadSegmentRejectsBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.idx")
	if err := os.WriteFile(path, []byte("not a segment\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSegment(path); err == nil {
		t.Error("expected error for bad header")
	}
}

func TestReadSegmentRejectsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.idx")
	if err := os.WriteFile(path, []byte(segmentHeader+"\nterm\tdoc\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSegment(path); err == nil {
		t.Error("expected error for malformed tuple line")
	}
}

func TestReadSegmentMissingFile(t *testing.T) {
	if _, err := ReadSegment(filepath.Join(t.TempDir(), "nope.idx")); err == nil {
		t.Error("expected error for missing segment")
	}
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	if h.Load() != nil {
		t.Fatal("empty holder should load nil")
	}
	first := Build(specCorpus(), token.NewAnalyzer(false))
	h.Swap(first)
	snapshot := h.Load()
	second := Build(nil, token.NewAnalyzer(false))
	h.Swap(second)
	// A reader that loaded before the swap keeps its snapshot.
	if snapshot != first {
		t.Error("pre-swap snapshot changed")
	}
	if h.Load() != second {
		t.Error("post-swap load should see new index")
	}
}
