// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"catpicker/internal/models"
	"catpicker/internal/tree"
)

const locale = "en-US"

func rec(id, parent, title string) models.CategoryRecord {
	r := models.CategoryRecord{
		Sys:    models.CategorySys{ID: id},
		Fields: models.CategoryFields{Title: models.LocalizedString{locale: title}},
	}
	if parent != "" {
		r.Fields.ParentCategory = map[string]models.Link{locale: models.NewEntryLink(parent)}
	}
	return r
}

// fakeSource returns records, or err, after an optional gate is released.
type fakeSource struct {
	records []models.CategoryRecord
	err     error
	gate    chan struct{}
	calls   atomic.Int32
	lastQ   models.RecordQuery
	mu      sync.Mutex
}

func (s *fakeSource) GetMany(_ context.Context, q models.RecordQuery) ([]models.CategoryRecord, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastQ = q
	s.mu.Unlock()
	if s.gate != nil {
		<-s.gate
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	n.msgs = append(n.msgs, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.msgs)
}

func TestLoad_BuildsForest(t *testing.T) {
	src := &fakeSource{records: []models.CategoryRecord{
		rec("1", "", "Root"),
		rec("2", "1", "Child"),
		rec("3", "99", "Orphan"),
	}}
	l := New(src, models.CategoryQuery(models.OrderSlug, 1000), locale, nil)

	if !l.Loading() {
		t.Error("expected loading before first Load")
	}

	forest, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(forest) != 2 || tree.Count(forest) != 3 {
		t.Errorf("roots = %d, nodes = %d, want 2/3", len(forest), tree.Count(forest))
	}
	if l.Loading() {
		t.Error("still loading after Load")
	}
	if got := l.Forest(); len(got) != 2 {
		t.Errorf("Forest roots = %d, want 2", len(got))
	}

	src.mu.Lock()
	q := src.lastQ
	src.mu.Unlock()
	if q.ContentType != models.ContentTypeCategory || q.Order != models.OrderSlug || q.Limit != 1000 {
		t.Errorf("query = %+v", q)
	}
}

func TestLoad_FailureEmptiesForestAndNotifies(t *testing.T) {
	src := &fakeSource{records: []models.CategoryRecord{rec("1", "", "Root")}}
	n := &recordingNotifier{}
	l := New(src, models.CategoryQuery("", 0), locale, n)

	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	boom := errors.New("unauthorized")
	src.err = boom
	forest, err := l.Load(context.Background())
	if !errors.Is(err, ErrFetchFailed) || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want ErrFetchFailed wrapping %v", err, boom)
	}
	if forest != nil {
		t.Errorf("forest = %v, want nil", forest)
	}
	if len(l.Forest()) != 0 {
		t.Errorf("Forest after failure has %d roots, want 0", len(l.Forest()))
	}
	if l.Loading() {
		t.Error("loading not cleared after failure")
	}
	if n.count() != 1 || n.msgs[0] != FailedMessage {
		t.Errorf("notifications = %v", n.msgs)
	}
	if src.calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (no retry)", src.calls.Load())
	}
}

func TestLoad_OverlappingShareFetch(t *testing.T) {
	src := &fakeSource{
		records: []models.CategoryRecord{rec("1", "", "Root")},
		gate:    make(chan struct{}),
	}
	l := New(src, models.CategoryQuery("", 0), locale, nil)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.Load(context.Background())
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("Load %d: %v", i, err)
		}
	}
	if got := src.calls.Load(); got < 1 || got > 3 {
		t.Errorf("calls = %d", got)
	}
	if len(l.Forest()) != 1 || l.Loading() {
		t.Errorf("forest = %d roots, loading = %v", len(l.Forest()), l.Loading())
	}
}

func TestLoad_DiscardedAfterClose(t *testing.T) {
	src := &fakeSource{
		records: []models.CategoryRecord{rec("1", "", "Root")},
		gate:    make(chan struct{}),
	}
	n := &recordingNotifier{}
	l := New(src, models.CategoryQuery("", 0), locale, n)

	done := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background())
		done <- err
	}()

	for src.calls.Load() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	l.Close()
	close(src.gate)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if len(l.Forest()) != 0 {
		t.Error("forest installed after Close")
	}
	if n.count() != 0 {
		t.Errorf("notified after Close: %v", n.msgs)
	}
	if _, err := l.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Load after Close: err = %v, want ErrClosed", err)
	}
}

func TestLoad_ContextCancelled(t *testing.T) {
	src := &fakeSource{gate: make(chan struct{})}
	defer close(src.gate)
	l := New(src, models.CategoryQuery("", 0), locale, &recordingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

// waitCalls blocks until src has been called n times.
func waitCalls(t *testing.T, src *fakeSource, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for src.calls.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("source calls = %d, want %d", src.calls.Load(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoad_CallerGoneKeepsForest(t *testing.T) {
	src := &fakeSource{records: []models.CategoryRecord{rec("1", "", "Root")}}
	n := &recordingNotifier{}
	l := New(src, models.CategoryQuery("", 0), locale, n)
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	src.gate = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := l.Load(ctx)
		done <- err
	}()
	waitCalls(t, src, 2)
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrFetchFailed) {
		t.Fatalf("err = %v, want context.Canceled only", err)
	}
	if got := tree.Count(l.Forest()); got != 1 {
		t.Errorf("forest = %d nodes after caller left, want 1", got)
	}
	if n.count() != 0 {
		t.Errorf("notified: %v", n.msgs)
	}

	// The abandoned fetch still lands.
	src.records = []models.CategoryRecord{rec("1", "", "Root"), rec("2", "1", "Child")}
	close(src.gate)
	deadline := time.Now().Add(2 * time.Second)
	for l.Loading() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := tree.Count(l.Forest()); got != 2 || l.Loading() {
		t.Errorf("after fetch: %d nodes, loading = %v; want 2, false", got, l.Loading())
	}
}

// snapshotSource reads its records when called, then waits for gate.
type snapshotSource struct {
	mu      sync.Mutex
	records []models.CategoryRecord
	gate    chan struct{}
	calls   atomic.Int32
}

func (s *snapshotSource) add(r models.CategoryRecord) {
	s.mu.Lock()
	s.records = append(s.records, r)
	s.mu.Unlock()
}

func (s *snapshotSource) GetMany(context.Context, models.RecordQuery) ([]models.CategoryRecord, error) {
	s.mu.Lock()
	out := append([]models.CategoryRecord(nil), s.records...)
	s.mu.Unlock()
	s.calls.Add(1)
	<-s.gate
	return out, nil
}

func TestRefresh_SkipsFetchStartedBeforeWrite(t *testing.T) {
	src := &snapshotSource{
		records: []models.CategoryRecord{rec("1", "", "Root")},
		gate:    make(chan struct{}),
	}
	l := New(src, models.CategoryQuery("", 0), locale, nil)

	first := make(chan error, 1)
	go func() {
		_, err := l.Load(context.Background())
		first <- err
	}()
	for src.calls.Load() < 1 {
		time.Sleep(5 * time.Millisecond)
	}

	src.add(rec("2", "1", "Created"))
	refreshed := make(chan []*models.TreeNode, 1)
	go func() {
		forest, err := l.Refresh(context.Background())
		if err != nil {
			t.Errorf("Refresh: %v", err)
		}
		refreshed <- forest
	}()
	for src.calls.Load() < 2 {
		time.Sleep(5 * time.Millisecond)
	}
	close(src.gate)

	if err := <-first; err != nil {
		t.Fatalf("first Load: %v", err)
	}
	if forest := <-refreshed; tree.Find(forest, "2") == nil {
		t.Error("Refresh returned records read before the write")
	}
	if tree.Find(l.Forest(), "2") == nil || tree.Count(l.Forest()) != 2 {
		t.Errorf("installed forest = %d nodes, want the post-write 2", tree.Count(l.Forest()))
	}
}

func TestSnapshot(t *testing.T) {
	src := &fakeSource{records: []models.CategoryRecord{rec("1", "", "Root"), rec("2", "1", "Child")}}
	l := New(src, models.CategoryQuery("", 0), locale, nil)

	forest, loading := l.Snapshot()
	if len(forest) != 0 || !loading {
		t.Errorf("before load: %d roots, loading=%v", len(forest), loading)
	}
	if _, err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	forest, loading = l.Snapshot()
	if len(forest) != 1 || loading {
		t.Errorf("after load: %d roots, loading=%v", len(forest), loading)
	}
}
