package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// Mock objects
type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences table: one counter per key.
type mockQuerier struct {
	mu     sync.Mutex
	values map[string]int64
	calls  int
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{values: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	key, _ := args[0].(string)
	var increment int64 = 1
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}

	m.values[key] += increment
	return &mockRow{val: m.values[key]}
}

var testPeriod = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func TestGetNextNumber_Strict(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := InvoiceConfig()

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-2026-00001" {
		t.Errorf("expected INV-2026-00001, got %s", num)
	}

	num, err = svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "INV-2026-00002" {
		t.Errorf("expected INV-2026-00002, got %s", num)
	}
}

func TestGetNextNumber_BatchDailyReset(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := BatchConfig()

	num, err := svc.GetNextNumber(ctx, cfg, nil, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "BATCH-20260830-0001" {
		t.Errorf("expected BATCH-20260830-0001, got %s", num)
	}

	// Next day starts from 0001 again: the key carries the date.
	nextDay := testPeriod.AddDate(0, 0, 1)
	num, err = svc.GetNextNumber(ctx, cfg, nil, nextDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "BATCH-20260831-0001" {
		t.Errorf("expected BATCH-20260831-0001, got %s", num)
	}
}

func TestGetNextNumber_Cached(t *testing.T) {
	q := newMockQuerier()
	svc := New(q)
	ctx := context.Background()
	cfg := DefaultConfig("ORD")

	opts := &Options{
		Strategy:  StrategyCached,
		RangeSize: 10,
	}

	// First call allocates range 1..10 from DB.
	num, err := svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-00001" {
		t.Errorf("expected ORD-2026-00001, got %s", num)
	}
	if q.calls != 1 {
		t.Errorf("expected 1 DB call, got %d", q.calls)
	}

	// Second call served from memory.
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-00002" {
		t.Errorf("expected ORD-2026-00002, got %s", num)
	}
	if q.calls != 1 {
		t.Errorf("expected DB calls to stay at 1, got %d", q.calls)
	}

	// Exhaust the range; the next call reserves 11..20.
	for i := 0; i < 8; i++ {
		_, _ = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	}
	num, err = svc.GetNextNumber(ctx, cfg, opts, testPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-00011" {
		t.Errorf("expected ORD-2026-00011, got %s", num)
	}
	if q.calls != 2 {
		t.Errorf("expected 2 DB calls, got %d", q.calls)
	}
}
