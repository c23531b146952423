package maintenance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/maloquacious/dbmaint/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeStore is an in-memory store that records every statement kind it receives.
type fakeStore struct {
	mu        sync.Mutex
	names     []string
	rows      map[string]int64
	fkOn      bool
	disables  int
	enables   int
	calls     []string
	listErr   error
	countErr  map[string]error
	deleteErr map[string]error
	dropErr   map[string]error
	enableErr []error // consumed one per enable call
	onDelete  func(table string)
}

func newFakeStore(tables ...any) *fakeStore {
	s := &fakeStore{rows: map[string]int64{}, fkOn: true}
	for i := 0; i < len(tables); i += 2 {
		name := tables[i].(string)
		s.names = append(s.names, name)
		s.rows[name] = int64(tables[i+1].(int))
	}
	return s
}

func (s *fakeStore) record(call string) {
	s.calls = append(s.calls, call)
}

func (s *fakeStore) ListTables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list")
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]string(nil), s.names...), nil
}

func (s *fakeStore) CountRows(ctx context.Context, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("count " + table)
	if err := s.countErr[table]; err != nil {
		return 0, err
	}
	n, ok := s.rows[table]
	if !ok {
		return 0, fmt.Errorf("no such table: %s", table)
	}
	return n, nil
}

func (s *fakeStore) DeleteRows(ctx context.Context, table string) (int64, error) {
	if s.onDelete != nil {
		s.onDelete(table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("delete " + table)
	if err := s.deleteErr[table]; err != nil {
		return 0, err
	}
	n := s.rows[table]
	s.rows[table] = 0
	return n, nil
}

func (s *fakeStore) DropTable(ctx context.Context, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("drop " + table)
	if err := s.dropErr[table]; err != nil {
		return err
	}
	delete(s.rows, table)
	kept := s.names[:0]
	for _, name := range s.names {
		if name != table {
			kept = append(kept, name)
		}
	}
	s.names = kept
	return nil
}

func (s *fakeStore) ResetSequences(ctx context.Context, tables []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(fmt.Sprintf("reset %v", tables))
	return nil
}

func (s *fakeStore) SetForeignKeys(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !enabled {
		s.record("fk off")
		s.disables++
		s.fkOn = false
		return nil
	}
	s.record("fk on")
	s.enables++
	if len(s.enableErr) > 0 {
		err := s.enableErr[0]
		s.enableErr = s.enableErr[1:]
		if err != nil {
			return err
		}
	}
	s.fkOn = true
	return nil
}

func (s *fakeStore) Close() error { return nil }

// mutations returns the recorded calls that change data or schema.
func (s *fakeStore) mutations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, c := range s.calls {
		for _, prefix := range []string{"delete ", "drop ", "reset ", "fk "} {
			if strings.HasPrefix(c, prefix) {
				out = append(out, c)
			}
		}
	}
	return out
}

// scriptedPrompter replays canned answers.
type scriptedPrompter struct {
	answers   []string
	questions []string
	err       error
}

func (p *scriptedPrompter) Prompt(ctx context.Context, question string) (string, error) {
	p.questions = append(p.questions, question)
	if p.err != nil {
		return "", p.err
	}
	if len(p.answers) == 0 {
		return "", nil
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

var errBoom = errors.New("boom")

type harness struct {
	tool   *Tool
	store  *fakeStore
	prompt *scriptedPrompter
	out    *bytes.Buffer
	logs   *observer.ObservedLogs
}

func newHarness(t *testing.T, s *fakeStore, opts Options, answers ...string) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	var log logger.Logger = logger.FromZap(zap.New(core))
	out := &bytes.Buffer{}
	p := &scriptedPrompter{answers: answers}
	return &harness{
		tool:   New(s, opts, p, NewReporter(out, "v0.1.0", false), log),
		store:  s,
		prompt: p,
		out:    out,
		logs:   logs,
	}
}
