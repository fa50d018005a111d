package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockCompletionChecker struct {
	err error
}

func (m *mockCompletionChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")

	tests := []struct {
		name       string
		db         DBPinger
		completion CompletionChecker
		wantStatus Status
		wantChecks map[string]CheckResult
	}{
		{
			name:       "all_healthy",
			db:         &mockDBPinger{},
			completion: &mockCompletionChecker{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"database": CheckOK, "completion": CheckOK},
		},
		{
			name:       "db_error",
			db:         &mockDBPinger{err: down},
			completion: &mockCompletionChecker{},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"database": CheckError, "completion": CheckOK},
		},
		{
			name:       "completion_error",
			db:         &mockDBPinger{},
			completion: &mockCompletionChecker{err: down},
			wantStatus: Degraded,
			wantChecks: map[string]CheckResult{"database": CheckOK, "completion": CheckError},
		},
		{
			name:       "both_fail",
			db:         &mockDBPinger{err: down},
			completion: &mockCompletionChecker{err: down},
			wantStatus: Unhealthy,
			wantChecks: map[string]CheckResult{"database": CheckError, "completion": CheckError},
		},
		{
			name:       "memory_driver",
			completion: &mockCompletionChecker{},
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{"completion": CheckOK},
		},
		{
			name:       "nothing_to_check",
			wantStatus: Healthy,
			wantChecks: map[string]CheckResult{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(tc.db, tc.completion).Check(context.Background())

			if r.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", r.Status, tc.wantStatus)
			}
			if len(r.Checks) != len(tc.wantChecks) {
				t.Fatalf("checks = %v, want %v", r.Checks, tc.wantChecks)
			}
			for k, v := range tc.wantChecks {
				if r.Checks[k] != v {
					t.Errorf("checks[%s] = %q, want %q", k, r.Checks[k], v)
				}
			}
		})
	}
}
