package workers

import (
	"context"
	"errors"
	"testing"

	"swapledger/internal/services/ledger"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubExpirer struct {
	report *ledger.ExpireReport
	err    error
	calls  int
}

func (s *stubExpirer) Expire(ctx context.Context) (*ledger.ExpireReport, error) {
	s.calls++
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep must run with a deadline")
	}
	return s.report, s.err
}

func TestRunOnce(t *testing.T) {
	tests := []struct {
		name    string
		report  *ledger.ExpireReport
		err     error
		wantMsg string
		level   zapcore.Level
	}{
		{
			name:    "clean sweep",
			report:  &ledger.ExpireReport{Scanned: 3, Expired: 3, Credits: 300},
			wantMsg: "expiration sweep finished",
			level:   zapcore.InfoLevel,
		},
		{
			name:    "partial failure",
			report:  &ledger.ExpireReport{Scanned: 3, Expired: 2, Credits: 200, Failed: 1},
			wantMsg: "expiration sweep finished with failures",
			level:   zapcore.WarnLevel,
		},
		{
			name:    "sweep error",
			err:     errors.New("db down"),
			wantMsg: "expiration sweep failed",
			level:   zapcore.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			expirer := &stubExpirer{report: tt.report, err: tt.err}
			w, err := NewExpirationWorker(expirer, "", clockwork.NewFakeClock(), zap.New(core))
			require.NoError(t, err)

			report := w.RunOnce(context.Background())
			assert.Equal(t, tt.report, report)
			assert.Equal(t, 1, expirer.calls)

			entries := logs.FilterMessage(tt.wantMsg).All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
		})
	}
}

func TestStart(t *testing.T) {
	w, err := NewExpirationWorker(&stubExpirer{}, "*/5 * * * *", clockwork.NewFakeClock(), nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
}

func TestStart_InvalidCron(t *testing.T) {
	w, err := NewExpirationWorker(&stubExpirer{}, "every tuesday", clockwork.NewFakeClock(), nil)
	require.NoError(t, err)
	assert.Error(t, w.Start())
}
