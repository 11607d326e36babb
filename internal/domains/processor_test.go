package domains

import (
	"context"
	"errors"
	"testing"

	"crp/dptrain/internal/framework"
	"crp/dptrain/pkg/errorutil"
	"crp/dptrain/pkg/lmstfyx"
)

// nopLogger 测试用空日志
type nopLogger struct{}

func (nopLogger) Debugf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Infof(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Warnf(ctx context.Context, format string, args ...interface{})  {}
func (nopLogger) Errorf(ctx context.Context, format string, args ...interface{}) {}
func (nopLogger) Sync() error                                                    { return nil }

func TestSettleJobSuccess(t *testing.T) {
	resp := settleJob(context.Background(), []byte(`{"processed":true}`), nil, nopLogger{})
	if resp.Action != lmstfyx.JobRespStatusSuccess {
		t.Fatalf("action = %d, want success", resp.Action)
	}
	if len(resp.Data) == 0 {
		t.Fatal("response data missing")
	}
}

func TestSettleJobRetryable(t *testing.T) {
	err := errorutil.Retriable("queue publish timed out")
	resp := settleJob(context.Background(), nil, err, nopLogger{})
	if resp.Action != lmstfyx.JobRespStatusRelease {
		t.Fatalf("action = %d, want release for retryable error", resp.Action)
	}
}

func TestSettleJobNonRetryable(t *testing.T) {
	cases := []error{
		errorutil.DataQuality("no transactions survived cleaning"),
		errorutil.Schema("missing required mappings: order_id"),
		errorutil.Dependency("boosted tree classifier backend unavailable"),
		errors.New("plain error"),
	}
	for _, err := range cases {
		resp := settleJob(context.Background(), nil, err, nopLogger{})
		if resp.Action != lmstfyx.JobRespStatusBury {
			t.Fatalf("action = %d for %v, want bury", resp.Action, err)
		}
	}
}

func TestGetProcessInvalidJob(t *testing.T) {
	proc := GetProcess(nopLogger{}, nil)

	resp := proc(context.Background(), &framework.Message{
		ID:   "job-1",
		Data: []byte("not json"),
	})
	if resp.Action != lmstfyx.JobRespStatusBury {
		t.Fatalf("action = %d, want bury for malformed job", resp.Action)
	}
}

func TestGetProcessUnknownActionType(t *testing.T) {
	proc := GetProcess(nopLogger{}, nil)

	job := []byte(`{"payload":{"data":{"request_id":"r1","action_type":"no_such_action","org_id":"o1","id":"run-1","data":{}}}}`)
	resp := proc(context.Background(), &framework.Message{ID: "job-2", Data: job})
	if resp.Action != lmstfyx.JobRespStatusBury {
		t.Fatalf("action = %d, want bury for unknown action type", resp.Action)
	}
}

func TestHandlerMapRegistration(t *testing.T) {
	if _, ok := HandlerMap["train_pipeline"]; !ok {
		t.Fatal("train_pipeline handler not registered")
	}
}
