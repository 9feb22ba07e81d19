package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewTicketUpdateFailedError("TK1", stderrors.New("connection reset"))

	bpmnErr := ConvertToBPMNError(stdErr)
	assert.Equal(t, "TICKET_STORE_UNAVAILABLE", bpmnErr.Code)
	assert.True(t, bpmnErr.Retryable)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.Equal(t, "connection reset", bpmnErr.Details)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "TICKET_UPDATE_FAILED", vars["originalErrorCode"])
	assert.Equal(t, "TK1", vars["ticketNumber"])
	assert.Equal(t, "TICKET_STORE_UNAVAILABLE", vars["errorCode"])
}

func TestConvertToBPMNError_BusinessError(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewInvalidInputError("sessionId is required"))

	assert.Equal(t, "INVALID_INPUT", bpmnErr.Code)
	assert.False(t, bpmnErr.Retryable)
	assert.Zero(t, bpmnErr.Retries)
	assert.Equal(t, "sessionId is required", bpmnErr.Details)
}

func TestConvertToBPMNError_UnmappedCode(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewTimeoutError("redis", context.DeadlineExceeded))
	assert.Equal(t, "TIMEOUT_ERROR", bpmnErr.Code)
	assert.Equal(t, 2, bpmnErr.Retries)
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeSessionLoadFailed, 3},
		{ErrCodeArchiveFailed, 3},
		{ErrCodeSessionBusy, 2},
		{ErrCodeTimeout, 2},
		{ErrCodeInvalidInput, 0},
		{ErrCodeTicketNotFound, 0},
		{ErrCodeCatalogInvalid, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestNormalize(t *testing.T) {
	original := NewSessionBusyError("s-1")
	wrapped := fmt.Errorf("handle message: %w", original)

	got := Normalize(wrapped)
	assert.Same(t, original, got)

	timeout := Normalize(fmt.Errorf("load: %w", context.DeadlineExceeded))
	assert.Equal(t, ErrCodeTimeout, timeout.Code)
	assert.True(t, stderrors.Is(timeout, context.DeadlineExceeded))

	unknown := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, unknown.Code)
	assert.False(t, unknown.Retryable)
}

func TestNewCatalogInvalidError(t *testing.T) {
	cause := stderrors.New("topic \"download\" has no keywords")
	err := NewCatalogInvalidError(cause)

	assert.Equal(t, ErrCodeCatalogInvalid, err.Code)
	assert.False(t, err.Retryable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "CATALOG_INVALID")
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := NewDatabaseConnectionFailedError(cause)

	assert.ErrorIs(t, err, cause)
	stdErr, ok := AsStandardError(fmt.Errorf("wrap: %w", err))
	require.True(t, ok)
	assert.Equal(t, ErrCodeDatabaseConnectionFailed, stdErr.Code)
	assert.Contains(t, err.Error(), "DATABASE_CONNECTION_FAILED")
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SESSION", GetErrorCategory(ErrCodeSessionBusy))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeTicketCreateFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeArchiveFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationPublishFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeTimeout))
}

func TestRemainingRetries(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: retries}}
	}

	assert.Equal(t, int32(2), remainingRetries(job(3), 3))
	assert.Equal(t, int32(3), remainingRetries(job(10), 3))
	assert.Equal(t, int32(0), remainingRetries(job(1), 3))
	assert.Equal(t, int32(0), remainingRetries(job(0), 3))
}
