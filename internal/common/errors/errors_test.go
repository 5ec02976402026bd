package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorCategory(t *testing.T) {
	validation := []ErrorCode{
		ErrCodeApplicantNotFound,
		ErrCodeApplicantInactive,
		ErrCodeFileMissing,
		ErrCodeFileTooLarge,
		ErrCodeInvalidFileType,
		ErrCodeApplicationNotFound,
		ErrCodeInvalidRequest,
	}
	for _, code := range validation {
		assert.Equal(t, CategoryValidation, GetErrorCategory(code), code)
		assert.Equal(t, http.StatusBadRequest, HTTPStatus(code), code)
	}

	internal := []ErrorCode{
		ErrCodeApplicantCheckFailed,
		ErrCodeFileStoreFailed,
		ErrCodeDatabaseError,
		ErrCodeInternal,
		"SOMETHING_NEW",
	}
	for _, code := range internal {
		assert.Equal(t, CategoryInternal, GetErrorCategory(code), code)
		assert.Equal(t, http.StatusInternalServerError, HTTPStatus(code), code)
	}

	assert.Equal(t, http.StatusOK, HTTPStatus(""))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeDatabaseError, "Database error", cause)

	assert.Equal(t, "connection refused", err.Details)
	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, ErrCodeDatabaseError, CodeOf(fmt.Errorf("insert: %w", err)))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrCodeFileMissing, CodeOf(New(ErrCodeFileMissing, "No file provided.")))
}

func TestToBPMNError(t *testing.T) {
	bpmn := ToBPMNError(NewDatabaseError(stderrors.New("deadlock")))
	assert.Equal(t, "DATABASE_ERROR", bpmn.Code)
	assert.Equal(t, "deadlock", bpmn.Details)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "DATABASE_ERROR", vars["errorCode"])
	assert.Equal(t, "internal", vars["errorCategory"])
	require.Contains(t, vars, "timestamp")

	plain := ToBPMNError(stderrors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", plain.Code)
	assert.Equal(t, "boom", plain.Details)
}
