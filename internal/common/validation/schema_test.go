package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitSchema(t *testing.T) {
	res := SubmitLoanApplicationSchema.ValidateJSON([]byte(`{"applicantId":"a-1","filePath":"/tmp/x.jpg"}`))
	assert.True(t, res.Valid)

	res = SubmitLoanApplicationSchema.ValidateJSON([]byte(`{"filePath":"/tmp/x.jpg"}`))
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Errors)
	assert.Contains(t, res.Error(), "applicantId")
}

func TestUpdateStatusSchema(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{"ok", `{"applicationId": 12, "status": "approved"}`, true},
		{"arbitrary status accepted", `{"applicationId": 12, "status": "escalated"}`, true},
		{"missing status", `{"applicationId": 12}`, false},
		{"fractional id", `{"applicationId": 1.5, "status": "approved"}`, false},
		{"zero id", `{"applicationId": 0, "status": "approved"}`, false},
		{"empty status", `{"applicationId": 3, "status": ""}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := UpdateLoanApplicationStatusSchema.ValidateJSON([]byte(tt.body))
			assert.Equal(t, tt.valid, res.Valid, res.Error())
		})
	}
}

func TestListSchema_AllowsNullApplicant(t *testing.T) {
	assert.True(t, ListLoanApplicationsSchema.ValidateJSON([]byte(`{}`)).Valid)
	assert.True(t, ListLoanApplicationsSchema.ValidateJSON([]byte(`{"applicantId": null}`)).Valid)
	assert.False(t, ListLoanApplicationsSchema.ValidateJSON([]byte(`{"applicantId": 5}`)).Valid)
}

func TestValidate_GoValue(t *testing.T) {
	res := UpdateStatusRequestSchema.Validate(map[string]interface{}{
		"application_id": 4,
		"status":         "rejected",
	})
	assert.True(t, res.Valid)
}

func TestValidateJSON_Malformed(t *testing.T) {
	res := SubmitLoanApplicationSchema.ValidateJSON([]byte(`{not json`))
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("(root)"))
}

func TestCompile_BadSchema(t *testing.T) {
	_, err := Compile("bad", `{"type": 12}`)
	assert.Error(t, err)
}
