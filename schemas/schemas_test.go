package schemas

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportSchema_ValidJSON(t *testing.T) {
	data, err := os.ReadFile("report.schema.json")
	require.NoError(t, err)
	assert.Equal(t, data, Report, "embedded schema should match the file on disk")

	var schemaObj map[string]interface{}
	require.NoError(t, json.Unmarshal(Report, &schemaObj))

	_, hasSchema := schemaObj["$schema"]
	_, hasProps := schemaObj["properties"]
	assert.True(t, hasSchema)
	assert.True(t, hasProps)
}

func TestReportSchema_CoversReportFields(t *testing.T) {
	var schemaObj struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(Report, &schemaObj))

	for _, field := range []string{"ats_feedback", "keywords", "star_bullets", "outreach", "interview", "result", "downloads"} {
		assert.Contains(t, schemaObj.Properties, field)
	}
}
