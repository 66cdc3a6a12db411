package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/msto63/structlint/internal/validator"
	mdwerrors "github.com/msto63/structlint/pkg/core/errors"
)

func sample() *Report {
	r := &Report{}
	r.Add(File{Path: "a.cfg", Diagnostics: []validator.Diagnostic{
		{Line: 0, StartCol: 0, EndCol: 1, Message: "Block \"A\" was not closed.", Severity: validator.SeverityError, Rule: validator.RuleUnclosed},
		{Line: 4, StartCol: 2, EndCol: 3, Message: "Duplicate key \"k\".", Severity: validator.SeverityWarning, Rule: validator.RuleDuplicateKey},
	}})
	r.Add(File{Path: "b.cfg"})
	return r
}

func TestReport_Add(t *testing.T) {
	r := sample()
	assert.Equal(t, Summary{Files: 2, Errors: 1, Warnings: 1}, r.Summary)
	assert.True(t, r.HasErrors())
	assert.NotNil(t, r.Files[1].Diagnostics)
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatText, false).Write(sample()))
	assert.Equal(t,
		"a.cfg:1:1: error: Block \"A\" was not closed. [unclosed-block]\n"+
			"a.cfg:5:3: warning: Duplicate key \"k\". [duplicate-key]\n"+
			"1 error, 1 warning in 2 files\n",
		buf.String())
}

func TestWrite_TextFaults(t *testing.T) {
	r := &Report{}
	r.Add(File{Path: "a.cfg", Faults: []validator.RuleFault{{Rule: "naming", Message: "boom"}}})
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatText, false).Write(r))
	assert.Equal(t, "a.cfg: internal rule \"naming\" failed: boom\n0 errors, 0 warnings in 1 file\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatJSON, false).Write(sample()))

	var decoded struct {
		Files []struct {
			Path        string `json:"path"`
			Diagnostics []struct {
				Line     int    `json:"line"`
				Severity string `json:"severity"`
				Rule     string `json:"rule"`
			} `json:"diagnostics"`
		} `json:"files"`
		Summary Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Files, 2)
	assert.Equal(t, "warning", decoded.Files[0].Diagnostics[1].Severity)
	assert.Equal(t, "duplicate-key", decoded.Files[0].Diagnostics[1].Rule)
	assert.Empty(t, decoded.Files[1].Diagnostics)
	assert.Equal(t, 1, decoded.Summary.Errors)
}

func TestWrite_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf, FormatYAML, false).Write(sample()))

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	summary := decoded["summary"].(map[string]interface{})
	assert.Equal(t, 2, summary["files"])
	assert.Contains(t, buf.String(), "severity: error")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
	assert.True(t, mdwerrors.HasCode(err, mdwerrors.CodeInvalidInput))
}

func TestColorEnabled(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}, false))
	assert.False(t, ColorEnabled(&bytes.Buffer{}, true))
}
