package promptbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/beliefbench/errs"
)

const testBankYAML = `
version: "1.0.0"
system_text: "You are a careful fact checker."
schema_instructions: "Respond with strict JSON: {\"prob_true\": <float 0-1>}"
user_template: "{{paraphrase}}"
paraphrases:
  - "Is it true that {{claim}}?"
  - "Do you believe {{claim}}?"
`

func writeTestBank(t *testing.T, dir, version, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, version+".yaml"), []byte(content), 0o600))
}

func TestFileLoader_LoadValid(t *testing.T) {
	dir := t.TempDir()
	writeTestBank(t, dir, "1.0.0", testBankYAML)

	loader := NewFileLoader(dir)
	bank, err := loader.Load("1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", bank.Version)
	assert.Len(t, bank.Paraphrases, 2)
}

func TestFileLoader_NotFound(t *testing.T) {
	loader := NewFileLoader(t.TempDir())
	_, err := loader.Load("9.9.9")
	assert.ErrorIs(t, err, errs.ErrPromptNotFound)
}

func TestFileLoader_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeTestBank(t, dir, "2.0.0", "not: valid: yaml: [")

	loader := NewFileLoader(dir)
	_, err := loader.Load("2.0.0")
	assert.ErrorIs(t, err, errs.ErrPromptMalformed)
}

func TestFileLoader_VersionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeTestBank(t, dir, "3.0.0", testBankYAML) // declares 1.0.0 inside

	loader := NewFileLoader(dir)
	_, err := loader.Load("3.0.0")
	assert.ErrorIs(t, err, errs.ErrPromptMalformed)
}

func TestFileLoader_MissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	writeTestBank(t, dir, "1.1.0", `
version: "1.1.0"
system_text: ""
user_template: "x"
paraphrases: ["a"]
`)

	loader := NewFileLoader(dir)
	_, err := loader.Load("1.1.0")
	assert.ErrorIs(t, err, errs.ErrPromptMalformed)
}

func TestFileLoader_NoParaphrases(t *testing.T) {
	dir := t.TempDir()
	writeTestBank(t, dir, "1.2.0", `
version: "1.2.0"
system_text: "x"
user_template: "y"
paraphrases: []
`)

	loader := NewFileLoader(dir)
	_, err := loader.Load("1.2.0")
	assert.ErrorIs(t, err, errs.ErrPromptMalformed)
}

func TestStaticLoader(t *testing.T) {
	bank := &Bank{
		Version:      "1.0.0",
		SystemText:   "sys",
		UserTemplate: "user",
		Paraphrases:  []string{"p1"},
	}
	loader := NewStaticLoader(bank)

	got, err := loader.Load("1.0.0")
	require.NoError(t, err)
	assert.Same(t, bank, got)

	_, err = loader.Load("missing")
	assert.ErrorIs(t, err, errs.ErrPromptNotFound)
}

func TestValidateVersion(t *testing.T) {
	assert.NoError(t, ValidateVersion("1.0.0"))
	assert.NoError(t, ValidateVersion("v1.2.3"))
	assert.Error(t, ValidateVersion("1.0"))
	assert.Error(t, ValidateVersion("latest"))
	assert.Error(t, ValidateVersion(""))
}
