package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nlsql/internal/config"
	"nlsql/internal/perception"
	"nlsql/internal/store"
	"nlsql/internal/store/storetest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := config.DefaultConfig()
	c.LLM.APIKey = "test-key"
	c.Database.Path = storetest.NewDataset(t)
	return c
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	schemaVerify = false
	askPlain = false
	askTrace = false
	configPath = ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestNewApp_MissingCredential(t *testing.T) {
	c := testConfig(t)
	c.LLM.APIKey = ""

	_, err := newApp(context.Background(), c)
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestAssemble_RunsQuestions(t *testing.T) {
	llm := perception.LLMClientFunc(func(_ context.Context, prompt string) (string, error) {
		if !strings.Contains(prompt, "Database Schema:") {
			return "", errors.New("prompt lacks schema")
		}
		return "SELECT IATA_CODE FROM airports ORDER BY IATA_CODE", nil
	})

	a, err := assemble(context.Background(), testConfig(t), llm)
	require.NoError(t, err)
	defer a.Close()

	out := a.pipeline.Run(context.Background(), "list airports")
	require.NoError(t, out.Err)
	assert.Equal(t, len(storetest.Airports), out.Results.Len())
}

func TestAssemble_MissingDataset(t *testing.T) {
	c := testConfig(t)
	c.Database.Path = t.TempDir() + "/absent.db"

	_, err := assemble(context.Background(), c, perception.LLMClientFunc(nil))
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	rs := &store.ResultSet{
		Columns: []string{"IATA_CODE", "AIRLINE"},
		Records: []store.Record{
			{Fields: []store.Field{{Name: "IATA_CODE", Value: "UA"}, {Name: "AIRLINE", Value: "United Air Lines Inc."}}},
			{Fields: []store.Field{{Name: "IATA_CODE", Value: "HA"}, {Name: "AIRLINE", Value: nil}}},
		},
	}

	var buf bytes.Buffer
	writeResults(&buf, rs, true)
	out := buf.String()

	assert.Contains(t, out, "IATA_CODE")
	assert.Contains(t, out, "United Air Lines Inc.")
	assert.Contains(t, out, "NULL")
	assert.Less(t, strings.Index(out, "IATA_CODE"), strings.Index(out, "AIRLINE"))
	assert.Less(t, strings.Index(out, "UA"), strings.Index(out, "HA"))
	assert.True(t, strings.HasSuffix(out, "2 row(s)\n"))
}

func TestWriteResults_Empty(t *testing.T) {
	var buf bytes.Buffer
	writeResults(&buf, &store.ResultSet{Columns: []string{"YEAR"}, Records: []store.Record{}}, true)
	assert.Equal(t, "No rows matched.\n", buf.String())
}

func TestWriteTraces(t *testing.T) {
	var buf bytes.Buffer
	writeTraces(&buf, []perception.Trace{
		{ID: "t1", Model: "gemini-2.0-flash", Attempts: 1, DurationMs: 12, Success: true},
		{ID: "t2", Model: "gemini-2.0-flash", Attempts: 3, DurationMs: 900, ErrorMessage: "quota"},
	})
	assert.Equal(t,
		"trace t1 model=gemini-2.0-flash attempts=1 duration=12ms ok\n"+
			"trace t2 model=gemini-2.0-flash attempts=3 duration=900ms failed: quota\n",
		buf.String())
}

func TestRenderSQL_Plain(t *testing.T) {
	assert.Equal(t, "SELECT 1", renderSQL("SELECT 1", true))
	assert.Contains(t, renderSQL("SELECT 1", false), "SELECT")
}

func TestSchemaCommand(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NLSQL_DB", storetest.NewDataset(t))

	out, err := execute(t, "schema")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Database Schema:\n- Table: airlines\n"))

	out, err = execute(t, "schema", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "schema matches")
}

func TestAskCommand_RequiresCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("NLSQL_DB", storetest.NewDataset(t))

	_, err := execute(t, "ask", "show all airlines")
	assert.ErrorIs(t, err, config.ErrMissingCredential)
}

func TestAskCommand_BlankQuestion(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := execute(t, "ask", "  ", "\t")
	assert.EqualError(t, err, "question is empty")
}
