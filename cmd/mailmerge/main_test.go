package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-mailmerge/pkg/mailmerge"
)

func writeTestXlsx(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	require.NoError(t, f.SaveAs(path))
}

func writeTestDocx(t *testing.T, path, text string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = io.WriteString(fw, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>`+text+`</w:t></w:r></w:p><w:sectPr/></w:body></w:document>`)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func clearMailmergeEnv(t *testing.T) {
	for _, k := range []string{"MAILMERGE_MODE", "MAILMERGE_WORKERS", "MAILMERGE_ARCHIVE", "MAILMERGE_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestRunMissingInputs(t *testing.T) {
	clearMailmergeEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), nil, &stdout, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "no table selected")
	assert.Contains(t, stderr.String(), "no template selected")
}

func TestRunVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-version"}, &stdout, &stderr)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout.String(), version)
}

func TestRunBadFlags(t *testing.T) {
	clearMailmergeEnv(t)
	var stdout, stderr bytes.Buffer

	code := run(context.Background(), []string{"-x", "a.xlsx", "-w", "b.docx", "-mode", "sideways", "-format", "xml"}, &stdout, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "unknown output mode")
	assert.Contains(t, stderr.String(), "format")
}

func TestRunCombined(t *testing.T) {
	clearMailmergeEnv(t)
	dir := t.TempDir()
	table := filepath.Join(dir, "people.xlsx")
	tmpl := filepath.Join(dir, "letter.docx")
	writeTestXlsx(t, table, [][]interface{}{{"Name"}, {"Ada"}, {"Grace"}})
	writeTestDocx(t, tmpl, "Dear @Name")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-x", table, "-w", tmpl, "-q", "-format", "json"}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var summaries []summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "combined", summaries[0].Mode)
	assert.Equal(t, 2, summaries[0].Rows)
	assert.Equal(t, []string{filepath.Join(dir, "letter_Result.docx")}, summaries[0].Files)
}

func TestRunPerRow(t *testing.T) {
	clearMailmergeEnv(t)
	dir := t.TempDir()
	table := filepath.Join(dir, "people.xlsx")
	tmpl := filepath.Join(dir, "letter.docx")
	writeTestXlsx(t, table, [][]interface{}{{"Name"}, {"Ada"}, {"Grace"}, {"Linus"}})
	writeTestDocx(t, tmpl, "Dear @Name")

	out := filepath.Join(dir, "out")
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-table", table, "-template", tmpl, "-mode", "per-row", "-workers", "2", "-out", out, "-format", "yaml",
	}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	var summaries []summary
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, 3, summaries[0].Rows)
	assert.Equal(t, filepath.Join(dir, "letter.zip"), summaries[0].Archive)

	for _, name := range []string{"letter_1.docx", "letter_2.docx", "letter_3.docx"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, stderr.String(), "100%")
}

func TestRunMissingTemplateFile(t *testing.T) {
	clearMailmergeEnv(t)
	dir := t.TempDir()
	table := filepath.Join(dir, "people.xlsx")
	writeTestXlsx(t, table, [][]interface{}{{"Name"}, {"Ada"}})

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-x", table, "-w", filepath.Join(dir, "nope.docx"), "-q"}, &stdout, &stderr)
	assert.Equal(t, exitFatal, code)
	assert.Contains(t, stderr.String(), "nope.docx")
}

func TestRenderBar(t *testing.T) {
	assert.Equal(t, "[███████████████░░░░░░░░░░░░░░░]  50% (1/2)", renderBar(mailmerge.Progress{Completed: 1, Total: 2}))
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░░░░░░░░░░░]   0% (0/4)", renderBar(mailmerge.Progress{Completed: 0, Total: 4}))
}

func TestWriteSummaryText(t *testing.T) {
	var buf bytes.Buffer
	err := writeSummary(&buf, "text", []*mailmerge.Result{{
		Mode:     mailmerge.ModeCombined,
		Template: "letter.docx",
		Rows:     2,
		Files:    []string{"letter_Result.docx"},
	}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "letter.docx: 2 row(s) merged into letter_Result.docx (combined mode")
}

func TestRunPerRowBatchRejected(t *testing.T) {
	clearMailmergeEnv(t)
	dir := t.TempDir()
	north := filepath.Join(dir, "north.xlsx")
	south := filepath.Join(dir, "south.xlsx")
	tmpl := filepath.Join(dir, "letter.docx")
	writeTestXlsx(t, north, [][]interface{}{{"Name"}, {"Ada"}})
	writeTestXlsx(t, south, [][]interface{}{{"Name"}, {"Linus"}})
	writeTestDocx(t, tmpl, "Dear @Name")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-x", north, "-x", south, "-w", tmpl, "-mode", "per-row", "-q"}, &stdout, &stderr)
	assert.Equal(t, exitConfig, code)
	assert.Contains(t, stderr.String(), "per-row output takes one table and one template")
	assert.Empty(t, stdout.String())
}
