package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestFiguresCommand(t *testing.T) {
	out, err := execute(t, "figures", "--salary", "52000", "--periods", "26")
	require.NoError(t, err)
	assert.Contains(t, out, "2,000.00")
	assert.Contains(t, out, "Net pay")
	assert.Contains(t, out, "dollars and")
}

func TestFiguresCommandRejectsBadSalary(t *testing.T) {
	_, err := execute(t, "figures", "--salary", "0")
	require.Error(t, err)
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	fields := filepath.Join(dir, "employee.yaml")
	require.NoError(t, os.WriteFile(fields, []byte(strings.Join([]string{
		"name: Ana",
		"last_name: Lopez",
		"company: Acme Corp",
		"client_address: 12 Main St",
		"city_state: Austin, TX",
		"ssn_digits: \"1234\"",
		"dependents: \"2\"",
	}, "\n")), 0o600))
	archivePath := filepath.Join(dir, "out.zip")

	out, err := execute(t, "generate",
		"--salary", "52000",
		"--start", "2024-01-05",
		"--end", "2024-01-19",
		"--fields", fields,
		"--out", archivePath,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "AnaLopez_01192024.pdf")

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()
	require.NotEmpty(t, zr.File)
	for _, f := range zr.File {
		assert.True(t, strings.HasSuffix(f.Name, ".pdf"), f.Name)
	}
}

func TestGenerateCommandMissingFields(t *testing.T) {
	_, err := execute(t, "generate", "--salary", "52000", "--start", "2024-01-05", "--end", "2024-01-19",
		"--fields", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTemplateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.docx")
	_, err := execute(t, "template", "--out", path)
	require.NoError(t, err)

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "word/document.xml")

	out, err := execute(t, "template", "--tokens")
	require.NoError(t, err)
	assert.Contains(t, out, "<<salaryytd>>")
}
