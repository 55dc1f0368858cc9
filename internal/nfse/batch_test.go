package nfse

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiscampos/internal/logger"
)

func TestImport_IsolatesMalformedInput(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "1.xml", []byte(invoiceXML("1", "100.00", "3.00", homeCode, ""))),
		writeFile(t, dir, "2.xml", []byte(invoiceXML("2", "200.00", "6.00", homeCode, ""))),
		writeFile(t, dir, "3.xml", []byte("<nfse:CompNfse><broken>")),
		writeFile(t, dir, "4.xml", []byte(invoiceXML("4", "400.00", "12.00", "3304557", ""))),
		writeFile(t, dir, "5.xml", []byte(invoiceXML("5", "500.00", "15.00", homeCode, ""))),
	}

	result := NewImporter(homeCode, 3).Import(context.Background(), paths)

	records := result.Records()
	require.Len(t, records, 4)
	assert.Equal(t, []string{"1", "2", "4", "5"}, []string{records[0].Number, records[1].Number, records[2].Number, records[3].Number})

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "3.xml", failures[0].Source)
	assert.ErrorIs(t, failures[0].Err, ErrMalformedDocument)

	assert.Equal(t, 1, result.Count(StatusError))
	assert.Len(t, result.Items, 5)
}

func TestImport_Archive(t *testing.T) {
	dir := t.TempDir()
	archive := buildZip(t,
		zipEntry{Name: "notas/", Content: ""},
		zipEntry{Name: "notas/a.xml", Content: invoiceXML("10", "100.00", "3.00", homeCode, "")},
		zipEntry{Name: "leiame.txt", Content: "ignore me"},
		zipEntry{Name: "notas/B.XML", Content: invoiceXML("11", "100.00", "3.00", homeCode, "")},
		zipEntry{Name: "notas/ruim.xml", Content: "<Nfse>"},
	)
	paths := []string{
		writeFile(t, dir, "lote.zip", archive),
		writeFile(t, dir, "solta.xml", []byte(invoiceXML("12", "100.00", "3.00", homeCode, ""))),
	}

	result := NewImporter(homeCode, 2).Import(context.Background(), paths)

	require.Len(t, result.Items, 4)
	assert.Equal(t, "lote.zip/notas/a.xml", result.Items[0].Source)
	assert.Equal(t, "lote.zip/notas/B.XML", result.Items[1].Source)
	assert.Equal(t, "lote.zip/notas/ruim.xml", result.Items[2].Source)
	assert.Equal(t, "solta.xml", result.Items[3].Source)

	records := result.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "10", records[0].Number)
	assert.Equal(t, "11", records[1].Number)
	assert.Equal(t, "12", records[2].Number)
	assert.Equal(t, "lote.zip/notas/a.xml", records[0].SourceFileName)

	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, ErrMalformedDocument)
}

func TestImport_CorruptArchiveDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "quebrado.zip", []byte("definitely not a zip")),
		writeFile(t, dir, "ok.xml", []byte(invoiceXML("1", "100.00", "3.00", homeCode, ""))),
	}

	result := NewImporter(homeCode, 1).Import(context.Background(), paths)

	require.Len(t, result.Records(), 1)
	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "quebrado.zip", failures[0].Source)
	assert.ErrorIs(t, failures[0].Err, ErrCorruptArchive)
}

func TestImport_InputErrors(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "nota.pdf", []byte("%PDF-1.4")),
		dir + "/sumiu.xml",
	}

	result := NewImporter(homeCode, 2).Import(context.Background(), paths)

	assert.Empty(t, result.Records())
	failures := result.Failures()
	require.Len(t, failures, 2)
	assert.ErrorIs(t, failures[0].Err, ErrUnsupportedFormat)
	assert.ErrorIs(t, failures[1].Err, ErrUnreadableFile)
}

func TestImport_WarningsKeepRecord(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "zero.xml", []byte(invoiceXML("1", "0.00", "0.00", homeCode, ""))),
	}

	result := NewImporter(homeCode, 1).Import(context.Background(), paths)

	require.Len(t, result.Records(), 1)
	assert.Equal(t, StatusWarning, result.Items[0].Status)
	assert.NotEmpty(t, result.Items[0].Warnings)
}

func TestImport_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "1.xml", []byte(invoiceXML("1", "100.00", "3.00", homeCode, ""))),
		writeFile(t, dir, "2.xml", []byte(invoiceXML("2", "100.00", "3.00", homeCode, ""))),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewImporter(homeCode, 2).Import(ctx, paths)

	assert.Empty(t, result.Records())
	for _, failure := range result.Failures() {
		assert.ErrorIs(t, failure.Err, context.Canceled)
	}
}

func TestImport_Progress(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, n := range []string{"1", "2", "3", "4"} {
		paths = append(paths, writeFile(t, dir, n+".xml", []byte(invoiceXML(n, "100.00", "3.00", homeCode, ""))))
	}

	var mu sync.Mutex
	var seen []int
	importer := NewImporter(homeCode, 4)
	importer.OnProgress(func(done, total int, item ItemResult) {
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 4, total)
		seen = append(seen, done)
	})

	importer.Import(context.Background(), paths)

	assert.ElementsMatch(t, []int{1, 2, 3, 4}, seen)
}

func TestNewImporter_MinimumOneWorker(t *testing.T) {
	importer := NewImporter(homeCode, 0)
	assert.Equal(t, 1, importer.numWorkers)
}

// captureLogs routes the global logger into a buffer at warn level for the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevLogger := log.Logger
	prevLevel := zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	var buf bytes.Buffer
	require.NoError(t, logger.SetupWriter(logger.LogConfig{Level: "warn", Format: "json"}, &buf))
	return &buf
}

func TestImport_LogsEveryFailedInput(t *testing.T) {
	buf := captureLogs(t)
	dir := t.TempDir()
	paths := []string{
		writeFile(t, dir, "nota.pdf", []byte("%PDF-1.4")),
		writeFile(t, dir, "quebrado.zip", []byte("definitely not a zip")),
		dir + "/sumiu.zip",
		writeFile(t, dir, "ruim.xml", []byte("<Nfse>")),
		writeFile(t, dir, "ok.xml", []byte(invoiceXML("1", "100.00", "3.00", homeCode, ""))),
	}

	// One worker keeps writes to the buffer sequential.
	result := NewImporter(homeCode, 1).Import(context.Background(), paths)
	require.Len(t, result.Failures(), 4)
	require.NotEmpty(t, result.BatchID)

	warned := make(map[string]bool)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "warn", entry["level"])
		assert.Equal(t, result.BatchID, entry["batch_id"])
		assert.Equal(t, "nfse-importer", entry["component"])
		if file, ok := entry["file"].(string); ok {
			warned[file] = true
		}
	}

	for _, name := range []string{"nota.pdf", "quebrado.zip", "sumiu.zip", "ruim.xml"} {
		assert.True(t, warned[name], "no warning logged for %s", name)
	}
	assert.False(t, warned["ok.xml"])
}

func TestImport_BatchIDPerRun(t *testing.T) {
	importer := NewImporter(homeCode, 1)

	first := importer.Import(context.Background(), nil)
	second := importer.Import(context.Background(), nil)

	assert.NotEmpty(t, first.BatchID)
	assert.NotEqual(t, first.BatchID, second.BatchID)
}
