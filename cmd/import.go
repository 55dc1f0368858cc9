package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fiscampos/internal/analysis"
	"fiscampos/internal/config"
	"fiscampos/internal/logger"
	"fiscampos/internal/nfse"
	"fiscampos/internal/quota"
	"fiscampos/internal/report"
	"fiscampos/internal/sheets"
)

var importCmd = &cobra.Command{
	Use:   "import [files or folders...]",
	Short: "Import NFS-e XML files or ZIP archives and summarise ISS",
	Long: `Import electronic service invoices (NFS-e) from XML files and ZIP archives.

Each XML document becomes one invoice. Folders are searched recursively for
.xml and .zip files; archive entries that are not XML are skipped. A file that
cannot be read or is not well-formed XML is reported and skipped, the rest of
the batch is still imported.

Cancelled invoices (Status 2 or a Cancelamento element) are counted but add
nothing to the totals. Active invoices are split by MunicipioIncidencia into
"Dentro" (the home municipality) and "Fora".

Environment variables:
  HOME_MUNICIPALITY_CODE - IBGE code of the home municipality (default 3301009)
  HOME_MUNICIPALITY_NAME - Display name (default Campos dos Goytacazes)
  BATCH_WORKERS          - Parallel workers (default 4)
  IMPORT_LIMIT           - Free imports before a subscription is needed (default 3)
  OPENAI_API_KEY         - Required for --analyze
  GOOGLE_SHEET_URL       - Required for --sheet`,
	Example: `  # Import a folder and show the table with summary cards
  fiscampos import ./notas

  # Import an archive and write the report as JSON
  fiscampos import lote-2024-03.zip --format json -o relatorio.json

  # Only invoices due elsewhere, including cancelled ones
  fiscampos import ./notas --incidence foreign

  # Export a workbook and ask for an executive summary
  fiscampos import ./notas --xlsx notas.xlsx --analyze`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().String("format", report.FormatTable, "Output format (table, json, yaml)")
	importCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	importCmd.Flags().String("incidence", "all", "Show only invoices by incidence (all, local, foreign)")
	importCmd.Flags().Bool("hide-cancelled", false, "Hide cancelled invoices from the listing")
	importCmd.Flags().String("xlsx", "", "Also write an XLSX workbook to this path")
	importCmd.Flags().Bool("sheet", false, "Append the imported invoices to GOOGLE_SHEET_URL")
	importCmd.Flags().Bool("analyze", false, "Ask OpenAI for an executive summary")
	importCmd.Flags().Int("workers", 0, "Parallel workers (default: BATCH_WORKERS)")
	importCmd.Flags().Int("timeout", 600, "Processing timeout in seconds")
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")

	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")
	incidence, _ := cmd.Flags().GetString("incidence")
	hideCancelled, _ := cmd.Flags().GetBool("hide-cancelled")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	toSheet, _ := cmd.Flags().GetBool("sheet")
	analyze, _ := cmd.Flags().GetBool("analyze")
	workers, _ := cmd.Flags().GetInt("workers")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	format = strings.ToLower(format)
	switch format {
	case report.FormatTable, report.FormatJSON, report.FormatYAML:
	default:
		return fmt.Errorf("formato inválido: %s (use table, json ou yaml)", format)
	}
	filter, err := parseFilter(incidence, hideCancelled)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = cfg.BatchWorkers
	}

	store, err := quota.NewStore(cfg.StatePath(), cfg.ImportLimit)
	if err != nil {
		return fmt.Errorf("não foi possível abrir o controle de importações: %w", err)
	}
	if err := store.Check(); err != nil {
		return handleImportError(err, log)
	}

	paths, err := findInvoiceFiles(args)
	if err != nil {
		return err
	}

	log.Info().
		Int("inputs", len(paths)).
		Str("format", format).
		Str("incidence", incidence).
		Int("workers", workers).
		Msg("Starting import")

	ctx, cancel := createImportContext(timeoutSecs, log)
	defer cancel()

	// Optional outputs are set up before importing so a missing key does not use up an import.
	var summarizer *analysis.Summarizer
	if analyze {
		summarizer, err = analysis.NewOpenAISummarizer(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITemperature)
		if err != nil {
			return fmt.Errorf("análise fiscal indisponível: %w", err)
		}
	}
	var sheetsService *sheets.Service
	if toSheet {
		sheetsService, err = sheets.NewSheetsService(ctx, cfg.GoogleSheetURL)
		if err != nil {
			return fmt.Errorf("não foi possível conectar ao Google Sheets: %w", err)
		}
	}

	// Human-readable progress goes to stderr so structured output on stdout stays clean.
	progress := cmd.ErrOrStderr()
	fmt.Fprintf(progress, "Importando %d arquivo(s) com %d workers...\n", len(paths), workers)

	importer := nfse.NewImporter(cfg.HomeMunicipalityCode, workers)
	importer.OnProgress(func(done, total int, item nfse.ItemResult) {
		printProgress(progress, done, total, item)
	})
	result := importer.Import(ctx, paths)

	collection := nfse.NewCollection()
	collection.Append(result.Records())

	failures := result.Failures()
	fmt.Fprintf(progress, "\nImportadas: %d  Com avisos: %d  Falhas: %d\n\n",
		collection.Len(), result.Count(nfse.StatusWarning), len(failures))

	if collection.Len() == 0 {
		if ctx.Err() != nil {
			return handleImportError(ctx.Err(), log)
		}
		return handleImportError(nfse.ErrEmptyBatch, log)
	}

	if err := store.RecordImport(collection.Len()); err != nil {
		log.Warn().Err(err).Msg("Failed to update import quota")
	}

	stats := collection.Stats()
	visible := collection.Filter(filter)

	var summaryText string
	if summarizer != nil {
		fmt.Fprintln(progress, "Gerando análise fiscal...")
		summaryText = summarizer.Summarize(ctx, stats, cfg.HomeMunicipalityName, cfg.HomeMunicipalityCode)
	}

	out, closeOut, err := openOutput(cmd, outputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	switch format {
	case report.FormatTable:
		report.RenderTable(out, visible)
		fmt.Fprintln(out)
		fmt.Fprintln(out, report.RenderSummary(stats, cfg.HomeMunicipalityName))
		if summaryText != "" {
			fmt.Fprintf(out, "\nAnálise fiscal:\n%s\n", summaryText)
		}
		printFailures(out, failures)
	default:
		r := report.NewReport(visible, stats, failures, cfg.HomeMunicipalityCode)
		r.Analysis = summaryText
		if format == report.FormatJSON {
			err = report.WriteJSON(out, r)
		} else {
			err = report.WriteYAML(out, r)
		}
		if err != nil {
			return fmt.Errorf("não foi possível gravar o relatório: %w", err)
		}
	}

	if xlsxPath != "" {
		if err := writeWorkbook(xlsxPath, collection, cfg.HomeMunicipalityName); err != nil {
			return err
		}
		fmt.Fprintf(progress, "Planilha gravada: %s\n", xlsxPath)
	}

	if sheetsService != nil {
		if err := sheetsService.WriteInvoices(ctx, collection.Records(), cfg.GoogleSheetWorksheet); err != nil {
			return fmt.Errorf("não foi possível gravar no Google Sheet: %w", err)
		}
		fmt.Fprintf(progress, "Google Sheet atualizado: %s (%d linhas)\n", cfg.GoogleSheetWorksheet, collection.Len())
	}

	if remaining := store.Remaining(); remaining >= 0 {
		fmt.Fprintf(progress, "Importações gratuitas restantes: %d de %d\n", remaining, store.Limit())
	}

	log.Info().
		Str("batch_id", result.BatchID).
		Int("records", collection.Len()).
		Int("visible", len(visible)).
		Int("failures", len(failures)).
		Msg("Import completed")

	return nil
}

// parseFilter maps the --incidence and --hide-cancelled flags to a display filter
func parseFilter(incidence string, hideCancelled bool) (nfse.Filter, error) {
	filter := nfse.Filter{ShowCancelled: !hideCancelled}
	switch strings.ToLower(incidence) {
	case "", "all":
		filter.Incidence = nfse.FilterAll
	case "local", "dentro":
		filter.Incidence = nfse.FilterLocal
	case "foreign", "fora":
		filter.Incidence = nfse.FilterForeign
	default:
		return filter, fmt.Errorf("incidência inválida: %s (use all, local ou foreign)", incidence)
	}
	return filter, nil
}

// findInvoiceFiles expands folders into the .xml and .zip files they contain.
// Files named explicitly are kept whatever their extension so that they are reported.
func findInvoiceFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && (nfse.IsXMLName(path) || nfse.IsZipName(path)) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("não foi possível ler a pasta %s: %w", arg, err)
		}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("nenhum arquivo .xml ou .zip encontrado")
	}
	return paths, nil
}

func printProgress(w io.Writer, done, total int, item nfse.ItemResult) {
	fmt.Fprintf(w, "[%d/%d] %s - %s", done, total, item.Source, getStatusEmoji(item.Status))
	switch {
	case item.Error != nil:
		fmt.Fprintf(w, " (%s)", item.Error.Error())
	case len(item.Warnings) > 0:
		fmt.Fprintf(w, " (%s)", strings.Join(item.Warnings, "; "))
	}
	fmt.Fprintln(w)
}

// getStatusEmoji returns an emoji for the processing status
func getStatusEmoji(status string) string {
	switch status {
	case nfse.StatusSuccess:
		return "✅"
	case nfse.StatusWarning:
		return "⚠️"
	case nfse.StatusError:
		return "❌"
	default:
		return "❓"
	}
}

func printFailures(w io.Writer, failures []nfse.Failure) {
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nArquivos não importados (%d):\n", len(failures))
	for _, f := range failures {
		fmt.Fprintf(w, "  - %s: %v\n", f.Source, f.Err)
	}
}

func writeWorkbook(path string, collection *nfse.Collection, homeName string) error {
	var buf bytes.Buffer
	if err := report.WriteWorkbook(&buf, collection.Records(), collection.Stats(), homeName); err != nil {
		return fmt.Errorf("não foi possível gerar a planilha: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("não foi possível gravar a planilha: %w", err)
	}
	return nil
}

// openOutput returns the file at path, or the command's stdout when path is empty
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("não foi possível criar o arquivo de saída: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// createImportContext creates a context with timeout and signal handling
func createImportContext(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling import")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// handleImportError provides user-friendly error messages for import failures
func handleImportError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Import failed")

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("tempo de importação esgotado. Aumente --timeout ou importe menos arquivos")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("importação cancelada")
	case errors.Is(err, quota.ErrLimitReached):
		return fmt.Errorf("limite de importações gratuitas atingido. Assine para continuar (fiscampos quota unlock): %w", err)
	case errors.Is(err, nfse.ErrEmptyBatch):
		return fmt.Errorf("nenhuma nota fiscal pôde ser importada. Verifique se os arquivos são XML de NFS-e válidos")
	case errors.Is(err, nfse.ErrCorruptArchive):
		return fmt.Errorf("arquivo ZIP corrompido ou em formato não suportado")
	case errors.Is(err, nfse.ErrDocumentTooLarge):
		return fmt.Errorf("arquivo muito grande (máximo 20MB por XML)")
	default:
		return fmt.Errorf("falha na importação: %w", err)
	}
}
