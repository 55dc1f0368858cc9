package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"fiscampos/internal/config"
	"fiscampos/internal/logger"
	"fiscampos/internal/quota"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show or change the free import quota",
	Long: `Without a subscription a limited number of imports (IMPORT_LIMIT, default 3)
is available. Only imports that produced at least one invoice are counted.
The state is kept in STATE_DIR/state.toml.`,
}

var quotaStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the imports used and left",
	Args:  cobra.NoArgs,
	RunE:  runQuotaStatus,
}

var quotaResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the import counter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateQuota(cmd, "Contador de importações zerado.", (*quota.Store).Reset)
	},
}

var quotaUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Mark the installation as subscribed (unlimited imports)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateQuota(cmd, "Assinatura ativada: importações ilimitadas.", func(s *quota.Store) error {
			return s.SetSubscribed(true)
		})
	},
}

var quotaLockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Remove the subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateQuota(cmd, "Assinatura removida.", func(s *quota.Store) error {
			return s.SetSubscribed(false)
		})
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
	quotaCmd.AddCommand(quotaStatusCmd, quotaResetCmd, quotaUnlockCmd, quotaLockCmd)
}

func openQuotaStore() (*quota.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := quota.NewStore(cfg.StatePath(), cfg.ImportLimit)
	if err != nil {
		return nil, fmt.Errorf("não foi possível abrir o controle de importações: %w", err)
	}
	return store, nil
}

func runQuotaStatus(cmd *cobra.Command, args []string) error {
	store, err := openQuotaStore()
	if err != nil {
		return err
	}

	state := store.State()
	out := cmd.OutOrStdout()
	if state.Subscribed {
		fmt.Fprintf(out, "Assinatura ativa: importações ilimitadas (%d realizadas)\n", state.ImportCount)
		return nil
	}
	fmt.Fprintf(out, "Importações usadas: %d de %d\n", state.ImportCount, store.Limit())
	fmt.Fprintf(out, "Restantes: %d\n", store.Remaining())
	return nil
}

func updateQuota(cmd *cobra.Command, message string, update func(*quota.Store) error) error {
	log := logger.WithComponent("quota")

	store, err := openQuotaStore()
	if err != nil {
		return err
	}
	if err := update(store); err != nil {
		return fmt.Errorf("não foi possível atualizar o controle de importações: %w", err)
	}

	state := store.State()
	log.Info().
		Int("import_count", state.ImportCount).
		Bool("subscribed", state.Subscribed).
		Msg("Quota updated")

	fmt.Fprintln(cmd.OutOrStdout(), message)
	return nil
}
