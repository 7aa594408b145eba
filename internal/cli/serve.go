package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mthec/crafter/internal/api"
	"github.com/mthec/crafter/internal/app/improver"
	"github.com/mthec/crafter/internal/domain"
	"github.com/mthec/crafter/internal/infra/inventory"
	"github.com/mthec/crafter/internal/infra/sqlite"
	"github.com/mthec/crafter/internal/pricing"
	"github.com/mthec/crafter/internal/settlement"
	"github.com/mthec/crafter/internal/workbook"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the crafting service daemon",
	Long: `Run the crafting service: restore the work book from the database,
start the completion loop, and serve the read-only HTTP API.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(cfg.DB.Dir)
	if err != nil {
		return err
	}
	defer db.Close()

	worker := cfg.BuildWorker()
	book := workbook.ForWorker(worker, cfg.WorkBook.Capacity)

	// Restore first, then attach the store, so restoring does not echo
	// every record straight back into the database.
	records, err := db.ListJobs()
	if err != nil {
		return fmt.Errorf("restore work book: %w", err)
	}
	book.Restore(records)
	book.SetStore(db)
	log.Printf("[daemon] restored %d job record(s)", len(records))

	pricer := pricing.New(cfg.PricingConfig())
	recorder := settlement.NewRecorder(cfg.SettlementConfig(), db)

	// The daemon has no live game host attached, so items live in a local
	// inventory manifest and the forge adjusts their quality in place.
	items := inventory.New(filepath.Join(cfg.DB.Dir, "items.json"))
	if err := items.Load(); err != nil {
		return err
	}
	runner := improver.New(improver.DefaultConfig(), book, items, recorder, &localForge{items: items}, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go runner.Run(ctx)

	server := api.NewServer(worker, book, pricer, db)
	if cfg.API.Metrics {
		server.EnableMetrics()
	}

	addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("[daemon] %s serving on http://%s (book %d/%d)",
		worker.Name, addr, book.Len(), book.Capacity())
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ─── Local Forge ────────────────────────────────────────────────────────────

// localForge raises inventory item quality to the requested target.
type localForge struct {
	items *inventory.Inventory
}

func (f *localForge) Improve(ctx context.Context, item domain.Item, targetQuality int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.items.SetQuality(item.ID, targetQuality)
}
