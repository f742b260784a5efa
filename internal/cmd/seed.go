package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"capriccio/internal/catalog"
	"capriccio/internal/feed"
	"capriccio/internal/model"
	"capriccio/internal/repository"
	"capriccio/internal/service"
	"capriccio/internal/session"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	seedFile         string
	seedSkipExisting bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load catalog products from a JSON file",
	Long: `Load products from a JSON array of product forms:

  [{"name": "Muzzarella", "price": "150.70", "stock": 10, "category": "Pizzas"}]

Each entry goes through the same parsing and validation as the admin API.
Running storefronts are told to refresh when Redis is reachable.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "Path to the products JSON file")
	seedCmd.Flags().BoolVar(&seedSkipExisting, "skip-existing", true, "Skip products whose name already exists")
	_ = seedCmd.MarkFlagRequired("file")
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, feed.Topic) {}

func runSeed(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(seedFile)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	forms, err := loadSeedFile(f)
	if err != nil {
		return err
	}

	e, err := openEnv(cmd.Context())
	if err != nil {
		return err
	}
	defer e.Close()

	var notifier service.Notifier = nopNotifier{}
	client, err := session.NewClient(cmd.Context(), e.cfg.Redis)
	if err != nil {
		e.logger.Warn().Err(err).Msg("redis unavailable, storefronts will not be told to refresh")
	} else {
		defer client.Close()
		notifier = feed.NewHub(feed.NewRedisBroker(client, e.cfg.Redis.KeyPrefix), e.logger)
	}

	repos := repository.New(e.pool, e.logger)
	// Seeding never uploads images.
	products := service.NewProductService(repos.Products, repos.Reviews, catalog.NewStore(0, e.logger), nil, notifier, e.logger)

	created, skipped, err := seed(cmd.Context(), repos.Products, products, forms, seedSkipExisting, e.logger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d products (%d skipped)\n", created, skipped)
	return nil
}

func loadSeedFile(r io.Reader) ([]model.ProductForm, error) {
	var forms []model.ProductForm
	if err := json.NewDecoder(r).Decode(&forms); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if len(forms) == 0 {
		return nil, fmt.Errorf("seed file has no products")
	}
	return forms, nil
}

// seed creates every form and stops at the first invalid one.
func seed(
	ctx context.Context,
	lister catalog.Lister,
	products service.ProductService,
	forms []model.ProductForm,
	skipExisting bool,
	logger zerolog.Logger,
) (created, skipped int, err error) {
	existing := make(map[string]bool)
	if skipExisting {
		current, err := lister.List(ctx)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to list products: %w", err)
		}
		for _, p := range current {
			existing[strings.ToLower(p.Name)] = true
		}
	}

	for i, form := range forms {
		if existing[strings.ToLower(strings.TrimSpace(form.Name))] {
			skipped++
			continue
		}

		result, err := products.Create(ctx, form)
		if err != nil {
			return created, skipped, fmt.Errorf("product %d (%q): %w", i+1, form.Name, err)
		}

		logger.Info().Str("product_id", result.Product.ID).Str("name", result.Product.Name).Msg("product seeded")
		existing[strings.ToLower(result.Product.Name)] = true
		created++
	}

	return created, skipped, nil
}
