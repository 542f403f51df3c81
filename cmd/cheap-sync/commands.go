package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/logging"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/diwise/cheap/internal/pkg/infrastructure/database"
	"github.com/diwise/cheap/pkg/cheap/catalog"
	"github.com/diwise/cheap/pkg/cheap/hierarchies"
	"github.com/diwise/cheap/pkg/cheap/mapping"
	"github.com/diwise/cheap/pkg/cheap/persistence"
)

const mirrorPrefix string = "MIRROR_"

var (
	catalogID       string
	mirrorCatalogID string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create every mapped table that does not exist yet",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		model, err := loadModel(configPath)
		if err != nil {
			return err
		}

		db, err := database.Open(ctx, database.LoadConfiguration(ctx, ""))
		if err != nil {
			return err
		}
		defer db.Close()

		return createTables(ctx, db, model)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report the number of rows a catalog has in every mapped table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := uuid.Parse(catalogID)
		if err != nil {
			return fmt.Errorf("invalid catalog id %q: %w", catalogID, err)
		}

		model, err := loadModel(configPath)
		if err != nil {
			return err
		}

		db, err := database.Open(ctx, database.LoadConfiguration(ctx, ""))
		if err != nil {
			return err
		}
		defer db.Close()

		_, err = stats(ctx, db, model, id)
		return err
	},
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Copy the tables of a source catalog into the mirror database",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := uuid.Parse(catalogID)
		if err != nil {
			return fmt.Errorf("invalid catalog id %q: %w", catalogID, err)
		}

		var mirrorID uuid.UUID
		if mirrorCatalogID != "" {
			if mirrorID, err = uuid.Parse(mirrorCatalogID); err != nil {
				return fmt.Errorf("invalid mirror catalog id %q: %w", mirrorCatalogID, err)
			}
		}

		model, err := loadModel(configPath)
		if err != nil {
			return err
		}

		source, err := database.Open(ctx, database.LoadConfiguration(ctx, ""))
		if err != nil {
			return err
		}
		defer source.Close()

		target, err := database.Open(ctx, database.LoadConfiguration(ctx, mirrorPrefix))
		if err != nil {
			return err
		}
		defer target.Close()

		_, err = mirror(ctx, source, target, model, id, mirrorID)
		return err
	},
}

func init() {
	statsCmd.Flags().StringVar(&catalogID, "catalog", "", "global id of the catalog")
	statsCmd.MarkFlagRequired("catalog")

	mirrorCmd.Flags().StringVar(&catalogID, "catalog", "", "global id of the source catalog")
	mirrorCmd.Flags().StringVar(&mirrorCatalogID, "mirror-catalog", "", "global id of the mirror catalog (derived from the source id by default)")
	mirrorCmd.MarkFlagRequired("catalog")
}

func loadModel(path string) (*mapping.Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping configuration %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := mapping.LoadConfiguration(f)
	if err != nil {
		return nil, err
	}

	return cfg.Build()
}

func createTables(ctx context.Context, db *database.Database, model *mapping.Model) error {
	engine := persistence.NewEngine(db.Dialect())

	return persistence.WithTransaction(ctx, db, func(tx persistence.Conn) error {
		for _, m := range model.Mappings() {
			if err := engine.CreateTable(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func stats(ctx context.Context, db *database.Database, model *mapping.Model, id uuid.UUID) (map[string]int64, error) {
	log := logging.GetFromContext(ctx)
	engine := persistence.NewEngine(db.Dialect())

	c, err := catalog.New(catalog.Source, catalog.GlobalID(id))
	if err != nil {
		return nil, err
	}

	counts := map[string]int64{}

	for _, m := range model.Mappings() {
		n, err := engine.Count(ctx, db, c, m)
		if err != nil {
			return nil, err
		}

		counts[m.Table()] = n
		log.Info("table statistics", slog.String("table", m.Table()), slog.String("aspect", m.AspectDef().Name()), slog.Int64("rows", n))
	}

	return counts, nil
}

// mirror loads every mapped table of the source catalog from source and saves it
// to target under a MIRROR catalog. Each table is read into an aspect map of its own,
// tables sharing an aspect def do not see each other's rows. Each database is worked
// on in a transaction of its own.
func mirror(ctx context.Context, source, target *database.Database, model *mapping.Model, sourceID, mirrorID uuid.UUID) (*catalog.Catalog, error) {
	log := logging.GetFromContext(ctx)

	src, err := catalog.New(catalog.Source, catalog.GlobalID(sourceID))
	if err != nil {
		return nil, err
	}

	if mirrorID == uuid.Nil {
		mirrorID = uuid.NewSHA1(sourceID, []byte(catalog.Mirror.String()))
	}

	dst, err := catalog.New(catalog.Mirror, catalog.GlobalID(mirrorID), catalog.Upstream(src))
	if err != nil {
		return nil, err
	}

	mappings := model.Mappings()
	tables := make([]*hierarchies.AspectMap, len(mappings))

	srcEngine := persistence.NewEngine(source.Dialect())
	err = persistence.WithTransaction(ctx, source, func(tx persistence.Conn) error {
		for i, m := range mappings {
			am, err := hierarchies.NewAspectMap(src, m.AspectDef())
			if err != nil {
				return err
			}

			if _, err := srcEngine.LoadAspectMap(ctx, tx, src, m, am); err != nil {
				return err
			}

			tables[i] = am
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dstEngine := persistence.NewEngine(target.Dialect())
	err = persistence.WithTransaction(ctx, target, func(tx persistence.Conn) error {
		for i, m := range mappings {
			if err := dstEngine.CreateTable(ctx, tx, m); err != nil {
				return err
			}

			am := tables[i]
			if err := dstEngine.SaveAspectMap(ctx, tx, dst, m, am); err != nil {
				return err
			}

			log.Info("table mirrored", slog.String("table", m.Table()), slog.Int("rows", am.Len()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dst, nil
}
