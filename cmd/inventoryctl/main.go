package main

import (
	"fmt"
	"os"

	"inventory-system/config"
	"inventory-system/internal/database"
	"inventory-system/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type app struct {
	openDB func() (*gorm.DB, error)
	log    *zap.Logger
}

func main() {
	cfg := config.LoadConfig()
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: "inventoryctl",
	}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a := &app{
		openDB: func() (*gorm.DB, error) { return database.NewConnection(cfg.DB) },
		log:    logger.GetLogger(),
	}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withDB opens the database for one command and closes it afterwards.
func (a *app) withDB(fn func(db *gorm.DB) error) (err error) {
	db, err := a.openDB()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := database.Close(db); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(db)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "inventoryctl",
		Short:         "Administrative commands for the inventory backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Database
	root.AddCommand(a.migrateCmd())
	root.AddCommand(a.promoteStaffCmd())

	// Reports
	root.AddCommand(a.lowStockCmd())
	root.AddCommand(a.exportCSVCmd())

	return root
}
