package main

import (
	"context"
	"fmt"

	"storefront/internal/database"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a demo catalog into an empty database",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

type seedProduct struct {
	name        string
	description string
	price       int64
	quantity    int
	category    string
	brand       string
}

var (
	seedCategories = []service.GroupInput{
		{Name: "Liquids", Description: "E-liquids and disposables", IsActive: true},
		{Name: "Consumables", Description: "Cartridges, coils and batteries", IsActive: true},
		{Name: "Devices", Description: "Pod systems and mods", IsActive: true},
	}

	seedBrands = []service.GroupInput{
		{Name: "HQD", Description: "Popular disposables", IsActive: true},
		{Name: "Puff Bar", Description: "Compact disposables", IsActive: true},
		{Name: "Vaporesso", Description: "Devices and consumables", IsActive: true},
		{Name: "Elf Bar", Description: "Market leader in disposables", IsActive: true},
	}

	seedProducts = []seedProduct{
		{"HQD Cuvie Plus 1200", "1200 puffs\nFlavour: mint menthol\nStrength: 20mg", 1200, 10, "Liquids", "HQD"},
		{"Puff Bar Plus 800", "800 puffs\nFlavour: strawberry banana\nStrength: 15mg", 900, 5, "Liquids", "Puff Bar"},
		{"Elf Bar BC5000", "5000 puffs\nFlavour: blueberry raspberry\nStrength: 20mg", 2500, 3, "Liquids", "Elf Bar"},
		{"Vaporesso coil", "Replacement coil\nResistance: 0.8 ohm\nFits: XROS series", 300, 20, "Consumables", "Vaporesso"},
		{"HQD cartridges", "Replacement cartridges\nVolume: 2ml\nStrength: 20mg", 400, 15, "Consumables", "HQD"},
		{"Vaporesso XROS 4", "Refillable pod system\nBattery: 1000mAh\nCharging: USB-C", 3500, 8, "Devices", "Vaporesso"},
	}
)

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	dbService, err := database.New(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer dbService.Close()

	db := dbService.DB()
	inventory := service.NewInventoryService(
		repository.NewCategoryRepository(db),
		repository.NewBrandRepository(db),
		repository.NewProductRepository(db),
	)
	return seedCatalog(cmd.Context(), inventory, log)
}

// seedCatalog fills an empty catalog and leaves a populated one alone
func seedCatalog(ctx context.Context, inventory service.InventoryService, log *zap.Logger) error {
	existing, err := inventory.ListCategories(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("Catalog already has data, skipping seed", zap.Int("categories", len(existing)))
		return nil
	}

	categories := make(map[string]uuid.UUID, len(seedCategories))
	for _, in := range seedCategories {
		category, err := inventory.CreateCategory(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", in.Name, err)
		}
		categories[category.Name] = category.ID
	}

	brands := make(map[string]uuid.UUID, len(seedBrands))
	for _, in := range seedBrands {
		brand, err := inventory.CreateBrand(ctx, in)
		if err != nil {
			return fmt.Errorf("failed to seed brand %q: %w", in.Name, err)
		}
		brands[brand.Name] = brand.ID
	}

	for _, p := range seedProducts {
		_, err := inventory.CreateProduct(ctx, service.ProductInput{
			Name:        p.name,
			Description: p.description,
			Price:       decimal.NewFromInt(p.price),
			Quantity:    p.quantity,
			IsActive:    true,
			CategoryID:  categories[p.category],
			BrandID:     brands[p.brand],
		})
		if err != nil {
			return fmt.Errorf("failed to seed product %q: %w", p.name, err)
		}
	}

	log.Info("Demo catalog loaded",
		zap.Int("categories", len(seedCategories)),
		zap.Int("brands", len(seedBrands)),
		zap.Int("products", len(seedProducts)),
	)
	return nil
}
