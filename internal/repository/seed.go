package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/tablebot/internal/domain"
)

// DemoTables is the default floor plan used by `tablebotctl seed` and the memory driver.
func DemoTables() []domain.Table {
	return []domain.Table{
		{ID: 1, Label: "1", Capacity: 2, Zone: domain.ZoneWindow, Description: "Cosy table by the big window overlooking the street", Status: domain.TableStatusActive},
		{ID: 2, Label: "2", Capacity: 4, Zone: domain.ZoneWindow, Description: "Table for four at the panoramic window", Status: domain.TableStatusActive},
		{ID: 3, Label: "3", Capacity: 6, Zone: domain.ZoneCenter, Description: "Large table in the middle of the hall", Status: domain.TableStatusActive},
		{ID: 4, Label: "4", Capacity: 2, Zone: domain.ZoneQuiet, Description: "Quiet table in the calm corner", Status: domain.TableStatusActive},
		{ID: 5, Label: "5", Capacity: 8, Zone: domain.ZoneVIP, Description: "VIP table for important guests", Status: domain.TableStatusActive},
		{ID: 6, Label: "6", Capacity: 4, Zone: domain.ZoneStage, Description: "Next to the stage for live music lovers", Status: domain.TableStatusActive},
		{ID: 7, Label: "7", Capacity: 2, Zone: domain.ZoneBar, Description: "At the bar counter", Status: domain.TableStatusActive},
		{ID: 8, Label: "8", Capacity: 6, Zone: domain.ZoneTerrace, Description: "Summer terrace (seasonal)", Status: domain.TableStatusActive},
		{ID: 9, Label: "9", Capacity: 4, Zone: domain.ZoneCenter, Description: "Standard table in the main hall", Status: domain.TableStatusActive},
		{ID: 10, Label: "10", Capacity: 10, Zone: domain.ZoneBanquet, Description: "Banquet table for large parties", Status: domain.TableStatusActive},
	}
}

// DemoMenu is the default menu used by `tablebotctl seed` and the memory driver.
func DemoMenu() []domain.MenuItem {
	return []domain.MenuItem{
		{ID: 1, Category: "Salads", Name: "Caesar with chicken", Description: "Classic salad with chicken, parmesan and caesar dressing", Price: 650, Available: true},
		{ID: 2, Category: "Salads", Name: "Greek salad", Description: "Fresh vegetables with feta and olives", Price: 550, Available: true},
		{ID: 3, Category: "Mains", Name: "Ribeye steak", Description: "Juicy beef steak, medium", Price: 1200, Available: true},
		{ID: 4, Category: "Mains", Name: "Pasta carbonara", Description: "Pasta with bacon in a creamy sauce", Price: 850, Available: true},
		{ID: 5, Category: "Mains", Name: "Grilled salmon", Description: "Salmon fillet with vegetables", Price: 950, Available: true},
		{ID: 6, Category: "Soups", Name: "Borscht", Description: "Traditional beetroot soup with beef", Price: 450, Available: true},
		{ID: 7, Category: "Desserts", Name: "Tiramisu", Description: "Classic Italian dessert", Price: 380, Available: true},
		{ID: 8, Category: "Drinks", Name: "Homemade lemonade", Description: "Fresh lemonade with mint", Price: 250, Available: true},
		{ID: 9, Category: "Drinks", Name: "Espresso", Description: "Aromatic Italian coffee", Price: 180, Available: true},
	}
}

// Seed upserts tables into repo.
func Seed(ctx context.Context, repo TableRepository, tables []domain.Table) error {
	for i := range tables {
		if err := repo.Upsert(ctx, &tables[i]); err != nil {
			return fmt.Errorf("seed table %s: %w", tables[i].Label, err)
		}
	}
	return nil
}

// SeedMenu upserts menu items into repo.
func SeedMenu(ctx context.Context, repo MenuRepository, items []domain.MenuItem) error {
	for i := range items {
		if err := repo.Upsert(ctx, &items[i]); err != nil {
			return fmt.Errorf("seed menu item %s: %w", items[i].Name, err)
		}
	}
	return nil
}
