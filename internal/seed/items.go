package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lostlink/internal/store"
	"lostlink/internal/utils"
	"lostlink/pkg/types"

	"github.com/k0kubun/pp"
)

type seedItem struct {
	ID          string
	UserID      string
	Type        types.ItemType
	Category    types.ItemCategory
	Description string
	Location    string
	Status      types.ItemStatus
}

var seedItems = []seedItem{
	{
		ID:          "ItemSeed000000000000000000000001",
		UserID:      "StudentSeed00000000000000000001A",
		Type:        types.ItemTypeLost,
		Category:    types.CategoryDevices,
		Description: "Black Dell laptop charger with frayed cable near the plug",
		Location:    "Library, second floor reading hall",
		Status:      types.ItemStatusOpen,
	},
	{
		ID:          "ItemSeed000000000000000000000002",
		UserID:      "StudentSeed00000000000000000002A",
		Type:        types.ItemTypeFound,
		Category:    types.CategoryDevices,
		Description: "Dell laptop charger, black, found under a desk",
		Location:    "Library, second floor",
		Status:      types.ItemStatusPending,
	},
	{
		ID:          "ItemSeed000000000000000000000003",
		UserID:      "StudentSeed00000000000000000003A",
		Type:        types.ItemTypeFound,
		Category:    types.CategoryKeys,
		Description: "Bunch of three keys on a red keyring",
		Location:    "Canteen entrance",
		Status:      types.ItemStatusPending,
	},
	{
		ID:          "ItemSeed000000000000000000000004",
		UserID:      "StudentSeed00000000000000000001A",
		Type:        types.ItemTypeFound,
		Category:    types.CategoryBooks,
		Description: "Engineering mathematics textbook, third edition",
		Location:    "Lecture hall B204",
		Status:      types.ItemStatusAvailable,
	},
}

// SeedItems inserts a handful of reports so the feed and the matching view
// have something to show on a fresh database. Existing rows are skipped.
func SeedItems(ctx context.Context, itemRepo *store.ItemRepository) error {
	now := time.Now()

	seeded := 0
	for _, entry := range seedItems {
		_, err := itemRepo.Item(ctx, entry.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, types.ErrItemNotFound) {
			return fmt.Errorf("failed to fetch seed item %s: %w", entry.ID, err)
		}

		prefix := "LOST"
		if entry.Type == types.ItemTypeFound {
			prefix = "FND"
		}

		item := &types.Item{
			ID:          entry.ID,
			ReferenceID: utils.ReferenceID(prefix, now),
			UserID:      entry.UserID,
			Type:        entry.Type,
			Category:    entry.Category,
			Description: entry.Description,
			Location:    entry.Location,
			Status:      entry.Status,
			ReportedAt:  now,
		}

		if err := itemRepo.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("failed to create seed item %s: %w", entry.ID, err)
		}

		pp.Println(item.ReferenceID, item.Type, item.Status)
		seeded++
	}

	fmt.Printf("Items seeded: %d inserted\n", seeded)
	return nil
}
