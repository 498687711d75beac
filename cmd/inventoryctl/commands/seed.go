package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go-warehouse-ws/internal/cache"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	adminPassword string
	staffPassword string
	skipCatalog   bool
)

type seedItem struct {
	code, name, category string
	price                int64
	description          string
	variants             []string
}

var seedCategories = []string{"Baju Anak", "Kemeja", "Celana", "Sepatu", "Jaket", "Tas", "Aksesoris"}

var seedItems = []seedItem{
	{"BA-001", "Setelan Piyama Anak Dino", "Baju Anak", 45000, "Piyama bahan katun motif dinosaurus untuk usia 3-5 tahun", []string{"S", "M", "L"}},
	{"KM-001", "Kemeja Flannel Kotak-kotak", "Kemeja", 120000, "Kemeja lengan panjang bahan flannel premium", []string{"M", "L", "XL", "XXL"}},
	{"KM-002", "Kemeja Polos Putih Slimfit", "Kemeja", 150000, "Kemeja formal bahan katun oxford", []string{"S", "M", "L", "XL"}},
	{"CL-001", "Celana Chino Panjang", "Celana", 175000, "Celana chino warna khaki", []string{"28", "30", "32", "34", "36"}},
	{"CL-002", "Jeans Denim Regular", "Celana", 250000, "Celana jeans bahan tebal warna biru dongker", []string{"29", "30", "31", "32", "33", "34"}},
	{"SP-001", "Sepatu Sneaker Classic", "Sepatu", 300000, "Sepatu olahraga bahan sintetis", []string{"39", "40", "41", "42", "43", "44"}},
	{"JK-001", "Jaket Hoodie Fleece", "Jaket", 200000, "Jaket hoodie bahan fleece", []string{"M", "L", "XL", "XXL"}},
	{"TS-001", "Tas Ransel Laptop", "Tas", 400000, "Tas ransel dengan kompartemen khusus laptop hingga 15 inci", []string{"All Size"}},
	{"AK-001", "Topi Baseball Casual", "Aksesoris", 80000, "Topi baseball bahan katun dengan desain casual", []string{"All Size"}},
	{"AK-002", "Gelang Kulit Fashion", "Aksesoris", 60000, "Gelang bahan kulit asli dengan desain trendy", []string{"All Size"}},
	{"SP-002", "Sepatu Sneaker Trendy", "Sepatu", 250000, "Sepatu olahraga bahan sintetis dengan desain trendy", []string{"38", "39", "40", "41", "42"}},
}

// seedCmd creates the default accounts and a sample clothing catalog.
// Existing rows are left alone, so it is safe to run twice.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create default users and a sample catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := connect()
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}

		ctx := context.Background()
		store := repository.NewStore(db)

		admin, err := ensureUser(ctx, store.Users(), "Administrator", "admin@example.com", adminPassword, model.RoleAdmin)
		if err != nil {
			return err
		}
		if _, err := ensureUser(ctx, store.Users(), "Staff Gudang", "staff@example.com", staffPassword, model.RoleStaff); err != nil {
			return err
		}
		if skipCatalog {
			return nil
		}
		return seedCatalog(ctx, store, service.ActorFromUser(admin))
	},
}

func init() {
	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "admin123", "Password for admin@example.com")
	seedCmd.Flags().StringVar(&staffPassword, "staff-password", "staff123", "Password for staff@example.com")
	seedCmd.Flags().BoolVar(&skipCatalog, "users-only", false, "Only create the default users")
	rootCmd.AddCommand(seedCmd)
}

func ensureUser(ctx context.Context, users repository.UserRepository, name, email, password string, role model.Role) (*model.User, error) {
	existing, err := users.FindByEmail(ctx, email)
	if err == nil {
		muted("User %s already exists", email)
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user := &model.User{Name: name, Email: email, Role: role}
	user.CreatedBy = "system"
	user.UpdatedBy = "system"
	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create %s: %w", email, err)
	}
	success("User created: %s (%s)", email, role)
	return user, nil
}

// seedCatalog goes through the services so stock, size summary and
// variant order follow the same rules as the API.
func seedCatalog(ctx context.Context, store repository.Store, admin service.Actor) error {
	memCache := cache.NewMemory()
	catalog := service.NewCatalogService(store, memCache)
	items := service.NewItemService(store, memCache, service.NopPublisher)

	unitID, err := ensureUnit(ctx, store, catalog, admin)
	if err != nil {
		return err
	}

	categories := map[string]model.Category{}
	for _, name := range seedCategories {
		category, err := store.Categories().FindByName(ctx, name)
		if errors.Is(err, repository.ErrNotFound) {
			category, err = catalog.CreateCategory(ctx, admin, service.CategoryInput{Name: name})
		}
		if err != nil {
			return fmt.Errorf("category %s: %w", name, err)
		}
		categories[name] = *category
	}

	created := 0
	for _, s := range seedItems {
		if _, err := store.Items().FindByCode(ctx, s.code); err == nil {
			continue
		}
		in := service.ItemInput{
			Code:        s.code,
			Name:        s.name,
			CategoryID:  categories[s.category].ID,
			UnitID:      unitID,
			Price:       decimal.NewFromInt(s.price),
			Description: s.description,
		}
		for _, v := range s.variants {
			in.Sizes = append(in.Sizes, service.SizeInput{Size: v, Stock: 5 + rand.IntN(46)})
		}
		if _, err := items.CreateItem(ctx, admin, in); err != nil {
			return fmt.Errorf("item %s: %w", s.code, err)
		}
		created++
	}

	if created == 0 {
		muted("Catalog already seeded")
	} else {
		success("%d items seeded", created)
	}
	return nil
}

func ensureUnit(ctx context.Context, store repository.Store, catalog service.CatalogService, admin service.Actor) (uuid.UUID, error) {
	unit, err := store.Units().FindBySymbol(ctx, "pcs")
	if errors.Is(err, repository.ErrNotFound) {
		unit, err = catalog.CreateUnit(ctx, admin, service.UnitInput{Name: "Pieces", Symbol: "pcs"})
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("unit pcs: %w", err)
	}
	return unit.ID, nil
}
