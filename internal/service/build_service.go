package service

import (
	"context"
	"fmt"
	"time"

	"partforge/internal/domain"
	"partforge/internal/repository"

	"github.com/google/uuid"
)

// Category ceilings for a single build. RAM counts sticks, the rest are
// effectively one-per-build.
const (
	maxCPU  = 1
	maxGPU  = 1
	maxPSU  = 1
	maxCase = 1
	maxRAM  = 4
)

// BuildValidation is the blocking pass/fail verdict over a build. OK holds
// exactly when Reasons is empty.
type BuildValidation struct {
	BuildID uuid.UUID `json:"build_id"`
	OK      bool      `json:"ok"`
	Reasons []string  `json:"reasons"`
}

// BuildSummary is the condensed per-build view combining the compatibility
// report and the validation verdict.
type BuildSummary struct {
	BuildID        uuid.UUID `json:"build_id"`
	Name           string    `json:"name"`
	DistinctItems  int       `json:"distinct_items"`
	TotalQuantity  int       `json:"total_quantity"`
	Compatible     bool      `json:"compatible"`
	Valid          bool      `json:"valid"`
	EstimatedLoadW int       `json:"estimated_load_w"`
	PSUWattageW    *int      `json:"psu_wattage_w"`
	Reasons        []string  `json:"reasons"`
	Warnings       []string  `json:"warnings"`
}

// BuildService defines the build (cart) business logic, including the
// compatibility report, the validation verdict and the checkout transaction.
// Every operation takes the caller's resolved user id explicitly; there is
// no ambient identity.
type BuildService interface {
	Create(ctx context.Context, ownerID uuid.UUID, name string) (*domain.Build, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Build, error)
	Get(ctx context.Context, ownerID, buildID uuid.UUID) (*domain.Build, error)
	AddItem(ctx context.Context, ownerID, buildID, productID uuid.UUID, quantity int) (*domain.Build, error)
	RemoveItem(ctx context.Context, ownerID, buildID, itemID uuid.UUID) error
	CheckCompatibility(ctx context.Context, ownerID, buildID uuid.UUID) (CompatibilityReport, error)
	Validate(ctx context.Context, ownerID, buildID uuid.UUID) (BuildValidation, error)
	Summary(ctx context.Context, ownerID, buildID uuid.UUID) (BuildSummary, error)
	Checkout(ctx context.Context, ownerID, buildID uuid.UUID) (*domain.Order, error)
}

type buildService struct {
	buildRepo   repository.BuildRepository
	productRepo repository.ProductRepository
	orderRepo   repository.OrderRepository
	tx          repository.Transactor
}

// NewBuildService creates a new instance of BuildService.
func NewBuildService(
	buildRepo repository.BuildRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	tx repository.Transactor,
) BuildService {
	return &buildService{
		buildRepo:   buildRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		tx:          tx,
	}
}

func (s *buildService) Create(ctx context.Context, ownerID uuid.UUID, name string) (*domain.Build, error) {
	build := &domain.Build{
		ID:        uuid.New(),
		Name:      name,
		OwnerID:   ownerID,
		Version:   0,
		CreatedAt: time.Now().UTC(),
		Items:     []domain.BuildItem{},
	}

	if err := s.buildRepo.Create(ctx, build); err != nil {
		return nil, fmt.Errorf("failed to create build: %w", err)
	}

	return build, nil
}

func (s *buildService) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Build, error) {
	return s.buildRepo.ListByOwner(ctx, ownerID)
}

func (s *buildService) Get(ctx context.Context, ownerID, buildID uuid.UUID) (*domain.Build, error) {
	return s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
}

// AddItem adds a product to the build, merging quantities when the product
// is already present. Category ceilings are re-checked after the tentative
// mutation; a violation rolls the whole operation back.
func (s *buildService) AddItem(ctx context.Context, ownerID, buildID, productID uuid.UUID, quantity int) (*domain.Build, error) {
	if quantity <= 0 {
		return nil, ErrQuantityNotPositive
	}

	var result *domain.Build
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		build, err := s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
		if err != nil {
			return err
		}

		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		merged := false
		for i := range build.Items {
			if build.Items[i].ProductID == productID {
				build.Items[i].Quantity += quantity
				merged = true
				break
			}
		}

		if !merged {
			build.Items = append(build.Items, domain.BuildItem{
				ID:        uuid.New(),
				BuildID:   build.ID,
				ProductID: product.ID,
				Quantity:  quantity,
				Product:   product,
			})
		}

		if reasons := categoryLimitReasons(build); len(reasons) > 0 {
			return &BuildValidationError{Reasons: reasons}
		}

		if merged {
			for i := range build.Items {
				if build.Items[i].ProductID == productID {
					if err := s.buildRepo.UpdateItemQuantity(ctx, build.Items[i].ID, build.Items[i].Quantity); err != nil {
						return err
					}
					break
				}
			}
		} else {
			if err := s.buildRepo.InsertItem(ctx, &build.Items[len(build.Items)-1]); err != nil {
				return err
			}
		}

		if err := s.buildRepo.BumpVersion(ctx, build.ID, build.Version); err != nil {
			return err
		}
		build.Version++

		result = build
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *buildService) RemoveItem(ctx context.Context, ownerID, buildID, itemID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		build, err := s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
		if err != nil {
			return err
		}

		found := false
		for _, item := range build.Items {
			if item.ID == itemID {
				found = true
				break
			}
		}
		if !found {
			return repository.ErrBuildItemNotFound
		}

		if err := s.buildRepo.DeleteItem(ctx, itemID); err != nil {
			return err
		}

		return s.buildRepo.BumpVersion(ctx, build.ID, build.Version)
	})
}

func (s *buildService) CheckCompatibility(ctx context.Context, ownerID, buildID uuid.UUID) (CompatibilityReport, error) {
	build, err := s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
	if err != nil {
		return CompatibilityReport{}, err
	}
	return EstimateCompatibility(build), nil
}

func (s *buildService) Validate(ctx context.Context, ownerID, buildID uuid.UUID) (BuildValidation, error) {
	build, err := s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
	if err != nil {
		return BuildValidation{}, err
	}
	return validateBuild(build), nil
}

func (s *buildService) Summary(ctx context.Context, ownerID, buildID uuid.UUID) (BuildSummary, error) {
	build, err := s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
	if err != nil {
		return BuildSummary{}, err
	}

	report := EstimateCompatibility(build)
	validation := validateBuild(build)

	// Component presence already shows up in the validation reasons; repeating
	// it as warnings clutters the summary.
	warnings := []string{}
	for _, w := range report.Warnings {
		if w == "No motherboard in build" || w == "No PSU in build" {
			continue
		}
		warnings = append(warnings, w)
	}

	estimated := 0
	if report.EstimatedLoadW != nil {
		estimated = *report.EstimatedLoadW
	}

	return BuildSummary{
		BuildID:        build.ID,
		Name:           build.Name,
		DistinctItems:  len(build.Items),
		TotalQuantity:  build.TotalQuantity(),
		Compatible:     report.Compatible,
		Valid:          validation.OK,
		EstimatedLoadW: estimated,
		PSUWattageW:    report.PSUWattageW,
		Reasons:        validation.Reasons,
		Warnings:       warnings,
	}, nil
}

// Checkout converts a validated build into a NEW order inside one
// transaction: unit prices are frozen, stock is decremented with a guarded
// update, and the order plus its items are persisted together. Any failure
// leaves every touched row unchanged. The build itself is not deleted.
func (s *buildService) Checkout(ctx context.Context, ownerID, buildID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Re-read and re-validate against the transactional snapshot; the
		// earlier read-only validation may be stale by now.
		build, err := s.buildRepo.FindByIDForOwner(ctx, buildID, ownerID)
		if err != nil {
			return err
		}

		if validation := validateBuild(build); !validation.OK {
			return &BuildValidationError{Reasons: validation.Reasons}
		}

		if len(build.Items) == 0 {
			return ErrBuildEmpty
		}

		o := &domain.Order{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			Status:    domain.OrderStatusNew,
			Version:   0,
			CreatedAt: time.Now().UTC(),
		}

		for _, item := range build.Items {
			ok, err := s.productRepo.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				// The guard lost a race or validation saw a stale stock figure.
				available := 0
				if fresh, ferr := s.productRepo.FindByID(ctx, item.ProductID); ferr == nil {
					available = fresh.Stock
				}
				return &OutOfStockError{
					ProductID: item.ProductID,
					Requested: item.Quantity,
					Available: available,
				}
			}

			o.Items = append(o.Items, domain.OrderItem{
				ID:        uuid.New(),
				OrderID:   o.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.Product.Price,
			})
		}

		o.RecalcTotal()

		if err := s.orderRepo.Create(ctx, o); err != nil {
			return err
		}

		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// validateBuild accumulates every failed rule before returning the verdict:
// component presence, category ceilings, compatibility errors and stock
// sufficiency are independent of each other.
func validateBuild(build *domain.Build) BuildValidation {
	reasons := []string{}

	for _, c := range []domain.Category{
		domain.CategoryCPU,
		domain.CategoryMB,
		domain.CategoryPSU,
		domain.CategoryRAM,
		domain.CategoryCase,
	} {
		if build.QuantityByCategory(c) == 0 {
			reasons = append(reasons, "Missing "+string(c))
		}
	}

	reasons = append(reasons, categoryLimitReasons(build)...)

	report := EstimateCompatibility(build)
	reasons = append(reasons, report.Errors...)

	for _, item := range build.Items {
		if item.Quantity > item.Product.Stock {
			reasons = append(reasons, fmt.Sprintf("Not enough stock for %s (requested %d, available %d)",
				item.Product.SKU, item.Quantity, item.Product.Stock))
		}
	}

	return BuildValidation{
		BuildID: build.ID,
		OK:      len(reasons) == 0,
		Reasons: reasons,
	}
}

func categoryLimitReasons(build *domain.Build) []string {
	reasons := []string{}

	if build.QuantityByCategory(domain.CategoryCPU) > maxCPU {
		reasons = append(reasons, fmt.Sprintf("CPU can be only once (max %d)", maxCPU))
	}
	if build.QuantityByCategory(domain.CategoryGPU) > maxGPU {
		reasons = append(reasons, fmt.Sprintf("GPU can be only once (max %d)", maxGPU))
	}
	if build.QuantityByCategory(domain.CategoryPSU) > maxPSU {
		reasons = append(reasons, fmt.Sprintf("PSU can be only once (max %d)", maxPSU))
	}
	if build.QuantityByCategory(domain.CategoryCase) > maxCase {
		reasons = append(reasons, fmt.Sprintf("Case can be only once (max %d)", maxCase))
	}
	if build.QuantityByCategory(domain.CategoryRAM) > maxRAM {
		reasons = append(reasons, fmt.Sprintf("RAM exceeds limit (max %d sticks)", maxRAM))
	}

	return reasons
}
