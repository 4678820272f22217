package farm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
	"github.com/mamadbah2/henmanager/internal/domain/models"
	"github.com/mamadbah2/henmanager/internal/repository"
)

// DefaultEggTypes is the catalogue installed on an empty database.
var DefaultEggTypes = []models.EggType{
	{Name: "Small", Description: "Small eggs", DisplayOrder: 1},
	{Name: "Medium", Description: "Medium eggs", DisplayOrder: 2},
	{Name: "Large", Description: "Large eggs", DisplayOrder: 3},
	{Name: "ExtraLarge", Description: "Extra large eggs", DisplayOrder: 4},
	{Name: "DoubleYolk", Description: "Double yolk eggs", DisplayOrder: 5},
	{Name: "Broken", Description: "Cracked or broken eggs", DisplayOrder: 6},
}

// EggTypeInput carries a catalogue entry. IsActive is only honoured by
// UpdateEggType; new entries always start active.
type EggTypeInput struct {
	Name         string
	Description  string
	IsActive     bool
	DisplayOrder int
}

// SeedEggTypes installs DefaultEggTypes when the catalogue is empty.
func (s *Service) SeedEggTypes(ctx context.Context) error {
	count, err := s.repo.CountEggTypes(ctx)
	if err != nil {
		return fmt.Errorf("count egg types: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, def := range DefaultEggTypes {
		eggType := def
		eggType.ID = s.newID()
		eggType.IsActive = true
		if err := s.repo.InsertEggType(ctx, eggType); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return fmt.Errorf("seed egg type %s: %w", eggType.Name, err)
		}
	}
	s.logger.Info("egg types seeded", zap.Int("count", len(DefaultEggTypes)))
	return nil
}

// CreateEggType adds a catalogue entry. Names are unique regardless of case.
func (s *Service) CreateEggType(ctx context.Context, actor access.Actor, in EggTypeInput) (models.EggType, error) {
	if err := actor.Require(access.CreateEggType); err != nil {
		return models.EggType{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.EggType{}, apperror.NewValidation("name is required")
	}

	eggType := models.EggType{
		ID:           s.newID(),
		Name:         name,
		Description:  strings.TrimSpace(in.Description),
		IsActive:     true,
		DisplayOrder: in.DisplayOrder,
	}
	if err := s.repo.InsertEggType(ctx, eggType); err != nil {
		return models.EggType{}, eggTypeWriteError(err, name)
	}

	s.logger.Info("egg type created", zap.String("egg_type_id", eggType.ID), zap.String("name", name))
	return eggType, nil
}

// GetEggType returns one catalogue entry.
func (s *Service) GetEggType(ctx context.Context, actor access.Actor, id string) (models.EggType, error) {
	if err := actor.Require(access.ViewEggTypes); err != nil {
		return models.EggType{}, err
	}
	eggType, err := s.repo.FindEggType(ctx, id)
	if err != nil {
		return models.EggType{}, lookupError(err, "egg type", id)
	}
	return eggType, nil
}

// ListEggTypes returns the catalogue by display order then name.
func (s *Service) ListEggTypes(ctx context.Context, actor access.Actor, activeOnly bool) ([]models.EggType, error) {
	if err := actor.Require(access.ViewEggTypes); err != nil {
		return nil, err
	}
	list, err := s.repo.ListEggTypes(ctx, activeOnly)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("list egg types: %w", err))
	}
	return list, nil
}

// UpdateEggType replaces a catalogue entry.
func (s *Service) UpdateEggType(ctx context.Context, actor access.Actor, id string, in EggTypeInput) (models.EggType, error) {
	if err := actor.Require(access.EditEggType); err != nil {
		return models.EggType{}, err
	}
	eggType, err := s.repo.FindEggType(ctx, id)
	if err != nil {
		return models.EggType{}, lookupError(err, "egg type", id)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.EggType{}, apperror.NewValidation("name is required")
	}

	eggType.Name = name
	eggType.Description = strings.TrimSpace(in.Description)
	eggType.IsActive = in.IsActive
	eggType.DisplayOrder = in.DisplayOrder

	if err := s.repo.ReplaceEggType(ctx, eggType); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.EggType{}, apperror.NewNotFound("egg type", id)
		}
		return models.EggType{}, eggTypeWriteError(err, name)
	}
	return eggType, nil
}

// DeleteEggType deactivates a catalogue entry. Entries are never removed
// because production and sales refer to them by name.
func (s *Service) DeleteEggType(ctx context.Context, actor access.Actor, id string) error {
	if err := actor.Require(access.DeleteEggType); err != nil {
		return err
	}
	eggType, err := s.repo.FindEggType(ctx, id)
	if err != nil {
		return lookupError(err, "egg type", id)
	}
	eggType.IsActive = false
	if err := s.repo.ReplaceEggType(ctx, eggType); err != nil {
		return writeError(err, "deactivate", "egg type", id)
	}
	s.logger.Info("egg type deactivated", zap.String("egg_type_id", id))
	return nil
}

// classification resolves a production classification against the
// catalogue and returns its canonical spelling.
func (s *Service) classification(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.NewValidation("classification is required")
	}
	eggType, err := s.repo.FindEggTypeByName(ctx, name)
	if err != nil {
		return "", referenceError(err, "egg type", name)
	}
	if !eggType.IsActive {
		return "", apperror.NewInvalid("egg type inactive").WithDetail("classification", eggType.Name)
	}
	return eggType.Name, nil
}

func eggTypeWriteError(err error, name string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperror.NewConflict("egg type name already exists").WithDetail("name", name)
	}
	return apperror.NewInternal(fmt.Errorf("write egg type %s: %w", name, err))
}
