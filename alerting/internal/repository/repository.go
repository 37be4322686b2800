package repository

import (
	"context"
	"errors"

	"github.com/telhawk-systems/telhawk-watch/alerting/internal/models"
)

var (
	ErrDefinitionNotFound = errors.New("watch definition not found")
	ErrDuplicateAction    = errors.New("duplicate action name")
)

// Repository persists the current action names of every watch definition.
type Repository interface {
	// ListActionNames returns the allow-list of every watch of tenant,
	// ordered by watch id.
	ListActionNames(ctx context.Context, tenant string) ([]models.WatchActionNames, error)
	UpsertDefinition(ctx context.Context, tenant string, def models.WatchActionNames) error
	DeleteDefinition(ctx context.Context, tenant, watchID string) error
	Close() error
}

// ValidateDefinition rejects definitions whose action names are not a set.
func ValidateDefinition(def models.WatchActionNames) error {
	if def.WatchID == "" {
		return errors.New("watch id is required")
	}
	seen := make(map[string]struct{}, len(def.AllowedActionNames))
	for _, name := range def.AllowedActionNames {
		if _, dup := seen[name]; dup {
			return errors.Join(ErrDuplicateAction, errors.New(name))
		}
		seen[name] = struct{}{}
	}
	return nil
}
