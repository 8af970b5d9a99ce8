package driven

import "github.com/lricher7329/refsearch/internal/core/domain"

// ConfigStore persists typed application settings.
type ConfigStore interface {
	// Load returns the persisted settings, falling back to defaults
	// for missing values.
	Load() (domain.Settings, error)

	// Save persists the settings.
	Save(settings domain.Settings) error

	// Path returns the backing file path, for display purposes.
	Path() string
}
