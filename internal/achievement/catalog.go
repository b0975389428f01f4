package achievement

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/badursun/Roqua-sub000/internal/models"
)

// ErrInvalidAchievement is wrapped by every definition error
var ErrInvalidAchievement = errors.New("invalid achievement")

//go:embed catalog/default.json
var defaultCatalog []byte

// DefaultCatalog returns the embedded catalog JSON
func DefaultCatalog() []byte {
	return defaultCatalog
}

// definition is the catalog wire form. Params are decoded separately so one
// malformed bag does not reject the whole catalog.
type definition struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Type        string          `json:"type"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Icon        string          `json:"icon"`
	Target      int             `json:"target"`
	Hidden      bool            `json:"isHidden"`
	Rarity      string          `json:"rarity"`
	Calculator  string          `json:"calculator"`
	Params      json.RawMessage `json:"params"`
}

// Validate checks the required fields of a definition
func Validate(a models.Achievement) error {
	var missing []string
	if strings.TrimSpace(a.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(a.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(a.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(a.Calculator) == "" {
		missing = append(missing, "calculator")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w %q: missing %s", ErrInvalidAchievement, a.ID, strings.Join(missing, ", "))
	}
	if a.Target <= 0 {
		return fmt.Errorf("%w %q: target must be positive, got %d", ErrInvalidAchievement, a.ID, a.Target)
	}
	if a.Rarity != "" && !models.IsValidRarity(a.Rarity) {
		return fmt.Errorf("%w %q: unknown rarity %q", ErrInvalidAchievement, a.ID, a.Rarity)
	}
	return nil
}

// Define adds one achievement to the catalog. The catalog is unchanged on error.
func (e *Engine) Define(a models.Achievement) error {
	if err := Validate(a); err != nil {
		return err
	}
	if a.Rarity == "" {
		a.Rarity = models.RarityCommon
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.byID[a.ID]; dup {
		return fmt.Errorf("%w %q: duplicate id", ErrInvalidAchievement, a.ID)
	}
	e.byID[a.ID] = len(e.catalog)
	e.catalog = append(e.catalog, a)
	return nil
}

// LoadCatalog defines every achievement in a JSON array. Valid entries are
// kept; the joined errors of the rejected ones are returned.
func (e *Engine) LoadCatalog(data []byte) error {
	var defs []definition
	if err := json.Unmarshal(data, &defs); err != nil {
		return fmt.Errorf("failed to decode achievement catalog: %w", err)
	}

	var errs []error
	for _, d := range defs {
		params, err := models.ParseParams(d.Params)
		if err != nil {
			e.logger.Warn("achievement_params_malformed", "id", d.ID, "err", err)
			params = nil
		}
		a := models.Achievement{
			ID:          d.ID,
			Category:    d.Category,
			Type:        d.Type,
			Title:       d.Title,
			Description: d.Description,
			Icon:        d.Icon,
			Target:      d.Target,
			Hidden:      d.Hidden,
			Rarity:      d.Rarity,
			Calculator:  d.Calculator,
			Params:      params,
		}
		if err := e.Define(a); err != nil {
			errs = append(errs, err)
		}
	}
	e.logger.Info("achievement_catalog_loaded", "defined", len(defs)-len(errs), "rejected", len(errs))
	return errors.Join(errs...)
}
