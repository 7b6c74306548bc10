package services

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/agilehub/practice-engine/pkg/apperrors"
	"github.com/agilehub/practice-engine/pkg/models"
)

//go:embed questionnaire.yaml
var questionnaireYAML []byte

// Catalogue is the fixed questionnaire: a mapping from item ID to the one
// Big Five dimension the item measures.
type Catalogue struct {
	dimensions map[string]models.Dimension
}

type catalogueFile struct {
	Items []catalogueItem `yaml:"items"`
}

type catalogueItem struct {
	ID        string           `yaml:"id"`
	Dimension models.Dimension `yaml:"dimension"`
	Text      string           `yaml:"text"`
}

// LoadCatalogue parses a questionnaire definition.
func LoadCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse questionnaire: %w", err)
	}

	dims := make(map[string]models.Dimension, len(file.Items))
	for _, item := range file.Items {
		if item.ID == "" {
			return nil, fmt.Errorf("questionnaire item without id")
		}
		if !models.IsValidDimension(item.Dimension) {
			return nil, fmt.Errorf("questionnaire item %q has unknown dimension %q", item.ID, item.Dimension)
		}
		if _, dup := dims[item.ID]; dup {
			return nil, fmt.Errorf("duplicate questionnaire item %q", item.ID)
		}
		dims[item.ID] = item.Dimension
	}

	return &Catalogue{dimensions: dims}, nil
}

var (
	defaultCatalogue     *Catalogue
	defaultCatalogueOnce sync.Once
)

// DefaultCatalogue returns the embedded questionnaire catalogue.
func DefaultCatalogue() *Catalogue {
	defaultCatalogueOnce.Do(func() {
		cat, err := LoadCatalogue(questionnaireYAML)
		if err != nil {
			// The embedded catalogue is a build-time asset; failing to
			// parse it is a programming error.
			panic(fmt.Sprintf("invalid embedded questionnaire: %v", err))
		}
		defaultCatalogue = cat
	})
	return defaultCatalogue
}

// Dimension returns the dimension an item measures, if the item exists.
func (c *Catalogue) Dimension(itemID string) (models.Dimension, bool) {
	d, ok := c.dimensions[itemID]
	return d, ok
}

// Size returns the number of items in the catalogue.
func (c *Catalogue) Size() int {
	return len(c.dimensions)
}

// ComputeProfile derives the Big Five trait vector from the latest response
// per item. Each dimension scores the mean of its items' normalized answers,
// (result-1)/4; a dimension with no answered items scores 0. The result is
// independent of response order, and an empty response set yields the
// all-zero vector. The returned count is the number of catalogue items that
// contributed.
//
// The whole batch is rejected if any result falls outside [1,5]; no partial
// scores are ever produced.
func ComputeProfile(cat *Catalogue, responses []*models.SurveyResponse) (models.TraitVector, int, error) {
	for _, resp := range responses {
		if resp.Result < models.LikertMin || resp.Result > models.LikertMax {
			return models.TraitVector{}, 0, &apperrors.ValidationError{
				Field:   resp.ItemID,
				Message: fmt.Sprintf("result %d outside Likert range [%d,%d]", resp.Result, models.LikertMin, models.LikertMax),
			}
		}
	}

	sums := make(map[models.Dimension]float64, len(models.Dimensions))
	counts := make(map[models.Dimension]int, len(models.Dimensions))
	answered := 0

	for _, resp := range responses {
		dim, ok := cat.Dimension(resp.ItemID)
		if !ok {
			// Item not in the fixed catalogue: ignored.
			continue
		}
		sums[dim] += float64(resp.Result-models.LikertMin) / float64(models.LikertMax-models.LikertMin)
		counts[dim]++
		answered++
	}

	var traits models.TraitVector
	for _, dim := range models.Dimensions {
		if counts[dim] == 0 {
			continue
		}
		score := sums[dim] / float64(counts[dim])
		traits.Set(dim, clamp01(score))
	}

	return traits, answered, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
