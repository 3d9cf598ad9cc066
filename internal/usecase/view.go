package usecase

import (
	"context"

	"quickResume/internal/domain"
	"quickResume/internal/repository"
)

// ProcessView is the filtered snapshot split the way it is displayed
type ProcessView struct {
	Version   uint64                 `json:"version"`
	Filter    domain.Filter          `json:"filter"`
	Active    []domain.ProcessRecord `json:"active"`
	Suspended []domain.ProcessRecord `json:"suspended"`
}

// ViewBuilder applies filters and the games classifier to snapshots
type ViewBuilder struct {
	classifier repository.Classifier
}

// NewViewBuilder creates a builder. A nil classifier lets every process pass
// the games-only toggle.
func NewViewBuilder(classifier repository.Classifier) *ViewBuilder {
	return &ViewBuilder{classifier: classifier}
}

// Build filters records and splits them into active and suspended lists
func (v *ViewBuilder) Build(ctx context.Context, records []domain.ProcessRecord, version uint64, filter domain.Filter) ProcessView {
	var isGame func(domain.ProcessRecord) bool
	if v.classifier != nil {
		isGame = func(p domain.ProcessRecord) bool {
			return v.classifier.IsGame(ctx, p)
		}
	}

	active, suspended := domain.SplitBySuspension(filter.Apply(records, isGame))
	if active == nil {
		active = []domain.ProcessRecord{}
	}
	if suspended == nil {
		suspended = []domain.ProcessRecord{}
	}

	return ProcessView{
		Version:   version,
		Filter:    filter,
		Active:    active,
		Suspended: suspended,
	}
}
