package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jwalitptl/rehab-api/internal/model"
	"github.com/jwalitptl/rehab-api/pkg/errors"
)

// TemplateRepository serves a fixed set of templates. Templates are
// immutable reference data, so there is no locking and no mutation API.
type TemplateRepository struct {
	items map[uuid.UUID]*model.Template
}

func NewTemplateRepository(templates ...*model.Template) *TemplateRepository {
	items := make(map[uuid.UUID]*model.Template, len(templates))
	for _, t := range templates {
		items[t.ID] = t
	}
	return &TemplateRepository{items: items}
}

func (r *TemplateRepository) Get(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	t, ok := r.items[id]
	if !ok {
		return nil, errors.NotFound("template", nil)
	}
	return t, nil
}

func (r *TemplateRepository) List(ctx context.Context) ([]*model.Template, error) {
	out := make([]*model.Template, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}
