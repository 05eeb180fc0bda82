package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/ariesclinic/consult/pkg/pagination"
)

type Repository interface {
	List(ctx context.Context, p pagination.Params) ([]Doctor, int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
}
