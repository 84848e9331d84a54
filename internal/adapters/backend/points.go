package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// PointRepo implements ports.PointRepository over /puntos-interes.
type PointRepo struct {
	c *Client
}

func NewPointRepo(c *Client) *PointRepo {
	return &PointRepo{c: c}
}

func (r *PointRepo) List(ctx context.Context) ([]domain.PointOfInterest, error) {
	var body jsonBody
	if err := r.c.do(ctx, call{op: "list_points", method: "GET", path: "/puntos-interes", auth: authOptional, out: &body}); err != nil {
		return nil, err
	}

	raw, ok := envelope(body, "puntosInteresEncontrados", "puntosDeInteres")
	if !ok {
		return []domain.PointOfInterest{}, nil
	}
	var dtos []pointDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode points: %w", err)
	}

	points := make([]domain.PointOfInterest, 0, len(dtos))
	for _, d := range dtos {
		p, err := d.toDomain()
		if err != nil {
			slog.DebugContext(ctx, "skipping point of interest", "id", int64(d.ID), "tipo", d.Kind, "error", err)
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

func (r *PointRepo) Create(ctx context.Context, p domain.NewPoint) error {
	return r.c.do(ctx, call{
		op:     "create_point",
		method: "POST",
		path:   "/puntos-interes",
		auth:   authRequired,
		in: newPointDTO{
			Kind:    p.Category.BackendName(),
			Name:    p.Name,
			Lat:     p.Location.Latitude,
			Lon:     p.Location.Longitude,
			Contact: p.Contact,
		},
	})
}
