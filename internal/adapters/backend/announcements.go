package backend

import (
	"context"
	"fmt"
	"strconv"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// AnnouncementRepo implements ports.AnnouncementRepository over /anuncios.
type AnnouncementRepo struct {
	c *Client
}

func NewAnnouncementRepo(c *Client) *AnnouncementRepo {
	return &AnnouncementRepo{c: c}
}

func (r *AnnouncementRepo) List(ctx context.Context) ([]domain.Announcement, error) {
	var body jsonBody
	if err := r.c.do(ctx, call{op: "list_announcements", method: "GET", path: "/anuncios", auth: authOptional, out: &body}); err != nil {
		return nil, err
	}

	raw, ok := envelope(body, "anunciosEncontrados", "anuncios")
	if !ok {
		return []domain.Announcement{}, nil
	}
	var dtos []announcementDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode announcements: %w", err)
	}

	out := make([]domain.Announcement, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Create publishes an announcement under authorID.
func (r *AnnouncementRepo) Create(ctx context.Context, authorID int64, a domain.Announcement) error {
	return r.c.do(ctx, call{
		op:     "create_announcement",
		method: "POST",
		path:   "/anuncios/" + strconv.FormatInt(authorID, 10),
		auth:   authRequired,
		in: newAnnouncementDTO{
			Title:       a.Title,
			Body:        a.Body,
			RelatedDate: a.RelatedDate,
			Address:     a.Address,
			IssuedAt:    a.IssuedAt,
		},
	})
}
