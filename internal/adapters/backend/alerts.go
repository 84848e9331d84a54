package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/encinapp/encinapp/internal/core/domain"
)

// AlertRepo implements ports.AlertRepository over /alertas.
type AlertRepo struct {
	c *Client
}

func NewAlertRepo(c *Client) *AlertRepo {
	return &AlertRepo{c: c}
}

func (r *AlertRepo) List(ctx context.Context, activeOnly bool) ([]domain.Alert, error) {
	path := "/alertas"
	if activeOnly {
		path += "?estado_actividad=1"
	}

	var body jsonBody
	if err := r.c.do(ctx, call{op: "list_alerts", method: "GET", path: path, auth: authOptional, out: &body}); err != nil {
		return nil, err
	}

	raw, ok := envelope(body, "alertasEncontradas", "alertas")
	if !ok {
		return []domain.Alert{}, nil
	}
	var dtos []alertDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}

	alerts := make([]domain.Alert, 0, len(dtos))
	for _, d := range dtos {
		a, err := d.toDomain()
		if err != nil {
			slog.DebugContext(ctx, "skipping alert", "id", int64(d.ID), "tipo", d.Kind, "error", err)
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func (r *AlertRepo) GetByID(ctx context.Context, id int64) (*domain.Alert, error) {
	var body jsonBody
	if err := r.c.do(ctx, call{op: "get_alert", method: "GET", path: "/alertas/" + strconv.FormatInt(id, 10), auth: authOptional, out: &body}); err != nil {
		return nil, err
	}
	return decodeAlert(body, "alertaEncontrada", "anuncioEncontrado", "alerta")
}

// Create posts a new alert. It returns nil when the backend replies without
// the created record.
func (r *AlertRepo) Create(ctx context.Context, a domain.NewAlert) (*domain.Alert, error) {
	var body jsonBody
	err := r.c.do(ctx, call{
		op:     "create_alert",
		method: "POST",
		path:   "/alertas",
		auth:   authRequired,
		in: newAlertDTO{
			Kind: a.Category.BackendName(),
			Lat:  a.Location.Latitude,
			Lon:  a.Location.Longitude,
		},
		out: &body,
	})
	if err != nil {
		return nil, err
	}

	created, err := decodeAlert(body, "alertaCreada", "nuevaAlerta", "alerta")
	if err != nil {
		slog.DebugContext(ctx, "create alert reply without record", "error", err)
		return nil, nil
	}
	return created, nil
}

func (r *AlertRepo) Delete(ctx context.Context, id int64) error {
	return r.c.do(ctx, call{op: "delete_alert", method: "DELETE", path: "/alertas/" + strconv.FormatInt(id, 10), auth: authRequired})
}

// decodeAlert reads an alert from one of the envelope keys, or from the body
// itself when it is the bare record.
func decodeAlert(body []byte, keys ...string) (*domain.Alert, error) {
	raw, ok := envelope(body, keys...)
	if !ok || raw[0] == '[' {
		raw = body
	}

	var d alertDTO
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode alert: %w", err)
	}
	if d.ID == 0 && d.MapID == 0 {
		return nil, fmt.Errorf("decode alert: %w", domain.ErrNotFound)
	}
	a, err := d.toDomain()
	if err != nil {
		return nil, fmt.Errorf("decode alert: %w", err)
	}
	return &a, nil
}

// CommentRepo implements ports.CommentRepository over /alertas/{id}/comentarios.
type CommentRepo struct {
	c *Client
}

func NewCommentRepo(c *Client) *CommentRepo {
	return &CommentRepo{c: c}
}

func commentsPath(alertID int64) string {
	return "/alertas/" + strconv.FormatInt(alertID, 10) + "/comentarios"
}

func (r *CommentRepo) List(ctx context.Context, alertID int64) ([]domain.Comment, error) {
	var body jsonBody
	if err := r.c.do(ctx, call{op: "list_comments", method: "GET", path: commentsPath(alertID), auth: authOptional, out: &body}); err != nil {
		return nil, err
	}

	raw, ok := envelope(body, "comentariosEncontrados", "comentarios")
	if !ok {
		return []domain.Comment{}, nil
	}
	var dtos []commentDTO
	if err := json.Unmarshal(raw, &dtos); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	comments := make([]domain.Comment, 0, len(dtos))
	for _, d := range dtos {
		comments = append(comments, d.toDomain(alertID))
	}
	return comments, nil
}

func (r *CommentRepo) Create(ctx context.Context, alertID int64, c domain.NewComment) error {
	return r.c.do(ctx, call{
		op:     "add_comment",
		method: "POST",
		path:   commentsPath(alertID),
		auth:   authRequired,
		in:     map[string]string{"contenido": c.Content},
	})
}

func (r *CommentRepo) Delete(ctx context.Context, alertID, commentID int64) error {
	return r.c.do(ctx, call{
		op:     "delete_comment",
		method: "DELETE",
		path:   commentsPath(alertID) + "/" + strconv.FormatInt(commentID, 10),
		auth:   authRequired,
	})
}
