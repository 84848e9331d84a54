package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/encinapp/encinapp/internal/core/domain"
	"github.com/encinapp/encinapp/internal/core/usecases"
	"github.com/encinapp/encinapp/internal/pkg/geospatial"
)

// textField resolves a value through its String method.
func textField(get func(src any) (fmt.Stringer, bool)) *graphql.Field {
	return &graphql.Field{
		Type: graphql.String,
		Resolve: func(p graphql.ResolveParams) (any, error) {
			if s, ok := get(p.Source); ok {
				return s.String(), nil
			}
			return nil, nil
		},
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"icon":  &graphql.Field{Type: graphql.String},
			"color": &graphql.Field{Type: graphql.String},
		},
	})

	pointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PointOfInterest",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.Int},
			"name":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
			"contact":  &graphql.Field{Type: graphql.String},
			"distance": &graphql.Field{Type: graphql.String, Description: "Kilometers from the device, one decimal"},
			"category": textField(func(src any) (fmt.Stringer, bool) {
				p, ok := src.(domain.PointOfInterest)
				return p.Category, ok
			}),
		},
	})

	alertType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Alert",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"location":  &graphql.Field{Type: coordinateType},
			"issued_at": &graphql.Field{Type: graphql.DateTime},
			"active":    &graphql.Field{Type: graphql.Boolean},
			"category": textField(func(src any) (fmt.Stringer, bool) {
				a, ok := src.(domain.Alert)
				return a.Category, ok
			}),
		},
	})

	commentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.Int},
			"content":   &graphql.Field{Type: graphql.String},
			"issued_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	userLocationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "UserLocation",
		Fields: graphql.Fields{
			"location": &graphql.Field{Type: coordinateType},
			"address":  &graphql.Field{Type: graphql.String},
		},
	})

	mapViewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"generation": &graphql.Field{Type: graphql.Int},
			"location":   &graphql.Field{Type: userLocationType},
			"state": textField(func(src any) (fmt.Stringer, bool) {
				v, ok := src.(usecases.MapView)
				return v.State, ok
			}),
			"filter": textField(func(src any) (fmt.Stringer, bool) {
				v, ok := src.(usecases.MapView)
				return v.Filter, ok
			}),
			"points": &graphql.Field{
				Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
					Name: "PointMarker",
					Fields: graphql.Fields{
						"point":  &graphql.Field{Type: pointType},
						"marker": &graphql.Field{Type: markerType},
					},
				})),
			},
			"alerts": &graphql.Field{
				Type: graphql.NewList(graphql.NewObject(graphql.ObjectConfig{
					Name: "AlertMarker",
					Fields: graphql.Fields{
						"alert":  &graphql.Field{Type: alertType},
						"marker": &graphql.Field{Type: markerType},
					},
				})),
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"map": &graphql.Field{
				Type:        mapViewType,
				Description: "Current map view; refresh re-runs the fetch sequence first",
				Args: graphql.FieldConfigArgument{
					"refresh": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if p.Args["refresh"].(bool) {
						return deps.Map.Refresh(p.Context), nil
					}
					return deps.Map.View(), nil
				},
			},
			"points": &graphql.Field{
				Type:        graphql.NewList(pointType),
				Description: "Points of interest, filtered and sorted by distance when lat/lon are given",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "all"},
					"lat":      &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":      &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					filter, err := domain.ParseCategoryFilter(p.Args["category"].(string))
					if err != nil {
						return nil, err
					}
					var user *domain.Coordinate
					lat, hasLat := p.Args["lat"].(float64)
					lon, hasLon := p.Args["lon"].(float64)
					if hasLat && hasLon {
						user = &domain.Coordinate{Latitude: lat, Longitude: lon}
						if err := checkCoordinate(*user); err != nil {
							return nil, err
						}
					}
					return deps.Points.Nearby(p.Context, filter, user), nil
				},
			},
			"alerts": &graphql.Field{
				Type:        graphql.NewList(alertType),
				Description: "Active alerts, or every alert with active: false",
				Args: graphql.FieldConfigArgument{
					"active": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: true},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					if p.Args["active"].(bool) {
						return deps.Alerts.ListActive(p.Context), nil
					}
					h := deps.Alerts.History(p.Context)
					return append(h.Active, h.Inactive...), nil
				},
			},
			"alert": &graphql.Field{
				Type: graphql.NewObject(graphql.ObjectConfig{
					Name: "AlertDetail",
					Fields: graphql.Fields{
						"alert":             &graphql.Field{Type: alertType},
						"address":           &graphql.Field{Type: graphql.String},
						"comments":          &graphql.Field{Type: graphql.NewList(commentType)},
						"suggested_replies": &graphql.Field{Type: graphql.NewList(graphql.String)},
					},
				}),
				Description: "Alert with its address and comment thread",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					detail, err := deps.Alerts.Detail(p.Context, int64(p.Args["id"].(int)))
					if err != nil {
						return nil, err
					}
					return *detail, nil
				},
			},
			"distance": &graphql.Field{
				Type:        graphql.String,
				Description: "Great-circle distance in kilometers, one decimal",
				Args: graphql.FieldConfigArgument{
					"lat1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon1": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon2": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return geospatial.CalculateDistance(
						p.Args["lat1"].(float64), p.Args["lon1"].(float64),
						p.Args["lat2"].(float64), p.Args["lon2"].(float64),
					), nil
				},
			},
			"location": &graphql.Field{
				Type:        userLocationType,
				Description: "Device position and address",
				Resolve: func(p graphql.ResolveParams) (any, error) {
					return deps.Geo.Locate(p.Context), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string         `json:"query"`
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
