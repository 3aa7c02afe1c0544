package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapscreen/internal/adapters/surface"
	"github.com/samirrijal/mapscreen/internal/core/domain"
	"github.com/samirrijal/mapscreen/internal/core/usecases"
)

func geoPointMap(p domain.GeoPoint) map[string]interface{} {
	return map[string]interface{}{"lat": p.Lat, "lon": p.Lon}
}

func geoPointsMap(ps []domain.GeoPoint) []map[string]interface{} {
	out := make([]map[string]interface{}, len(ps))
	for i, p := range ps {
		out[i] = geoPointMap(p)
	}
	return out
}

func outcomeMap(o domain.RouteOutcome) map[string]interface{} {
	return map[string]interface{}{
		"request_id":      o.RequestID,
		"seq":             int(o.Seq),
		"origin":          geoPointMap(o.Origin),
		"destination":     geoPointMap(o.Destination),
		"outcome":         string(o.Outcome),
		"error":           o.Error,
		"point_count":     o.PointCount,
		"distance_meters": o.DistanceMeters,
		"requested_at":    o.RequestedAt.Format("2006-01-02T15:04:05Z07:00"),
		"completed_at":    o.CompletedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// buildSchema creates the GraphQL schema wired to the map screen.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	annotationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Annotation",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"title":      &graphql.Field{Type: graphql.String},
			"coordinate": &graphql.Field{Type: geoPointType},
			"image":      &graphql.Field{Type: graphql.String},
		},
	})

	overlayType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Overlay",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"kind":         &graphql.Field{Type: graphql.String},
			"stroke_color": &graphql.Field{Type: graphql.String},
			"line_width":   &graphql.Field{Type: graphql.Float},
			"coordinates":  &graphql.Field{Type: graphql.NewList(geoPointType)},
		},
	})

	mapType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Map",
		Fields: graphql.Fields{
			"center":              &graphql.Field{Type: geoPointType},
			"latitude_delta":      &graphql.Field{Type: graphql.Float},
			"longitude_delta":     &graphql.Field{Type: graphql.Float},
			"point_set":           &graphql.Field{Type: graphql.String},
			"route_state":         &graphql.Field{Type: graphql.String},
			"network_activity":    &graphql.Field{Type: graphql.Boolean},
			"shows_user_location": &graphql.Field{Type: graphql.Boolean},
			"tracking":            &graphql.Field{Type: graphql.Boolean},
			"last_seq":            &graphql.Field{Type: graphql.Int},
			"annotations":         &graphql.Field{Type: graphql.NewList(annotationType)},
			"overlays":            &graphql.Field{Type: graphql.NewList(overlayType)},
		},
	})

	routeRequestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RouteRequest",
		Fields: graphql.Fields{
			"request_id":      &graphql.Field{Type: graphql.String},
			"seq":             &graphql.Field{Type: graphql.Int},
			"origin":          &graphql.Field{Type: geoPointType},
			"destination":     &graphql.Field{Type: geoPointType},
			"outcome":         &graphql.Field{Type: graphql.String},
			"error":           &graphql.Field{Type: graphql.String},
			"point_count":     &graphql.Field{Type: graphql.Int},
			"distance_meters": &graphql.Field{Type: graphql.Float},
			"requested_at":    &graphql.Field{Type: graphql.String},
			"completed_at":    &graphql.Field{Type: graphql.String},
		},
	})

	showRouteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ShowRouteResult",
		Fields: graphql.Fields{
			"request_id": &graphql.Field{Type: graphql.String},
			"seq":        &graphql.Field{Type: graphql.Int},
			"state":      &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"map": &graphql.Field{
				Type:        mapType,
				Description: "Current map screen with styled annotations and overlays",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return resolveMap(p.Context, deps)
				},
			},
			"routeRequests": &graphql.Field{
				Type:        graphql.NewList(routeRequestType),
				Description: "Recent directions requests, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Journal == nil {
						return nil, usecases.ErrJournalUnavailable
					}
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					outcomes, _, err := deps.Journal.Recent(p.Context, offset, limit)
					if err != nil {
						return nil, err
					}
					result := make([]map[string]interface{}, 0, len(outcomes))
					for _, o := range outcomes {
						result = append(result, outcomeMap(o))
					}
					return result, nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"showRoute": &graphql.Field{
				Type:        showRouteType,
				Description: "Request a driving route to the first point of interest",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var (
						res map[string]interface{}
						err error
					)
					syncErr := deps.Loop.Sync(p.Context, func() {
						var seq uint64
						seq, err = deps.Screen.ShowRoute()
						res = map[string]interface{}{
							"request_id": deps.Screen.LastRequestID(),
							"seq":        int(seq),
							"state":      string(deps.Screen.RouteState()),
						}
					})
					if syncErr != nil {
						return nil, syncErr
					}
					if err != nil {
						return nil, err
					}
					return res, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func resolveMap(ctx context.Context, deps *Dependencies) (map[string]interface{}, error) {
	st, err := readMapState(ctx, deps)
	if err != nil {
		return nil, err
	}
	var r surface.Rendering
	if err := deps.Loop.Sync(ctx, func() { r = deps.Surface.Render() }); err != nil {
		return nil, err
	}

	annotations := make([]map[string]interface{}, 0, len(r.Annotations))
	for _, ra := range r.Annotations {
		m := map[string]interface{}{
			"id":         ra.Annotation.ID,
			"title":      ra.Annotation.Title,
			"coordinate": geoPointMap(ra.Annotation.Coordinate),
		}
		if ra.View != nil {
			m["image"] = ra.View.Image
		}
		annotations = append(annotations, m)
	}

	overlays := make([]map[string]interface{}, 0, len(r.Overlays))
	for _, ro := range r.Overlays {
		overlays = append(overlays, map[string]interface{}{
			"id":           ro.Overlay.ID,
			"kind":         string(ro.Overlay.Kind),
			"stroke_color": string(ro.Style.StrokeColor),
			"line_width":   ro.Style.LineWidth,
			"coordinates":  geoPointsMap(ro.Overlay.Coordinates),
		})
	}

	return map[string]interface{}{
		"center":              geoPointMap(st.Region.Center),
		"latitude_delta":      st.Region.Span.LatitudeDelta,
		"longitude_delta":     st.Region.Span.LongitudeDelta,
		"point_set":           st.PointSet,
		"route_state":         string(st.RouteState),
		"network_activity":    st.NetworkActivity,
		"shows_user_location": st.ShowsUserLocation,
		"tracking":            st.Tracking,
		"last_seq":            int(st.LastSeq),
		"annotations":         annotations,
		"overlays":            overlays,
	}, nil
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
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
