package http

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the tracker.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	t := deps.Tracker

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	progressType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Progress",
		Fields: graphql.Fields{
			"total":      &graphql.Field{Type: graphql.Int},
			"visited":    &graphql.Field{Type: graphql.Int},
			"percentage": &graphql.Field{Type: graphql.Float},
			"display":    &graphql.Field{Type: graphql.String},
			"loaded":     &graphql.Field{Type: graphql.Boolean},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			// int64 ids exceed GraphQL Int, so they travel as ID strings.
			"id":           &graphql.Field{Type: graphql.ID},
			"name":         &graphql.Field{Type: graphql.String},
			"visited":      &graphql.Field{Type: graphql.Boolean},
			"fill":         &graphql.Field{Type: graphql.String},
			"rings":        &graphql.Field{Type: graphql.Int},
			"perimeter_km": &graphql.Field{Type: graphql.Float},
			"bounds":       &graphql.Field{Type: boundsType},
		},
	})

	registryStatusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RegistryStatus",
		Fields: graphql.Fields{
			"loaded":     &graphql.Field{Type: graphql.Boolean},
			"loading":    &graphql.Field{Type: graphql.Boolean},
			"regions":    &graphql.Field{Type: graphql.Int},
			"excluded":   &graphql.Field{Type: graphql.Int},
			"generation": &graphql.Field{Type: graphql.Int},
			"last_error": &graphql.Field{Type: graphql.String},
		},
	})

	visitChangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VisitChange",
		Fields: graphql.Fields{
			"event_id":  &graphql.Field{Type: graphql.String},
			"region":    &graphql.Field{Type: regionType},
			"visited":   &graphql.Field{Type: graphql.Boolean},
			"persisted": &graphql.Field{Type: graphql.Boolean},
			"progress":  &graphql.Field{Type: progressType},
		},
	})

	regionMap := func(r domain.Region) map[string]any {
		d := detailOf(t, r, false)
		return map[string]any{
			"id":           strconv.FormatInt(d.ID, 10),
			"name":         d.Name,
			"visited":      d.Visited,
			"fill":         d.Fill,
			"rings":        d.Rings,
			"perimeter_km": d.PerimeterKm,
			"bounds":       d.Bounds,
		}
	}
	progressMap := func() map[string]any {
		pv := progressView(t)
		return map[string]any{
			"total":      pv.Total,
			"visited":    pv.Visited,
			"percentage": pv.Percentage,
			"display":    pv.Display,
			"loaded":     pv.Loaded,
		}
	}
	statusMap := func() map[string]any {
		st := t.Registry().Status()
		return map[string]any{
			"loaded":     st.Loaded,
			"loading":    st.Loading,
			"regions":    st.Regions,
			"excluded":   st.Excluded,
			"generation": int(st.Generation),
			"last_error": st.LastError,
		}
	}
	idArg := func(p graphql.ResolveParams) (int64, error) {
		raw, _ := p.Args["id"].(string)
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid region id %q", raw)
		}
		return id, nil
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type: graphql.NewList(regionType),
				Args: graphql.FieldConfigArgument{
					"visited": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					regions, err := t.Regions()
					if err != nil {
						return nil, err
					}
					want, filter := p.Args["visited"].(bool)
					out := make([]map[string]any, 0, len(regions))
					for _, r := range regions {
						if filter && t.Visits().IsVisited(r.ID) != want {
							continue
						}
						out = append(out, regionMap(r))
					}
					return out, nil
				},
			},
			"region": &graphql.Field{
				Type: regionType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, err := idArg(p)
					if err != nil {
						return nil, err
					}
					r, err := t.Region(id)
					if err != nil {
						return nil, err
					}
					return regionMap(r), nil
				},
			},
			"locate": &graphql.Field{
				Type: regionType,
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					lat, _ := p.Args["lat"].(float64)
					lon, _ := p.Args["lon"].(float64)
					r, err := t.Locate(domain.GeoPoint{Lat: lat, Lon: lon})
					if err != nil {
						return nil, err
					}
					return regionMap(r), nil
				},
			},
			"progress": &graphql.Field{
				Type:    progressType,
				Resolve: func(p graphql.ResolveParams) (any, error) { return progressMap(), nil },
			},
			"visited": &graphql.Field{
				Type: graphql.NewList(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (any, error) {
					ids := t.Visits().IDs()
					out := make([]string, len(ids))
					for i, id := range ids {
						out[i] = strconv.FormatInt(id, 10)
					}
					return out, nil
				},
			},
			"registryStatus": &graphql.Field{
				Type:    registryStatusType,
				Resolve: func(p graphql.ResolveParams) (any, error) { return statusMap(), nil },
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"toggleVisit": &graphql.Field{
				Type: visitChangeType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (any, error) {
					id, err := idArg(p)
					if err != nil {
						return nil, err
					}
					change, err := t.Toggle(p.Context, id)
					if err != nil {
						return nil, err
					}
					r, _ := t.Region(id)
					return map[string]any{
						"event_id":  change.EventID,
						"region":    regionMap(r),
						"visited":   change.Visited,
						"persisted": change.Persisted,
						"progress":  progressMap(),
					}, nil
				},
			},
			"reloadRegistry": &graphql.Field{
				Type: registryStatusType,
				Resolve: func(p graphql.ResolveParams) (any, error) {
					done := t.ReloadAsync(context.WithoutCancel(p.Context))
					go func() {
						if err := <-done; err != nil {
							LoggerFromCtx(p.Context).Warn("registry reload failed", "error", err)
						}
					}()
					return statusMap(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
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
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
