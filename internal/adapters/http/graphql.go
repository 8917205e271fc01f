package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/surveyplan/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to the plan service.
// Field names follow the JSON tags of the domain types, which the default
// resolver reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	dimensionsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Dimensions",
		Fields: graphql.Fields{
			"height": &graphql.Field{Type: graphql.Float},
			"width":  &graphql.Field{Type: graphql.Float},
		},
	})

	waypointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Waypoint",
		Fields: graphql.Fields{
			"x": &graphql.Field{Type: graphql.Float},
			"y": &graphql.Field{Type: graphql.Float},
		},
	})

	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	tileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tile",
		Fields: graphql.Fields{
			"row": &graphql.Field{Type: graphql.Int},
			"col": &graphql.Field{Type: graphql.Int},
		},
	})

	planType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SurveyPlan",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"name":          &graphql.Field{Type: graphql.String},
			"footprint":     &graphql.Field{Type: dimensionsType},
			"field":         &graphql.Field{Type: dimensionsType},
			"rows":          &graphql.Field{Type: graphql.Int},
			"cols":          &graphql.Field{Type: graphql.Int},
			"strategy":      &graphql.Field{Type: graphql.String},
			"transposed":    &graphql.Field{Type: graphql.Boolean},
			"waypoints":     &graphql.Field{Type: graphql.NewList(waypointType)},
			"uncovered":     &graphql.Field{Type: graphql.NewList(tileType)},
			"path_length":   &graphql.Field{Type: graphql.Float},
			"origin":        &graphql.Field{Type: geoPointType},
			"geo_waypoints": &graphql.Field{Type: graphql.NewList(geoPointType)},
			"complete": &graphql.Field{
				Type: graphql.Boolean,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if plan, ok := p.Source.(*domain.SurveyPlan); ok {
						return plan.Complete(), nil
					}
					if plan, ok := p.Source.(domain.SurveyPlan); ok {
						return plan.Complete(), nil
					}
					return nil, nil
				},
			},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"plan": &graphql.Field{
				Type:        planType,
				Description: "Get a stored plan by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Plans.GetByID(p.Context, id)
				},
			},
			"plans": &graphql.Field{
				Type:        graphql.NewList(planType),
				Description: "List stored plans, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: defaultLimit},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					offset := p.Args["offset"].(int)
					limit := p.Args["limit"].(int)
					return deps.Plans.List(p.Context, offset, limit)
				},
			},
			"preview": &graphql.Field{
				Type:        planType,
				Description: "Compute a route without storing it",
				Args: graphql.FieldConfigArgument{
					"footprint_height": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"footprint_width":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"field_height":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"field_width":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := &domain.PlanRequest{
						Footprint: &domain.Dimensions{
							Height: p.Args["footprint_height"].(float64),
							Width:  p.Args["footprint_width"].(float64),
						},
						Field: domain.Dimensions{
							Height: p.Args["field_height"].(float64),
							Width:  p.Args["field_width"].(float64),
						},
					}
					return deps.Plans.Preview(p.Context, req)
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
