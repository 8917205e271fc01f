package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/surveyplan/internal/core/domain"
	"github.com/samirrijal/surveyplan/internal/workflows"
)

// localWaypoints holds the route length of a computed plan for the access log.
const localWaypoints = "waypoints"

// PreviewPlanHandler computes a plan without storing it.
func PreviewPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PlanRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		plan, err := deps.Plans.Preview(c.UserContext(), &req)
		if err != nil {
			return planError(c, err)
		}
		c.Locals(localWaypoints, len(plan.Waypoints))
		return c.JSON(plan)
	}
}

// CreatePlanHandler computes and stores a plan.
func CreatePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PlanRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		plan, err := deps.Plans.Create(c.UserContext(), &req)
		if err != nil {
			return planError(c, err)
		}
		c.Locals(localWaypoints, len(plan.Waypoints))
		c.Location("/v1/plans/" + plan.ID)
		return c.Status(fiber.StatusCreated).JSON(plan)
	}
}

// AsyncPlanHandler hands a plan request to a Temporal workflow, or to the
// NATS request queue when Temporal is not configured.
func AsyncPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PlanRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		// Reject bad input now rather than in a worker.
		if _, err := deps.Plans.Preview(c.UserContext(), &req); err != nil {
			return planError(c, err)
		}

		if deps.Workflows != nil {
			run, err := deps.Workflows.ExecuteWorkflow(c.UserContext(), client.StartWorkflowOptions{
				ID:        "survey-plan-" + uuid.NewString(),
				TaskQueue: deps.TaskQueue,
			}, workflows.SurveyPlanWorkflow, req)
			if err != nil {
				LoggerFromCtx(c.UserContext()).Error("start workflow failed", "error", err)
				return errUnavailable(c, "could not start planning workflow")
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"status":      "accepted",
				"workflow_id": run.GetID(),
				"run_id":      run.GetRunID(),
			})
		}

		if deps.Queue != nil {
			if err := deps.Queue.PublishPlanRequest(c.UserContext(), &req); err != nil {
				LoggerFromCtx(c.UserContext()).Error("queue plan request failed", "error", err)
				return errUnavailable(c, "could not queue plan request")
			}
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "queued"})
		}

		return errUnavailable(c, "asynchronous planning is not configured")
	}
}

// ListPlansHandler returns stored plans, newest first.
func ListPlansHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := parsePagination(c)

		total, err := deps.Plans.Count(c.UserContext())
		if err != nil {
			return planError(c, err)
		}
		plans, err := deps.Plans.List(c.UserContext(), pg.Offset, pg.Limit)
		if err != nil {
			return planError(c, err)
		}
		if plans == nil {
			plans = []domain.SurveyPlan{}
		}

		pg.Total = total
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: plans, Pagination: pg})
	}
}

// GetPlanHandler returns a stored plan by ID.
func GetPlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		plan, err := deps.Plans.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return planError(c, err)
		}
		return c.JSON(plan)
	}
}

// PlanUnitHandler returns a stored route scaled into the unit square for drawing.
func PlanUnitHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pts, err := deps.Plans.Unit(c.UserContext(), c.Params("id"))
		if err != nil {
			return planError(c, err)
		}
		return c.JSON(fiber.Map{"id": c.Params("id"), "points": pts})
	}
}

// DeletePlanHandler removes a stored plan.
func DeletePlanHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// fiber reuses the params buffer; the ID outlives the request in events
		id := utils.CopyString(c.Params("id"))
		if err := deps.Plans.Delete(c.UserContext(), id); err != nil {
			return planError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// FootprintHandler derives the ground footprint of one photograph.
func FootprintHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cam domain.Camera
		if err := c.BodyParser(&cam); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		fp, err := deps.Plans.Footprint(cam)
		if err != nil {
			return planError(c, err)
		}
		return c.JSON(fp)
	}
}

// RouteHandler is the query-string preview kept for older clients. It returns
// only the waypoint list.
func RouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := domain.PlanRequest{
			Footprint: &domain.Dimensions{
				Height: c.QueryFloat("footprint_height", 0),
				Width:  c.QueryFloat("footprint_width", 0),
			},
			Field: domain.Dimensions{
				Height: c.QueryFloat("field_height", 0),
				Width:  c.QueryFloat("field_width", 0),
			},
		}
		plan, err := deps.Plans.Preview(c.UserContext(), &req)
		if err != nil {
			return planError(c, err)
		}
		c.Locals(localWaypoints, len(plan.Waypoints))
		return c.JSON(fiber.Map{"waypoints": plan.Waypoints})
	}
}
