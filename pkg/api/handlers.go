package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/matt-steen/sqr1/pkg/db"
)

type handlers struct {
	db *db.Database
}

type titleRequest struct {
	Title string `json:"title"`
}

type textRequest struct {
	Text string `json:"text"`
}

type tabPatchRequest struct {
	Title     *string             `json:"title"`
	Content   *string             `json:"content"`
	Mode      *db.TabMode         `json:"mode"`
	Checklist *[]db.ChecklistItem `json:"checklist"`
}

type eventRequest struct {
	Title       string         `json:"title"`
	Date        string         `json:"date"`
	Description *string        `json:"description"`
	ProjectID   *string        `json:"projectId"`
	Color       *db.EventColor `json:"color"`
}

// eventPatchRequest uses explicit clear flags since a JSON null can not be told apart from an
// absent field.
type eventPatchRequest struct {
	Title            *string        `json:"title"`
	Description      *string        `json:"description"`
	Date             *string        `json:"date"`
	ProjectID        *string        `json:"projectId"`
	Color            *db.EventColor `json:"color"`
	ClearDescription bool           `json:"clearDescription"`
	ClearProject     bool           `json:"clearProject"`
	ClearColor       bool           `json:"clearColor"`
}

type usage struct {
	Used int `json:"used"`
	Max  int `json:"max"`
}

type limitsResponse struct {
	Projects          usage            `json:"projects"`
	Tabs              map[string]usage `json:"tabs"`
	Month             string           `json:"month"`
	Events            usage            `json:"events"`
	MaxContentLength  int              `json:"maxContentLength"`
	MaxChecklistItems int              `json:"maxChecklistItems"`
}

func (h *handlers) healthz(c echo.Context) error {
	if _, err := h.db.Projects.Projects(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// limits reports usage against the free-tier limits. The month defaults to the current one.
func (h *handlers) limits(c echo.Context) error {
	ctx := c.Request().Context()

	month := c.QueryParam("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}

	projects, err := h.db.Projects.Projects(ctx)
	if err != nil {
		return fail(c, err)
	}

	n, err := h.db.Events.CountEventsInMonth(ctx, month)
	if err != nil {
		return fail(c, err)
	}

	resp := limitsResponse{
		Projects:          usage{Used: len(projects), Max: db.MaxProjects},
		Tabs:              make(map[string]usage, len(projects)),
		Month:             month,
		Events:            usage{Used: n, Max: db.MaxEventsPerMonth},
		MaxContentLength:  db.MaxContentLength,
		MaxChecklistItems: db.MaxFreeChecklistItems,
	}

	for _, p := range projects {
		resp.Tabs[p.ID] = usage{Used: len(p.Tabs), Max: db.MaxTabs}
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *handlers) listProjects(c echo.Context) error {
	projects, err := h.db.Projects.Projects(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, projects)
}

func (h *handlers) createProject(c echo.Context) error {
	var req titleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	project, err := h.db.Projects.CreateProject(c.Request().Context(), req.Title)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, project)
}

func (h *handlers) getProject(c echo.Context) error {
	project, err := h.db.Projects.Project(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, project)
}

// updateProject replaces a whole project. The id in the path wins over the body.
func (h *handlers) updateProject(c echo.Context) error {
	var project db.Project
	if err := c.Bind(&project); err != nil {
		return badRequest(c, "invalid body")
	}

	project.ID = c.Param("id")

	if err := h.db.Projects.UpdateProject(c.Request().Context(), project); err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteProject(c echo.Context) error {
	if err := h.db.Projects.DeleteProject(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) addTab(c echo.Context) error {
	tab, err := h.db.Projects.AddTab(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, tab)
}

func (h *handlers) updateTab(c echo.Context) error {
	var req tabPatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	patch := db.TabPatch{Title: req.Title, Content: req.Content, Mode: req.Mode, Checklist: req.Checklist}

	if err := h.db.Projects.UpdateTab(c.Request().Context(), c.Param("id"), c.Param("tabID"), patch); err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteTab(c echo.Context) error {
	if err := h.db.Projects.DeleteTab(c.Request().Context(), c.Param("id"), c.Param("tabID")); err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) addChecklistItem(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	item, err := h.db.Projects.AddChecklistItem(c.Request().Context(), c.Param("id"), c.Param("tabID"), req.Text)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

func (h *handlers) updateChecklistItem(c echo.Context) error {
	var req textRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	err := h.db.Projects.UpdateChecklistItemText(c.Request().Context(), c.Param("id"), c.Param("tabID"), c.Param("itemID"), req.Text)
	if err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) toggleChecklistItem(c echo.Context) error {
	err := h.db.Projects.ToggleChecklistItem(c.Request().Context(), c.Param("id"), c.Param("tabID"), c.Param("itemID"))
	if err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) removeChecklistItem(c echo.Context) error {
	err := h.db.Projects.RemoveChecklistItem(c.Request().Context(), c.Param("id"), c.Param("tabID"), c.Param("itemID"))
	if err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// listEvents filters by date, else by month, else returns everything. projectId narrows any of them.
func (h *handlers) listEvents(c echo.Context) error {
	ctx := c.Request().Context()

	var projectID *string
	if id := c.QueryParam("projectId"); id != "" {
		projectID = &id
	}

	var (
		events []db.CalendarEvent
		err    error
	)

	switch date, month := c.QueryParam("date"), c.QueryParam("month"); {
	case date != "":
		events, err = h.db.Events.EventsForDate(ctx, date, projectID)
	case month != "":
		events, err = h.db.Events.EventsForMonth(ctx, month, projectID)
	default:
		events, err = h.db.Events.Events(ctx)
		events = forProject(events, projectID)
	}

	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, events)
}

func forProject(events []db.CalendarEvent, projectID *string) []db.CalendarEvent {
	if projectID == nil {
		return events
	}

	out := []db.CalendarEvent{}

	for _, e := range events {
		if e.ProjectID != nil && *e.ProjectID == *projectID {
			out = append(out, e)
		}
	}

	return out
}

func (h *handlers) createEvent(c echo.Context) error {
	var req eventRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	event, err := h.db.Events.CreateEvent(c.Request().Context(), db.NewEvent{
		Title:       req.Title,
		Date:        req.Date,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Color:       req.Color,
	})
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusCreated, event)
}

func (h *handlers) updateEvent(c echo.Context) error {
	var req eventPatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	event, err := h.db.Events.UpdateEvent(c.Request().Context(), c.Param("id"), db.EventPatch(req))
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(http.StatusOK, event)
}

func (h *handlers) deleteEvent(c echo.Context) error {
	if err := h.db.Events.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
