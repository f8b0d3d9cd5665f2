package patient

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinrec/clinrec/internal/platform/auth"
	"github.com/clinrec/clinrec/internal/platform/fhir"
)

type Handler struct {
	svc     *Service
	baseURL string
}

func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(fhirGroup *echo.Group) {
	role := auth.RequireRole("admin", "physician", "nurse")

	read := fhirGroup.Group("", role)
	read.GET("/Patient", h.SearchPatients)
	read.GET("/Patient/:id", h.ReadPatient)
	read.GET("/Patient/:id/_history", h.HistoryPatient)
	read.GET("/Patient/:id/_history/:vid", h.VreadPatient)

	write := fhirGroup.Group("", auth.RequireRole("admin", "physician"))
	write.POST("/Patient", h.CreatePatient)
	write.PUT("/Patient/:id", h.UpdatePatient)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return writeError(c, &fhir.BadRequestError{Msg: "malformed Patient resource: " + err.Error()})
	}
	outcome, err := h.svc.Create(c.Request().Context(), &p)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", fhir.FormatETag(outcome.VersionID))
	c.Response().Header().Set("Location",
		fmt.Sprintf("%s/Patient/%d/_history/%d", h.baseURL, outcome.LogicalID, outcome.VersionID))
	return c.JSON(http.StatusCreated, outcome.Resource)
}

func (h *Handler) ReadPatient(c echo.Context) error {
	p, err := h.svc.Read(c.Request().Context(), c.Param("id"), "")
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", `W/"`+p.Meta.VersionID+`"`)
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) VreadPatient(c echo.Context) error {
	p, err := h.svc.Read(c.Request().Context(), c.Param("id"), c.Param("vid"))
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", `W/"`+p.Meta.VersionID+`"`)
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return writeError(c, &fhir.BadRequestError{Msg: "malformed Patient resource: " + err.Error()})
	}
	outcome, err := h.svc.Update(c.Request().Context(), c.Param("id"), &p)
	if err != nil {
		return writeError(c, err)
	}
	c.Response().Header().Set("ETag", fhir.FormatETag(outcome.VersionID))
	return c.JSON(http.StatusOK, outcome.Resource)
}

func (h *Handler) HistoryPatient(c echo.Context) error {
	patients, err := h.svc.History(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	entries := make([]fhir.HistoryEntry, len(patients))
	for i, p := range patients {
		entries[i] = fhir.HistoryEntry{
			ResourceType: ResourceType,
			LogicalID:    mustParseID(p.ID),
			VersionID:    mustParseVersion(p.Meta.VersionID),
			Resource:     p,
			LastUpdated:  p.Meta.LastUpdated,
		}
	}
	return c.JSON(http.StatusOK, fhir.NewHistoryBundle(entries, h.baseURL))
}

func (h *Handler) SearchPatients(c echo.Context) error {
	filters := SearchFilters{
		Family: c.QueryParam("family"),
		Gender: c.QueryParam("gender"),
	}
	matches, total, err := h.svc.Search(c.Request().Context(), filters)
	if err != nil {
		return writeError(c, err)
	}
	entries := make([]fhir.SearchEntry, len(matches))
	for i, p := range matches {
		entries[i] = fhir.SearchEntry{
			FullURL:  fmt.Sprintf("%s/Patient/%s", h.baseURL, p.ID),
			Resource: p,
		}
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(entries, total))
}

func writeError(c echo.Context, err error) error {
	return c.JSON(fhir.StatusFor(err), fhir.OutcomeFor(err))
}

// mustParseID and mustParseVersion re-read identities the service just
// stamped; they cannot fail on provider output.
func mustParseID(raw string) int64 {
	id, _ := parseLogicalID(raw)
	return id
}

func mustParseVersion(raw string) int {
	v, _ := parseVersionID(raw)
	return v
}
