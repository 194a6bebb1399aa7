package queue

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/domain/patient"
	"github.com/clinicore/clinicore/internal/platform/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	staff := auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist, auth.RoleCashier)

	g.POST("/queue", h.Create, auth.RequireRole(auth.RoleNurse, auth.RoleCashier))
	g.GET("/queue/waiting", h.ListWaiting, staff)
	g.GET("/queue/pharmacy", h.ActiveForPharmacy, staff)
	g.GET("/queue/doctor/:doctorId", h.ActiveForDoctor, staff)
	g.GET("/queue/:id", h.GetDetail, staff)
	g.PATCH("/queue/:id/status", h.UpdateStatus, staff)
	g.POST("/queue/:id/treatments", h.ApplyTreatments, auth.RequireRole(auth.RoleDoctor, auth.RoleNurse))
	g.POST("/queue/:id/drug-orders", h.OrderDrug, auth.RequireRole(auth.RoleDoctor, auth.RolePharmacist))
}

func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.Create(c.Request().Context(), req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, session)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	session, err := h.service.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, session)
}

func (h *Handler) ListWaiting(c echo.Context) error {
	entries, err := h.service.ListWaiting(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) ActiveForDoctor(c echo.Context) error {
	doctorID, err := pathID(c, "doctorId")
	if err != nil {
		return err
	}
	active, err := h.service.ActiveForDoctor(c.Request().Context(), doctorID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, active)
}

func (h *Handler) ActiveForPharmacy(c echo.Context) error {
	active, err := h.service.ActiveForPharmacy(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, active)
}

func (h *Handler) GetDetail(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.service.GetDetail(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

type applyTreatmentsRequest struct {
	TreatmentIDs []int64 `json:"treatment_ids"`
}

func (h *Handler) ApplyTreatments(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req applyTreatmentsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	applied, err := h.service.ApplyTreatments(c.Request().Context(), id, req.TreatmentIDs)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, applied)
}

type orderDrugRequest struct {
	DrugID   int64 `json:"drug_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) OrderDrug(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req orderDrugRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.service.OrderDrug(c.Request().Context(), id, req.DrugID, req.Quantity)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, order)
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, patient.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrCapacityExceeded):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInsufficientStock):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalidStatus), errors.Is(err, ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
