package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/tablebot/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service booking.BookingUseCase
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type createReservationResponse struct {
	Reservation reservationResponse `json:"reservation"`
	Table       tableResponse       `json:"table"`
}

func NewReservationHandler(service booking.BookingUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.findByPhone)
	router.POST("", h.create)
	router.POST("/:id/confirm", h.confirm)
	router.POST("/:id/cancel", h.cancel)
	router.PATCH("/:id", h.amend)
}

func (h *ReservationHandler) findByPhone(c *gin.Context) {
	reservations, err := h.service.FindByPhone(c.Request.Context(), c.Query("phone"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]reservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) create(c *gin.Context) {
	var req booking.ReserveInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conf, err := h.service.Reserve(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createReservationResponse{
		Reservation: toReservationResponse(conf.Reservation),
		Table:       toTableResponse(conf.Table),
	})
}

func (h *ReservationHandler) confirm(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	updated, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "updated": updated})
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req cancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	updated, err := h.service.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "updated": updated})
}

func (h *ReservationHandler) amend(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req booking.AmendInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.service.Amend(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "updated": updated})
}

func reservationID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return 0, false
	}
	return id, true
}
