package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/tablebot/internal/domain"
	"github.com/Domenick1991/tablebot/internal/service/availability"
	"github.com/Domenick1991/tablebot/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type TableHandler struct {
	catalog      catalog.CatalogUseCase
	availability availability.AvailabilityUseCase
}

type alternativeResponse struct {
	Kind   string          `json:"kind"`
	Tables []tableResponse `json:"tables"`
}

type availabilityResponse struct {
	Date         string                `json:"date"`
	Time         string                `json:"time"`
	PartySize    int                   `json:"party_size"`
	Zone         string                `json:"zone,omitempty"`
	Tables       []tableResponse       `json:"tables"`
	Alternatives []alternativeResponse `json:"alternatives"`
}

func NewTableHandler(catalog catalog.CatalogUseCase, avail availability.AvailabilityUseCase) *TableHandler {
	return &TableHandler{catalog: catalog, availability: avail}
}

func (h *TableHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/summary", h.summary)
	router.GET("/available", h.available)
}

func (h *TableHandler) list(c *gin.Context) {
	tables, err := h.catalog.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTableResponses(tables))
}

func (h *TableHandler) summary(c *gin.Context) {
	zones, err := h.catalog.Summary(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *TableHandler) available(c *gin.Context) {
	party, err := strconv.Atoi(c.Query("party_size"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "party_size must be a number"})
		return
	}
	q := availability.Query{
		Date:      c.Query("date"),
		Time:      c.Query("time"),
		PartySize: party,
	}
	if raw := strings.ToLower(c.Query("zone")); raw != "" {
		zone, ok := domain.ParseZone(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown zone " + raw})
			return
		}
		q.Zone = zone
	}

	sugg, err := h.availability.SuggestAlternatives(c.Request.Context(), q)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := availabilityResponse{
		Date:         q.Date,
		Time:         q.Time,
		PartySize:    q.PartySize,
		Zone:         string(q.Zone),
		Tables:       toTableResponses(sugg.Exact),
		Alternatives: make([]alternativeResponse, 0, len(sugg.Alternatives)),
	}
	for _, alt := range sugg.Alternatives {
		resp.Alternatives = append(resp.Alternatives, alternativeResponse{Kind: alt.Kind, Tables: toTableResponses(alt.Tables)})
	}
	c.JSON(http.StatusOK, resp)
}
