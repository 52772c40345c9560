package plans

import (
	"arcana-app/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	catalog *Catalog
	sync    *PriceSync
}

func NewHandler(catalog *Catalog, sync *PriceSync) *Handler {
	return &Handler{catalog: catalog, sync: sync}
}

// GetPlans serves GET /api/plans?regionId=&planId=. "region" is accepted as an
// alias of regionId.
func (h *Handler) GetPlans(c *gin.Context) {
	regionID := c.Query("regionId")
	if regionID == "" {
		regionID = c.Query("region")
	}

	res, err := h.catalog.GetPlans(c.Request.Context(), Query{
		IP:       c.ClientIP(),
		RegionID: regionID,
		PlanID:   c.Query("planId"),
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, res)
}

// SyncPrices serves POST /admin/sync-prices.
func (h *Handler) SyncPrices(c *gin.Context) {
	report, err := h.sync.Sync(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, report)
}
