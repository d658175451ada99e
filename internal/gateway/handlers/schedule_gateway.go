package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bloomcart-system/internal/checkout"
	"bloomcart-system/internal/schedule"
)

const deliveryHorizonDays = 30

type ScheduleHTTPHandler struct {
	zones    checkout.DeliveryZoneProvider
	timezone string
}

func NewScheduleHTTPHandler(zones checkout.DeliveryZoneProvider, timezone string) *ScheduleHTTPHandler {
	return &ScheduleHTTPHandler{
		zones:    zones,
		timezone: timezone,
	}
}

func (h *ScheduleHTTPHandler) DeliveryDates(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zone, err := h.zones.GetDeliveryZone(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load delivery schedule"))
		return
	}

	dates := schedule.AvailableDeliveryDates(zone.Schedule, time.Now(), deliveryHorizonDays)
	c.JSON(http.StatusOK, successResponse("Delivery dates retrieved", dates))
}

func (h *ScheduleHTTPHandler) DeliveryTimes(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Missing date parameter"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zone, err := h.zones.GetDeliveryZone(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load delivery schedule"))
		return
	}

	slots := schedule.TimeOptionsForDate(zone.Schedule, date, time.Now())
	c.JSON(http.StatusOK, successResponse("Delivery times retrieved", slots))
}

// DeliveryStatus powers the "delivering now" badge. It resolves the current
// moment in the store's timezone, unlike slot generation which works in naive
// store-local time.
func (h *ScheduleHTTPHandler) DeliveryStatus(c *gin.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	zone, err := h.zones.GetDeliveryZone(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse("Failed to load delivery schedule"))
		return
	}

	open := zone.Available && schedule.OpenNow(zone.Schedule, h.timezone, time.Now())
	c.JSON(http.StatusOK, successResponse("Delivery status retrieved", map[string]interface{}{
		"available": zone.Available,
		"openNow":   open,
	}))
}
