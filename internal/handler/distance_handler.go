package handler

import (
	"net/http"
	"strconv"

	"pgnest/internal/repository"
	"pgnest/pkg/location"

	"github.com/gin-gonic/gin"
)

const labelRadiusKm = 10

// DistanceHandler tells a visitor how far a listing is from a point (no map, just distance).
type DistanceHandler struct {
	listingRepo *repository.ListingRepository
}

func NewDistanceHandler(listingRepo *repository.ListingRepository) *DistanceHandler {
	return &DistanceHandler{listingRepo: listingRepo}
}

// GetDistance handles GET /listings/:id/distance?lat=&lng=.
func (h *DistanceHandler) GetDistance(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil || !location.ValidCoordinates(lat, lng) {
		failFields(c, map[string]string{"lat": "lat and lng must both be valid coordinates"})
		return
	}
	l, err := h.listingRepo.GetActive(id)
	if err != nil || l == nil {
		fail(c, http.StatusNotFound, "listing not found")
		return
	}
	if l.Latitude == nil || l.Longitude == nil {
		success(c, http.StatusOK, gin.H{
			"distance_km":          nil,
			"listing_has_location": false,
			"message":              "This property has not shared its location yet",
		})
		return
	}
	distKm := location.HaversineKm(lat, lng, *l.Latitude, *l.Longitude)
	distRounded := float64(int(distKm*100+0.5)) / 100
	success(c, http.StatusOK, gin.H{
		"distance_km":          distRounded,
		"distance_label":       location.DistanceLabel(distKm, labelRadiusKm),
		"listing_has_location": true,
	})
}
