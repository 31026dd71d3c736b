package main

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"ffstats/pkg/fpl"
	"ffstats/pkg/warehouse"

	"github.com/gin-gonic/gin"
)

// intQuery parses an optional integer query parameter. A malformed value is
// treated as absent, matching how the SPA builds these URLs.
func intQuery(c *gin.Context, name string) *int {
	v := c.Query(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func (s *server) listPlayersHandler(c *gin.Context) {
	if s.warehouse == nil {
		respondError(c, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Warehouse is not configured")
		return
	}

	filter := warehouse.PlayerFilter{
		Team:     intQuery(c, "team"),
		Position: intQuery(c, "position"),
		MinPrice: intQuery(c, "minPrice"),
		MaxPrice: intQuery(c, "maxPrice"),
	}
	players, err := s.warehouse.Players(c.Request.Context(), filter)
	if err != nil {
		s.log.WithError(err).Error("players query failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch players")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": players, "count": len(players)})
}

func (s *server) getPlayerHandler(c *gin.Context) {
	if s.warehouse == nil {
		respondError(c, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Warehouse is not configured")
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Player id must be a number")
		return
	}
	player, err := s.warehouse.PlayerByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Player not found")
	case err != nil:
		s.log.WithError(err).Error("player query failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch player")
	default:
		c.JSON(http.StatusOK, gin.H{"data": player})
	}
}

func (s *server) listTeamsHandler(c *gin.Context) {
	if s.warehouse == nil {
		respondError(c, http.StatusServiceUnavailable, "INTERNAL_ERROR", "Warehouse is not configured")
		return
	}

	teams, err := s.warehouse.Teams(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("teams query failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch teams")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": teams, "count": len(teams)})
}

func (s *server) managerHistoryHandler(c *gin.Context) {
	managerID := c.Param("managerId")
	if !managerIDRE.MatchString(managerID) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Manager ID must be a valid number")
		return
	}

	history, err := s.fpl.ManagerHistory(c.Request.Context(), managerID)
	switch {
	case errors.Is(err, fpl.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Manager not found")
	case err != nil:
		s.log.WithError(err).Error("manager history fetch failed")
		respondError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch manager data")
	default:
		c.Data(http.StatusOK, "application/json", wrapData(history))
	}
}

// wrapData wraps an already-serialized JSON document in the {"data": ...}
// envelope without re-decoding it.
func wrapData(raw []byte) []byte {
	out := make([]byte, 0, len(raw)+16)
	out = append(out, `{"data":`...)
	out = append(out, raw...)
	out = append(out, '}')
	return out
}
