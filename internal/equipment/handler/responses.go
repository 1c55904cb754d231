package handler

import (
	"turfops/internal/audit"
	"turfops/internal/equipment/models"
)

type listAssetsResponse struct {
	Assets []*models.Asset `json:"assets"`
}

type historyResponse struct {
	Records []*models.CustodyRecord `json:"records"`
}

type fleetStatusResponse struct {
	Statuses map[string]string `json:"statuses"`
}

type auditEventsResponse struct {
	Events []audit.Event `json:"events"`
}
