package dto

import "time"

type LookupRecordResponse struct {
	ID          string              `json:"id"`
	RequestedAt time.Time           `json:"requested_at"`
	Query       CoordinatesResponse `json:"query"`
	Location    CoordinatesResponse `json:"location"`
	ZoneName    string              `json:"zone_name"`
	Cached      bool                `json:"cached"`
}

type ListLookupsResponse struct {
	Lookups []LookupRecordResponse `json:"lookups"`
}
