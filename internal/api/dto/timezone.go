package dto

import "timezone-lookup-service/internal/domain"

type CoordinatesResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TimezoneResponse struct {
	Query            CoordinatesResponse `json:"query"`
	Location         CoordinatesResponse `json:"location"`
	ZoneName         string              `json:"zone_name"`
	Abbreviation     string              `json:"abbreviation"`
	CountryCode      string              `json:"country_code,omitempty"`
	CountryName      string              `json:"country_name,omitempty"`
	GMTOffsetSeconds int                 `json:"gmt_offset_seconds"`
	DST              bool                `json:"dst"`
	Timestamp        int64               `json:"timestamp"`
	CurrentLocalTime string              `json:"current_local_time"`
	Formatted        string              `json:"formatted"`
	Cached           bool                `json:"cached"`
}

// LegacyTimezoneResponse is the camelCase body served by /timeZoneLookup.
type LegacyTimezoneResponse struct {
	CurrentLocalTime string `json:"currentLocalTime"`
	TimeZoneName     string `json:"timeZoneName"`
}

func NewCoordinatesResponse(c domain.Coordinates) CoordinatesResponse {
	return CoordinatesResponse{Latitude: c.Lat, Longitude: c.Lng}
}

// NewTimezoneResponse builds the lookup body shared by the HTTP API and tzctl.
func NewTimezoneResponse(query, resolved domain.Coordinates, tz domain.TimezoneResult, cached bool) TimezoneResponse {
	return TimezoneResponse{
		Query:            NewCoordinatesResponse(query),
		Location:         NewCoordinatesResponse(resolved),
		ZoneName:         tz.ZoneName,
		Abbreviation:     tz.Abbreviation,
		CountryCode:      tz.CountryCode,
		CountryName:      tz.CountryName,
		GMTOffsetSeconds: tz.GMTOffsetSeconds,
		DST:              tz.DST,
		Timestamp:        tz.Timestamp,
		CurrentLocalTime: tz.LocalTime(),
		Formatted:        tz.Formatted(),
		Cached:           cached,
	}
}
