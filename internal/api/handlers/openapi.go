package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

var (
	openAPIOnce sync.Once
	openAPIJSON []byte
	openAPIErr  error
)

// OpenAPIDocument describes the public HTTP surface.
func OpenAPIDocument() *openapi3.T {
	coordinates := openapi3.NewObjectSchema().
		WithProperty("latitude", openapi3.NewFloat64Schema()).
		WithProperty("longitude", openapi3.NewFloat64Schema())

	timezone := openapi3.NewObjectSchema().
		WithProperty("query", coordinates).
		WithProperty("location", coordinates).
		WithProperty("zone_name", openapi3.NewStringSchema()).
		WithProperty("abbreviation", openapi3.NewStringSchema()).
		WithProperty("country_code", openapi3.NewStringSchema()).
		WithProperty("country_name", openapi3.NewStringSchema()).
		WithProperty("gmt_offset_seconds", openapi3.NewIntegerSchema()).
		WithProperty("dst", openapi3.NewBoolSchema()).
		WithProperty("timestamp", openapi3.NewInt64Schema()).
		WithProperty("current_local_time", openapi3.NewStringSchema()).
		WithProperty("formatted", openapi3.NewStringSchema()).
		WithProperty("cached", openapi3.NewBoolSchema())

	legacy := openapi3.NewObjectSchema().
		WithProperty("currentLocalTime", openapi3.NewStringSchema()).
		WithProperty("timeZoneName", openapi3.NewStringSchema())

	lookups := openapi3.NewObjectSchema().
		WithProperty("lookups", openapi3.NewArraySchema().WithItems(openapi3.NewObjectSchema().
			WithProperty("id", openapi3.NewUUIDSchema()).
			WithProperty("requested_at", openapi3.NewDateTimeSchema()).
			WithProperty("query", coordinates).
			WithProperty("location", coordinates).
			WithProperty("zone_name", openapi3.NewStringSchema()).
			WithProperty("cached", openapi3.NewBoolSchema())))

	errorBody := openapi3.NewObjectSchema().WithProperty("error", openapi3.NewStringSchema())

	query := func(name, desc string, required bool, schema *openapi3.Schema) *openapi3.ParameterRef {
		return &openapi3.ParameterRef{Value: openapi3.NewQueryParameter(name).
			WithDescription(desc).
			WithRequired(required).
			WithSchema(schema)}
	}
	response := func(desc string, schema *openapi3.Schema) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchema(schema)}
	}
	lookupResponses := func(ok *openapi3.Schema) *openapi3.Responses {
		return openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, response("Resolved time zone", ok)),
			openapi3.WithStatus(http.StatusBadRequest, response("Malformed coordinates", errorBody)),
			openapi3.WithStatus(http.StatusNotFound, response("No zone at this location", errorBody)),
			openapi3.WithStatus(http.StatusBadGateway, response("Timezone service failure or rejected key", errorBody)),
		)
	}

	format := openapi3.NewStringSchema().WithEnum("json", "text")

	lookup := &openapi3.Operation{
		OperationID: "lookupTimezone",
		Summary:     "Resolve the time zone at a coordinate",
		Parameters: openapi3.Parameters{
			query("lat", "Latitude in degrees", true, openapi3.NewFloat64Schema().WithMin(-90).WithMax(90)),
			query("lng", "Longitude in degrees", true, openapi3.NewFloat64Schema().WithMin(-180).WithMax(180)),
			query("bearing", "Initial bearing in degrees from north", false, openapi3.NewFloat64Schema().WithMin(0).WithMax(360)),
			query("distance", "Distance to travel in meters", false, openapi3.NewFloat64Schema().WithMin(0)),
			query("format", "Response format", false, format),
		},
		Responses: lookupResponses(timezone),
	}

	legacyLookup := &openapi3.Operation{
		OperationID: "timeZoneLookup",
		Summary:     "Resolve the time zone after moving along a bearing",
		Parameters: openapi3.Parameters{
			query("latitude", "Latitude in degrees", true, openapi3.NewFloat64Schema().WithMin(-90).WithMax(90)),
			query("longitude", "Longitude in degrees", true, openapi3.NewFloat64Schema().WithMin(-180).WithMax(180)),
			query("bearingInDegrees", "Initial bearing in degrees from north", false, openapi3.NewFloat64Schema().WithMin(0).WithMax(360)),
			query("distanceInMeters", "Distance to travel in meters", false, openapi3.NewFloat64Schema().WithMin(0)),
		},
		Responses: lookupResponses(legacy),
	}

	listLookups := &openapi3.Operation{
		OperationID: "listLookups",
		Summary:     "Recent lookups, newest first",
		Parameters: openapi3.Parameters{
			query("limit", "Maximum number of lookups", false, openapi3.NewIntegerSchema().WithMin(1).WithMax(200)),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, response("Lookup history", lookups)),
			openapi3.WithStatus(http.StatusNotFound, response("History disabled", errorBody)),
		),
	}

	health := &openapi3.Operation{
		OperationID: "health",
		Summary:     "Liveness check",
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, response("Service is up",
				openapi3.NewObjectSchema().WithProperty("status", openapi3.NewStringSchema()))),
		),
	}

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "timezone-lookup-service",
			Description: "Resolves coordinates to IANA time zones.",
			Version:     "1.0.0",
		},
		Paths: openapi3.NewPaths(
			openapi3.WithPath("/timezone", &openapi3.PathItem{Get: lookup}),
			openapi3.WithPath("/timeZoneLookup", &openapi3.PathItem{Get: legacyLookup}),
			openapi3.WithPath("/lookups", &openapi3.PathItem{Get: listLookups}),
			openapi3.WithPath("/health", &openapi3.PathItem{Get: health}),
		),
	}
}

// OpenAPI serves the document as JSON. It is rendered once per process.
func OpenAPI(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	openAPIOnce.Do(func() {
		openAPIJSON, openAPIErr = json.Marshal(OpenAPIDocument())
	})
	if openAPIErr != nil {
		zap.L().Error("render openapi document", zap.Error(openAPIErr))
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIJSON)
}
