package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"timezone-lookup-service/internal/api/dto"
	"timezone-lookup-service/internal/app"
	"timezone-lookup-service/internal/domain"
	"timezone-lookup-service/internal/services"

	"github.com/spf13/cobra"
)

type lookupOptions struct {
	lat, lng          float64
	bearing, distance float64
	format            string
}

func newLookupCmd() *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve the time zone at a coordinate",
		Example: `  tzctl lookup --lat 41.8781 --lng -87.6298
  tzctl lookup --lat 0 --lng 0 --bearing 90 --distance 100000 --format text`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&opts.lat, "lat", 0, "latitude in degrees")
	f.Float64Var(&opts.lng, "lng", 0, "longitude in degrees")
	f.Float64Var(&opts.bearing, "bearing", 0, "initial bearing in degrees from north")
	f.Float64Var(&opts.distance, "distance", 0, "distance to travel in meters")
	f.StringVar(&opts.format, "format", "json", "output format: json or text")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	cmd.MarkFlagsRequiredTogether("bearing", "distance")

	return cmd
}

func runLookup(cmd *cobra.Command, opts lookupOptions) error {
	if opts.format != "json" && opts.format != "text" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := app.New(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	req := services.LookupRequest{Coordinates: domain.Coordinates{Lat: opts.lat, Lng: opts.lng}}
	if cmd.Flags().Changed("bearing") {
		req.Displacement = &domain.Displacement{BearingDeg: opts.bearing, DistanceM: opts.distance}
	}

	res, err := a.Service.Resolve(cmd.Context(), req)
	if err != nil {
		var ue *domain.UpstreamError
		if errors.As(err, &ue) && ue.Unauthorized {
			return fmt.Errorf("%w (check TIMEZONEDB_API_KEY)", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	tz := res.Timezone
	if opts.format == "text" {
		_, err := fmt.Fprintf(out, "%s %s (UTC%s)\n", tz.ZoneName, tz.LocalTime(), tz.UTCOffset())
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(dto.NewTimezoneResponse(res.Query, res.Resolved, tz, res.Cached))
}
