package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fakhrymubarak/iss-finder/internal/config"
	"github.com/fakhrymubarak/iss-finder/internal/model"
	"github.com/fakhrymubarak/iss-finder/internal/pagecontroller"
	"github.com/fakhrymubarak/iss-finder/internal/server"
	"github.com/fakhrymubarak/iss-finder/internal/service"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		config.GetLogger().Errorw("Command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "issfinder",
		Short:         "Tells you when to go outside and look for the ISS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newServeCmd(), newWatchCmd(), newStatusCmd())
	return rootCmd
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the ISS Finder web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return server.Run(cmd.Context(), port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", config.GetServerPort(), "Port to listen on")
	return cmd
}

func newWatchCmd() *cobra.Command {
	var (
		serverURL string
		lat, lon  float64
		refresh   time.Duration
		showClock bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the ISS from the terminal against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if refresh <= 0 {
				return fmt.Errorf("--refresh must be positive, got %s", refresh)
			}
			var hidden []string
			if !showClock {
				hidden = append(hidden, pagecontroller.ElementDateTime)
			}
			display := pagecontroller.NewTerminalDisplay(cmd.OutOrStdout(), hidden...)

			var opts []pagecontroller.Option
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				coords := model.Coordinates{Lat: lat, Lon: lon}
				if err := coords.Validate(); err != nil {
					return err
				}
				opts = append(opts, pagecontroller.WithGeolocator(pagecontroller.StaticGeolocator{Coords: coords}))
			}

			ctrl := pagecontroller.New(display, pagecontroller.NewClient(serverURL), opts...)
			return ctrl.Run(cmd.Context(), refresh)
		},
	}
	cmd.Flags().StringVarP(&serverURL, "server", "s", "http://localhost:"+config.GetServerPort(), "ISS Finder server URL")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Your latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Your longitude")
	cmd.Flags().DurationVarP(&refresh, "refresh", "r", 30*time.Second, "ISS refresh interval")
	cmd.Flags().BoolVar(&showClock, "clock", false, "Print the clock every second")
	return cmd
}

func newStatusCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the current go-look-up advice",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service.NewISSFinderService(nil)
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
				coords := model.Coordinates{Lat: lat, Lon: lon}
				if err := coords.Validate(); err != nil {
					return err
				}
				svc.LocationRepo = fixedLocation(coords)
			}

			data, err := svc.PageData(cmd.Context())
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), data)
			return nil
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Your latitude (defaults to the stored location)")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Your longitude (defaults to the stored location)")
	return cmd
}

// fixedLocation answers every lookup with the same coordinates and never stores.
type fixedLocation model.Coordinates

func (f fixedLocation) GetLocation(ctx context.Context) (model.Coordinates, error) {
	return model.Coordinates(f), nil
}

func (f fixedLocation) SaveLocation(ctx context.Context, coords model.Coordinates) error {
	return nil
}

func printStatus(w io.Writer, data *model.PageData) {
	fmt.Fprintf(w, "Your Position is LAT: %g  LONG: %g\n", data.Visitor.Lat, data.Visitor.Lon)
	fmt.Fprintf(w, "ISS Position is LAT: %g   LONG: %g (%s)\n", data.ISS.Latitude, data.ISS.Longitude, data.ISS.Source)
	fmt.Fprintf(w, "Weather: %s (%d)\n", data.Weather.Description, data.Weather.ID)
	fmt.Fprintf(w, "Sunrise %s, sunset %s (%s)\n", data.Sun.Sunrise.Format("15:04"), data.Sun.Sunset.Format("15:04"), data.Timezone)
	fmt.Fprintln(w, pagecontroller.PlainText(data.Status.Message))
}
