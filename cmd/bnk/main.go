package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bnkchallenge/internal/bootstrap"
	cataloginadapter "bnkchallenge/internal/modules/catalog/adapter/in"
	catalogdto "bnkchallenge/internal/modules/catalog/dto"
	trackingdomain "bnkchallenge/internal/modules/tracking/domain"
	trackingdto "bnkchallenge/internal/modules/tracking/dto"
	"bnkchallenge/internal/platform/config"
	"bnkchallenge/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	dataDir  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "bnk",
		Short:         "BNK Challenge mission tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", ".", "directory holding bnk.yaml and the local database")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")

	root.AddCommand(newTUICmd(flags))
	root.AddCommand(newMissionsCmd(flags))
	root.AddCommand(newTrackCmd(flags))
	root.AddCommand(newLocateCmd(flags))
	root.AddCommand(newWalletCmd(flags))
	root.AddCommand(newSessionsCmd(flags))
	root.AddCommand(newNotifyCmd(flags))
	root.AddCommand(newBridgeCmd(flags))
	return root
}

func loadApp(ctx context.Context, flags *rootFlags) (*bootstrap.App, error) {
	cfg, err := config.New(flags.dataDir)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return bootstrap.New(ctx, cfg, logging.New(cfg.LogLevel, os.Stderr))
}

func newTUICmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse missions and track them in the terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

// ─── missions ────────────────────────────────────────────────────────────────

func newMissionsCmd(flags *rootFlags) *cobra.Command {
	missions := &cobra.Command{Use: "missions", Short: "Mission catalog"}

	var category, sort string
	list := &cobra.Command{
		Use:   "list",
		Short: "List missions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			items, err := app.CatalogCLI.List(cmd.Context(), category, sort)
			if err != nil {
				return err
			}
			printMissions(cmd.OutOrStdout(), items)
			return nil
		},
	}
	list.Flags().StringVar(&category, "category", "", "category: all|food|cafe|tourist|culture|festival|walk|shopping|self-dev|sports")
	list.Flags().StringVar(&sort, "sort", "", "sort: distance|popular|recent")

	missions.AddCommand(list)
	missions.AddCommand(&cobra.Command{
		Use:   "recommend",
		Short: "List AI-recommended missions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			items, err := app.CatalogCLI.Recommended(cmd.Context())
			if err != nil {
				return err
			}
			printMissions(cmd.OutOrStdout(), items)
			return nil
		},
	})
	missions.AddCommand(&cobra.Command{
		Use:   "show <mission-id>",
		Short: "Show mission details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			m, err := app.CatalogCLI.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printMission(cmd.OutOrStdout(), m)
			return nil
		},
	})
	missions.AddCommand(&cobra.Command{
		Use:   "like <mission-id>",
		Short: "Toggle the like on a mission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.CatalogCLI.Like(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s liked=%t\n", out.MissionID, out.IsLiked)
			return nil
		},
	})
	missions.AddCommand(&cobra.Command{
		Use:   "participate <mission-id>",
		Short: "Join a mission without tracking it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out, err := app.CatalogCLI.Participate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s success=%t %s\n", out.MissionID, out.Success, out.Message)
			return nil
		},
	})

	var outPath string
	geojsonCmd := &cobra.Command{
		Use:   "geojson",
		Short: "Export mission targets and geofences as GeoJSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			items, err := app.CatalogCLI.List(cmd.Context(), category, "")
			if err != nil {
				return err
			}
			raw, err := cataloginadapter.MissionsGeoJSON(items, trackingdomain.GeofenceRadiusMeters)
			if err != nil {
				return err
			}
			if outPath == "" {
				_, err = cmd.OutOrStdout().Write(append(raw, '\n'))
				return err
			}
			if err := os.WriteFile(outPath, raw, 0o644); err != nil {
				return fmt.Errorf("write geojson: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}
	geojsonCmd.Flags().StringVar(&category, "category", "", "only missions in this category")
	geojsonCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	missions.AddCommand(geojsonCmd)
	return missions
}

func printMissions(w io.Writer, items []catalogdto.MissionOutput) {
	if len(items) == 0 {
		_, _ = fmt.Fprintln(w, "no missions")
		return
	}
	for _, m := range items {
		liked := " "
		if m.IsLiked {
			liked = "♥"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%s\t%s\t%s\t%s coins\t%s\n", liked, m.ID, m.CategoryLabel, m.Distance, m.Title, humanize.Comma(int64(m.CoinReward)), m.ParticipationStatus)
	}
}

func printMission(w io.Writer, m catalogdto.MissionOutput) {
	_, _ = fmt.Fprintf(w, "id: %s\ntitle: %s\ncategory: %s\nlocation: %s %s\ndistance: %s\nreward: %s\nend: %s\n",
		m.ID, m.Title, m.CategoryLabel, m.Location, m.LocationDetail, m.Distance, humanize.Comma(int64(m.CoinReward)), m.EndDate)
	if m.Lat != nil && m.Lng != nil {
		_, _ = fmt.Fprintf(w, "target: %.6f,%.6f\n", *m.Lat, *m.Lng)
	}
	if m.ParticipationStatus != "" {
		_, _ = fmt.Fprintf(w, "status: %s\n", m.ParticipationStatus)
	}
	if m.Insight != "" {
		_, _ = fmt.Fprintf(w, "insight: %s\n", m.Insight)
	}
	for _, v := range m.VerificationMethods {
		_, _ = fmt.Fprintf(w, "  - %s\n", v)
	}
}

// ─── track ───────────────────────────────────────────────────────────────────

func newTrackCmd(flags *rootFlags) *cobra.Command {
	var skipParticipate bool
	cmd := &cobra.Command{
		Use:   "track <mission-id>",
		Short: "Join a mission and wait in its geofence until it completes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, flags)
			if err != nil {
				return err
			}
			defer app.Close()
			out := cmd.OutOrStdout()

			mission, err := app.CatalogCLI.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !skipParticipate {
				res, err := app.CatalogCLI.Participate(ctx, mission.ID)
				if err != nil {
					return err
				}
				if !res.Success {
					return errors.New(res.Message)
				}
				_, _ = fmt.Fprintln(out, res.Message)
			}

			sub, err := app.TrackingCLI.StartMission(ctx, mission)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "tracking %s (%s) via %s, stay within %.0fm for %s\n",
				mission.Title, mission.ID, app.Sampler, trackingdomain.GeofenceRadiusMeters, trackingdomain.RequiredDwell)

			g, gctx := errgroup.WithContext(ctx)
			listenCtx, stopListening := context.WithCancel(gctx)
			defer stopListening()
			g.Go(func() error {
				return app.LocationCLI.Listen(listenCtx)
			})
			g.Go(func() error {
				defer stopListening()
				outcome, err := waitForOutcome(gctx, out, app.TrackingCLI.Snapshot, sub)
				if err != nil {
					return err
				}
				return reportOutcome(out, outcome)
			})
			err = g.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&skipParticipate, "no-participate", false, "start tracking without joining the mission first")
	return cmd
}

// waitForOutcome prints progress until the session ends. Cancelling ctx stops
// the session and waits for its cancelled outcome.
func waitForOutcome(ctx context.Context, w io.Writer, snapshot func() trackingdto.Snapshot, sub trackingdto.Subscription) (trackingdto.Outcome, error) {
	progress := sub.Progress
	for {
		select {
		case <-ctx.Done():
			sub.Stop()
			outcome := <-sub.Done
			return outcome, nil
		case p, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			snap := snapshot()
			zone := "outside"
			if p.IsInZone {
				zone = "inside"
			}
			_, _ = fmt.Fprintf(w, "%3.0f%%  %s left  %.0fm  %s\n", snap.Percent, snap.Remaining, p.DistanceMeters, zone)
		case outcome, ok := <-sub.Done:
			if !ok {
				return trackingdto.Outcome{State: "cancelled"}, nil
			}
			return outcome, nil
		}
	}
}

func reportOutcome(w io.Writer, outcome trackingdto.Outcome) error {
	if outcome.Completion == nil {
		_, _ = fmt.Fprintln(w, "mission cancelled")
		return nil
	}
	c := outcome.Completion
	_, _ = fmt.Fprintf(w, "mission completed: +%s coins, balance %s\n", humanize.Comma(int64(c.Reward)), humanize.Comma(int64(c.CoinBalance)))
	return nil
}

// ─── location ────────────────────────────────────────────────────────────────

func newLocateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Request the current position once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			pos, err := app.LocationCLI.RequestLocation(cmd.Context())
			if err != nil {
				state := app.LocationCLI.State()
				if state.Message != "" {
					return errors.New(state.Message)
				}
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%.6f,%.6f", pos.Latitude, pos.Longitude)
			if pos.Accuracy != nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), " ±%.0fm", *pos.Accuracy)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), " source=%s\n", app.LocationSource)
			return nil
		},
	}
}

// ─── wallet ──────────────────────────────────────────────────────────────────

func newWalletCmd(flags *rootFlags) *cobra.Command {
	wallet := &cobra.Command{Use: "wallet", Short: "Coin balance"}

	wallet.AddCommand(&cobra.Command{
		Use:   "balance",
		Short: "Show the coin balance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			balance, err := app.WalletCLI.Balance(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), humanize.Comma(int64(balance)))
			return nil
		},
	})

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show ledger entries, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			entries, err := app.WalletCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no entries")
				return nil
			}
			for _, e := range entries {
				source := "local"
				if e.Confirmed {
					source = "host"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t+%s\t%s\t%s\n", e.At.Format(time.RFC3339), e.MissionID, humanize.Comma(int64(e.Reward)), humanize.Comma(int64(e.Balance)), source)
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum entries (0 for all)")
	wallet.AddCommand(history)
	return wallet
}

// ─── sessions ────────────────────────────────────────────────────────────────

func newSessionsCmd(flags *rootFlags) *cobra.Command {
	sessions := &cobra.Command{Use: "sessions", Short: "Tracking session journal"}

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show finished tracking sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			records, err := app.TrackingCLI.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
				return nil
			}
			for _, r := range records {
				dwell := time.Duration(r.AccumulatedDwellMillis) * time.Millisecond
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tdwell=%s\tsamples=%d\treward=%d\t%s\n",
					r.EndedAt.Format(time.RFC3339), r.MissionID, r.State, dwell, r.Samples, r.Reward, humanize.Time(r.EndedAt))
			}
			return nil
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "maximum sessions (0 for all)")
	sessions.AddCommand(history)
	return sessions
}

// ─── notify ──────────────────────────────────────────────────────────────────

func newNotifyCmd(flags *rootFlags) *cobra.Command {
	notify := &cobra.Command{Use: "notify", Short: "Admin push notifications"}

	var token, title, body string
	send := &cobra.Command{
		Use:   "send --token <fcm-token>",
		Short: "Send a notification to one device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token is required")
			}
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			res, err := app.NotifyCLI.Send(cmd.Context(), token, title, body)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent %q (status %d)\n%s\n", res.Title, res.Status, res.Response)
			return nil
		},
	}
	send.Flags().StringVar(&token, "token", "", "FCM device token")
	send.Flags().StringVar(&title, "title", "", "notification title")
	send.Flags().StringVar(&body, "body", "", "notification body")

	var bTitle, bBody string
	var yes bool
	broadcast := &cobra.Command{
		Use:   "broadcast",
		Short: "Send a notification to every user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("broadcast reaches every user; pass --yes to confirm")
			}
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			res, err := app.NotifyCLI.Broadcast(cmd.Context(), bTitle, bBody)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "broadcast %q (status %d)\n%s\n", res.Title, res.Status, res.Response)
			return nil
		},
	}
	broadcast.Flags().StringVar(&bTitle, "title", "", "notification title")
	broadcast.Flags().StringVar(&bBody, "body", "", "notification body")
	broadcast.Flags().BoolVar(&yes, "yes", false, "confirm sending to every user")

	notify.AddCommand(send, broadcast)
	return notify
}

// ─── bridge ──────────────────────────────────────────────────────────────────

func newBridgeCmd(flags *rootFlags) *cobra.Command {
	bridge := &cobra.Command{Use: "bridge", Short: "Embedding host bridge"}
	bridge.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Launch the configured host and print its capabilities",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer app.Close()
			w := cmd.OutOrStdout()
			if app.Bridge == nil {
				_, _ = fmt.Fprintln(w, "no host bridge (set host_bridge in bnk.yaml or BNK_HOST_BRIDGE)")
			} else {
				info := app.Bridge.Info()
				_, _ = fmt.Fprintf(w, "host: %s %s\ncapabilities: %s\n", info.Name, info.Version, strings.Join(info.Capabilities, ", "))
			}
			location := app.LocationSource
			if location == "" {
				location = "none"
			}
			_, _ = fmt.Fprintf(w, "sampler: %s\nlocation: %s\n", app.Sampler, location)
			return nil
		},
	})
	return bridge
}
