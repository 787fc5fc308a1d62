package main

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/lmichelin/feedprep"
	"github.com/lmichelin/feedprep/config"
	"github.com/urfave/cli/v2"
)

var modeNames = map[string]feedprep.RouteType{
	"tram":       feedprep.RouteType_Tram,
	"subway":     feedprep.RouteType_Subway,
	"rail":       feedprep.RouteType_Rail,
	"bus":        feedprep.RouteType_Bus,
	"ferry":      feedprep.RouteType_Ferry,
	"cable_tram": feedprep.RouteType_CableTram,
	"aerial":     feedprep.RouteType_AerialLift,
	"funicular":  feedprep.RouteType_Funicular,
	"trolleybus": feedprep.RouteType_TrolleyBus,
	"monorail":   feedprep.RouteType_Monorail,
}

func main() {
	configFlag := &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to a YAML pipeline configuration file",
	}
	app := &cli.App{
		Name:  "feedprep",
		Usage: "normalize transit schedule feeds and compute transfers",
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "load a feed and report what pruning would remove",
				ArgsUsage: "path",
				Action: func(ctx *cli.Context) error {
					feed, err := loadFeed(ctx)
					if err != nil {
						return err
					}
					before := feed.TotalRows()
					feed.SimplifyStations()
					feed.Prune("check")
					printCounts(feed)
					fmt.Printf("Removed %s of %s rows\n",
						color.RedString("%d", before-feed.TotalRows()),
						color.CyanString("%d", before))
					printAudit(feed)
					return nil
				},
			},
			{
				Name:      "normalize",
				Usage:     "normalize a feed and write it back out",
				ArgsUsage: "path",
				Flags: []cli.Flag{
					configFlag,
					&cli.StringFlag{
						Name:     "out",
						Aliases:  []string{"o"},
						Usage:    "output directory or .zip path",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "zip",
						Usage: "write a zip archive instead of a directory",
					},
				},
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					feed, err := loadFeed(ctx)
					if err != nil {
						return err
					}
					if err := normalize(feed, cfg); err != nil {
						return err
					}
					printCounts(feed)
					out := ctx.String("out")
					if err := feed.Export(out, ctx.Bool("zip")); err != nil {
						return err
					}
					fmt.Printf("Wrote %s\n", color.GreenString(out))
					return nil
				},
			},
			{
				Name:      "transfers",
				Usage:     "normalize a feed and print matched transfers",
				ArgsUsage: "path",
				Flags:     []cli.Flag{configFlag},
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}
					feed, err := loadFeed(ctx)
					if err != nil {
						return err
					}
					if err := normalize(feed, cfg); err != nil {
						return err
					}
					records, err := feed.MatchTransfers(transferConfig(cfg))
					if err != nil {
						return err
					}
					for _, rec := range records {
						printTransfer(rec)
					}
					fmt.Printf("%s transfers\n", color.CyanString("%d", len(records)))
					return nil
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func loadFeed(ctx *cli.Context) (*feedprep.Feed, error) {
	if ctx.Args().Len() == 0 {
		return nil, fmt.Errorf("a path to the feed was not provided")
	}
	return feedprep.Load(ctx.Args().First())
}

func loadConfig(ctx *cli.Context) (*config.Pipeline, error) {
	if path := ctx.String("config"); path != "" {
		return config.Load(path)
	}
	return config.Default(), nil
}

func normalize(feed *feedprep.Feed, cfg *config.Pipeline) error {
	feed.SimplifyStations()
	feed.DropBadCoordinates(byRouteType(cfg.MaxSpeed))
	if err := feed.NormalizeCalendar(cfg.Year); err != nil {
		return err
	}
	feed.NormalizeTrips()
	feed.Prune("normalize")
	feed.SetDefaults(rand.New(rand.NewSource(cfg.Seed)))
	return nil
}

func transferConfig(cfg *config.Pipeline) feedprep.TransferConfig {
	return feedprep.TransferConfig{
		MaxDistance:    byRouteType(cfg.Transfers.MaxDistance),
		MinDwell:       byRouteType(cfg.Transfers.MinDwell),
		WalkSpeed:      cfg.Transfers.WalkSpeed,
		MaxWait:        cfg.Transfers.MaxWait,
		ReverseWait:    cfg.Transfers.ReverseWait,
		KeepSameAgency: cfg.Transfers.KeepSameAgency,
	}
}

func byRouteType(mv config.ModeValues) feedprep.ByRouteType {
	b := feedprep.ByRouteType{Default: mv.Default}
	if len(mv.Modes) > 0 {
		b.ByType = map[feedprep.RouteType]float64{}
		for name, v := range mv.Modes {
			if t, ok := modeNames[name]; ok {
				b.ByType[t] = v
			}
		}
	}
	return b
}

func printCounts(feed *feedprep.Feed) {
	counts := feed.Description()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-16s %s\n", name, color.CyanString("%d", counts[name]))
	}
}

func printAudit(feed *feedprep.Feed) {
	for _, rec := range feed.Audit.Records {
		label := rec.Id
		if rec.Name != "" {
			label = fmt.Sprintf("%s (%s)", rec.Id, rec.Name)
		}
		fmt.Printf("- %s %s: %s\n",
			color.YellowString(string(rec.Entity)), label, rec.Reason)
	}
}

func printTransfer(rec feedprep.TransferRecord) {
	sc := color.New(color.FgGreen)
	rc := color.New(color.FgCyan)
	rev := ""
	if rec.ReverseWaitMinutes != nil {
		rev = fmt.Sprintf("  missed by %dm", *rec.ReverseWaitMinutes)
	}
	fmt.Printf("%s %s -> %s %s  at %s  %.0fm walk  wait %dm%s\n",
		rc.Sprint(rec.FromRouteName), sc.Sprint(rec.FromStopName),
		rc.Sprint(rec.ToRouteName), sc.Sprint(rec.ToStopName),
		formatClock(rec.Time), rec.Distance, rec.WaitMinutes, rev)
}

func formatClock(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/3600, total/60%60)
}
