package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hlsrip-cli/hlsrip/color"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/manifest"
	"github.com/hlsrip-cli/hlsrip/network"
	"github.com/hlsrip-cli/hlsrip/segment"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	addSourceFlags(inspectCmd.Flags())
	addSessionFlags(inspectCmd.Flags())
	inspectCmd.Flags().BoolP("json", "j", false, "Print the result as JSON")

	inspectCmd.SetOut(os.Stdout)
}

// inspection is what inspect learned about a manifest without downloading anything.
type inspection struct {
	Manifest string           `json:"manifest"`
	Summary  manifest.Summary `json:"summary"`
	Pattern  segment.Pattern  `json:"pattern"`
	Template string           `json:"template"`
	First    string           `json:"first"`
	Last     string           `json:"last"`
	Count    uint64           `json:"count"`
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the segment range a grab would download",
	Long: `Fetch the manifest, detect its segment numbering and print the inferred range.
Nothing but the manifest is downloaded.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		discoverer, page, err := discovererFromFlags(cmd.Flags())
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		window := time.Duration(viper.GetInt(key.GrabDetectWindow)) * time.Second
		obs, err := manifest.Observe(ctx, discoverer, window)
		handleErr(err)

		identity, provider, _ := sessionFromFlags(cmd.Flags(), page, nil)
		ac, err := grab.Session(ctx, obs, identity, provider, page)
		handleErr(err)

		fetcher := &manifest.Fetcher{Client: network.New(network.Options{Fingerprint: viper.GetBool(key.NetworkFingerprint)})}
		text, err := fetcher.Fetch(ctx, obs, ac)
		if err != nil && errors.Is(err, manifest.ErrUnavailable) && obs.Playable() {
			text, err = obs.Body, nil
		}
		handleErr(err)

		result, err := inspect(obs.URL, text)
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(result))
			return
		}

		printInspection(cmd, result)
	},
}

func inspect(manifestURL, text string) (*inspection, error) {
	pattern, err := segment.Detect(text)
	if err != nil {
		return nil, err
	}

	spec, err := segment.BuildRangeLimit(manifestURL, pattern, viper.GetInt(key.GrabMaxSegments))
	if err != nil {
		return nil, err
	}

	// A manifest the playlist decoder rejects can still carry a usable numbering.
	summary, err := manifest.Summarize(text)
	if err != nil {
		summary = manifest.Summary{Kind: "unknown"}
	}

	return &inspection{
		Manifest: manifestURL,
		Summary:  summary,
		Pattern:  pattern,
		Template: spec.Template(),
		First:    spec.URL(pattern.First),
		Last:     spec.URL(pattern.Last),
		Count:    spec.Count(),
	}, nil
}

func printInspection(cmd *cobra.Command, r *inspection) {
	label := style.New().Bold(true).Foreground(color.Purple).Render
	line := func(name, value string) {
		cmd.Printf("%s %s\n", label(fmt.Sprintf("%-10s", name)), value)
	}

	line("Manifest", r.Manifest)
	line("Playlist", fmt.Sprintf("%s, %s listed", r.Summary.Kind, humanize.Comma(int64(r.Summary.Segments))))
	if r.Summary.Duration > 0 {
		line("Listed", (time.Duration(r.Summary.Duration * float64(time.Second))).Round(time.Second).String())
	}
	line("Range", fmt.Sprintf("%d to %d, %s segments", r.Pattern.First, r.Pattern.Last, humanize.Comma(int64(r.Count))))
	line("Template", style.Fg(color.Yellow)(r.Template))
	line("First", r.First)
	line("Last", r.Last)
}
