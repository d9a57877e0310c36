package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/hlsrip-cli/hlsrip/assemble"
	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/color"
	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/grab"
	"github.com/hlsrip-cli/hlsrip/history"
	"github.com/hlsrip-cli/hlsrip/icon"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/manifest"
	"github.com/hlsrip-cli/hlsrip/network"
	"github.com/hlsrip-cli/hlsrip/retrieve"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/hlsrip-cli/hlsrip/tui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func init() {
	rootCmd.AddCommand(grabCmd)

	addSourceFlags(grabCmd.Flags())
	addSessionFlags(grabCmd.Flags())

	grabCmd.Flags().StringP("out", "o", "", "Path of the assembled file; the session tag is appended to its name")
	grabCmd.Flags().StringP("tag", "t", "", "Session tag naming the segment directory (default: current timestamp)")
	grabCmd.Flags().Bool("json", false, "Print the run report as JSON on stdout")

	grabCmd.Flags().String("outdir", "", "Directory receiving one segment directory per session")
	lo.Must0(viper.BindPFlag(key.GrabOutputDir, grabCmd.Flags().Lookup("outdir")))

	grabCmd.Flags().IntP("concurrency", "c", 0, "Number of segments fetched in parallel")
	lo.Must0(viper.BindPFlag(key.GrabConcurrency, grabCmd.Flags().Lookup("concurrency")))

	grabCmd.Flags().Int("retries", 0, "Attempts per segment before it is reported as failed")
	lo.Must0(viper.BindPFlag(key.GrabRetries, grabCmd.Flags().Lookup("retries")))

	grabCmd.Flags().Int("timeout", 0, "Bound of the whole run, in seconds")
	lo.Must0(viper.BindPFlag(key.GrabTimeout, grabCmd.Flags().Lookup("timeout")))

	grabCmd.Flags().Int("detect-window", 0, "How long to wait for a playable manifest, in seconds")
	lo.Must0(viper.BindPFlag(key.GrabDetectWindow, grabCmd.Flags().Lookup("detect-window")))

	grabCmd.Flags().String("transport", "", "Segment transport: http or curl")
	lo.Must0(viper.BindPFlag(key.GrabTransport, grabCmd.Flags().Lookup("transport")))
	lo.Must0(grabCmd.RegisterFlagCompletionFunc("transport", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{transportHTTP, transportCurl}, cobra.ShellCompDirectiveNoFileComp
	}))

	grabCmd.Flags().String("remuxer", "", "Remux backend: auto, ffmpeg or concat")
	lo.Must0(viper.BindPFlag(key.AssembleRemuxer, grabCmd.Flags().Lookup("remuxer")))
	lo.Must0(grabCmd.RegisterFlagCompletionFunc("remuxer", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{assemble.RemuxerAuto, assemble.RemuxerFFmpeg, assemble.RemuxerConcat}, cobra.ShellCompDirectiveNoFileComp
	}))
}

// envCookie holds a Cookie header, so it stays out of the shell history.
var envCookie = strings.ToUpper(constant.App) + "_COOKIE"

const (
	transportHTTP = "http"
	transportCurl = "curl"
)

// grabCmd runs the whole pipeline for one video.
var grabCmd = &cobra.Command{
	Use:   "grab",
	Short: "Download every segment of a video and assemble them into one file",
	Long: `Download every segment of a video and assemble them into one file.

The manifest is taken from --manifest, or picked from a HAR file exported from
the browser's network panel while the video played (--har). Only a window of
segments needs to be listed in it: the full numeric range is inferred and
fetched with the session's cookies.`,
	Example: `  hlsrip grab --url https://cafe.example/articles/1 --har capture.har --out lecture.mp4
  hlsrip grab --manifest 'https://cdn.example/v/ABC.m3u8?token=x' --cookie "$COOKIE" --out lecture.ts`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		output := lo.Must(cmd.Flags().GetString("out"))
		if output == "" {
			handleErr(fmt.Errorf("%w: --out is required", errUsage))
		}

		discoverer, page, err := discovererFromFlags(cmd.Flags())
		handleErr(err)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		client := network.New(network.Options{Fingerprint: viper.GetBool(key.NetworkFingerprint)})

		remuxer, err := assemble.Select(viper.GetString(key.AssembleRemuxer), output)
		if err != nil {
			handleErr(fmt.Errorf("%w: %w", errUsage, err))
		}

		pipeline := &grab.Pipeline{
			Page:         page,
			Discoverer:   discoverer,
			Fetcher:      &manifest.Fetcher{Client: client},
			Assembler:    &assemble.Assembler{Remuxer: remuxer},
			OutputDir:    viper.GetString(key.GrabOutputDir),
			Tag:          lo.Must(cmd.Flags().GetString("tag")),
			Output:       output,
			Timeout:      seconds(key.GrabTimeout),
			DetectWindow: seconds(key.GrabDetectWindow),
			MaxSegments:  viper.GetInt(key.GrabMaxSegments),
		}

		report, err := tui.Run(ctx, func(ctx context.Context, events tui.Events) (*grab.Report, error) {
			pipeline.OnStage = events.Stage
			pipeline.Identity, pipeline.Auth, pipeline.Cache = sessionFromFlags(cmd.Flags(), page, events.Suspend)
			transport, err := transportFromConfig(client, events.Progress)
			if err != nil {
				return nil, err
			}
			pipeline.Transport = transport
			return pipeline.Run(ctx)
		})

		if report != nil && viper.GetBool(key.HistorySave) {
			if err := history.Save(report); err != nil {
				log.Warnf("save history: %s", err)
			}
		}

		if lo.Must(cmd.Flags().GetBool("json")) && report != nil {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			lo.Must0(encoder.Encode(report))
		}

		if report != nil && report.SessionDir != "" {
			fmt.Fprintf(os.Stderr, "%s segments kept in %s\n", icon.Get(icon.Folder), report.SessionDir)
		}

		if errors.Is(err, retrieve.ErrAuthExpired) {
			fmt.Fprintf(os.Stderr, "%s the session expired mid-run, try again with --fresh-login\n", icon.Get(icon.Warn))
		}

		handleErr(err)

		fmt.Fprintf(os.Stderr, "%s %s %s\n", icon.Get(icon.Success), style.Fg(color.Green)(report.Output), style.Faint(report.Summary()))
	},
}

func addSourceFlags(flags *pflag.FlagSet) {
	flags.StringP("url", "u", "", "Web page the video plays on; seeds referer, origin and the login page")
	flags.StringP("manifest", "m", "", "Manifest URL, when already known")
	flags.String("har", "", "HAR file recorded while the video played")
}

func addSessionFlags(flags *pflag.FlagSet) {
	flags.String("cookie", "", "Cookie header of the session (also HLSRIP_COOKIE)")
	flags.String("user-agent", "", "User agent of the session")
	flags.String("referer", "", "Referer sent with every request (default: --url)")
	flags.String("origin", "", "Origin sent with every request (default: origin of the referer)")
	flags.Bool("fresh-login", false, "Ignore the cached session and log in again")

	flags.String("login-url", "", "Page opened in the browser for an interactive login")
}

func discovererFromFlags(flags *pflag.FlagSet) (manifest.Discoverer, string, error) {
	var (
		page        = lo.Must(flags.GetString("url"))
		manifestURL = lo.Must(flags.GetString("manifest"))
		harPath     = lo.Must(flags.GetString("har"))
		hasManifest = manifestURL != ""
		hasHAR      = harPath != ""
		missingPage = page == ""
	)

	switch {
	case hasManifest && hasHAR:
		return nil, "", fmt.Errorf("%w: --manifest and --har are mutually exclusive", errUsage)
	case hasManifest:
		if missingPage {
			page = manifestURL
		}
		return manifest.Direct{URL: manifestURL}, page, nil
	case hasHAR:
		if missingPage {
			return nil, "", fmt.Errorf("%w: --url is required with --har", errUsage)
		}
		return manifest.HAR{Path: harPath}, page, nil
	default:
		return nil, "", fmt.Errorf("%w: one of --manifest or --har is required", errUsage)
	}
}

// sessionFromFlags returns the identity given by flags and the chain of session
// sources: flags, then the cache, then an interactive login run through foreground.
func sessionFromFlags(flags *pflag.FlagSet, page string, foreground func(fn func() error) error) (auth.Context, auth.Provider, *auth.Cache) {
	cookie := lo.Must(flags.GetString("cookie"))
	if cookie == "" {
		cookie = os.Getenv(envCookie)
	}

	identity := auth.Context{
		UserAgent: lo.Must(flags.GetString("user-agent")),
		Referer:   lo.Must(flags.GetString("referer")),
		Origin:    lo.Must(flags.GetString("origin")),
	}

	static := auth.Static(identity)
	static.Cookie = cookie

	cache := auth.NewCache(auth.Account(page), time.Duration(viper.GetInt(key.AuthCacheLifetime))*time.Hour)

	chain := auth.Chain{static}
	if !lo.Must(flags.GetBool("fresh-login")) {
		chain = append(chain, cache)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		loginURL := lo.Must(flags.GetString("login-url"))
		if loginURL == "" {
			loginURL = lo.Ternary(viper.GetString(key.AuthLoginURL) != "", viper.GetString(key.AuthLoginURL), page)
		}
		var login auth.Provider = auth.Persist(&auth.Interactive{LoginURL: loginURL, Target: page}, cache)
		if foreground != nil {
			login = auth.Foreground(login, foreground)
		}
		chain = append(chain, login)
	}

	return identity, chain, cache
}

func transportFromConfig(client *http.Client, progress retrieve.Progress) (retrieve.Transport, error) {
	switch name := viper.GetString(key.GrabTransport); name {
	case transportHTTP, "":
		return &retrieve.HTTP{
			Client:         client,
			Concurrency:    viper.GetInt(key.GrabConcurrency),
			Attempts:       viper.GetInt(key.GrabRetries),
			Backoff:        time.Duration(viper.GetInt(key.GrabBackoffMillis)) * time.Millisecond,
			SegmentTimeout: seconds(key.GrabSegmentTimeout),
			Progress:       progress,
		}, nil
	case transportCurl:
		return &retrieve.Curl{
			Binary:   viper.GetString(key.AssembleCurl),
			Attempts: viper.GetInt(key.GrabRetries),
			Progress: progress,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown transport %q", errUsage, name)
	}
}

func seconds(k string) time.Duration {
	return time.Duration(viper.GetInt(k)) * time.Second
}
