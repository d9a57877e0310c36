package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hlsrip-cli/hlsrip/auth"
	"github.com/hlsrip-cli/hlsrip/color"
	"github.com/hlsrip-cli/hlsrip/icon"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(authCmd)
}

// authCmd groups the commands managing cached sessions.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the sessions cached per site",
}

func cacheLifetime() time.Duration {
	return time.Duration(viper.GetInt(key.AuthCacheLifetime)) * time.Hour
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authLoginCmd.Flags().StringP("url", "u", "", "Page of the site to log in to")
	authLoginCmd.Flags().String("login-url", "", "Page opened in the browser (default: --url)")
	lo.Must0(authLoginCmd.MarkFlagRequired("url"))
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in interactively and cache the session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			page     = lo.Must(cmd.Flags().GetString("url"))
			loginURL = lo.Must(cmd.Flags().GetString("login-url"))
			account  = auth.Account(page)
		)

		if loginURL == "" {
			loginURL = page
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		cache := auth.NewCache(account, cacheLifetime())
		provider := auth.Persist(&auth.Interactive{LoginURL: loginURL, Target: page}, cache)

		_, err := provider.Acquire(ctx)
		if err != nil {
			handleErr(fmt.Errorf("%w: %w", auth.ErrLoginFailed, err))
		}

		fmt.Printf("%s session for %s cached\n", icon.Get(icon.Lock), style.Fg(color.Purple)(account))
	},
}

func init() {
	authCmd.AddCommand(authLogoutCmd)
	authLogoutCmd.Flags().StringP("url", "u", "", "Page or host of the site to forget")
	authLogoutCmd.Flags().BoolP("all", "a", false, "Forget every cached session")
	authLogoutCmd.MarkFlagsMutuallyExclusive("url", "all")
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget a cached session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		var accounts []string

		if lo.Must(cmd.Flags().GetBool("all")) {
			saved, err := auth.Accounts()
			handleErr(err)
			accounts = lo.Keys(saved)
		} else if page := lo.Must(cmd.Flags().GetString("url")); page != "" {
			accounts = []string{auth.Account(page)}
		} else {
			handleErr(fmt.Errorf("%w: either --url or --all must be set", errUsage))
		}

		sort.Strings(accounts)
		for _, account := range accounts {
			handleErr(auth.NewCache(account, 0).Clear())
			fmt.Printf("%s forgot %s\n", icon.Get(icon.Success), style.Fg(color.Purple)(account))
		}
	},
}

func init() {
	authCmd.AddCommand(authStatusCmd)
	authStatusCmd.SetOut(os.Stdout)
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List the cached sessions and whether they are still fresh",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		saved, err := auth.Accounts()
		handleErr(err)

		if len(saved) == 0 {
			cmd.Println(style.Faint("no cached sessions"))
			return
		}

		accounts := lo.Keys(saved)
		sort.Strings(accounts)

		for _, account := range accounts {
			_, fresh, err := auth.NewCache(account, cacheLifetime()).Status()
			handleErr(err)

			state := lo.Ternary(fresh, style.Fg(color.Green)("fresh"), style.Fg(color.Red)("expired"))
			cmd.Printf("%s %s %s %s\n",
				icon.Get(icon.Lock),
				style.Bold(account),
				state,
				style.Faint("saved "+humanize.Time(saved[account].SavedAt)),
			)
		}
	},
}
