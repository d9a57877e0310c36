// Package main is the entry point for the hlsrip application.
package main

import (
	"time"

	"github.com/hlsrip-cli/hlsrip/cmd"
	"github.com/hlsrip-cli/hlsrip/config"
	"github.com/hlsrip-cli/hlsrip/log"
	"github.com/hlsrip-cli/hlsrip/where"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// Old daily logs are pruned in the background; an early exit simply skips it.
	go log.Prune(where.Logs(), log.Retention, time.Now())

	cmd.Execute()
}
