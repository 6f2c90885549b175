package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	assistantx "github.com/tanakrit/eduadmin-agent/agent/assistant"
	registryx "github.com/tanakrit/eduadmin-agent/agent/registry"
	storex "github.com/tanakrit/eduadmin-agent/agent/store"
	configx "github.com/tanakrit/eduadmin-agent/pkg/config"
	_ "github.com/tanakrit/eduadmin-agent/pkg/logger/autoload"
	openrouterx "github.com/tanakrit/eduadmin-agent/pkg/openrouter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCfg := configx.MustNew[storex.PostgresConfig]("POSTGRES")
	docs, err := storex.NewPostgresStore(*pgCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize document store")
	}

	redisCfg := configx.MustNew[storex.RedisConfig]("REDIS")
	live, err := storex.NewRedisLiveStore(ctx, *redisCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize live store")
	}

	reg, err := registryx.New(docs, live)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize action registry")
	}

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	client := openrouterx.NewClient(*openRouterCfg)

	asst, err := assistantx.New(client, reg, docs, assistantx.Config{
		Model:       openRouterCfg.Model,
		Temperature: openRouterCfg.Temperature,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("initialize assistant")
	}

	log.Info().Str("model", openRouterCfg.Model).Msg("admin assistant ready")
	runREPL(ctx, asst)
}

func runREPL(ctx context.Context, asst *assistantx.Assistant) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("admin> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("admin> ")
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		reply, err := asst.Respond(ctx, line)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		} else {
			fmt.Println(reply)
		}
		fmt.Print("admin> ")
	}
}
