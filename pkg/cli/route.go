package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"

	"github.com/relaydesk/relaydesk/pkg/cli/config"
	"github.com/relaydesk/relaydesk/pkg/domain/model"
	"github.com/relaydesk/relaydesk/pkg/repository/memory"
	"github.com/relaydesk/relaydesk/pkg/service/oracle"
	"github.com/urfave/cli/v3"
)

func cmdRoute() *cli.Command {
	var text string
	var sessionActive bool
	var llmCfg config.LLM

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "text",
			Usage:       "User message to classify",
			Required:    true,
			Destination: &text,
		},
		&cli.BoolFlag{
			Name:        "session-active",
			Usage:       "Classify as if a live agent session were active",
			Destination: &sessionActive,
		},
	}
	flags = append(flags, llmCfg.Flags()...)

	return &cli.Command{
		Name:    "route",
		Aliases: []string{"r"},
		Usage:   "Classify a message with the routing oracle and print the decision",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			llmClient, err := llmCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize LLM client")
			}
			if llmClient == nil {
				return goerr.New("LLM provider is not configured", goerr.V("provider", llmCfg.Provider()))
			}

			svc, err := oracle.New(llmClient, memory.New())
			if err != nil {
				return goerr.Wrap(err, "failed to initialize oracle service")
			}

			decision, err := svc.DecideRouting(ctx, &oracle.RoutingInput{
				Text:          text,
				SessionActive: sessionActive,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to decide routing")
			}

			printDecision(decision)
			return nil
		},
	}
}

func printDecision(d *model.RoutingDecision) {
	cyan := color.New(color.FgCyan)

	cyan.Print("respond_to_user:     ")
	fmt.Println(boolString(d.RespondToUser))
	cyan.Print("forward_to_external: ")
	fmt.Println(boolString(d.ForwardToExternal))
	if d.UserText != "" {
		cyan.Print("user_text:           ")
		fmt.Println(d.UserText)
	}
	if d.ExternalText != "" {
		cyan.Print("external_text:       ")
		fmt.Println(d.ExternalText)
	}
	if d.Explanation != "" {
		fmt.Println(color.HiBlackString(d.Explanation))
	}
}

func boolString(v bool) string {
	if v {
		return color.GreenString("true")
	}
	return color.RedString("false")
}
