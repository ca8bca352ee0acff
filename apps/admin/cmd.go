package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/torneros/elms/core/token"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db       *sqlx.DB
	tokenSvc *token.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  issuetokens [-mode reuse|new|selected] [-ids ID1,ID2] - issue tokens and email them")
	fmt.Println("  revoketoken -ids ID1,ID2 - delete the given students' tokens")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	issueCmd := flag.NewFlagSet("issuetokens", flag.ExitOnError)
	issueMode := issueCmd.String("mode", "", "Issuance mode: reuse, new or selected. Defaults from config.")
	issueIDs := issueCmd.String("ids", "", "Comma-separated student ids; required for selected mode.")

	revokeCmd := flag.NewFlagSet("revoketoken", flag.ExitOnError)
	revokeIDs := revokeCmd.String("ids", "", "Comma-separated student ids.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "issuetokens":
		if err := issueCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.issueTokens(*issueMode, splitIDs(*issueIDs))
	case "revoketoken":
		if err := revokeCmd.Parse(args[2:]); err != nil {
			return err
		}
		ids := splitIDs(*revokeIDs)
		if len(ids) == 0 {
			revokeCmd.Usage()
			return errHelp
		}
		return cli.revokeTokens(ids)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) issueTokens(mode string, ids []string) error {
	sent, err := cli.tokenSvc.SendTokenEmails(context.Background(), mode, ids)
	if err != nil {
		return err
	}
	logger.Printf("sent %d token emails\n", sent)
	return nil
}

func (cli *commandLine) revokeTokens(ids []string) error {
	deleted, err := cli.tokenSvc.Revoke(context.Background(), ids...)
	if err != nil {
		return err
	}
	logger.Printf("deleted %d tokens\n", deleted)
	return nil
}

func splitIDs(s string) []string {
	if s == "" {
		return nil
	}
	ids := make([]string, 0)
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
