// Package main is the entrypoint for the cadence-client command line tool.
package main

import (
	"fmt"
	"log"
	"os"
)

const usage = `Usage: cadence-client <command> [args]
       cadence-client connect                      Connect to the proxy and stay connected until interrupted.
       cadence-client ping                         Send one heartbeat and print the round-trip time.
       cadence-client domain register <name> [flags]
       cadence-client domain describe <name>       Print the domain as JSON.
       cadence-client domain update <name> [flags]
       cadence-client cancel <request-id>          Ask the proxy to cancel an in-flight request.
       cadence-client journal [-operation op] [-error-type t] [-limit n]
       cadence-client migrate up                   Apply pending journal migrations.
       cadence-client migrate status               Show applied and pending migrations.
       cadence-client clear                        Truncate the operation journal; schema is preserved.

Domain flags:
  -description text   -owner email   -retention days   -metrics

Environment: CADENCE_PROXY_URL, CADENCE_DOMAIN, CADENCE_ENDPOINTS, CADENCE_PROXY_BINARY,
COMMS_URL (lifecycle events and control requests for connect), CADENCE_CONTROL_SUBJECT, DATABASE_URL (operation journal; required for migrate, clear, journal),
MIGRATION_PATH, LOG_LEVEL.
`

func main() {
	args := os.Args[1:]
	cmd := ""
	if len(args) > 0 {
		cmd = args[0]
	}

	var err error
	switch cmd {
	case "connect":
		err = runConnect()
	case "ping":
		err = runPing()
	case "domain":
		if len(args) < 3 {
			log.Fatalf("cadence-client domain: require subcommand and name (register, describe, update)")
		}
		err = runDomain(args[1], args[2], args[3:])
	case "cancel":
		if len(args) < 2 {
			log.Fatalf("cadence-client cancel: require request id")
		}
		err = runCancel(args[1])
	case "journal":
		err = runJournal(args[1:])
	case "migrate":
		if len(args) < 2 {
			log.Fatalf("cadence-client migrate: require subcommand (up, status)")
		}
		switch args[1] {
		case "up":
			err = runMigrateUp()
		case "status":
			err = runMigrateStatus()
		default:
			log.Fatalf("cadence-client migrate: unknown subcommand %q (use up, status)", args[1])
		}
	case "clear":
		err = runClear()
	case "help", "-h", "--help", "":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q.\n%s", cmd, usage)
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("cadence-client %s: %v", cmd, err)
	}
}
