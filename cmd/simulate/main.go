package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/hondana/buyback-mailer/internal/engine"
	"github.com/hondana/buyback-mailer/internal/roster"
)

func main() {
	var (
		rosterPath = flag.String("roster", "", "roster file (.csv or .json)")
		scenario   = flag.String("scenario", "", "run one scenario instead of all")
		policy     = flag.String("policy", "standard", "ranking policy (standard/optimizer)")
		ruleset    = flag.String("ruleset", "v2", "classification ruleset (v1/v2)")
		traceID    = flag.String("trace", "", "print the rule trace for this customer ID")
	)
	flag.Parse()

	if *rosterPath == "" {
		log.Fatal("-roster is required")
	}
	customers, err := roster.LoadFile(*rosterPath)
	if err != nil {
		log.Fatalf("Failed to load roster: %v", err)
	}

	now := time.Now().UTC()

	// Trace mode: explain one customer's classification per scenario.
	if *traceID != "" {
		for _, c := range customers {
			if c.ID == *traceID {
				var keys []string
				if *scenario != "" {
					keys = strings.Split(*scenario, ",")
				}
				fmt.Print(engine.TraceCustomer(c, keys, now))
				return
			}
		}
		log.Fatalf("Customer %s not found in roster", *traceID)
	}

	sim, err := engine.NewSimulator(engine.PlannerConfig{
		Budget:  engine.DefaultBudgetConfig(),
		Policy:  engine.Policy(*policy),
		Ruleset: engine.Ruleset(*ruleset),
		Workers: 4,
	})
	if err != nil {
		log.Fatalf("Simulator config error: %v", err)
	}

	var results []engine.ScenarioResult
	if *scenario != "" {
		res, err := sim.Run(*scenario, customers, now)
		if err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
		results = []engine.ScenarioResult{*res}
	} else {
		results, err = sim.RunAll(customers, now)
		if err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
	}

	fmt.Fprintf(os.Stdout, "roster: %d customers, policy %s, ruleset %s\n\n",
		len(customers), *policy, *ruleset)
	fmt.Print(engine.SummaryTable(results))
}
