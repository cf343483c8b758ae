package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/espressobar/brewsched/config"
	"github.com/espressobar/brewsched/simulator"
)

var simTrials int

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run synthetic workload trials and print the results as JSON",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().IntVar(&simTrials, "trials", 1, "number of independent trials")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	simCfg := simulator.Config{}
	if _, err := os.Stat(cfgPath); err == nil {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		simCfg = cfg.Simulator
	}
	simCfg.SetDefaults()

	results, err := simulator.Run(simCfg, simTrials)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
