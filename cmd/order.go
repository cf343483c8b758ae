package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/espressobar/brewsched/core/complaint"
	"github.com/espressobar/brewsched/core/dispatch"
	"github.com/espressobar/brewsched/infra/logger"
	"github.com/espressobar/brewsched/internal/eventbus"
)

var (
	orderDrink   string
	orderPrep    int
	orderTier    int
	orderRegular bool
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Inject a test order into a local dispatcher and print the result",
	RunE:  runOrder,
}

func init() {
	orderCmd.Flags().StringVar(&orderDrink, "drink", "Latte", "drink name")
	orderCmd.Flags().IntVar(&orderPrep, "prep", 4, "preparation minutes")
	orderCmd.Flags().IntVar(&orderTier, "tier", 1, "loyalty tier")
	orderCmd.Flags().BoolVar(&orderRegular, "regular", false, "regular customer")
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, args []string) error {
	logg := logger.New("order-command")
	bus := eventbus.New()
	defer bus.Close()

	mgr, err := dispatch.NewManager(dispatch.Config{}, complaint.NewMemoryStore(), nil, bus, logg)
	if err != nil {
		return fmt.Errorf("dispatch manager: %w", err)
	}
	o := mgr.Submit(orderDrink, orderPrep, orderTier, orderRegular, "cli")
	fmt.Printf("order #%d (%s) status=%s priority=%.1f\n", o.ID, o.DrinkName, o.Status, o.Priority)
	fmt.Println(o.PriorityExplanation)
	return nil
}
