package cmd

import (
	"encoding/json"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ostr00000/overwatch/internal/trending"
)

func init() {
	describeCmd := &cobra.Command{
		Use:   "describe",
		Short: "Retrieve information about persisted trends. Supported: trends, series",
	}
	describeCmd.AddCommand(describeTrendsCmd, describeSeriesCmd)
	rootCmd.AddCommand(describeCmd)
}

var describeTrendsCmd = &cobra.Command{
	Use:   "trends <subsystem>",
	Short: "List persisted trends of a subsystem with their sample counts.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		subsystem := args[0]
		repo := trendRepository(cmd)

		state, err := repo.GetRegistry(subsystem)
		if err != nil {
			log.Fatalf("Failed to read registry: %s", err)
		}
		names := make([]string, 0, len(state))
		for name := range state {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			var trendState trending.State
			if err := json.Unmarshal(state[name], &trendState); err != nil {
				log.Fatalf("Failed to decode trend %q: %s", name, err)
			}
			log.Infof("%s: %d samples held, %d total writes", name, len(trendState.Samples), trendState.WriteCount)
		}
	},
}

var describeSeriesCmd = &cobra.Command{
	Use:   "series <subsystem> <trend>",
	Short: "Print the persisted sample series of one trend as JSON.",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		subsystem, trend := args[0], args[1]
		repo := trendRepository(cmd)

		value, err := repo.GetTrend(subsystem, trend)
		if err != nil {
			log.Fatalf("Failed to read trend: %s", err)
		}
		var trendState trending.State
		if err := json.Unmarshal(value, &trendState); err != nil {
			log.Fatalf("Failed to decode trend: %s", err)
		}
		out, err := json.MarshalIndent(trendState, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode trend: %s", err)
		}
		log.Info(string(out))
	},
}
