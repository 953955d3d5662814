package cmd

import (
	"os"

	"github.com/go-redis/redis"
	"github.com/spf13/cobra"

	"github.com/ostr00000/overwatch/internal/repository"
)

var rootCmd = &cobra.Command{
	Use:   "trendctl",
	Short: "Command line utility for inspecting persisted trend state",
}

func init() {
	rootCmd.PersistentFlags().String("redis", "localhost:6379", "Address of the redis instance holding trend state")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func trendRepository(cmd *cobra.Command) *repository.RedisTrendRepository {
	addr, _ := cmd.Flags().GetString("redis")
	db := redis.NewClient(&redis.Options{Addr: addr})
	return repository.NewRedisTrendRepository(db)
}
