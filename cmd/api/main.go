package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "api",
		Short:         "FoodDash backend API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSeedCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
