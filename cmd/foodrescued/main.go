package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "foodrescued",
	Short: "FoodRescue dashboard gateway",
	Long:  "foodrescued is a server-rendered dashboard gateway for the FoodRescue food-donation marketplace: it owns user sessions, renders the role-based dashboard, and forwards every offer and reservation action to the FoodRescue REST backend.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/foodrescued.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
