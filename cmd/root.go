package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/citsci/scirec/internal/utils"
	"github.com/citsci/scirec/pkg/catalog"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scirec",
	Short: "Sync and recommend citizen-science opportunities.",
	Long: `scirec keeps a local cache of the remote opportunity catalog and
recommends the nearest active opportunities to a client's network address.

The cache is a flat CSV file reconciled against the catalog incrementally;
distances are geodesic on the WGS-84 ellipsoid.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scirec.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".scirec")
		viper.SetConfigType("yaml")
	}

	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := home + "/.scirec.yaml"
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				fmt.Printf("Error creating config file: %s", err)
			}
		}
	}

	// Set default values for all keys
	viper.SetDefault("catalog.base_url", "https://scistarter.org/api/")
	viper.SetDefault("catalog.opportunities_endpoint", "opportunities/")
	viper.SetDefault("catalog.opportunities_json_key", "matches")
	viper.SetDefault("ipinfo.base_url", "https://ipinfo.io/")
	viper.SetDefault("ipinfo.token", "")
	viper.SetDefault("cache.path", "opportunities.csv")
	viper.SetDefault("cache.fields", catalog.DefaultDetailFields)
	viper.SetDefault("journal.path", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
