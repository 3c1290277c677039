package main

import "github.com/spf13/cobra"

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the todos table if it does not exist, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntime(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			s, err := openStore(cmd.Context(), cfg.DatabaseURL, logger.WithPrefix("store"))
			if err != nil {
				return err
			}
			return s.Close()
		},
	}
}
