package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BruksfildServices01/viewing-scheduler/internal/geo"
	ucOffice "github.com/BruksfildServices01/viewing-scheduler/internal/usecase/office"
)

func newSeedOfficeCmd() *cobra.Command {
	var name, postcode string

	c := &cobra.Command{
		Use:   "seed-office",
		Short: "Create the main office, resolving its postcode",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if name == "" {
				name = cfg.MainOfficeName
			}
			if postcode == "" {
				postcode = cfg.MainOfficePostcode
			}

			client := geo.NewClient(geo.Options{
				PostcodeURL: cfg.PostcodeAPIURL,
				Timeout:     cfg.GeoTimeout,
			}, log.Named("geo"))

			office, err := ucOffice.NewEnsureOffice(db, client, log).Execute(context.Background(), name, postcode)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "office %q at %s (%.5f, %.5f)\n",
				office.Name, office.Postcode, office.Latitude, office.Longitude)
			return nil
		},
	}

	c.Flags().StringVar(&name, "name", "", "office name (defaults to MAIN_OFFICE_NAME)")
	c.Flags().StringVar(&postcode, "postcode", "", "office postcode (defaults to MAIN_OFFICE_POSTCODE)")
	return c
}
