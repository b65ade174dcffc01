package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ncecere/model_directory/internal/catalog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		asJSON bool
		all    bool
	)
	cmd := &cobra.Command{
		Use:          "providerinfo [provider...]",
		Short:        "Print the display initial and logo for providers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if all {
				names = catalog.KnownProviders()
			}
			if len(names) == 0 {
				return errors.New("no providers given; pass names or --all")
			}
			identities := make([]catalog.Identity, 0, len(names))
			for _, name := range names {
				identities = append(identities, catalog.Resolve(name))
			}
			return render(cmd.OutOrStdout(), identities, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print identities as JSON")
	cmd.Flags().BoolVar(&all, "all", false, "print every known provider")
	return cmd
}

func render(w io.Writer, identities []catalog.Identity, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(identities); err != nil {
			return fmt.Errorf("encode identities: %w", err)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tINITIAL\tLOGO")
	for _, identity := range identities {
		logo := "-"
		if identity.HasLogo {
			logo = identity.LogoURL
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", identity.Provider, identity.Initial, logo)
	}
	return tw.Flush()
}
